package jsondb

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rainydays/core/internal/domain"
	"github.com/rainydays/core/internal/store"
)

func testStore(t *testing.T) (*EventStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "events.json")
	return NewEventStore(path), path
}

func makeEvent(name string) domain.Event {
	return domain.Event{
		ID:          uuid.New(),
		Name:        name,
		DateTime:    time.Date(2026, time.June, 21, 18, 30, 0, 0, time.UTC),
		Description: "desc",
		Location:    "123 Main Street",
		Price:       12.5,
		Audience:    domain.AudienceAll,
		MinAge:      18,
		MaxAge:      30,
		ImageRef:    "https://img.example/e.png",
	}
}

func TestLoad_MissingFile(t *testing.T) {
	s, _ := testStore(t)
	events, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestLoad_MalformedFile(t *testing.T) {
	s, path := testStore(t)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := s.Load(context.Background())
	var decodeErr *store.DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, path, decodeErr.Path)
	assert.Empty(t, s.List(context.Background()))
}

func TestCreateAndLoad_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s, path := testStore(t)

	want := []domain.Event{makeEvent("first"), makeEvent("second"), makeEvent("third")}
	for _, e := range want {
		require.NoError(t, s.Create(ctx, e))
	}

	// A fresh store over the same file must observe the same ordered list.
	fresh := NewEventStore(path)
	got, err := fresh.Load(ctx)
	require.NoError(t, err)

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round-trip mismatch (-want +got):\n%s", diff)
	}
}

func TestCreate_AssignsID(t *testing.T) {
	ctx := context.Background()
	s, _ := testStore(t)

	e := makeEvent("no id")
	e.ID = uuid.Nil
	require.NoError(t, s.Create(ctx, e))

	list := s.List(ctx)
	require.Len(t, list, 1)
	assert.NotEqual(t, uuid.Nil, list[0].ID)
}

func TestDelete_RemovesAndPersists(t *testing.T) {
	ctx := context.Background()
	s, path := testStore(t)

	a, b := makeEvent("a"), makeEvent("b")
	require.NoError(t, s.Create(ctx, a))
	require.NoError(t, s.Create(ctx, b))

	require.NoError(t, s.Delete(ctx, a.ID))

	list := s.List(ctx)
	require.Len(t, list, 1)
	assert.Equal(t, b.ID, list[0].ID)

	fresh := NewEventStore(path)
	got, err := fresh.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, b.ID, got[0].ID)
}

func TestDelete_UnknownIDIsNoOp(t *testing.T) {
	ctx := context.Background()
	s, path := testStore(t)

	require.NoError(t, s.Create(ctx, makeEvent("keep")))
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, uuid.New()))

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after, "document must be untouched")
	assert.Len(t, s.List(ctx), 1)
}

func TestCreate_PersistFailureKeepsMemory(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	// Point the store at a path whose parent is a file, forcing the write to fail.
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))
	s := NewEventStore(filepath.Join(blocker, "events.json"))

	err := s.Create(ctx, makeEvent("doomed write"))
	var persistErr *store.PersistError
	require.ErrorAs(t, err, &persistErr)

	// In-memory state stays authoritative for the session.
	assert.Len(t, s.List(ctx), 1)
}

func TestList_ReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s, _ := testStore(t)
	require.NoError(t, s.Create(ctx, makeEvent("original")))

	list := s.List(ctx)
	list[0].Name = "mutated"

	assert.Equal(t, "original", s.List(ctx)[0].Name)
}
