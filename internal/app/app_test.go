package app

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rainydays/core/internal/domain"
	"github.com/rainydays/core/internal/notify"
	"github.com/rainydays/core/internal/observability"
	"github.com/rainydays/core/internal/store/jsondb"
)

const waitFor = 2 * time.Second
const tick = 10 * time.Millisecond

type stubForecaster struct {
	mu       sync.Mutex
	snapshot domain.ForecastSnapshot
	err      error
	calls    int
}

func (f *stubForecaster) Fetch(_ context.Context, _ domain.Position) (domain.ForecastSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.snapshot, f.err
}

func (f *stubForecaster) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type stubUploader struct {
	url string
	err error
}

func (u *stubUploader) Upload(_ context.Context, _ []byte, _ string) (string, error) {
	return u.url, u.err
}

type fixture struct {
	app    *App
	clock  *clockwork.FakeClock
	fc     *stubForecaster
	up     *stubUploader
	path   string
	cancel context.CancelFunc
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clock := clockwork.NewFakeClock()
	fc := &stubForecaster{
		snapshot: domain.ForecastSnapshot{
			City: domain.City{Name: "Sofia", Country: "BG"},
			Periods: []domain.ForecastPeriod{{
				Temperature: 21.7,
				Conditions:  []domain.Condition{{Category: "Clear", Description: "clear sky"}},
			}},
		},
	}
	up := &stubUploader{url: "https://img.example/hosted.png"}
	path := filepath.Join(t.TempDir(), "events.json")

	a := New(Options{
		Store:        jsondb.NewEventStore(path),
		Forecasts:    fc,
		Uploader:     up,
		Banner:       notify.NewController(5*time.Second, clock, nil),
		ViewportSpan: 0.05,
		Logger:       logger,
		Metrics:      observability.NewMetricsForTesting(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = a.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	require.Eventually(t, func() bool {
		return a.CheckReadiness(context.Background()) == nil
	}, waitFor, tick)

	return &fixture{app: a, clock: clock, fc: fc, up: up, path: path, cancel: cancel}
}

func TestRun_LoadsExistingEvents(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	path := filepath.Join(t.TempDir(), "events.json")

	seed := []domain.Event{{ID: uuid.New(), Name: "Beach Party", ImageRef: "beach.png"}}
	data, err := json.Marshal(seed)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	a := New(Options{
		Store:        jsondb.NewEventStore(path),
		Banner:       notify.NewController(5*time.Second, clockwork.NewFakeClock(), nil),
		ViewportSpan: 0.05,
		Logger:       logger,
		Metrics:      observability.NewMetricsForTesting(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = a.Run(ctx) }()

	require.Eventually(t, func() bool {
		return a.CheckReadiness(ctx) == nil
	}, waitFor, tick)

	events := a.Events(ctx)
	require.Len(t, events, 1)
	assert.Equal(t, "Beach Party", events[0].Name)
}

func TestRun_MalformedStoreDegradesToEmpty(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	path := filepath.Join(t.TempDir(), "events.json")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o644))

	a := New(Options{
		Store:        jsondb.NewEventStore(path),
		Banner:       notify.NewController(5*time.Second, clockwork.NewFakeClock(), nil),
		ViewportSpan: 0.05,
		Logger:       logger,
		Metrics:      observability.NewMetricsForTesting(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = a.Run(ctx) }()

	require.Eventually(t, func() bool {
		return a.CheckReadiness(ctx) == nil
	}, waitFor, tick)
	assert.Empty(t, a.Events(ctx))
}

func TestFirstFixCachesSnapshotAndAdvises(t *testing.T) {
	f := newFixture(t)

	f.app.Tracker().HandleFix(domain.Position{Latitude: 42.6977, Longitude: 23.3219})

	require.Eventually(t, func() bool {
		return f.app.Snapshot() != nil
	}, waitFor, tick)
	assert.Equal(t, 1, f.fc.callCount())

	f.app.ShowAdvisory()
	require.Eventually(t, func() bool {
		return f.app.Advisory().Visible
	}, waitFor, tick)
	assert.Equal(t, "Temperature: 21°C. It's sunny outside, a perfect day for sunglasses!", f.app.Advisory().Message)

	region, ok := f.app.Region()
	require.True(t, ok)
	assert.Equal(t, 42.6977, region.Center.Latitude)
}

func TestShowAdvisory_WithoutSnapshot(t *testing.T) {
	f := newFixture(t)

	f.app.ShowAdvisory()
	require.Eventually(t, func() bool {
		return f.app.Advisory().Visible
	}, waitFor, tick)
	assert.Equal(t, domain.AdvisoryUnavailable, f.app.Advisory().Message)
}

func TestFetchFailureKeepsPreviousSnapshot(t *testing.T) {
	f := newFixture(t)

	f.app.Tracker().HandleFix(domain.Position{Latitude: 1, Longitude: 2})
	require.Eventually(t, func() bool {
		return f.app.Snapshot() != nil
	}, waitFor, tick)

	f.fc.mu.Lock()
	f.fc.err = errors.New("api down")
	f.fc.mu.Unlock()

	f.app.Recenter()
	require.Eventually(t, func() bool {
		return f.fc.callCount() == 2
	}, waitFor, tick)

	// Stale-but-present beats cleared: the old snapshot stays cached.
	snapshot := f.app.Snapshot()
	require.NotNil(t, snapshot)
	assert.Equal(t, "Sofia", snapshot.City.Name)
}

func TestCreateEvent_UploadsThenPersists(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	event, err := f.app.CreateEvent(ctx, CreateRequest{
		Name:      "Guitar Competition",
		DateTime:  time.Date(2026, time.September, 5, 19, 0, 0, 0, time.UTC),
		Price:     10,
		Audience:  domain.AudienceAll,
		MinAge:    18,
		MaxAge:    30,
		ImageData: []byte("raw-image"),
		ImageName: "guitar.png",
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, event.ID)
	assert.Equal(t, "https://img.example/hosted.png", event.ImageRef)

	require.Eventually(t, func() bool {
		return len(f.app.Events(ctx)) == 1
	}, waitFor, tick)

	// The document on disk reflects the create.
	require.Eventually(t, func() bool {
		data, err := os.ReadFile(f.path)
		if err != nil {
			return false
		}
		var persisted []domain.Event
		return json.Unmarshal(data, &persisted) == nil && len(persisted) == 1
	}, waitFor, tick)
}

func TestCreateEvent_UploadFailureBlocksCreation(t *testing.T) {
	f := newFixture(t)
	f.up.err = errors.New("hosting rejected upload")

	_, err := f.app.CreateEvent(context.Background(), CreateRequest{
		Name:      "Doomed",
		ImageData: []byte("raw"),
		ImageName: "x.png",
	})
	require.Error(t, err)
	assert.Empty(t, f.app.Events(context.Background()))
}

func TestCreateEvent_RequiresImage(t *testing.T) {
	f := newFixture(t)

	_, err := f.app.CreateEvent(context.Background(), CreateRequest{Name: "No picture"})
	assert.ErrorIs(t, err, ErrNoImage)
}

func TestDeleteEvent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	event, err := f.app.CreateEvent(ctx, CreateRequest{Name: "Gone soon", ImageRef: "https://img.example/x.png"})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return len(f.app.Events(ctx)) == 1
	}, waitFor, tick)

	f.app.DeleteEvent(event.ID)
	require.Eventually(t, func() bool {
		return len(f.app.Events(ctx)) == 0
	}, waitFor, tick)

	// Deleting again is a silent no-op.
	f.app.DeleteEvent(event.ID)
	assert.Empty(t, f.app.Events(ctx))
}

func TestSecondFixDoesNotFetch(t *testing.T) {
	f := newFixture(t)

	f.app.Tracker().HandleFix(domain.Position{Latitude: 1, Longitude: 1})
	f.app.Tracker().HandleFix(domain.Position{Latitude: 2, Longitude: 2})

	require.Eventually(t, func() bool {
		return f.fc.callCount() == 1
	}, waitFor, tick)

	// Give a second (incorrect) fetch a chance to happen, then recheck.
	f.app.ShowAdvisory()
	require.Eventually(t, func() bool {
		return f.app.Advisory().Visible
	}, waitFor, tick)
	assert.Equal(t, 1, f.fc.callCount())
}
