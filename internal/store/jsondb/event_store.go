// Package jsondb persists the event collection as a single JSON document,
// rewritten in full on every mutation. Event counts are small enough that
// the O(n) write is not worth an append-only log.
package jsondb

import (
	"context"
	"encoding/json"
	"os"
	"sync"

	"github.com/google/uuid"

	"github.com/rainydays/core/internal/domain"
	"github.com/rainydays/core/internal/store"
)

// EventStore stores events in insertion order, backed by one JSON file.
type EventStore struct {
	filename string

	mu     sync.RWMutex
	events []domain.Event
}

// NewEventStore creates a store backed by the given file. The file is not
// touched until Load or the first mutation.
func NewEventStore(filename string) *EventStore {
	return &EventStore{filename: filename}
}

// Load reads the persisted document. A missing file loads an empty
// collection; a malformed file returns a *store.DecodeError and leaves the
// collection empty so the caller can continue.
func (s *EventStore) Load(_ context.Context) ([]domain.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = nil

	if _, err := os.Stat(s.filename); os.IsNotExist(err) {
		return nil, nil
	}

	data, err := os.ReadFile(s.filename)
	if err != nil {
		return nil, &store.DecodeError{Path: s.filename, Err: err}
	}

	var events []domain.Event
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, &store.DecodeError{Path: s.filename, Err: err}
	}

	s.events = events
	return s.snapshotLocked(), nil
}

// Create appends the event and rewrites the document.
func (s *EventStore) Create(_ context.Context, event domain.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	s.events = append(s.events, event)

	return s.saveLocked()
}

// Delete removes the event with the given id, if present. When nothing
// matches, the document is left untouched.
func (s *EventStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, e := range s.events {
		if e.ID == id {
			s.events = append(s.events[:i], s.events[i+1:]...)
			return s.saveLocked()
		}
	}
	return nil
}

// List returns a copy of the in-memory collection in insertion order.
func (s *EventStore) List(_ context.Context) []domain.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Close is a no-op; the file is only held open during reads and writes.
func (s *EventStore) Close() error { return nil }

func (s *EventStore) snapshotLocked() []domain.Event {
	out := make([]domain.Event, len(s.events))
	copy(out, s.events)
	return out
}

// saveLocked rewrites the whole document. Callers hold s.mu.
func (s *EventStore) saveLocked() error {
	data, err := json.MarshalIndent(s.events, "", "  ")
	if err != nil {
		return &store.PersistError{Path: s.filename, Err: err}
	}
	if err := os.WriteFile(s.filename, data, 0o644); err != nil {
		return &store.PersistError{Path: s.filename, Err: err}
	}
	return nil
}
