// Package store defines the event store contract shared by its file and
// key-value backends.
package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/rainydays/core/internal/domain"
)

// EventStore is a durable, in-memory-backed collection of events.
//
// Mutations update memory first and then persist the full collection; a
// persistence failure is reported but the in-memory change is not rolled
// back, so observable and durable state may diverge until the next
// successful save. Callers treat a Load failure as "start empty" rather
// than a fatal condition.
type EventStore interface {
	// Load reads the persisted collection into memory and returns it in
	// insertion order. A missing document is not an error: it loads empty.
	// A malformed document returns a *DecodeError.
	Load(ctx context.Context) ([]domain.Event, error)

	// Create appends the event and persists the whole collection.
	// A *PersistError leaves the in-memory append in place.
	Create(ctx context.Context, event domain.Event) error

	// Delete removes the event with the given id, persisting afterward.
	// Deleting an unknown id is a no-op and never an error.
	Delete(ctx context.Context, id uuid.UUID) error

	// List returns a snapshot of the in-memory collection in insertion
	// order. The returned slice is a copy, not a live view.
	List(ctx context.Context) []domain.Event

	// Close releases any underlying resources.
	Close() error
}

// DecodeError reports a persisted document that could not be decoded.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode event store %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// PersistError reports a failed write of the event document. The in-memory
// state is still authoritative for the rest of the session.
type PersistError struct {
	Path string
	Err  error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist event store %s: %v", e.Path, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }
