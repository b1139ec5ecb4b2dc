// Package boltdb persists the event collection in a bbolt bucket, keyed by a
// monotonic sequence so insertion order survives restarts. Reads are served
// from an in-memory mirror; the bucket is only touched on Load and mutations.
package boltdb

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/rainydays/core/internal/domain"
	"github.com/rainydays/core/internal/store"
)

const bucketEvents = "events"

// EventStore is a bbolt-backed implementation of store.EventStore.
type EventStore struct {
	db *bolt.DB

	mu     sync.RWMutex
	events []domain.Event
	keys   map[uuid.UUID]uint64 // event id -> bucket key
}

// NewEventStore opens the database file and ensures the events bucket exists.
func NewEventStore(path string) (*EventStore, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, &store.PersistError{Path: path, Err: err}
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketEvents))
		return err
	}); err != nil {
		db.Close()
		return nil, &store.PersistError{Path: path, Err: err}
	}
	return &EventStore{db: db, keys: make(map[uuid.UUID]uint64)}, nil
}

// Load reads every stored event in key order into the in-memory mirror.
// A record that fails to decode fails the whole load with *store.DecodeError.
func (s *EventStore) Load(_ context.Context) ([]domain.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = nil
	s.keys = make(map[uuid.UUID]uint64)

	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketEvents)).ForEach(func(k, v []byte) error {
			if len(k) != 8 {
				return fmt.Errorf("malformed bucket key %x: want 8 bytes, got %d", k, len(k))
			}
			var e domain.Event
			if err := json.Unmarshal(v, &e); err != nil {
				return err
			}
			s.events = append(s.events, e)
			s.keys[e.ID] = binary.BigEndian.Uint64(k)
			return nil
		})
	})
	if err != nil {
		s.events = nil
		s.keys = make(map[uuid.UUID]uint64)
		return nil, &store.DecodeError{Path: s.db.Path(), Err: err}
	}

	return s.snapshotLocked(), nil
}

// Create appends the event in memory and writes it under the next sequence key.
func (s *EventStore) Create(_ context.Context, event domain.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	s.events = append(s.events, event)

	err := s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketEvents))
		seq, err := bucket.NextSequence()
		if err != nil {
			return err
		}
		data, err := json.Marshal(event)
		if err != nil {
			return err
		}
		s.keys[event.ID] = seq
		return bucket.Put(sequenceKey(seq), data)
	})
	if err != nil {
		return &store.PersistError{Path: s.db.Path(), Err: err}
	}
	return nil
}

// Delete removes the event from memory and from its bucket key, if present.
func (s *EventStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	seq, ok := s.keys[id]
	if !ok {
		return nil
	}

	for i, e := range s.events {
		if e.ID == id {
			s.events = append(s.events[:i], s.events[i+1:]...)
			break
		}
	}
	delete(s.keys, id)

	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketEvents)).Delete(sequenceKey(seq))
	})
	if err != nil {
		return &store.PersistError{Path: s.db.Path(), Err: err}
	}
	return nil
}

// List returns a copy of the in-memory collection in insertion order.
func (s *EventStore) List(_ context.Context) []domain.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Close closes the underlying database file.
func (s *EventStore) Close() error { return s.db.Close() }

func (s *EventStore) snapshotLocked() []domain.Event {
	out := make([]domain.Event, len(s.events))
	copy(out, s.events)
	return out
}

func sequenceKey(seq uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, seq)
	return k
}
