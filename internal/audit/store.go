// Runit - Running Events Content Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/runit

package audit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

// OpenStore opens the store named by kind: "memory" or "badger". capacity
// bounds the memory store; retention is the Badger entry TTL.
func OpenStore(kind, path string, capacity int, retention time.Duration) (Store, error) {
	switch kind {
	case "", "memory":
		return NewMemoryStore(capacity), nil
	case "badger":
		return OpenBadgerStore(path, retention)
	default:
		return nil, fmt.Errorf("unknown audit store %q", kind)
	}
}

// MemoryStore keeps the most recent events in a fixed-size ring. The
// oldest event is overwritten once the ring is full. Data is lost on
// restart.
type MemoryStore struct {
	mu     sync.RWMutex
	events []Event
	next   int
	full   bool
}

// NewMemoryStore creates a MemoryStore holding up to capacity events.
func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = 10000
	}
	return &MemoryStore{events: make([]Event, capacity)}
}

// Save implements Store.
func (s *MemoryStore) Save(_ context.Context, event *Event) error {
	s.mu.Lock()
	s.events[s.next] = *event
	s.next = (s.next + 1) % len(s.events)
	if s.next == 0 {
		s.full = true
	}
	s.mu.Unlock()
	return nil
}

// Len returns the number of stored events.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.full {
		return len(s.events)
	}
	return s.next
}

// Query implements Store.
func (s *MemoryStore) Query(_ context.Context, filter QueryFilter) ([]Event, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultQueryLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	n := s.next
	if s.full {
		n = len(s.events)
	}
	results := make([]Event, 0, min(n, limit))
	for i := 1; i <= n && len(results) < limit; i++ {
		idx := (s.next - i + len(s.events)) % len(s.events)
		if e := &s.events[idx]; filter.matches(e) {
			results = append(results, *e)
		}
	}
	return results, nil
}

// Delete implements Store. Surviving events keep their order.
func (s *MemoryStore) Delete(_ context.Context, olderThan time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.next
	start := 0
	if s.full {
		n = len(s.events)
		start = s.next
	}
	kept := make([]Event, 0, n)
	for i := 0; i < n; i++ {
		e := s.events[(start+i)%len(s.events)]
		if !e.Timestamp.Before(olderThan) {
			kept = append(kept, e)
		}
	}

	removed := n - len(kept)
	if removed == 0 {
		return 0, nil
	}
	fresh := make([]Event, len(s.events))
	copy(fresh, kept)
	s.events = fresh
	s.next = len(kept) % len(s.events)
	s.full = len(kept) == len(s.events)
	return removed, nil
}

const badgerPrefix = "audit:"

// BadgerStore persists events in BadgerDB. Keys sort by timestamp, and
// entries expire after the retention period through Badger's native TTL.
type BadgerStore struct {
	db        *badger.DB
	retention time.Duration
}

// OpenBadgerStore opens (or creates) a Badger database at path. An empty
// path opens an in-memory database.
func OpenBadgerStore(path string, retention time.Duration) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open audit store at %q: %w", path, err)
	}
	return &BadgerStore{db: db, retention: retention}, nil
}

func badgerKey(e *Event) []byte {
	return []byte(fmt.Sprintf("%s%020d:%s", badgerPrefix, e.Timestamp.UnixNano(), e.ID))
}

// Save implements Store.
func (s *BadgerStore) Save(_ context.Context, event *Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(badgerKey(event), data)
		if s.retention > 0 {
			entry = entry.WithTTL(s.retention)
		}
		return txn.SetEntry(entry)
	})
}

// Query implements Store.
func (s *BadgerStore) Query(_ context.Context, filter QueryFilter) ([]Event, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultQueryLimit
	}

	var results []Event
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = []byte(badgerPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		// Reverse iteration starts at the last key not above the seek key.
		for it.Seek([]byte(badgerPrefix + "\xff")); it.Valid() && len(results) < limit; it.Next() {
			var e Event
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &e)
			}); err != nil {
				return fmt.Errorf("decode audit event: %w", err)
			}
			if !filter.Since.IsZero() && e.Timestamp.Before(filter.Since) {
				break
			}
			if filter.matches(&e) {
				results = append(results, e)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// Delete implements Store.
func (s *BadgerStore) Delete(_ context.Context, olderThan time.Time) (int, error) {
	var keys [][]byte
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(badgerPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		bound := fmt.Sprintf("%s%020d", badgerPrefix, olderThan.UnixNano())
		for it.Rewind(); it.Valid(); it.Next() {
			key := it.Item().KeyCopy(nil)
			if string(key) >= bound {
				break
			}
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("scan audit events: %w", err)
	}
	if len(keys) == 0 {
		return 0, nil
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for _, k := range keys {
		if err := wb.Delete(k); err != nil {
			return 0, fmt.Errorf("delete audit event: %w", err)
		}
	}
	if err := wb.Flush(); err != nil {
		return 0, fmt.Errorf("flush audit deletes: %w", err)
	}

	if err := s.db.RunValueLogGC(0.5); err != nil && !errors.Is(err, badger.ErrNoRewrite) && !errors.Is(err, badger.ErrRejected) && !errors.Is(err, badger.ErrGCInMemoryMode) {
		return len(keys), fmt.Errorf("value log gc: %w", err)
	}
	return len(keys), nil
}

// Close closes the database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}
