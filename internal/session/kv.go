// Runit - Running Events Content Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/runit

package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// KV is the process-wide key/value backend that browser storages are
// namespaced into. Entries expire ttl after their last write.
type KV interface {
	Get(key string) (string, bool, error)
	Set(key, value string, ttl time.Duration) error
	Delete(keys ...string) error
	// Sweep drops expired entries and reports how many were removed.
	Sweep() (int, error)
	Close() error
}

// OpenKV opens the backend named by kind: "memory" or "badger".
func OpenKV(kind, path string) (KV, error) {
	switch kind {
	case "", "memory":
		return NewMemoryKV(), nil
	case "badger":
		return OpenBadgerKV(path)
	default:
		return nil, fmt.Errorf("unknown session store %q", kind)
	}
}

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// MemoryKV keeps entries in process memory. Entries are lost on restart.
type MemoryKV struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryKV creates an empty MemoryKV.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{entries: make(map[string]memoryEntry), now: time.Now}
}

func (m *MemoryKV) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[key]
	if !ok || (!e.expiresAt.IsZero() && !m.now().Before(e.expiresAt)) {
		return "", false, nil
	}
	return e.value, true, nil
}

func (m *MemoryKV) Set(key, value string, ttl time.Duration) error {
	e := memoryEntry{value: value}
	if ttl > 0 {
		e.expiresAt = m.now().Add(ttl)
	}
	m.mu.Lock()
	m.entries[key] = e
	m.mu.Unlock()
	return nil
}

func (m *MemoryKV) Delete(keys ...string) error {
	m.mu.Lock()
	for _, k := range keys {
		delete(m.entries, k)
	}
	m.mu.Unlock()
	return nil
}

func (m *MemoryKV) Sweep() (int, error) {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for k, e := range m.entries {
		if !e.expiresAt.IsZero() && !now.Before(e.expiresAt) {
			delete(m.entries, k)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of stored entries, expired ones included.
func (m *MemoryKV) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *MemoryKV) Close() error { return nil }

// BadgerKV persists entries in BadgerDB so sessions survive restarts.
// Expiry uses Badger's native entry TTL.
type BadgerKV struct {
	db *badger.DB
}

// OpenBadgerKV opens (or creates) a Badger database at path.
func OpenBadgerKV(path string) (*BadgerKV, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open session store at %s: %w", path, err)
	}
	return &BadgerKV{db: db}, nil
}

// OpenInMemoryBadgerKV opens a Badger database that never touches disk.
func OpenInMemoryBadgerKV() (*BadgerKV, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open in-memory session store: %w", err)
	}
	return &BadgerKV{db: db}, nil
}

func (b *BadgerKV) Get(key string) (string, bool, error) {
	var value string
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			value = string(val)
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	return value, true, nil
}

func (b *BadgerKV) Set(key, value string, ttl time.Duration) error {
	return b.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(key), []byte(value))
		if ttl > 0 {
			e = e.WithTTL(ttl)
		}
		return txn.SetEntry(e)
	})
}

func (b *BadgerKV) Delete(keys ...string) error {
	return b.db.Update(func(txn *badger.Txn) error {
		for _, k := range keys {
			if err := txn.Delete([]byte(k)); err != nil {
				return fmt.Errorf("delete %s: %w", k, err)
			}
		}
		return nil
	})
}

// Sweep runs value log garbage collection. Badger drops expired keys on
// its own, so the count is always 0.
func (b *BadgerKV) Sweep() (int, error) {
	err := b.db.RunValueLogGC(0.5)
	if err != nil && !errors.Is(err, badger.ErrNoRewrite) && !errors.Is(err, badger.ErrRejected) {
		return 0, fmt.Errorf("value log gc: %w", err)
	}
	return 0, nil
}

func (b *BadgerKV) Close() error {
	return b.db.Close()
}

// browserStorage adapts a KV to the Storage of one browser by prefixing
// keys with "storage:<sid>:".
type browserStorage struct {
	kv     KV
	prefix string
	ttl    time.Duration
}

// BrowserStorage returns the Storage of browser session sid.
func BrowserStorage(kv KV, sid string, ttl time.Duration) Storage {
	return &browserStorage{kv: kv, prefix: "storage:" + sid + ":", ttl: ttl}
}

func (s *browserStorage) Get(key string) (string, bool, error) {
	return s.kv.Get(s.prefix + key)
}

func (s *browserStorage) Set(key, value string) error {
	return s.kv.Set(s.prefix+key, value, s.ttl)
}

func (s *browserStorage) Delete(keys ...string) error {
	prefixed := make([]string, len(keys))
	for i, k := range keys {
		prefixed[i] = s.prefix + k
	}
	return s.kv.Delete(prefixed...)
}

// MemoryStorage is a Storage for a single browser held in memory.
type MemoryStorage struct {
	mu   sync.Mutex
	data map[string]string
}

// NewMemoryStorage creates an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{data: make(map[string]string)}
}

func (m *MemoryStorage) Get(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *MemoryStorage) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *MemoryStorage) Delete(keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

// Keys returns the stored keys. Tests use it to assert what was persisted.
func (m *MemoryStorage) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	return keys
}
