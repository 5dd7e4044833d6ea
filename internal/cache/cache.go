// Runit - Running Events Content Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/runit

// Package cache provides a small thread-safe in-memory map with per-entry
// expiration. It backs short-lived UI state such as pending delete
// confirmations.
package cache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Stats tracks cache activity.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Keys      int
}

// TTL is a thread-safe map whose entries expire ttl after they are set.
// Expired entries are dropped lazily on access and by Cleanup.
type TTL[V any] struct {
	mu      sync.Mutex
	entries map[string]entry[V]
	ttl     time.Duration
	now     func() time.Time
	stats   Stats
}

// New creates a TTL cache with the default entry lifetime ttl.
func New[V any](ttl time.Duration) *TTL[V] {
	return &TTL[V]{entries: make(map[string]entry[V]), ttl: ttl, now: time.Now}
}

// WithClock replaces the time source. Tests use it to expire entries
// without sleeping.
func (c *TTL[V]) WithClock(now func() time.Time) *TTL[V] {
	c.mu.Lock()
	c.now = now
	c.mu.Unlock()
	return c
}

// Get returns the live value for key.
func (c *TTL[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.getLocked(key)
}

func (c *TTL[V]) getLocked(key string) (V, bool) {
	var zero V
	e, ok := c.entries[key]
	if !ok {
		c.stats.Misses++
		return zero, false
	}
	if !c.now().Before(e.expiresAt) {
		delete(c.entries, key)
		c.stats.Misses++
		c.stats.Evictions++
		return zero, false
	}
	c.stats.Hits++
	return e.value, true
}

// Set stores value under key with the default lifetime and returns its
// expiry.
func (c *TTL[V]) Set(key string, value V) time.Time {
	return c.SetWithTTL(key, value, c.ttl)
}

// SetWithTTL stores value under key for ttl and returns its expiry.
func (c *TTL[V]) SetWithTTL(key string, value V, ttl time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	exp := c.now().Add(ttl)
	c.entries[key] = entry[V]{value: value, expiresAt: exp}
	return exp
}

// Take removes key and returns its value if it was live. Two concurrent
// Takes of the same key never both succeed.
func (c *TTL[V]) Take(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.getLocked(key)
	if ok {
		delete(c.entries, key)
	}
	return v, ok
}

// Delete removes key.
func (c *TTL[V]) Delete(key string) {
	c.mu.Lock()
	if _, ok := c.entries[key]; ok {
		delete(c.entries, key)
		c.stats.Evictions++
	}
	c.mu.Unlock()
}

// Cleanup drops every expired entry and returns how many were removed.
func (c *TTL[V]) Cleanup() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	removed := 0
	for k, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, k)
			removed++
		}
	}
	c.stats.Evictions += int64(removed)
	return removed
}

// Len returns the number of stored entries, expired ones included.
func (c *TTL[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns a snapshot of cache activity.
func (c *TTL[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.Keys = len(c.entries)
	return s
}
