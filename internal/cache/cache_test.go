// Runit - Running Events Content Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/runit

package cache

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newClock() *clock {
	return &clock{t: time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)}
}

func TestTTL_GetSetExpire(t *testing.T) {
	t.Parallel()

	clk := newClock()
	c := New[string](10 * time.Second).WithClock(clk.now)

	exp := c.Set("a", "1")
	if want := clk.now().Add(10 * time.Second); !exp.Equal(want) {
		t.Errorf("expiry = %v, want %v", exp, want)
	}
	if v, ok := c.Get("a"); !ok || v != "1" {
		t.Fatalf("Get() = %q, %v", v, ok)
	}

	clk.advance(10 * time.Second)
	if _, ok := c.Get("a"); ok {
		t.Error("entry readable at its expiry instant")
	}

	s := c.Stats()
	if s.Hits != 1 || s.Misses != 1 || s.Evictions != 1 || s.Keys != 0 {
		t.Errorf("Stats() = %+v", s)
	}
}

func TestTTL_TakeIsSingleUse(t *testing.T) {
	t.Parallel()

	c := New[int](time.Minute)
	c.Set("k", 7)

	var wins atomic.Int32
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := c.Take("k"); ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	if wins.Load() != 1 {
		t.Errorf("Take succeeded %d times, want 1", wins.Load())
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d after Take", c.Len())
	}
}

func TestTTL_DeleteAndCleanup(t *testing.T) {
	t.Parallel()

	clk := newClock()
	c := New[bool](time.Second).WithClock(clk.now)
	c.Set("short", true)
	c.SetWithTTL("long", true, time.Hour)
	c.Set("gone", true)
	c.Delete("gone")
	c.Delete("never")

	clk.advance(2 * time.Second)
	if removed := c.Cleanup(); removed != 1 {
		t.Errorf("Cleanup() = %d, want 1", removed)
	}
	if _, ok := c.Get("long"); !ok {
		t.Error("long-lived entry dropped")
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}
