// Runit - Running Events Content Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/runit

package search

import (
	"sync"
	"time"

	"github.com/tomtom215/runit/internal/metrics"
)

// DefaultDebounce is the quiet window after the last keystroke before a
// search runs.
const DefaultDebounce = 300 * time.Millisecond

// Debouncer delays a query until no newer query arrives for the quiet
// window. Each Trigger cancels the pending timer before scheduling a new
// one, so only the final query of a burst fires.
type Debouncer struct {
	delay time.Duration
	fire  func(query string)

	mu      sync.Mutex
	timer   *time.Timer
	seq     uint64
	stopped bool
}

// NewDebouncer returns a Debouncer calling fire after delay of quiet.
// fire runs on its own goroutine.
func NewDebouncer(delay time.Duration, fire func(query string)) *Debouncer {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Debouncer{delay: delay, fire: fire}
}

// Trigger schedules query, replacing any pending one.
func (d *Debouncer) Trigger(query string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}

	if d.timer != nil && d.timer.Stop() {
		metrics.SearchDebounced.Inc()
	}
	d.seq++
	seq := d.seq
	d.timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		// A newer Trigger may have raced with this timer firing.
		current := seq == d.seq && !d.stopped
		d.mu.Unlock()
		if current {
			d.fire(query)
		}
	})
}

// Stop cancels the pending query. Later Triggers are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
}
