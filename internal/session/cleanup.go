// Runit - Running Events Content Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/runit

package session

import (
	"context"
	"time"

	"github.com/tomtom215/runit/internal/logging"
	"github.com/tomtom215/runit/internal/metrics"
)

// CleanupService periodically sweeps expired browser storage entries.
// It implements suture.Service.
type CleanupService struct {
	kv       KV
	interval time.Duration
}

// NewCleanupService creates a CleanupService.
func NewCleanupService(kv KV, interval time.Duration) *CleanupService {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &CleanupService{kv: kv, interval: interval}
}

// Serve sweeps on every tick until ctx is canceled.
func (c *CleanupService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			c.sweep()
		}
	}
}

func (c *CleanupService) sweep() {
	removed, err := c.kv.Sweep()
	if err != nil {
		logging.Warn().Err(err).Msg("Session storage sweep failed")
		return
	}
	if mem, ok := c.kv.(*MemoryKV); ok {
		metrics.SessionStorageEntries.Set(float64(mem.Len()))
	}
	if removed > 0 {
		logging.Debug().Int("removed", removed).Msg("Expired session entries removed")
	}
}

// String names the service in supervisor logs.
func (c *CleanupService) String() string {
	return "session-cleanup"
}
