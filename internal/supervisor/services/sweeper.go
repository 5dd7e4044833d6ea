// Runit - Running Events Content Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/runit

package services

import (
	"context"
	"time"

	"github.com/tomtom215/runit/internal/logging"
)

// SweeperService calls a sweep function on a fixed interval, for example
// to drop expired delete confirmations of the admin screens.
type SweeperService struct {
	name     string
	interval time.Duration
	sweep    func() int
}

// NewSweeperService creates a SweeperService. sweep returns the number of
// entries it removed.
func NewSweeperService(name string, interval time.Duration, sweep func() int) *SweeperService {
	if interval <= 0 {
		interval = time.Minute
	}
	return &SweeperService{name: name, interval: interval, sweep: sweep}
}

// Serve implements suture.Service.
func (s *SweeperService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if n := s.sweep(); n > 0 {
				logging.Debug().Str("service", s.name).Int("removed", n).Msg("Sweep removed expired entries")
			}
		}
	}
}

// String names the service in supervisor logs.
func (s *SweeperService) String() string {
	return s.name
}
