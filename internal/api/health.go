// Runit - Running Events Content Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/runit

package api

import (
	"net/http"
	"time"
)

// HealthStatus is the body of GET /health.
type HealthStatus struct {
	Status        string  `json:"status"`
	Backend       string  `json:"backend"`
	SessionStore  string  `json:"session_store"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// Health reports liveness. The backend is not probed; its URL is echoed
// so a misconfigured deployment is visible.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondData(w, http.StatusOK, HealthStatus{
		Status:        "healthy",
		Backend:       h.cfg.Backend.URL,
		SessionStore:  h.cfg.Session.Store,
		UptimeSeconds: h.now().Sub(h.started).Seconds(),
	}, time.Time{})
}
