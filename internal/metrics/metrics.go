// Runit - Running Events Content Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/runit

// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP server

	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "runit_http_requests_total",
			Help: "Total number of HTTP requests served",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "runit_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "runit_http_active_requests",
			Help: "Number of HTTP requests currently being served",
		},
	)

	// Backend API client

	BackendRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "runit_backend_requests_total",
			Help: "Total number of requests issued to the backend API",
		},
		[]string{"method", "resource", "status"},
	)

	BackendRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "runit_backend_request_duration_seconds",
			Help:    "Duration of backend API requests in seconds",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "resource"},
	)

	BackendUnauthorized = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "runit_backend_unauthorized_total",
			Help: "Total number of 401 responses from the backend API",
		},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "runit_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "runit_circuit_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// Sessions

	SessionLogins = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "runit_session_logins_total",
			Help: "Login attempts by method and result",
		},
		[]string{"method", "result"}, // method: password, register, oauth
	)

	SessionStorageEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "runit_session_storage_entries",
			Help: "Browser storage entries held in memory",
		},
	)

	// Dashboard

	SearchQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "runit_search_queries_total",
			Help: "Search queries executed by transport",
		},
		[]string{"transport"}, // http, websocket
	)

	SearchDebounced = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "runit_search_debounced_total",
			Help: "Keystroke queries superseded before their debounce window elapsed",
		},
	)

	WebSocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "runit_websocket_connections",
			Help: "Open live search WebSocket connections",
		},
	)

	AdminActions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "runit_admin_actions_total",
			Help: "Admin screen actions by resource, action and result",
		},
		[]string{"resource", "action", "result"},
	)

	AuditEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "runit_audit_events_total",
			Help: "Audit events by type and result (stored, dropped, failed)",
		},
		[]string{"type", "result"},
	)
)

// RecordAPIRequest records a served HTTP request.
func RecordAPIRequest(method, route string, status int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// TrackActiveRequest increments or decrements the in-flight gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordBackendRequest records a backend API call. status is 0 when the
// request never produced a response.
func RecordBackendRequest(method, resource string, status int, duration time.Duration) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	BackendRequestsTotal.WithLabelValues(method, resource, label).Inc()
	BackendRequestDuration.WithLabelValues(method, resource).Observe(duration.Seconds())
}

// RecordLogin records a login, register or OAuth completion.
func RecordLogin(method string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	SessionLogins.WithLabelValues(method, result).Inc()
}

// RecordAdminAction records a CRUD screen action.
func RecordAdminAction(resource, action string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	AdminActions.WithLabelValues(resource, action, result).Inc()
}
