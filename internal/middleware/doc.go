// Runit - Running Events Content Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/runit

// Package middleware provides the HTTP middleware shared by every route:
// request ids, Prometheus instrumentation and access logging.
//
// The response writer wrapper keeps http.Hijacker and http.Flusher
// working so the live search WebSocket can be upgraded through it.
package middleware
