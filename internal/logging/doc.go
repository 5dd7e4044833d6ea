// Runit - Running Events Content Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/runit

// Package logging provides the zerolog-based structured logger shared by
// every Runit package.
//
// Initialize once from main:
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//
// then log with structured fields:
//
//	logging.Info().Str("backend", url).Msg("Backend client ready")
//	logging.Ctx(r.Context()).Warn().Err(err).Msg("Login failed")
//
// Always terminate an event with Msg or Send; an unterminated event is
// never written.
//
// Environment variables (read by the config package):
//
//	LOG_LEVEL   trace, debug, info, warn, error (default: info)
//	LOG_FORMAT  json, console (default: json)
//	LOG_CALLER  true, false (default: false)
//
// NewSlogLogger adapts the logger for slog consumers such as sutureslog.
package logging
