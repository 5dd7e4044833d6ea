// Runit - Running Events Content Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/runit

// Package models defines the DTOs exchanged with the Runit backend API and
// the response envelope served to browser clients.
//
// Entities are owned by the backend. Values held here are per-request copies
// with no write-back cache.
package models
