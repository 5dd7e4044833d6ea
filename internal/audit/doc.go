// Runit - Running Events Content Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/runit

/*
Package audit records who did what on the platform: sign-ins and sign-outs,
registrations, authorization denials and every create, update and delete
made from the dashboard.

Events are handed to a Logger, which writes them to a Store from a
background goroutine so request handlers never wait on storage:

	store := audit.NewMemoryStore(10000)
	logger := audit.NewLogger(store, audit.DefaultConfig())
	defer logger.Close()

	logger.LogLogin(r, user, true, "")

A full buffer drops the event with a warning. Close drains whatever is
still buffered.

The admin API exposes the trail, newest first, at GET /api/admin/audit.
Retention is enforced by calling Store.Delete periodically; cmd/server runs
it as a maintenance service.
*/
package audit
