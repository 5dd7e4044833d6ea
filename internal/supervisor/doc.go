// Runit - Running Events Content Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/runit

/*
Package supervisor runs Runit's long-lived services under a suture v4
supervisor tree.

	RootSupervisor ("runit")
	├── MaintenanceSupervisor ("maintenance-layer")
	│   ├── session.CleanupService ("session-cleanup")
	│   ├── services.SweeperService ("delete-confirmations")
	│   └── services.SweeperService ("audit-retention")
	└── APISupervisor ("api-layer")
	    └── services.HTTPServerService ("http-server")

A crashed service is restarted with backoff by its own layer, so a failing
sweeper never takes the HTTP server down. Supervisor events are logged
through sutureslog into the zerolog-backed slog handler of the logging
package.

Serve blocks until its context is canceled; cmd/server cancels it on
SIGINT or SIGTERM and the HTTP server then drains within its shutdown
timeout.
*/
package supervisor
