// Runit - Running Events Content Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/runit

// Package main is the Runit server: the web front of the running-events
// platform. It serves the public blog and race directory, signs users in
// against the backend API and hosts the editor dashboard.
//
// # Configuration
//
// Settings are layered by koanf: built-in defaults, then an optional
// config.yaml (CONFIG_PATH), then environment variables. .env.local and
// .env are read into the environment first. The backend base URL comes
// from NEXT_PUBLIC_API_URL or RUNIT_API_URL and falls back to
// http://localhost:8080 with a warning.
//
//	export NEXT_PUBLIC_API_URL=https://api.runit.com.br
//	export SESSION_STORE=badger SESSION_STORE_PATH=/data/sessions
//	./runit
//
// # Signal Handling
//
// SIGINT and SIGTERM cancel the supervisor tree. The HTTP server stops
// accepting connections and drains in-flight requests within
// HTTP_SHUTDOWN_TIMEOUT. The audit logger drains its buffer, and the
// session store is closed last.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/runit/internal/config"
	"github.com/tomtom215/runit/internal/logging"
	"github.com/tomtom215/runit/internal/session"
	"github.com/tomtom215/runit/internal/supervisor"
	"github.com/tomtom215/runit/internal/supervisor/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	if !config.BackendURLFromEnv() {
		logging.Warn().Str("backend_url", cfg.Backend.URL).
			Msg("NEXT_PUBLIC_API_URL is not set; backend requests target the default local address")
	}
	logging.Info().
		Str("backend_url", cfg.Backend.URL).
		Str("session_store", cfg.Session.Store).
		Bool("circuit_breaker", cfg.Backend.CircuitBreaker).
		Msg("Configuration loaded")

	kv, err := session.OpenKV(cfg.Session.Store, cfg.Session.StorePath)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open session store")
	}
	defer func() {
		if err := kv.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing session store")
		}
	}()

	auditLog, closeAudit, err := openAudit(cfg.Audit)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to open audit trail")
		return
	}
	defer closeAudit()

	app, err := wire(cfg, kv, auditLog)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to build application")
		return
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	tree.AddMaintenanceService(session.NewCleanupService(kv, cfg.Session.CleanupInterval))
	tree.AddMaintenanceService(services.NewSweeperService("delete-confirmations", cfg.Dashboard.DeleteConfirmTTL, app.screens.Sweep))
	if auditLog != nil {
		tree.AddMaintenanceService(services.NewSweeperService("audit-retention", cfg.Audit.CleanupInterval, auditLog.Prune))
	}

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      app.router.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server configured")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	errCh := tree.ServeBackground(ctx)
	signaled, err := supervisor.AwaitShutdown(ctx, cancel, errCh)
	if err != nil {
		logging.Error().Err(err).Msg("Supervisor tree error")
	}
	logging.Info().Bool("signaled", signaled).Msg("Services stopped")

	if unstopped, _ := tree.UnstoppedServiceReport(); len(unstopped) > 0 {
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
		}
	}
	logging.Info().Msg("Runit stopped")
}
