// Runit - Running Events Content Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/runit

package main

import (
	"fmt"
	"io"

	"github.com/tomtom215/runit/internal/admin"
	"github.com/tomtom215/runit/internal/analytics"
	"github.com/tomtom215/runit/internal/api"
	"github.com/tomtom215/runit/internal/audit"
	"github.com/tomtom215/runit/internal/authz"
	"github.com/tomtom215/runit/internal/backend"
	"github.com/tomtom215/runit/internal/config"
	"github.com/tomtom215/runit/internal/logging"
	"github.com/tomtom215/runit/internal/search"
	"github.com/tomtom215/runit/internal/session"
)

type application struct {
	router  *api.Router
	screens *admin.Screens
}

// wire builds every request-path component from cfg. auditLog may be nil.
func wire(cfg *config.Config, kv session.KV, auditLog *audit.Logger) (*application, error) {
	client := backend.NewClient(backend.Options{
		BaseURL:         cfg.Backend.URL,
		Timeout:         cfg.Backend.Timeout,
		CircuitBreaker:  cfg.Backend.CircuitBreaker,
		BreakerFailures: uint32(cfg.Backend.BreakerFailure),
		BreakerTimeout:  cfg.Backend.BreakerTimeout,
	})
	svc := backend.NewServices(client)

	enforcer, err := authz.NewEnforcer()
	if err != nil {
		return nil, fmt.Errorf("authorization: %w", err)
	}

	screens := admin.NewScreens(svc, cfg.Dashboard.DeleteConfirmTTL)
	searcher := search.NewSearcher(svc.Blog, svc.Races, search.DefaultLimit)
	live := search.NewLiveHandler(searcher, search.LiveConfig{
		Debounce:          cfg.Dashboard.SearchDebounce,
		MessagesPerSecond: cfg.Dashboard.WSMessagesPerSecond,
		Burst:             cfg.Dashboard.WSBurst,
		AllowedOrigins:    cfg.Security.CORSOrigins,
	})

	router := api.NewRouter(api.Deps{
		Config:   cfg,
		Services: svc,
		Sessions: session.NewManager(kv, svc.Auth, session.CookieConfig{
			Name:   cfg.Session.CookieName,
			Secure: cfg.Session.CookieSecure,
			TTL:    cfg.Session.TTL,
		}),
		Enforcer:  enforcer,
		Screens:   screens,
		Searcher:  searcher,
		Live:      live,
		Analytics: &analytics.Collector{Posts: svc.Blog, Users: svc.Users, Races: svc.Races},
		Audit:     auditLog,
	})
	return &application{router: router, screens: screens}, nil
}

// openAudit opens the audit store and starts its logger. It returns a nil
// logger when the trail is disabled; close stops the logger and then the
// store.
func openAudit(cfg config.AuditConfig) (logger *audit.Logger, closeFn func(), err error) {
	if !cfg.Enabled {
		return nil, func() {}, nil
	}
	store, err := audit.OpenStore(cfg.Store, cfg.StorePath, cfg.Capacity, cfg.Retention())
	if err != nil {
		return nil, nil, fmt.Errorf("audit store: %w", err)
	}
	logger = audit.NewLogger(store, audit.Config{
		Retention:   cfg.Retention(),
		BufferSize:  audit.DefaultConfig().BufferSize,
		LogToStdout: cfg.LogToStdout,
	})
	return logger, func() {
		logger.Close()
		if c, ok := store.(io.Closer); ok {
			if err := c.Close(); err != nil {
				logging.Error().Err(err).Msg("Error closing audit store")
			}
		}
	}, nil
}
