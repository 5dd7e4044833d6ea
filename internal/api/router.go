// Runit - Running Events Content Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/runit

// Package api is the HTTP surface of Runit: the public blog and race
// directory, sign-in, the editor dashboard and live search.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/runit/internal/admin"
	"github.com/tomtom215/runit/internal/analytics"
	"github.com/tomtom215/runit/internal/audit"
	"github.com/tomtom215/runit/internal/authz"
	"github.com/tomtom215/runit/internal/backend"
	"github.com/tomtom215/runit/internal/config"
	"github.com/tomtom215/runit/internal/middleware"
	"github.com/tomtom215/runit/internal/search"
	"github.com/tomtom215/runit/internal/session"
)

// Deps are the collaborators behind the routes.
type Deps struct {
	Config    *config.Config
	Services  *backend.Services
	Sessions  *session.Manager
	Enforcer  *authz.Enforcer
	Screens   *admin.Screens
	Searcher  search.Querier
	Live      http.Handler
	Analytics *analytics.Collector

	// Audit records sign-ins, denials and dashboard changes. Nil disables
	// the trail.
	Audit *audit.Logger

	// Pages serves the page shells behind the route guard. A small JSON
	// placeholder is served when nil.
	Pages http.Handler

	// Now defaults to time.Now.
	Now func() time.Time
}

// Handler holds the request handlers.
type Handler struct {
	cfg       *config.Config
	svc       *backend.Services
	enforcer  *authz.Enforcer
	screens   *admin.Screens
	searcher  search.Querier
	collector *analytics.Collector
	audit     *audit.Logger
	now       func() time.Time
	started   time.Time
}

// Router builds the route tree.
type Router struct {
	deps    Deps
	handler *Handler
}

// NewRouter creates a Router.
func NewRouter(deps Deps) *Router {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Pages == nil {
		deps.Pages = http.HandlerFunc(pageShell)
	}
	return &Router{
		deps: deps,
		handler: &Handler{
			cfg:       deps.Config,
			svc:       deps.Services,
			enforcer:  deps.Enforcer,
			screens:   deps.Screens,
			searcher:  deps.Searcher,
			collector: deps.Analytics,
			audit:     deps.Audit,
			now:       deps.Now,
			started:   deps.Now(),
		},
	}
}

// Handler returns the root http.Handler.
func (rt *Router) Handler() http.Handler {
	h := rt.handler
	sec := rt.deps.Config.Security

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.AccessLog)
	r.Use(middleware.PrometheusMetrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   sec.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", h.Health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Everything below knows the browser's session.
	r.Group(func(r chi.Router) {
		r.Use(rt.deps.Sessions.Middleware)

		r.Group(func(r chi.Router) {
			r.Use(RouteGuard(sec))
			r.Get("/auth/callback", h.OAuthCallback)
			for _, p := range guardedPages(sec) {
				r.Handle(p, rt.deps.Pages)
				r.Handle(p+"/*", rt.deps.Pages)
			}
		})

		if rt.deps.Live != nil {
			r.Method(http.MethodGet, "/ws/search", rt.deps.Live)
		}

		r.Route("/api", func(r chi.Router) {
			r.Use(chimiddleware.Compress(5, "application/json"))
			if sec.RateLimitReqs > 0 {
				r.Use(httprate.Limit(sec.RateLimitReqs, sec.RateLimitWindow, httprate.WithKeyFuncs(httprate.KeyByIP)))
			}

			r.Get("/blog/posts", h.BlogPosts)
			r.Get("/blog/posts/{slug}", h.BlogPost)
			r.Get("/races", h.Races)
			r.Get("/races/map", h.RaceMap)
			r.Get("/races/{id}", h.Race)
			r.Get("/search", h.Search)

			r.Route("/auth", func(r chi.Router) {
				if sec.AuthRateLimit > 0 {
					r.Use(httprate.LimitByIP(sec.AuthRateLimit, time.Minute))
				}
				r.Post("/login", h.Login)
				r.Post("/register", h.Register)
				r.Post("/logout", h.Logout)
				r.Get("/session", h.Session)
			})

			r.Get("/preferences/theme", h.Theme)
			r.Put("/preferences/theme", h.SetTheme)

			r.Route("/admin", func(r chi.Router) {
				mountScreen(r, h, h.screens.Posts)
				mountScreen(r, h, h.screens.Categories)
				mountScreen(r, h, h.screens.Races)
				mountScreen(r, h, h.screens.Users)
				mountScreen(r, h, h.screens.Memberships)
				r.With(h.Authorize(admin.ResourceAnalytics)).Get("/analytics", h.Analytics)
				r.With(h.Authorize(admin.ResourceAudit)).Get("/audit", h.AuditTrail)
			})
		})
	})

	return r
}

// guardedPages lists every page path the guard has an opinion on.
func guardedPages(sec config.SecurityConfig) []string {
	pages := make([]string, 0, len(sec.ProtectedPaths)+len(sec.AuthPages))
	pages = append(pages, sec.ProtectedPaths...)
	return append(pages, sec.AuthPages...)
}

// pageShell stands in for the rendered page when no page handler is
// configured.
func pageShell(w http.ResponseWriter, r *http.Request) {
	authenticated := false
	if store := session.FromContext(r.Context()); store != nil {
		authenticated = store.IsAuthenticated()
	}
	respondData(w, http.StatusOK, map[string]interface{}{
		"page":          r.URL.Path,
		"authenticated": authenticated,
	}, time.Time{})
}
