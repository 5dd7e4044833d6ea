// Runit - Running Events Content Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/runit

package session

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/runit/internal/backend"
)

// CookieConfig configures the browser session cookie.
type CookieConfig struct {
	Name   string
	Secure bool
	TTL    time.Duration
}

// Manager resolves the browser session cookie of each request into a
// hydrated Store.
type Manager struct {
	kv     KV
	auth   Authenticator
	cookie CookieConfig
}

// NewManager creates a Manager.
func NewManager(kv KV, auth Authenticator, cookie CookieConfig) *Manager {
	if cookie.Name == "" {
		cookie.Name = "runit_sid"
	}
	if cookie.TTL <= 0 {
		cookie.TTL = 7 * 24 * time.Hour
	}
	return &Manager{kv: kv, auth: auth, cookie: cookie}
}

type (
	storeKey struct{}
	idKey    struct{}
)

// Middleware loads the Store for the request's browser, issuing a session
// cookie when the browser has none. The bearer token of a signed-in browser
// is attached to the request context for backend calls.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sid := m.browserID(r)
		http.SetCookie(w, &http.Cookie{
			Name:     m.cookie.Name,
			Value:    sid,
			Path:     "/",
			MaxAge:   int(m.cookie.TTL.Seconds()),
			HttpOnly: true,
			Secure:   m.cookie.Secure,
			SameSite: http.SameSiteLaxMode,
		})

		store := m.Open(sid)
		store.Hydrate(r.Context())

		ctx := context.WithValue(r.Context(), storeKey{}, store)
		ctx = context.WithValue(ctx, idKey{}, sid)
		ctx = backend.ContextWithToken(ctx, store.Token())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Open returns an unhydrated Store for browser session sid.
func (m *Manager) Open(sid string) *Store {
	return New(BrowserStorage(m.kv, sid, m.cookie.TTL), m.auth)
}

func (m *Manager) browserID(r *http.Request) string {
	if c, err := r.Cookie(m.cookie.Name); err == nil {
		if id, err := uuid.Parse(c.Value); err == nil {
			return id.String()
		}
	}
	return uuid.NewString()
}

// FromContext returns the Store loaded by Middleware, or nil.
func FromContext(ctx context.Context) *Store {
	s, _ := ctx.Value(storeKey{}).(*Store)
	return s
}

// IDFromContext returns the browser session id set by Middleware, or "".
func IDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(idKey{}).(string)
	return id
}
