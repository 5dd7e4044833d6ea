// Runit - Running Events Content Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/runit

package api

import (
	"net/http"
	"strings"

	"github.com/tomtom215/runit/internal/authz"
	"github.com/tomtom215/runit/internal/config"
	"github.com/tomtom215/runit/internal/logging"
	"github.com/tomtom215/runit/internal/models"
	"github.com/tomtom215/runit/internal/session"
)

// RouteGuard redirects page requests by sign-in state. Protected pages and
// their sub-paths send signed-out browsers to the sign-in page; the
// sign-in and sign-up pages send signed-in browsers to the home page.
// It reads the session loaded by session.Manager.Middleware, the same
// store login writes to.
func RouteGuard(sec config.SecurityConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authenticated := false
			if store := session.FromContext(r.Context()); store != nil {
				authenticated = store.IsAuthenticated()
			}

			path := r.URL.Path
			switch {
			case !authenticated && matchesAny(path, sec.ProtectedPaths):
				http.Redirect(w, r, sec.SignInPath, http.StatusFound)
				return
			case authenticated && matchesAny(path, sec.AuthPages):
				http.Redirect(w, r, sec.HomePath, http.StatusFound)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// currentUser returns the signed-in user. Routes behind Authorize always
// have one.
func currentUser(r *http.Request) models.SessionUser {
	if store := session.FromContext(r.Context()); store != nil {
		if sess, ok := store.CurrentSession(); ok {
			return sess.User
		}
	}
	return models.SessionUser{}
}

// matchesAny reports whether path is one of prefixes or below one.
func matchesAny(path string, prefixes []string) bool {
	for _, p := range prefixes {
		p = strings.TrimSuffix(p, "/")
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}

// Authorize allows the request when the signed-in user's role may perform
// the request method's action on resource.
func (h *Handler) Authorize(resource string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			store := session.FromContext(r.Context())
			if store == nil {
				respondErr(w, r, session.ErrNotAuthenticated)
				return
			}
			sess, ok := store.CurrentSession()
			if !ok {
				respondErr(w, r, session.ErrNotAuthenticated)
				return
			}

			action := authz.ActionFor(r.Method)
			allowed, err := h.enforcer.Enforce(sess.User.UserType, resource, action)
			if err != nil {
				respondError(w, http.StatusInternalServerError, CodeInternal, "Authorization check failed", err)
				return
			}
			if !allowed {
				logging.Ctx(r.Context()).Warn().
					Str("user_id", sess.User.ID).
					Str("role", sess.User.UserType).
					Str("resource", resource).
					Str("action", action).
					Msg("Access denied")
				h.audit.LogDenied(r, sess.User, resource, action)
				respondError(w, http.StatusForbidden, CodeForbidden, "You do not have permission to do that", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
