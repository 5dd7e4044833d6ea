// Runit - Running Events Content Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/runit

package api

import (
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/tomtom215/runit/internal/admin"
	"github.com/tomtom215/runit/internal/audit"
	"github.com/tomtom215/runit/internal/logging"
	"github.com/tomtom215/runit/internal/models"
	"github.com/tomtom215/runit/internal/session"
	"github.com/tomtom215/runit/internal/validation"
)

// Themes.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// SessionView is what the browser learns about its session.
type SessionView struct {
	Authenticated bool                `json:"authenticated"`
	User          *models.SessionUser `json:"user,omitempty"`
	ExpiresAt     *time.Time          `json:"expiresAt,omitempty"`
	Dashboard     bool                `json:"dashboard"`
	Permissions   map[string][]string `json:"permissions,omitempty"`
}

func (h *Handler) sessionView(sess *session.Session) SessionView {
	if sess == nil {
		return SessionView{}
	}
	user := sess.User
	view := SessionView{
		Authenticated: true,
		User:          &user,
		Dashboard:     h.enforcer.CanAccessDashboard(user.UserType),
		Permissions:   h.enforcer.Permissions(user.UserType),
	}
	if !sess.ExpiresAt.IsZero() {
		exp := sess.ExpiresAt
		view.ExpiresAt = &exp
	}
	return view
}

func storeOf(w http.ResponseWriter, r *http.Request) *session.Store {
	store := session.FromContext(r.Context())
	if store == nil {
		respondError(w, http.StatusInternalServerError, CodeInternal, "Session unavailable", nil)
	}
	return store
}

// Login signs the browser in with email and password.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	store := storeOf(w, r)
	if store == nil {
		return
	}
	var creds models.Credentials
	if !decodeJSON(w, r, &creds) {
		return
	}
	if err := validation.ValidateCredentials(&creds); err != nil {
		respondErr(w, r, err)
		return
	}

	sess, err := store.Login(r.Context(), creds.Email, creds.Password)
	if err != nil {
		if !errors.Is(err, session.ErrUnreachable) {
			h.audit.LogLogin(r, nil, creds.Email, admin.BannerFor(err).Message)
		}
		respondErr(w, r, err)
		return
	}
	h.audit.LogLogin(r, &sess.User, creds.Email, "")
	respondData(w, http.StatusOK, h.sessionView(sess), time.Time{})
}

// Register creates an account and signs it in.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	store := storeOf(w, r)
	if store == nil {
		return
	}
	var req models.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validation.ValidateRegistration(&req); err != nil {
		respondErr(w, r, err)
		return
	}

	sess, err := store.Register(r.Context(), req)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	h.audit.LogSession(r, audit.EventRegister, sess.User)
	respondData(w, http.StatusCreated, h.sessionView(sess), time.Time{})
}

// Logout clears the browser's session.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	store := storeOf(w, r)
	if store == nil {
		return
	}
	if sess, ok := store.CurrentSession(); ok {
		h.audit.LogSession(r, audit.EventLogout, sess.User)
	}
	store.Logout(r.Context())
	respondData(w, http.StatusOK, SessionView{}, time.Time{})
}

// Session reports the browser's session.
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	store := storeOf(w, r)
	if store == nil {
		return
	}
	sess, ok := store.CurrentSession()
	if !ok {
		respondData(w, http.StatusOK, SessionView{}, time.Time{})
		return
	}
	respondData(w, http.StatusOK, h.sessionView(&sess), time.Time{})
}

// OAuthCallback completes third-party sign-in. The backend redirects here
// with the token and user in the query string.
func (h *Handler) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	store := storeOf(w, r)
	if store == nil {
		return
	}
	sec := h.cfg.Security
	sess, err := store.CompleteOAuth(r.Context(), r.URL.Query())
	if err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("OAuth sign-in failed")
		http.Redirect(w, r, sec.SignInPath+"?error="+url.QueryEscape("oauth"), http.StatusFound)
		return
	}
	h.audit.LogSession(r, audit.EventOAuth, sess.User)
	http.Redirect(w, r, sec.HomePath, http.StatusFound)
}

type themeBody struct {
	Theme string `json:"theme"`
}

// Theme returns the stored theme, light when none is stored.
func (h *Handler) Theme(w http.ResponseWriter, r *http.Request) {
	store := storeOf(w, r)
	if store == nil {
		return
	}
	theme := store.Theme()
	if theme != ThemeDark {
		theme = ThemeLight
	}
	respondData(w, http.StatusOK, themeBody{Theme: theme}, time.Time{})
}

// SetTheme stores the theme preference.
func (h *Handler) SetTheme(w http.ResponseWriter, r *http.Request) {
	store := storeOf(w, r)
	if store == nil {
		return
	}
	var body themeBody
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.Theme != ThemeLight && body.Theme != ThemeDark {
		respondError(w, http.StatusBadRequest, CodeValidation, "theme must be one of: light dark", nil)
		return
	}
	if err := store.SetTheme(body.Theme); err != nil {
		respondError(w, http.StatusInternalServerError, CodeInternal, "Failed to save preference", err)
		return
	}
	respondData(w, http.StatusOK, body, time.Time{})
}
