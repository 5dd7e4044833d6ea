// Runit - Running Events Content Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/runit

// Package session tracks the signed-in user of a browser.
//
// A Store holds the current session and exposes Login, Register, Logout and
// CurrentSession. It persists the bearer token and the user JSON under the
// "token" and "currentUser" keys of an injected Storage, and calls an
// injected Authenticator for credential checks, so tests substitute both.
//
// There is no token refresh and no expiry handling. A backend 401 is
// logged by the backend client and does not end the session.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/runit/internal/backend"
	"github.com/tomtom215/runit/internal/logging"
	"github.com/tomtom215/runit/internal/metrics"
	"github.com/tomtom215/runit/internal/models"
)

// Storage keys.
const (
	KeyToken       = "token"
	KeyCurrentUser = "currentUser"
	KeyTheme       = "theme"
)

var (
	// ErrNotAuthenticated is returned by operations that need a session.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrUnreachable matches login and signup failures where the backend
	// could not be reached.
	ErrUnreachable = errors.New("backend unreachable")
)

// Storage is a string key/value store scoped to one browser.
type Storage interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(keys ...string) error
}

// Authenticator checks credentials against the backend.
type Authenticator interface {
	Login(ctx context.Context, creds models.Credentials) (*models.AuthResponse, error)
	Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error)
}

// Session is an authenticated user and its bearer token.
type Session struct {
	Token string             `json:"-"`
	User  models.SessionUser `json:"user"`

	// ExpiresAt is read from the token's exp claim when it has one. It is
	// informational only.
	ExpiresAt time.Time `json:"expiresAt,omitempty"`
}

// Store is the session state of one browser.
type Store struct {
	storage Storage
	auth    Authenticator

	mu      sync.RWMutex
	current *Session
	loading bool
}

// New creates a Store. The store reports IsLoading until Hydrate runs.
func New(storage Storage, auth Authenticator) *Store {
	return &Store{storage: storage, auth: auth, loading: true}
}

// errStorageRead marks a failed storage read, as opposed to stored data
// that cannot be used.
var errStorageRead = errors.New("storage read failed")

// Hydrate restores the session persisted in storage. A corrupt or partial
// session clears both keys. A failed read leaves storage alone and the
// store unauthenticated until the next hydration. No error is surfaced.
func (s *Store) Hydrate(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() { s.loading = false }()

	s.current = nil
	sess, err := s.readPersisted()
	switch {
	case errors.Is(err, errStorageRead):
		logging.Ctx(ctx).Warn().Err(err).Msg("Stored session could not be read")
		return
	case err != nil:
		logging.Ctx(ctx).Debug().Err(err).Msg("Discarding unreadable stored session")
		s.clearStorage(ctx)
		return
	}
	s.current = sess
}

func (s *Store) readPersisted() (*Session, error) {
	token, hasToken, err := s.storage.Get(KeyToken)
	if err != nil {
		return nil, fmt.Errorf("%w: token: %w", errStorageRead, err)
	}
	rawUser, hasUser, err := s.storage.Get(KeyCurrentUser)
	if err != nil {
		return nil, fmt.Errorf("%w: current user: %w", errStorageRead, err)
	}
	if !hasToken && !hasUser {
		return nil, nil
	}
	if !hasToken || token == "" || !hasUser {
		return nil, errors.New("incomplete stored session")
	}

	var user models.SessionUser
	if err := json.Unmarshal([]byte(rawUser), &user); err != nil {
		return nil, fmt.Errorf("parse current user: %w", err)
	}
	if user.ID == "" {
		return nil, errors.New("stored user has no id")
	}
	return &Session{Token: token, User: user, ExpiresAt: TokenExpiry(token)}, nil
}

// Login checks credentials with the backend. On success the session is
// persisted and becomes current. On failure any stored session is cleared
// and the returned error carries the backend's message.
func (s *Store) Login(ctx context.Context, email, password string) (*Session, error) {
	resp, err := s.auth.Login(ctx, models.Credentials{Email: email, Password: password})
	metrics.RecordLogin("password", err)
	if err != nil {
		s.reset(ctx)
		return nil, userFacing(err)
	}
	return s.establish(ctx, resp.Token, resp.User)
}

// Register creates an account and signs it in, with the same persistence
// contract as Login.
func (s *Store) Register(ctx context.Context, req models.RegisterRequest) (*Session, error) {
	resp, err := s.auth.Register(ctx, req)
	metrics.RecordLogin("register", err)
	if err != nil {
		s.reset(ctx)
		return nil, userFacing(err)
	}
	return s.establish(ctx, resp.Token, resp.User)
}

// Logout clears storage and state. The token is not revoked server-side.
func (s *Store) Logout(ctx context.Context) {
	s.reset(ctx)
}

// CurrentSession returns a copy of the current session.
func (s *Store) CurrentSession() (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return Session{}, false
	}
	return *s.current, true
}

// IsAuthenticated reports whether a user is signed in.
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current != nil
}

// IsLoading reports whether Hydrate has not completed yet.
func (s *Store) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Token returns the bearer token, or "".
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return ""
	}
	return s.current.Token
}

// Theme returns the stored theme preference, or "".
func (s *Store) Theme() string {
	theme, _, err := s.storage.Get(KeyTheme)
	if err != nil {
		return ""
	}
	return theme
}

// SetTheme stores the theme preference. The preference survives logout.
func (s *Store) SetTheme(theme string) error {
	return s.storage.Set(KeyTheme, theme)
}

func (s *Store) establish(ctx context.Context, token string, user models.SessionUser) (*Session, error) {
	if token == "" {
		s.reset(ctx)
		return nil, errors.New("login response did not include a token")
	}
	rawUser, err := json.Marshal(user)
	if err != nil {
		return nil, fmt.Errorf("encode current user: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.storage.Set(KeyToken, token); err != nil {
		return nil, fmt.Errorf("persist token: %w", err)
	}
	if err := s.storage.Set(KeyCurrentUser, string(rawUser)); err != nil {
		return nil, fmt.Errorf("persist current user: %w", err)
	}
	s.current = &Session{Token: token, User: user, ExpiresAt: TokenExpiry(token)}
	s.loading = false

	logging.Ctx(ctx).Info().Str("user_id", user.ID).Str("user_type", user.UserType).Msg("Session established")
	sess := *s.current
	return &sess, nil
}

func (s *Store) reset(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
	s.loading = false
	s.clearStorage(ctx)
}

// clearStorage must be called with mu held.
func (s *Store) clearStorage(ctx context.Context) {
	if err := s.storage.Delete(KeyToken, KeyCurrentUser); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("Failed to clear stored session")
	}
}

// userFacing keeps backend messages as they are and replaces transport
// errors with a message fit for a login form.
func userFacing(err error) error {
	if backend.StatusOf(err) > 0 {
		return err
	}
	return &unreachableError{err: err}
}

type unreachableError struct {
	err error
}

func (e *unreachableError) Error() string { return "unable to reach the server, try again" }

func (e *unreachableError) Unwrap() error { return e.err }

func (e *unreachableError) Is(target error) bool { return target == ErrUnreachable }
