// Runit - Running Events Content Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/runit

package session

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/runit/internal/backend"
	"github.com/tomtom215/runit/internal/backend/backendtest"
	"github.com/tomtom215/runit/internal/models"
)

var testUser = models.SessionUser{ID: "u1", Name: "Ana", Email: "ana@runit.com", UserType: models.RoleEditor}

// fakeAuth is an Authenticator that answers from fields.
type fakeAuth struct {
	resp  *models.AuthResponse
	err   error
	calls int
}

func (f *fakeAuth) Login(_ context.Context, _ models.Credentials) (*models.AuthResponse, error) {
	f.calls++
	return f.resp, f.err
}

func (f *fakeAuth) Register(_ context.Context, _ models.RegisterRequest) (*models.AuthResponse, error) {
	f.calls++
	return f.resp, f.err
}

func newBackendAuth(t *testing.T) *backend.AuthService {
	t.Helper()
	fake := backendtest.New(t)
	fake.AddAccount("ana@runit.com", "segredo", testUser)
	return backend.NewAuthService(backend.NewClient(backend.Options{BaseURL: fake.URL, Timeout: 5 * time.Second}))
}

func TestStore_LoginPersistsAndReloadRestores(t *testing.T) {
	t.Parallel()

	auth := newBackendAuth(t)
	storage := NewMemoryStorage()
	ctx := context.Background()

	store := New(storage, auth)
	store.Hydrate(ctx)
	if store.IsAuthenticated() {
		t.Fatal("fresh store should be unauthenticated")
	}

	sess, err := store.Login(ctx, "ana@runit.com", "segredo")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if sess.User.ID != "u1" || sess.Token == "" {
		t.Errorf("Login() session = %+v", sess)
	}
	if sess.ExpiresAt.IsZero() {
		t.Error("expected ExpiresAt from the token's exp claim")
	}

	// A page reload is a new Store over the same storage.
	reloaded := New(storage, auth)
	if !reloaded.IsLoading() {
		t.Error("store should report loading before hydration")
	}
	reloaded.Hydrate(ctx)
	if reloaded.IsLoading() {
		t.Error("store should not report loading after hydration")
	}
	got, ok := reloaded.CurrentSession()
	if !ok {
		t.Fatal("reloaded store is not authenticated")
	}
	if got.User != sess.User || got.Token != sess.Token {
		t.Errorf("reloaded session = %+v, want %+v", got, *sess)
	}
}

func TestStore_LoginFailureKeepsBackendMessage(t *testing.T) {
	t.Parallel()

	auth := newBackendAuth(t)
	storage := NewMemoryStorage()
	ctx := context.Background()

	store := New(storage, auth)
	store.Hydrate(ctx)
	_, err := store.Login(ctx, "ana@runit.com", "errada")
	if err == nil {
		t.Fatal("Login() error = nil")
	}
	if err.Error() != backendtest.InvalidCredentialsMessage {
		t.Errorf("error = %q, want %q", err.Error(), backendtest.InvalidCredentialsMessage)
	}
	if _, ok := store.CurrentSession(); ok {
		t.Error("failed login left the store authenticated")
	}
	if len(storage.Keys()) != 0 {
		t.Errorf("storage keys = %v, want none", storage.Keys())
	}
}

func TestStore_LoginFailureClearsPreviousSession(t *testing.T) {
	t.Parallel()

	storage := NewMemoryStorage()
	auth := &fakeAuth{resp: &models.AuthResponse{Token: "t1", User: testUser}}
	ctx := context.Background()

	store := New(storage, auth)
	if _, err := store.Login(ctx, "ana@runit.com", "segredo"); err != nil {
		t.Fatal(err)
	}

	auth.resp, auth.err = nil, &backend.APIError{Status: 401, Message: "Sessão inválida"}
	if _, err := store.Login(ctx, "ana@runit.com", "outra"); err == nil || err.Error() != "Sessão inválida" {
		t.Fatalf("Login() error = %v", err)
	}
	if store.IsAuthenticated() {
		t.Error("store still authenticated after failed login")
	}
	if _, ok, _ := storage.Get(KeyToken); ok {
		t.Error("token still stored after failed login")
	}
}

func TestStore_TransportErrorMessage(t *testing.T) {
	t.Parallel()

	cause := errors.New("dial tcp 127.0.0.1:8080: connect: connection refused")
	store := New(NewMemoryStorage(), &fakeAuth{err: cause})
	_, err := store.Login(context.Background(), "ana@runit.com", "segredo")
	if err == nil || err.Error() != "unable to reach the server, try again" {
		t.Errorf("error = %v", err)
	}
	if !errors.Is(err, cause) {
		t.Error("transport error should wrap the cause")
	}
}

func TestStore_HydrateDiscardsCorruptSession(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		seed map[string]string
	}{
		{"unparseable user", map[string]string{KeyToken: "t", KeyCurrentUser: "{not json"}},
		{"token without user", map[string]string{KeyToken: "t"}},
		{"user without token", map[string]string{KeyCurrentUser: `{"id":"u1"}`}},
		{"user without id", map[string]string{KeyToken: "t", KeyCurrentUser: `{"name":"Ana"}`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			storage := NewMemoryStorage()
			for k, v := range tt.seed {
				_ = storage.Set(k, v)
			}
			_ = storage.Set(KeyTheme, "dark")

			store := New(storage, &fakeAuth{})
			store.Hydrate(context.Background())

			if store.IsAuthenticated() {
				t.Error("corrupt session should hydrate as unauthenticated")
			}
			if _, ok, _ := storage.Get(KeyToken); ok {
				t.Error("token should be cleared")
			}
			if _, ok, _ := storage.Get(KeyCurrentUser); ok {
				t.Error("currentUser should be cleared")
			}
			if store.Theme() != "dark" {
				t.Error("theme preference should survive clearing the session")
			}
		})
	}
}

// flakyStorage fails every Get while failGet is set.
type flakyStorage struct {
	*MemoryStorage
	failGet bool
}

func (f *flakyStorage) Get(key string) (string, bool, error) {
	if f.failGet {
		return "", false, errors.New("value log read: i/o timeout")
	}
	return f.MemoryStorage.Get(key)
}

func TestStore_HydrateKeepsSessionOnReadFailure(t *testing.T) {
	t.Parallel()

	user, _ := json.Marshal(testUser)
	storage := &flakyStorage{MemoryStorage: NewMemoryStorage()}
	_ = storage.Set(KeyToken, "t")
	_ = storage.Set(KeyCurrentUser, string(user))

	storage.failGet = true
	store := New(storage, &fakeAuth{})
	store.Hydrate(context.Background())
	if store.IsAuthenticated() {
		t.Error("a failed read should hydrate as unauthenticated")
	}

	// The stored session is intact, so the next request signs back in.
	storage.failGet = false
	if _, ok, _ := storage.Get(KeyToken); !ok {
		t.Fatal("token was cleared after a read failure")
	}
	reloaded := New(storage, &fakeAuth{})
	reloaded.Hydrate(context.Background())
	if sess, ok := reloaded.CurrentSession(); !ok || sess.User.ID != testUser.ID {
		t.Errorf("CurrentSession() = %+v, %v; want restored session", sess, ok)
	}
}

func TestStore_Logout(t *testing.T) {
	t.Parallel()

	storage := NewMemoryStorage()
	store := New(storage, &fakeAuth{resp: &models.AuthResponse{Token: "t1", User: testUser}})
	ctx := context.Background()
	if _, err := store.Login(ctx, "ana@runit.com", "segredo"); err != nil {
		t.Fatal(err)
	}

	store.Logout(ctx)
	if store.IsAuthenticated() || store.Token() != "" {
		t.Error("store authenticated after Logout")
	}
	reloaded := New(storage, &fakeAuth{})
	reloaded.Hydrate(ctx)
	if reloaded.IsAuthenticated() {
		t.Error("logout did not clear storage")
	}
}

func TestStore_PersistedUserJSON(t *testing.T) {
	t.Parallel()

	storage := NewMemoryStorage()
	store := New(storage, &fakeAuth{resp: &models.AuthResponse{Token: "t1", User: testUser}})
	if _, err := store.Login(context.Background(), "ana@runit.com", "segredo"); err != nil {
		t.Fatal(err)
	}
	raw, ok, _ := storage.Get(KeyCurrentUser)
	if !ok {
		t.Fatal("currentUser not stored")
	}
	var stored map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		t.Fatal(err)
	}
	if stored["user_type"] != models.RoleEditor || stored["email"] != "ana@runit.com" {
		t.Errorf("stored user = %v", stored)
	}
	if token, _, _ := storage.Get(KeyToken); token != "t1" {
		t.Errorf("stored token = %q, want t1", token)
	}
}

func TestStore_LoginWithoutToken(t *testing.T) {
	t.Parallel()

	store := New(NewMemoryStorage(), &fakeAuth{resp: &models.AuthResponse{User: testUser}})
	if _, err := store.Login(context.Background(), "ana@runit.com", "segredo"); err == nil {
		t.Error("expected error for a response without token")
	}
	if store.IsAuthenticated() {
		t.Error("store authenticated without token")
	}
}

func TestStore_Register(t *testing.T) {
	t.Parallel()

	auth := newBackendAuth(t)
	store := New(NewMemoryStorage(), auth)
	sess, err := store.Register(context.Background(), models.RegisterRequest{
		Name: "Bruno", LastName: "Lima", Email: "bruno@runit.com", Password: "123456",
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if sess.User.Email != "bruno@runit.com" || sess.User.UserType != models.RoleUser {
		t.Errorf("Register() user = %+v", sess.User)
	}

	_, err = store.Register(context.Background(), models.RegisterRequest{
		Name: "Ana", LastName: "Souza", Email: "ana@runit.com", Password: "123456",
	})
	if err == nil || err.Error() != "E-mail já cadastrado" {
		t.Errorf("duplicate Register() error = %v", err)
	}
	if store.IsAuthenticated() {
		t.Error("failed register should clear the session")
	}
}

func TestStore_CompleteOAuth(t *testing.T) {
	t.Parallel()

	token := backendtest.IssueToken(testUser)
	tests := []struct {
		name    string
		query   url.Values
		wantErr bool
	}{
		{
			name: "valid callback",
			query: url.Values{
				"token": {token}, "id": {"u1"}, "name": {"Ana"}, "lastName": {"Souza"},
				"email": {"ana@runit.com"}, "role": {"editor"},
			},
		},
		{name: "missing token", query: url.Values{"id": {"u1"}}, wantErr: true},
		{name: "missing id", query: url.Values{"token": {token}}, wantErr: true},
		{name: "malformed token", query: url.Values{"token": {"not-a-jwt"}, "id": {"u1"}}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			store := New(NewMemoryStorage(), &fakeAuth{})
			sess, err := store.CompleteOAuth(context.Background(), tt.query)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidCallback) {
					t.Errorf("error = %v, want ErrInvalidCallback", err)
				}
				if store.IsAuthenticated() {
					t.Error("store authenticated after invalid callback")
				}
				return
			}
			if err != nil {
				t.Fatalf("CompleteOAuth() error = %v", err)
			}
			want := models.SessionUser{ID: "u1", Name: "Ana", LastName: "Souza", Email: "ana@runit.com", UserType: models.RoleEditor}
			if sess.User != want {
				t.Errorf("user = %+v, want %+v", sess.User, want)
			}
		})
	}
}

func TestTokenExpiry(t *testing.T) {
	t.Parallel()

	if !TokenExpiry("opaque-token").IsZero() {
		t.Error("opaque token should have no expiry")
	}
	exp := TokenExpiry(backendtest.IssueToken(testUser))
	if exp.Before(time.Now()) || exp.After(time.Now().Add(2*time.Hour)) {
		t.Errorf("TokenExpiry() = %v, want about an hour from now", exp)
	}
}
