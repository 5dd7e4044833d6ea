// Runit - Running Events Content Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/runit

package api

import (
	"bytes"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/tomtom215/runit/internal/admin"
	"github.com/tomtom215/runit/internal/analytics"
	"github.com/tomtom215/runit/internal/audit"
	"github.com/tomtom215/runit/internal/authz"
	"github.com/tomtom215/runit/internal/backend"
	"github.com/tomtom215/runit/internal/backend/backendtest"
	"github.com/tomtom215/runit/internal/config"
	"github.com/tomtom215/runit/internal/models"
	"github.com/tomtom215/runit/internal/search"
	"github.com/tomtom215/runit/internal/session"
)

const password = "segredo"

var (
	adminUser  = models.SessionUser{ID: "a1", Name: "Bia", Email: "admin@runit.com", UserType: models.RoleAdmin}
	editorUser = models.SessionUser{ID: "e1", Name: "Caio", Email: "editor@runit.com", UserType: models.RoleEditor}
	runnerUser = models.SessionUser{ID: "u1", Name: "Duda", Email: "runner@runit.com", UserType: models.RoleUser}
)

var fixedNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

// harness is a Runit server in front of a fake backend, with a browser
// that keeps cookies and does not follow redirects.
type harness struct {
	t       *testing.T
	fake    *backendtest.Server
	srv     *httptest.Server
	browser *http.Client
	trail   *audit.MemoryStore
}

// envelope mirrors models.APIResponse with raw data.
type envelope struct {
	Status   string           `json:"status"`
	Data     json.RawMessage  `json:"data"`
	Metadata models.Metadata  `json:"metadata"`
	Error    *models.APIError `json:"error"`
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	fake := backendtest.New(t)
	for _, u := range []models.SessionUser{adminUser, editorUser, runnerUser} {
		fake.AddAccount(u.Email, password, u)
	}

	cfg := config.Default()
	cfg.Backend.URL = fake.URL
	cfg.Security.RateLimitReqs = 0
	cfg.Security.AuthRateLimit = 0

	svc := backend.NewServices(backend.NewClient(backend.Options{BaseURL: fake.URL, Timeout: 5 * time.Second}))
	enforcer, err := authz.NewEnforcer()
	if err != nil {
		t.Fatalf("NewEnforcer() error = %v", err)
	}
	searcher := search.NewSearcher(svc.Blog, svc.Races, 0)
	trail := audit.NewMemoryStore(100)
	auditLog := audit.NewLogger(trail, audit.Config{})
	t.Cleanup(auditLog.Close)

	router := NewRouter(Deps{
		Config:    cfg,
		Services:  svc,
		Sessions:  session.NewManager(session.NewMemoryKV(), svc.Auth, session.CookieConfig{TTL: time.Hour}),
		Enforcer:  enforcer,
		Screens:   admin.NewScreens(svc, time.Minute),
		Searcher:  searcher,
		Live:      search.NewLiveHandler(searcher, search.LiveConfig{Debounce: 10 * time.Millisecond}),
		Analytics: &analytics.Collector{Posts: svc.Blog, Users: svc.Users, Races: svc.Races},
		Audit:     auditLog,
		Now:       func() time.Time { return fixedNow },
	})
	srv := httptest.NewServer(router.Handler())
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	return &harness{
		t:     t,
		fake:  fake,
		srv:   srv,
		trail: trail,
		browser: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (h *harness) do(method, path string, body interface{}) (*http.Response, envelope) {
	h.t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			h.t.Fatal(err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, h.srv.URL+path, reader)
	if err != nil {
		h.t.Fatal(err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := h.browser.Do(req)
	if err != nil {
		h.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 && raw[0] == '{' {
		if err := json.Unmarshal(raw, &env); err != nil {
			h.t.Fatalf("decode %s %s: %v", method, path, err)
		}
	}
	return resp, env
}

func (h *harness) login(user models.SessionUser) {
	h.t.Helper()
	resp, env := h.do(http.MethodPost, "/api/auth/login", models.Credentials{Email: user.Email, Password: password})
	if resp.StatusCode != http.StatusOK {
		h.t.Fatalf("login %s: status %d, error %+v", user.Email, resp.StatusCode, env.Error)
	}
}

func decodeData[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(env.Data, &v); err != nil {
		t.Fatalf("decode data: %v (%s)", err, env.Data)
	}
	return v
}

func errorCode(env envelope) string {
	if env.Error == nil {
		return ""
	}
	return env.Error.Code
}

func seedRaces(fake *backendtest.Server) {
	fake.Seed(backend.PathRaces,
		map[string]interface{}{"id": "r1", "name": "Maratona do Rio", "date": "2026-06-01", "city": "Rio de Janeiro",
			"latitude": -22.9068, "longitude": -43.1729, "distance": 42.195, "status": models.RaceStatusActive},
		map[string]interface{}{"id": "r2", "name": "Corrida de São Silvestre", "date": "2026-12-31", "city": "São Paulo",
			"latitude": -23.5505, "longitude": -46.6333, "distance": 15, "status": models.RaceStatusPending},
	)
}

func seedPosts(fake *backendtest.Server) {
	fake.Seed(backend.PathAdminPosts,
		map[string]interface{}{"id": "p1", "title": "Como treinar para a maratona", "slug": "treino-maratona",
			"content": "...", "status": models.PostStatusPublished, "createdAt": "2026-03-10T10:00:00Z"},
		map[string]interface{}{"id": "p2", "title": "Rascunho", "slug": "rascunho",
			"content": "...", "status": models.PostStatusDraft, "createdAt": "2026-03-12T10:00:00Z"},
	)
}

func TestHealth(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	resp, env := h.do(http.MethodGet, "/health", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	health := decodeData[HealthStatus](t, env)
	if health.Status != "healthy" || health.Backend != h.fake.URL || health.SessionStore != "memory" {
		t.Errorf("health = %+v", health)
	}
}

func TestCORSAllowsCredentialedOrigin(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	req, err := http.NewRequest(http.MethodOptions, h.srv.URL+"/api/auth/session", nil)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Origin", config.DefaultCORSOrigin)
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	resp, err := h.browser.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != config.DefaultCORSOrigin {
		t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, config.DefaultCORSOrigin)
	}
	if got := resp.Header.Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Errorf("Access-Control-Allow-Credentials = %q, want true", got)
	}
}

func TestPublicBlog(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	seedPosts(h.fake)

	resp, env := h.do(http.MethodGet, "/api/blog/posts", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list status = %d", resp.StatusCode)
	}
	posts := decodeData[[]models.BlogPost](t, env)
	if len(posts) != 1 || posts[0].Slug != "treino-maratona" {
		t.Errorf("published posts = %+v", posts)
	}
	if env.Metadata.Count == nil || *env.Metadata.Count != 1 {
		t.Errorf("metadata count = %v", env.Metadata.Count)
	}

	resp, env = h.do(http.MethodGet, "/api/blog/posts/treino-maratona", nil)
	if resp.StatusCode != http.StatusOK || decodeData[models.BlogPost](t, env).ID != "p1" {
		t.Errorf("by slug: status %d data %s", resp.StatusCode, env.Data)
	}

	resp, env = h.do(http.MethodGet, "/api/blog/posts/rascunho", nil)
	if resp.StatusCode != http.StatusNotFound || errorCode(env) != CodeNotFound {
		t.Errorf("draft by slug: status %d code %q", resp.StatusCode, errorCode(env))
	}
}

func TestRaceMap(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	seedRaces(h.fake)

	tests := []struct {
		name     string
		query    string
		wantMode string
		selected string
	}{
		{"fits every race", "", "fit", ""},
		{"flies to selection", "?select=r2", "flyTo", "r2"},
		{"unknown selection fits", "?select=nope", "fit", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, env := h.do(http.MethodGet, "/api/races/map"+tt.query, nil)
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status = %d", resp.StatusCode)
			}
			var view struct {
				Markers  []map[string]interface{} `json:"markers"`
				Viewport struct {
					Mode string `json:"mode"`
				} `json:"viewport"`
				Selected string `json:"selected"`
			}
			if err := json.Unmarshal(env.Data, &view); err != nil {
				t.Fatal(err)
			}
			if len(view.Markers) != 2 {
				t.Errorf("markers = %d, want 2", len(view.Markers))
			}
			if view.Viewport.Mode != tt.wantMode || view.Selected != tt.selected {
				t.Errorf("mode %q selected %q, want %q %q", view.Viewport.Mode, view.Selected, tt.wantMode, tt.selected)
			}
		})
	}
}

func TestRaceByID(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	seedRaces(h.fake)

	resp, env := h.do(http.MethodGet, "/api/races/r1", nil)
	if resp.StatusCode != http.StatusOK || decodeData[models.Race](t, env).Name != "Maratona do Rio" {
		t.Errorf("status %d data %s", resp.StatusCode, env.Data)
	}
	resp, env = h.do(http.MethodGet, "/api/races/missing", nil)
	if resp.StatusCode != http.StatusNotFound || errorCode(env) != CodeNotFound {
		t.Errorf("missing: status %d code %q", resp.StatusCode, errorCode(env))
	}
}

func TestSearch(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	seedRaces(h.fake)
	seedPosts(h.fake)

	resp, env := h.do(http.MethodGet, "/api/search?q=%20%20", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("blank: status %d", resp.StatusCode)
	}
	if n := h.fake.TotalCalls(); n != 0 {
		t.Errorf("blank query made %d backend calls", n)
	}

	resp, env = h.do(http.MethodGet, "/api/search?q=sao+silvestre", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	res := decodeData[search.Results](t, env)
	if len(res.Races) != 1 || res.Races[0].ID != "r2" {
		t.Errorf("races = %+v", res.Races)
	}
}

func TestLogin(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		creds      models.Credentials
		wantStatus int
		wantCode   string
		wantCalls  int
	}{
		{"invalid form never reaches the backend", models.Credentials{Email: "not-an-email"}, http.StatusBadRequest, CodeValidation, 0},
		{"wrong password", models.Credentials{Email: editorUser.Email, Password: "errada"}, http.StatusUnauthorized, CodeUnauthorized, 1},
		{"success", models.Credentials{Email: editorUser.Email, Password: password}, http.StatusOK, "", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := newHarness(t)

			resp, env := h.do(http.MethodPost, "/api/auth/login", tt.creds)
			if resp.StatusCode != tt.wantStatus || errorCode(env) != tt.wantCode {
				t.Fatalf("status %d code %q, want %d %q", resp.StatusCode, errorCode(env), tt.wantStatus, tt.wantCode)
			}
			if n := h.fake.Calls(http.MethodPost, backend.PathLogin); n != tt.wantCalls {
				t.Errorf("backend login calls = %d, want %d", n, tt.wantCalls)
			}
		})
	}
}

func TestLogin_BackendMessageSurfaced(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	_, env := h.do(http.MethodPost, "/api/auth/login", models.Credentials{Email: editorUser.Email, Password: "errada"})
	if env.Error == nil || env.Error.Message != backendtest.InvalidCredentialsMessage {
		t.Errorf("error = %+v, want backend message", env.Error)
	}
}

func TestSessionLifecycle(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	_, env := h.do(http.MethodGet, "/api/auth/session", nil)
	if decodeData[SessionView](t, env).Authenticated {
		t.Fatal("fresh browser is authenticated")
	}

	h.login(editorUser)
	_, env = h.do(http.MethodGet, "/api/auth/session", nil)
	view := decodeData[SessionView](t, env)
	if !view.Authenticated || view.User == nil || view.User.ID != editorUser.ID {
		t.Fatalf("session after login = %+v", view)
	}
	if !view.Dashboard {
		t.Error("editor should have dashboard access")
	}
	if _, ok := view.Permissions["posts"]; !ok {
		t.Errorf("editor permissions = %v, want posts", view.Permissions)
	}
	if _, ok := view.Permissions["users"]; ok {
		t.Errorf("editor permissions = %v, must not include users", view.Permissions)
	}

	h.do(http.MethodPost, "/api/auth/logout", nil)
	_, env = h.do(http.MethodGet, "/api/auth/session", nil)
	if decodeData[SessionView](t, env).Authenticated {
		t.Error("session survived logout")
	}
}

func TestRegister(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	req := models.RegisterRequest{Name: "Eva", LastName: "Lima", Email: "eva@runit.com", Password: "123456"}
	resp, env := h.do(http.MethodPost, "/api/auth/register", req)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status %d error %+v", resp.StatusCode, env.Error)
	}
	view := decodeData[SessionView](t, env)
	if !view.Authenticated || view.Dashboard {
		t.Errorf("new runner view = %+v", view)
	}

	resp, env = h.do(http.MethodPost, "/api/auth/register", req)
	if resp.StatusCode != http.StatusConflict || errorCode(env) != CodeConflict {
		t.Errorf("duplicate: status %d code %q", resp.StatusCode, errorCode(env))
	}
}

func TestRouteGuard(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	expectRedirect := func(path, location string) {
		t.Helper()
		resp, _ := h.do(http.MethodGet, path, nil)
		if resp.StatusCode != http.StatusFound || resp.Header.Get("Location") != location {
			t.Errorf("GET %s: status %d location %q, want 302 %q", path, resp.StatusCode, resp.Header.Get("Location"), location)
		}
	}
	expectOK := func(path string) {
		t.Helper()
		resp, _ := h.do(http.MethodGet, path, nil)
		if resp.StatusCode != http.StatusOK {
			t.Errorf("GET %s: status %d, want 200", path, resp.StatusCode)
		}
	}

	expectRedirect("/dashboard", "/signin")
	expectRedirect("/dashboard/posts/new", "/signin")
	expectRedirect("/perfil", "/signin")
	expectOK("/signin")
	expectOK("/signup")

	h.login(runnerUser)
	expectOK("/dashboard")
	expectOK("/configuracoes")
	expectRedirect("/signin", "/dashboard")
	expectRedirect("/signup", "/dashboard")

	h.do(http.MethodPost, "/api/auth/logout", nil)
	expectRedirect("/home", "/signin")
}

func TestOAuthCallback(t *testing.T) {
	t.Parallel()

	t.Run("valid callback signs in", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)

		q := url.Values{}
		q.Set("token", backendtest.IssueToken(editorUser))
		q.Set("id", editorUser.ID)
		q.Set("name", editorUser.Name)
		q.Set("email", editorUser.Email)
		q.Set("role", "editor")
		resp, _ := h.do(http.MethodGet, "/auth/callback?"+q.Encode(), nil)
		if resp.StatusCode != http.StatusFound || resp.Header.Get("Location") != "/dashboard" {
			t.Fatalf("status %d location %q", resp.StatusCode, resp.Header.Get("Location"))
		}

		_, env := h.do(http.MethodGet, "/api/auth/session", nil)
		view := decodeData[SessionView](t, env)
		if !view.Authenticated || view.User.UserType != models.RoleEditor {
			t.Errorf("session = %+v", view)
		}
	})

	t.Run("missing token bounces to sign-in", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)

		resp, _ := h.do(http.MethodGet, "/auth/callback?id=e1", nil)
		if resp.StatusCode != http.StatusFound || resp.Header.Get("Location") != "/signin?error=oauth" {
			t.Errorf("status %d location %q", resp.StatusCode, resp.Header.Get("Location"))
		}
	})
}

func TestThemePreference(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	_, env := h.do(http.MethodGet, "/api/preferences/theme", nil)
	if got := decodeData[themeBody](t, env).Theme; got != ThemeLight {
		t.Errorf("default theme = %q", got)
	}

	resp, _ := h.do(http.MethodPut, "/api/preferences/theme", themeBody{Theme: ThemeDark})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("PUT status = %d", resp.StatusCode)
	}
	resp, env = h.do(http.MethodPut, "/api/preferences/theme", themeBody{Theme: "neon"})
	if resp.StatusCode != http.StatusBadRequest || errorCode(env) != CodeValidation {
		t.Errorf("invalid theme: status %d code %q", resp.StatusCode, errorCode(env))
	}

	// The preference survives logout.
	h.login(runnerUser)
	h.do(http.MethodPost, "/api/auth/logout", nil)
	_, env = h.do(http.MethodGet, "/api/preferences/theme", nil)
	if got := decodeData[themeBody](t, env).Theme; got != ThemeDark {
		t.Errorf("theme after logout = %q, want dark", got)
	}
}

func TestLiveSearchThroughRouter(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	seedRaces(h.fake)

	header := http.Header{}
	header.Set("Origin", h.srv.URL)
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(h.srv.URL, "http")+"/ws/search", header)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(search.Message{Type: search.MessageTypeQuery, Query: "rio"}); err != nil {
		t.Fatal(err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg search.Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg.Type != search.MessageTypeResults || msg.Results == nil || len(msg.Results.Races) != 1 {
		t.Errorf("message = %+v", msg)
	}
}
