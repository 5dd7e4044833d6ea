// Runit - Running Events Content Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/runit

// Package backendtest provides an in-memory fake of the Runit backend REST
// API for tests.
//
//	fake := backendtest.New(t)
//	client := backend.NewClient(backend.Options{BaseURL: fake.URL})
package backendtest

import (
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"

	"github.com/tomtom215/runit/internal/models"
)

// SigningKey signs the HS256 tokens issued by the fake.
var SigningKey = []byte("runit-backendtest-signing-key")

// InvalidCredentialsMessage is the error text returned for a bad login.
const InvalidCredentialsMessage = "E-mail ou senha inválidos"

type account struct {
	password string
	user     models.SessionUser
}

// Server is a fake backend. Collections hold arbitrary JSON objects keyed
// by id.
type Server struct {
	*httptest.Server

	mu          sync.Mutex
	nextID      int
	accounts    map[string]account
	collections map[string]map[string]map[string]interface{}
	calls       map[string]int
	lastAuth    string
	failures    map[string]failure
}

type failure struct {
	status int
	body   string
}

var collectionPaths = []string{
	"/api/admin/blog-posts",
	"/api/admin/blog-categories",
	"/api/races",
	"/api/users",
	"/api/membership-types",
}

// New starts a fake backend that is closed when the test ends.
func New(t testing.TB) *Server {
	t.Helper()

	s := &Server{
		accounts:    make(map[string]account),
		collections: make(map[string]map[string]map[string]interface{}),
		calls:       make(map[string]int),
		failures:    make(map[string]failure),
	}
	for _, p := range collectionPaths {
		s.collections[p] = make(map[string]map[string]interface{})
	}

	r := chi.NewRouter()
	r.Use(s.record)
	r.Post("/api/auth/login", s.handleLogin)
	r.Post("/api/auth/register", s.handleRegister)
	r.Get("/api/blog/posts", s.handlePublished)
	r.Get("/api/blog/posts/{slug}", s.handlePublishedBySlug)
	for _, p := range collectionPaths {
		path := p
		r.Get(path, func(w http.ResponseWriter, r *http.Request) { s.handleList(w, path) })
		r.Post(path, func(w http.ResponseWriter, r *http.Request) { s.handleCreate(w, r, path) })
		r.Get(path+"/{id}", func(w http.ResponseWriter, r *http.Request) { s.handleGet(w, r, path) })
		r.Put(path+"/{id}", func(w http.ResponseWriter, r *http.Request) { s.handleUpdate(w, r, path) })
		r.Delete(path+"/{id}", func(w http.ResponseWriter, r *http.Request) { s.handleDelete(w, r, path) })
	}

	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

// AddAccount registers credentials accepted by the login endpoint.
func (s *Server) AddAccount(email, password string, user models.SessionUser) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[strings.ToLower(email)] = account{password: password, user: user}
}

// Seed inserts items into the collection at path. Items are converted to
// JSON objects; an item without an id gets one.
func (s *Server) Seed(path string, items ...interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range items {
		obj := toObject(item)
		id, _ := obj["id"].(string)
		if id == "" {
			id = s.newID()
			obj["id"] = id
		}
		s.collections[path][id] = obj
	}
}

// Calls returns how many requests matched "METHOD /path".
func (s *Server) Calls(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method+" "+path]
}

// TotalCalls returns the number of requests received.
func (s *Server) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		n += c
	}
	return n
}

// LastAuthorization returns the Authorization header of the last request.
func (s *Server) LastAuthorization() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAuth
}

// FailNext makes the next request to "METHOD /path" answer with status
// and a raw body.
func (s *Server) FailNext(method, path string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = failure{status: status, body: body}
}

// IssueToken returns a signed token for user.
func IssueToken(user models.SessionUser) string {
	claims := jwt.MapClaims{
		"sub":       user.ID,
		"email":     user.Email,
		"user_type": user.UserType,
		"iat":       time.Now().Unix(),
		"exp":       time.Now().Add(time.Hour).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(SigningKey)
	if err != nil {
		panic(err)
	}
	return signed
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		s.mu.Lock()
		s.calls[key]++
		s.lastAuth = r.Header.Get("Authorization")
		f, failing := s.failures[key]
		delete(s.failures, key)
		s.mu.Unlock()

		if failing {
			w.WriteHeader(f.status)
			_, _ = w.Write([]byte(f.body))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds models.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "corpo inválido"})
		return
	}
	s.mu.Lock()
	acct, ok := s.accounts[strings.ToLower(creds.Email)]
	s.mu.Unlock()
	if !ok || acct.password != creds.Password {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": InvalidCredentialsMessage})
		return
	}
	writeJSON(w, http.StatusOK, models.AuthResponse{Token: IssueToken(acct.user), User: acct.user})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "corpo inválido"})
		return
	}
	email := strings.ToLower(req.Email)

	s.mu.Lock()
	if _, exists := s.accounts[email]; exists {
		s.mu.Unlock()
		writeJSON(w, http.StatusConflict, map[string]string{"message": "E-mail já cadastrado"})
		return
	}
	user := models.SessionUser{ID: s.newID(), Name: req.Name, LastName: req.LastName, Email: email, UserType: models.RoleUser}
	s.accounts[email] = account{password: req.Password, user: user}
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, models.AuthResponse{Token: IssueToken(user), User: user})
}

func (s *Server) handlePublished(w http.ResponseWriter, _ *http.Request) {
	posts := s.sorted("/api/admin/blog-posts")
	published := make([]map[string]interface{}, 0, len(posts))
	for _, p := range posts {
		if p["status"] == models.PostStatusPublished {
			published = append(published, p)
		}
	}
	writeJSON(w, http.StatusOK, published)
}

func (s *Server) handlePublishedBySlug(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	for _, p := range s.sorted("/api/admin/blog-posts") {
		if p["slug"] == slug && p["status"] == models.PostStatusPublished {
			writeJSON(w, http.StatusOK, p)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"message": "Post não encontrado"})
}

func (s *Server) handleList(w http.ResponseWriter, path string) {
	writeJSON(w, http.StatusOK, s.sorted(path))
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request, path string) {
	s.mu.Lock()
	obj, ok := s.collections[path][chi.URLParam(r, "id")]
	s.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Registro não encontrado"})
		return
	}
	writeJSON(w, http.StatusOK, obj)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request, path string) {
	obj := map[string]interface{}{}
	if err := json.NewDecoder(r.Body).Decode(&obj); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "corpo inválido"})
		return
	}
	s.mu.Lock()
	obj["id"] = s.newID()
	s.collections[path][obj["id"].(string)] = obj
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, obj)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request, path string) {
	id := chi.URLParam(r, "id")
	obj := map[string]interface{}{}
	if err := json.NewDecoder(r.Body).Decode(&obj); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "corpo inválido"})
		return
	}
	s.mu.Lock()
	existing, ok := s.collections[path][id]
	if ok {
		for k, v := range obj {
			existing[k] = v
		}
		existing["id"] = id
	}
	s.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Registro não encontrado"})
		return
	}
	writeJSON(w, http.StatusOK, existing)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request, path string) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	_, ok := s.collections[path][id]
	delete(s.collections[path], id)
	s.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Registro não encontrado"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// sorted returns the collection ordered by numeric id, then by string id.
func (s *Server) sorted(path string) []map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]map[string]interface{}, 0, len(s.collections[path]))
	for _, obj := range s.collections[path] {
		out = append(out, obj)
	}
	sort.Slice(out, func(i, j int) bool {
		a, _ := out[i]["id"].(string)
		b, _ := out[j]["id"].(string)
		ai, errA := strconv.Atoi(a)
		bi, errB := strconv.Atoi(b)
		if errA == nil && errB == nil {
			return ai < bi
		}
		return a < b
	})
	return out
}

// newID must be called with mu held.
func (s *Server) newID() string {
	s.nextID++
	return strconv.Itoa(s.nextID)
}

func toObject(v interface{}) map[string]interface{} {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	obj := map[string]interface{}{}
	if err := json.Unmarshal(data, &obj); err != nil {
		panic(err)
	}
	return obj
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
