// Runit - Running Events Content Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/runit

package audit

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tomtom215/runit/internal/models"
)

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func event(id string, typ EventType, actor string, offset time.Duration) *Event {
	return &Event{ID: id, Type: typ, Actor: Actor{ID: actor}, Resource: "posts", Timestamp: base.Add(offset)}
}

func ids(events []Event) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.ID
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// stores runs f against every Store implementation.
func stores(t *testing.T, f func(t *testing.T, s Store)) {
	t.Helper()
	t.Run("memory", func(t *testing.T) {
		t.Parallel()
		f(t, NewMemoryStore(10))
	})
	t.Run("badger", func(t *testing.T) {
		t.Parallel()
		s, err := OpenBadgerStore("", 0)
		if err != nil {
			t.Fatalf("OpenBadgerStore() error = %v", err)
		}
		t.Cleanup(func() { s.Close() })
		f(t, s)
	})
}

func TestStoreQuery(t *testing.T) {
	t.Parallel()

	stores(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		for _, e := range []*Event{
			event("e1", EventLogin, "a1", 0),
			event("e2", EventCreated, "a1", time.Minute),
			event("e3", EventDenied, "u1", 2*time.Minute),
			event("e4", EventDeleted, "e1", 3*time.Minute),
		} {
			if err := s.Save(ctx, e); err != nil {
				t.Fatalf("Save() error = %v", err)
			}
		}

		tests := []struct {
			name   string
			filter QueryFilter
			want   []string
		}{
			{"all newest first", QueryFilter{}, []string{"e4", "e3", "e2", "e1"}},
			{"by type", QueryFilter{Types: []EventType{EventCreated, EventDeleted}}, []string{"e4", "e2"}},
			{"by actor", QueryFilter{ActorID: "a1"}, []string{"e2", "e1"}},
			{"since", QueryFilter{Since: base.Add(2 * time.Minute)}, []string{"e4", "e3"}},
			{"limit", QueryFilter{Limit: 1}, []string{"e4"}},
			{"no match", QueryFilter{Resource: "races"}, []string{}},
		}
		for _, tt := range tests {
			got, err := s.Query(ctx, tt.filter)
			if err != nil {
				t.Fatalf("%s: Query() error = %v", tt.name, err)
			}
			if !equal(ids(got), tt.want) {
				t.Errorf("%s: Query() = %v, want %v", tt.name, ids(got), tt.want)
			}
		}
	})
}

func TestStoreDelete(t *testing.T) {
	t.Parallel()

	stores(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		for i, id := range []string{"old1", "old2", "new1"} {
			if err := s.Save(ctx, event(id, EventLogin, "a1", time.Duration(i)*time.Hour)); err != nil {
				t.Fatalf("Save() error = %v", err)
			}
		}

		n, err := s.Delete(ctx, base.Add(90*time.Minute))
		if err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if n != 2 {
			t.Errorf("Delete() = %d, want 2", n)
		}
		got, _ := s.Query(ctx, QueryFilter{})
		if !equal(ids(got), []string{"new1"}) {
			t.Errorf("after Delete() = %v, want [new1]", ids(got))
		}
	})
}

func TestMemoryStoreOverwritesOldest(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore(3)
	ctx := context.Background()
	for i, id := range []string{"e1", "e2", "e3", "e4", "e5"} {
		_ = s.Save(ctx, event(id, EventLogin, "a1", time.Duration(i)*time.Second))
	}
	if s.Len() != 3 {
		t.Errorf("Len() = %d, want 3", s.Len())
	}
	got, _ := s.Query(ctx, QueryFilter{})
	if !equal(ids(got), []string{"e5", "e4", "e3"}) {
		t.Errorf("Query() = %v, want [e5 e4 e3]", ids(got))
	}

	// Deleting from a full ring leaves room to append in order.
	if n, _ := s.Delete(ctx, base.Add(3*time.Second)); n != 1 {
		t.Errorf("Delete() = %d, want 1", n)
	}
	_ = s.Save(ctx, event("e6", EventLogin, "a1", 5*time.Second))
	got, _ = s.Query(ctx, QueryFilter{})
	if !equal(ids(got), []string{"e6", "e5", "e4"}) {
		t.Errorf("Query() = %v, want [e6 e5 e4]", ids(got))
	}
}

func TestOpenStore(t *testing.T) {
	t.Parallel()

	if _, err := OpenStore("memory", "", 5, 0); err != nil {
		t.Errorf("OpenStore(memory) error = %v", err)
	}
	if _, err := OpenStore("duck", "", 5, 0); err == nil {
		t.Error("OpenStore(duck) succeeded, want error")
	}
}

func TestLoggerHelpers(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore(10)
	logger := NewLogger(store, Config{BufferSize: 10})
	logger.now = func() time.Time { return base }

	r := httptest.NewRequest("DELETE", "/api/admin/races/r1", nil)
	r.RemoteAddr = "203.0.113.7:51234"
	r.Header.Set("User-Agent", "test-agent")
	admin := models.SessionUser{ID: "a1", Email: "admin@runit.com.br", UserType: models.RoleAdmin}

	logger.LogLogin(r, nil, "wrong@runit.com.br", "Invalid credentials")
	logger.LogLogin(r, &admin, admin.Email, "")
	logger.LogDenied(r, models.SessionUser{ID: "u1", UserType: models.RoleUser}, "races", "delete")
	logger.LogMutation(r, EventDeleted, admin, "races", "r1")
	logger.LogSession(r, EventLogout, admin)
	logger.Close()

	got, err := store.Query(context.Background(), QueryFilter{})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("events = %d, want 5", len(got))
	}

	failed := got[4]
	if failed.Type != EventLoginFailed || failed.Outcome != OutcomeFailure || failed.Actor.Email != "wrong@runit.com.br" {
		t.Errorf("failed login = %+v", failed)
	}
	if failed.Source.IP != "203.0.113.7" || failed.Source.UserAgent != "test-agent" {
		t.Errorf("source = %+v", failed.Source)
	}
	if failed.ID == "" || !failed.Timestamp.Equal(base) {
		t.Errorf("ID/Timestamp not filled: %+v", failed)
	}

	denied := got[2]
	if denied.Type != EventDenied || denied.Resource != "races" || denied.Actor.ID != "u1" {
		t.Errorf("denied = %+v", denied)
	}
	deleted := got[1]
	if deleted.Type != EventDeleted || deleted.TargetID != "r1" || deleted.Actor.Role != models.RoleAdmin {
		t.Errorf("deleted = %+v", deleted)
	}
}

func TestLoggerPrune(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore(10)
	logger := NewLogger(store, Config{Retention: 24 * time.Hour})
	defer logger.Close()
	logger.now = func() time.Time { return base }

	ctx := context.Background()
	_ = store.Save(ctx, event("stale", EventLogin, "a1", -48*time.Hour))
	_ = store.Save(ctx, event("fresh", EventLogin, "a1", -time.Hour))

	if n := logger.Prune(); n != 1 {
		t.Errorf("Prune() = %d, want 1", n)
	}
	got, _ := logger.Query(ctx, QueryFilter{})
	if !equal(ids(got), []string{"fresh"}) {
		t.Errorf("Query() = %v, want [fresh]", ids(got))
	}
}

func TestNilLogger(t *testing.T) {
	t.Parallel()

	var logger *Logger
	r := httptest.NewRequest("GET", "/", nil)
	logger.LogLogin(r, nil, "x@y.z", "")
	logger.LogMutation(r, EventCreated, models.SessionUser{}, "posts", "p1")
	logger.Close()
	if n := logger.Prune(); n != 0 {
		t.Errorf("Prune() = %d, want 0", n)
	}
	got, err := logger.Query(context.Background(), QueryFilter{})
	if err != nil || len(got) != 0 {
		t.Errorf("Query() = %v, %v; want empty", got, err)
	}
}

func TestLoggerDropsWhenClosed(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore(10)
	logger := NewLogger(store, Config{})
	logger.Close()
	logger.Log(event("late", EventLogin, "a1", 0))
	if store.Len() != 0 {
		t.Errorf("Len() = %d, want 0 after Close", store.Len())
	}
}
