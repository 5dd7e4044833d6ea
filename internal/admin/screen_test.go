// Runit - Running Events Content Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/runit

package admin

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/runit/internal/backend"
	"github.com/tomtom215/runit/internal/backend/backendtest"
	"github.com/tomtom215/runit/internal/models"
	"github.com/tomtom215/runit/internal/validation"
)

const browser = "browser-1"

func newScreens(t *testing.T) (*backendtest.Server, *Screens) {
	t.Helper()
	fake := backendtest.New(t)
	client := backend.NewClient(backend.Options{BaseURL: fake.URL, Timeout: 5 * time.Second})
	return fake, NewScreens(backend.NewServices(client), time.Minute)
}

func ptr(f float64) *float64 { return &f }

func TestCategories_DeleteNeedsTwoCalls(t *testing.T) {
	t.Parallel()

	fake, screens := newScreens(t)
	fake.Seed(backend.PathAdminCategories, models.BlogCategory{ID: "c1", Name: "Treino", Slug: "treino", Active: true})
	ctx := context.Background()

	first, err := screens.Categories.Delete(ctx, browser, "c1")
	if err != nil {
		t.Fatal(err)
	}
	if first.State != DeleteConfirming || first.ExpiresAt.IsZero() {
		t.Errorf("first call = %+v, want confirming", first)
	}
	if n := fake.Calls(http.MethodDelete, backend.PathAdminCategories+"/c1"); n != 0 {
		t.Fatalf("a single call issued %d DELETE requests", n)
	}
	if !screens.Categories.Confirming(browser, "c1") {
		t.Error("confirmation not armed")
	}

	second, err := screens.Categories.Delete(ctx, browser, "c1")
	if err != nil {
		t.Fatal(err)
	}
	if second.State != DeleteDone || len(second.Items) != 0 {
		t.Errorf("second call = %+v, want deleted with empty list", second)
	}
	if n := fake.Calls(http.MethodDelete, backend.PathAdminCategories+"/c1"); n != 1 {
		t.Errorf("DELETE requests = %d, want 1", n)
	}
}

func TestDelete_ConfirmationIsPerBrowserAndRecord(t *testing.T) {
	t.Parallel()

	fake, screens := newScreens(t)
	fake.Seed(backend.PathAdminCategories,
		models.BlogCategory{ID: "c1", Name: "Treino"},
		models.BlogCategory{ID: "c2", Name: "Provas"})
	ctx := context.Background()

	_, _ = screens.Categories.Delete(ctx, browser, "c1")

	other, _ := screens.Categories.Delete(ctx, "browser-2", "c1")
	sibling, _ := screens.Categories.Delete(ctx, browser, "c2")
	if other.State != DeleteConfirming || sibling.State != DeleteConfirming {
		t.Errorf("states = %s, %s; want both confirming", other.State, sibling.State)
	}
	if fake.Calls(http.MethodDelete, backend.PathAdminCategories+"/c1")+
		fake.Calls(http.MethodDelete, backend.PathAdminCategories+"/c2") != 0 {
		t.Error("confirmation leaked across browser or record")
	}
}

func TestDelete_CancelAndExpiry(t *testing.T) {
	t.Parallel()

	fake, screens := newScreens(t)
	fake.Seed(backend.PathRaces, models.Race{ID: "r1", Name: "Corrida"})
	ctx := context.Background()
	s := screens.Races

	_, _ = s.Delete(ctx, browser, "r1")
	if !s.CancelDelete(browser, "r1") {
		t.Error("CancelDelete() = false for an armed confirmation")
	}
	if res, _ := s.Delete(ctx, browser, "r1"); res.State != DeleteConfirming {
		t.Errorf("after cancel state = %s, want confirming", res.State)
	}

	now := time.Now()
	var mu sync.Mutex
	s.confirms.WithClock(func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	})
	_ = s.CancelDelete(browser, "r1")
	_, _ = s.Delete(ctx, browser, "r1")
	mu.Lock()
	now = now.Add(2 * time.Minute)
	mu.Unlock()

	if res, _ := s.Delete(ctx, browser, "r1"); res.State != DeleteConfirming {
		t.Errorf("after expiry state = %s, want confirming", res.State)
	}
	if n := fake.Calls(http.MethodDelete, backend.PathRaces+"/r1"); n != 0 {
		t.Errorf("DELETE requests = %d, want 0", n)
	}
}

func TestDelete_BackendErrorDisarms(t *testing.T) {
	t.Parallel()

	fake, screens := newScreens(t)
	fake.Seed(backend.PathUsers, models.User{ID: "u1", Name: "Ana"})
	ctx := context.Background()

	_, _ = screens.Users.Delete(ctx, browser, "u1")
	fake.FailNext(http.MethodDelete, backend.PathUsers+"/u1", http.StatusConflict, `{"message":"Usuário possui inscrições"}`)

	_, err := screens.Users.Delete(ctx, browser, "u1")
	if err == nil {
		t.Fatal("expected backend error")
	}
	if b := BannerFor(err); b.Message != "Usuário possui inscrições" || !b.Dismissable {
		t.Errorf("banner = %+v", b)
	}
	if screens.Users.Confirming(browser, "u1") {
		t.Error("failed delete left the confirmation armed")
	}
}

func TestRaces_InvalidLatitudeMakesNoCall(t *testing.T) {
	t.Parallel()

	fake, screens := newScreens(t)
	in := &models.RaceInput{
		Name:      "Corrida do Polo",
		Date:      "2025-09-01",
		Latitude:  ptr(95),
		Longitude: ptr(-46.6),
		Distance:  10,
	}

	_, err := screens.Races.Submit(context.Background(), browser, in, "")
	fe, ok := validation.AsFormError(err)
	if !ok {
		t.Fatalf("Submit() error = %v, want *FormError", err)
	}
	if !fe.Has("latitude") {
		t.Errorf("fields = %v, want latitude", fe.Messages())
	}
	if !strings.Contains(fe.Messages()["latitude"], "-90 to 90") {
		t.Errorf("message = %q", fe.Messages()["latitude"])
	}
	if n := fake.TotalCalls(); n != 0 {
		t.Errorf("backend received %d requests, want 0", n)
	}
	if b := BannerFor(err); b.Fields["latitude"] == "" {
		t.Errorf("banner = %+v", b)
	}
}

func TestPosts_ShortContentNeverCreates(t *testing.T) {
	t.Parallel()

	fake, screens := newScreens(t)
	in := &models.PostInput{Title: "Dicas de treino", Content: strings.Repeat("a", 99)}

	_, err := screens.Posts.Submit(context.Background(), browser, in, "")
	fe, ok := validation.AsFormError(err)
	if !ok || !fe.Has("content") {
		t.Fatalf("Submit() error = %v, want content validation error", err)
	}
	if n := fake.Calls(http.MethodPost, backend.PathAdminPosts); n != 0 {
		t.Errorf("CreatePost calls = %d, want 0", n)
	}
}

func TestPosts_SubmitCreatesThenUpdates(t *testing.T) {
	t.Parallel()

	fake, screens := newScreens(t)
	ctx := context.Background()
	in := &models.PostInput{Title: "Dicas de Treino", Content: strings.Repeat("corrida ", 20)}

	res, err := screens.Posts.Submit(ctx, browser, in, "")
	if err != nil {
		t.Fatal(err)
	}
	if res.Saved.Slug != "dicas-de-treino" || res.Saved.Status != models.PostStatusDraft {
		t.Errorf("saved = %+v", res.Saved)
	}
	if len(res.Items) != 1 {
		t.Errorf("refetched %d items, want 1", len(res.Items))
	}

	in.Status = models.PostStatusPublished
	res, err = screens.Posts.Submit(ctx, browser, in, res.Saved.ID)
	if err != nil {
		t.Fatal(err)
	}
	if res.Saved.Status != models.PostStatusPublished {
		t.Errorf("updated status = %s", res.Saved.Status)
	}
	if fake.Calls(http.MethodGet, backend.PathAdminPosts) != 2 {
		t.Errorf("list refetches = %d, want 2", fake.Calls(http.MethodGet, backend.PathAdminPosts))
	}
}

func TestSubmit_RejectsConcurrentSubmission(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	started := make(chan struct{})
	s := NewScreen("memberships",
		Ops[models.MembershipType, models.MembershipTypeInput]{
			List: func(context.Context) ([]models.MembershipType, error) { return nil, nil },
			Create: func(context.Context, *models.MembershipTypeInput) (*models.MembershipType, error) {
				close(started)
				<-release
				return &models.MembershipType{ID: "m1"}, nil
			},
		},
		func(*models.MembershipTypeInput, bool) error { return nil },
		func(models.MembershipType) []string { return nil },
		0)

	done := make(chan error, 1)
	go func() {
		_, err := s.Submit(context.Background(), browser, &models.MembershipTypeInput{Name: "Premium"}, "")
		done <- err
	}()
	<-started

	if _, err := s.Submit(context.Background(), browser, &models.MembershipTypeInput{Name: "Premium"}, ""); !errors.Is(err, ErrSubmitting) {
		t.Errorf("second Submit() error = %v, want ErrSubmitting", err)
	}
	if !s.Submitting(browser) {
		t.Error("Submitting() = false during a submission")
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatal(err)
	}
	if s.Submitting(browser) {
		t.Error("flag not cleared after submission")
	}
}

func TestList_FiltersCaseInsensitively(t *testing.T) {
	t.Parallel()

	fake, screens := newScreens(t)
	fake.Seed(backend.PathUsers,
		models.User{ID: "1", Name: "Ana", LastName: "Souza", Email: "ana@runit.com", Role: models.RoleAdmin},
		models.User{ID: "2", Name: "Bruno", LastName: "Lima", Email: "bruno@runit.com", Role: models.RoleUser})

	tests := []struct {
		term string
		want int
	}{
		{term: "", want: 2},
		{term: "  ", want: 2},
		{term: "SOUZA", want: 1},
		{term: "runit.com", want: 2},
		{term: "admin", want: 1},
		{term: "carla", want: 0},
	}
	for _, tt := range tests {
		got, err := screens.Users.List(context.Background(), tt.term)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != tt.want {
			t.Errorf("List(%q) = %d items, want %d", tt.term, len(got), tt.want)
		}
	}
}

func TestBannerFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "submitting", err: ErrSubmitting, want: "Your previous submission is still being saved"},
		{name: "backend", err: &backend.APIError{Status: 500, Message: "Erro interno"}, want: "Erro interno"},
		{name: "breaker", err: backend.ErrBackendUnavailable, want: "The server is temporarily unavailable, try again shortly"},
		{name: "other", err: errors.New("dial tcp: refused"), want: "Something went wrong, try again"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := BannerFor(tt.err); got.Message != tt.want {
				t.Errorf("BannerFor() = %q, want %q", got.Message, tt.want)
			}
		})
	}
	if BannerFor(nil) != nil {
		t.Error("BannerFor(nil) should be nil")
	}
}
