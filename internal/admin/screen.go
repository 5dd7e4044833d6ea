// Runit - Running Events Content Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/runit

package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/tomtom215/runit/internal/cache"
	"github.com/tomtom215/runit/internal/logging"
	"github.com/tomtom215/runit/internal/metrics"
)

// DefaultConfirmTTL is how long an armed delete waits for its second click.
const DefaultConfirmTTL = 10 * time.Second

// ErrSubmitting is returned when a form is submitted while the previous
// submission from the same browser is still in flight.
var ErrSubmitting = errors.New("a submission is already in progress")

// Ops are the backend calls behind one screen.
type Ops[T, In any] struct {
	List   func(ctx context.Context) ([]T, error)
	Create func(ctx context.Context, in *In) (*T, error)
	Update func(ctx context.Context, id string, in *In) (*T, error)
	Delete func(ctx context.Context, id string) error
}

// DeleteState is the outcome of a Delete call.
type DeleteState string

const (
	// DeleteConfirming means the first click armed the confirmation.
	DeleteConfirming DeleteState = "confirming"
	// DeleteDone means the record was deleted.
	DeleteDone DeleteState = "deleted"
)

// DeleteResult reports a Delete call. Items is the refetched list after a
// deletion and nil while confirming.
type DeleteResult[T any] struct {
	State     DeleteState `json:"state"`
	ExpiresAt time.Time   `json:"expiresAt,omitempty"`
	Items     []T         `json:"items,omitempty"`
}

// SubmitResult is the saved record plus the refetched list.
type SubmitResult[T any] struct {
	Saved *T  `json:"saved"`
	Items []T `json:"items"`
}

// Screen is one management screen: list with client-side filtering, a
// create/edit form and inline two-step delete.
//
// Keys passed to Submit and Delete identify the browser, so concurrent
// editors do not block or confirm for each other.
type Screen[T, In any] struct {
	resource   string
	ops        Ops[T, In]
	validate   func(in *In, create bool) error
	searchable func(item T) []string

	confirms *cache.TTL[struct{}]

	mu         sync.Mutex
	submitting map[string]bool
}

// NewScreen creates a Screen. validate runs before every create or update;
// searchable returns the fields List filters on.
func NewScreen[T, In any](resource string, ops Ops[T, In], validate func(*In, bool) error, searchable func(T) []string, confirmTTL time.Duration) *Screen[T, In] {
	if confirmTTL <= 0 {
		confirmTTL = DefaultConfirmTTL
	}
	return &Screen[T, In]{
		resource:   resource,
		ops:        ops,
		validate:   validate,
		searchable: searchable,
		confirms:   cache.New[struct{}](confirmTTL),
		submitting: make(map[string]bool),
	}
}

// Resource names the screen in logs, metrics and URLs.
func (s *Screen[T, In]) Resource() string { return s.resource }

// List fetches the full list and keeps items with a searchable field
// containing term, case-insensitively. A blank term keeps everything.
func (s *Screen[T, In]) List(ctx context.Context, term string) ([]T, error) {
	items, err := s.ops.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.resource, err)
	}
	if items == nil {
		items = []T{}
	}
	return Filter(items, term, s.searchable), nil
}

// Filter keeps the items with a field containing term, case-insensitively.
func Filter[T any](items []T, term string, fields func(T) []string) []T {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return items
	}
	out := make([]T, 0, len(items))
	for _, item := range items {
		for _, f := range fields(item) {
			if strings.Contains(strings.ToLower(f), term) {
				out = append(out, item)
				break
			}
		}
	}
	return out
}

// Submit validates in and creates it (empty id) or updates record id,
// then refetches the list. A validation failure returns a
// *validation.FormError and makes no backend call.
func (s *Screen[T, In]) Submit(ctx context.Context, key string, in *In, id string) (*SubmitResult[T], error) {
	if !s.begin(key) {
		return nil, ErrSubmitting
	}
	defer s.end(key)

	create := id == ""
	action := "update"
	if create {
		action = "create"
	}

	if err := s.validate(in, create); err != nil {
		metrics.RecordAdminAction(s.resource, action, err)
		return nil, err
	}

	var (
		saved *T
		err   error
	)
	if create {
		saved, err = s.ops.Create(ctx, in)
	} else {
		saved, err = s.ops.Update(ctx, id, in)
	}
	metrics.RecordAdminAction(s.resource, action, err)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", action, s.resource, err)
	}
	logging.Ctx(ctx).Info().Str("resource", s.resource).Str("action", action).Str("id", id).Msg("Record saved")

	items, err := s.List(ctx, "")
	if err != nil {
		return &SubmitResult[T]{Saved: saved}, err
	}
	return &SubmitResult[T]{Saved: saved, Items: items}, nil
}

func (s *Screen[T, In]) begin(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submitting[key] {
		return false
	}
	s.submitting[key] = true
	return true
}

func (s *Screen[T, In]) end(key string) {
	s.mu.Lock()
	delete(s.submitting, key)
	s.mu.Unlock()
}

// Submitting reports whether key has a submission in flight.
func (s *Screen[T, In]) Submitting(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submitting[key]
}

// Delete is the inline two-step delete. The first call for key and id arms
// a confirmation and returns DeleteConfirming; a second call before the
// confirmation expires deletes the record and refetches the list. A
// single call never deletes. A failed delete disarms the confirmation.
func (s *Screen[T, In]) Delete(ctx context.Context, key, id string) (*DeleteResult[T], error) {
	ck := confirmKey(key, id)
	if _, armed := s.confirms.Take(ck); !armed {
		exp := s.confirms.Set(ck, struct{}{})
		return &DeleteResult[T]{State: DeleteConfirming, ExpiresAt: exp}, nil
	}

	err := s.ops.Delete(ctx, id)
	metrics.RecordAdminAction(s.resource, "delete", err)
	if err != nil {
		return nil, fmt.Errorf("delete %s: %w", s.resource, err)
	}
	logging.Ctx(ctx).Info().Str("resource", s.resource).Str("id", id).Msg("Record deleted")

	items, err := s.List(ctx, "")
	if err != nil {
		return &DeleteResult[T]{State: DeleteDone}, err
	}
	return &DeleteResult[T]{State: DeleteDone, Items: items}, nil
}

// CancelDelete disarms a pending confirmation. It reports whether one was
// pending.
func (s *Screen[T, In]) CancelDelete(key, id string) bool {
	_, armed := s.confirms.Take(confirmKey(key, id))
	return armed
}

// Confirming reports whether a delete of id is armed for key.
func (s *Screen[T, In]) Confirming(key, id string) bool {
	_, armed := s.confirms.Get(confirmKey(key, id))
	return armed
}

// Sweep drops expired confirmations.
func (s *Screen[T, In]) Sweep() int {
	return s.confirms.Cleanup()
}

func confirmKey(key, id string) string {
	return key + "\x00" + id
}
