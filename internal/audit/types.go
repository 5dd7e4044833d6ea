// Runit - Running Events Content Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/runit

package audit

import (
	"context"
	"time"
)

// EventType categorizes audit events.
type EventType string

const (
	EventLogin       EventType = "auth.login"
	EventLoginFailed EventType = "auth.login_failed"
	EventLogout      EventType = "auth.logout"
	EventOAuth       EventType = "auth.oauth"
	EventRegister    EventType = "auth.register"
	EventDenied      EventType = "authz.denied"
	EventCreated     EventType = "content.created"
	EventUpdated     EventType = "content.updated"
	EventDeleted     EventType = "content.deleted"
)

// Outcome is the result of the audited action.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// Actor is who performed the action. ID is empty for failed sign-ins.
type Actor struct {
	ID    string `json:"id,omitempty"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

// Source is where the request came from.
type Source struct {
	IP        string `json:"ip,omitempty"`
	UserAgent string `json:"userAgent,omitempty"`
}

// Event is one entry of the audit trail.
type Event struct {
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	Type        EventType `json:"type"`
	Outcome     Outcome   `json:"outcome"`
	Actor       Actor     `json:"actor"`
	Resource    string    `json:"resource,omitempty"`
	TargetID    string    `json:"targetId,omitempty"`
	Source      Source    `json:"source"`
	Description string    `json:"description,omitempty"`
	RequestID   string    `json:"requestId,omitempty"`
}

// QueryFilter narrows a Query. Zero fields match everything.
type QueryFilter struct {
	Types    []EventType
	ActorID  string
	Resource string
	Since    time.Time
	// Limit caps the result; 0 means DefaultQueryLimit.
	Limit int
}

// DefaultQueryLimit applies when QueryFilter.Limit is 0.
const DefaultQueryLimit = 100

// Store persists audit events.
type Store interface {
	Save(ctx context.Context, event *Event) error
	// Query returns matching events, newest first.
	Query(ctx context.Context, filter QueryFilter) ([]Event, error)
	// Delete removes events older than olderThan and reports how many.
	Delete(ctx context.Context, olderThan time.Time) (int, error)
}

func (f *QueryFilter) matches(e *Event) bool {
	if len(f.Types) > 0 {
		found := false
		for _, t := range f.Types {
			if e.Type == t {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.ActorID != "" && e.Actor.ID != f.ActorID {
		return false
	}
	if f.Resource != "" && e.Resource != f.Resource {
		return false
	}
	if !f.Since.IsZero() && e.Timestamp.Before(f.Since) {
		return false
	}
	return true
}
