// Runit - Running Events Content Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/runit

package audit

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/runit/internal/logging"
	"github.com/tomtom215/runit/internal/metrics"
	"github.com/tomtom215/runit/internal/models"
)

// Config holds configuration for the audit logger.
type Config struct {
	// Retention is how long events are kept; 0 keeps them until the
	// store overwrites them.
	Retention time.Duration

	// BufferSize is the size of the async write buffer.
	BufferSize int

	// LogToStdout also writes every event to the application log.
	LogToStdout bool
}

// DefaultConfig returns the defaults: 90 days of retention and a buffer
// of 1000 events.
func DefaultConfig() Config {
	return Config{
		Retention:  90 * 24 * time.Hour,
		BufferSize: 1000,
	}
}

// Logger writes audit events asynchronously. A nil *Logger discards
// everything, so callers need no enabled check.
type Logger struct {
	config    Config
	store     Store
	eventChan chan *Event
	stopChan  chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup
	now       func() time.Time
}

// NewLogger creates a Logger and starts its writer goroutine.
func NewLogger(store Store, config Config) *Logger {
	if config.BufferSize <= 0 {
		config.BufferSize = DefaultConfig().BufferSize
	}
	l := &Logger{
		config:    config,
		store:     store,
		eventChan: make(chan *Event, config.BufferSize),
		stopChan:  make(chan struct{}),
		now:       time.Now,
	}
	l.wg.Add(1)
	go l.asyncWriter()
	return l
}

func (l *Logger) asyncWriter() {
	defer l.wg.Done()
	for {
		select {
		case <-l.stopChan:
			for {
				select {
				case event := <-l.eventChan:
					l.writeEvent(event)
				default:
					return
				}
			}
		case event := <-l.eventChan:
			l.writeEvent(event)
		}
	}
}

func (l *Logger) writeEvent(event *Event) {
	if l.config.LogToStdout {
		if data, err := json.Marshal(event); err == nil {
			logging.Info().RawJSON("event", data).Msg("Audit event")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := l.store.Save(ctx, event); err != nil {
		metrics.AuditEvents.WithLabelValues(string(event.Type), "failed").Inc()
		logging.Error().Err(err).Str("event_type", string(event.Type)).Msg("Failed to save audit event")
		return
	}
	metrics.AuditEvents.WithLabelValues(string(event.Type), "stored").Inc()
}

// Log queues event, filling in ID and Timestamp when empty. The event is
// dropped with a warning when the buffer is full.
func (l *Logger) Log(event *Event) {
	if l == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = l.now().UTC()
	}

	select {
	case <-l.stopChan:
		return
	default:
	}
	select {
	case l.eventChan <- event:
	default:
		metrics.AuditEvents.WithLabelValues(string(event.Type), "dropped").Inc()
		logging.Warn().Str("event_type", string(event.Type)).Msg("Audit buffer full, event dropped")
	}
}

// Query reads the trail. A nil Logger has no events.
func (l *Logger) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	if l == nil {
		return []Event{}, nil
	}
	return l.store.Query(ctx, filter)
}

// Prune deletes events past the retention period and reports how many
// were removed.
func (l *Logger) Prune() int {
	if l == nil || l.config.Retention <= 0 {
		return 0
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	n, err := l.store.Delete(ctx, l.now().Add(-l.config.Retention))
	if err != nil {
		logging.Error().Err(err).Msg("Failed to prune audit events")
	}
	return n
}

// Close stops the writer after draining buffered events.
func (l *Logger) Close() {
	if l == nil {
		return
	}
	l.stopOnce.Do(func() { close(l.stopChan) })
	l.wg.Wait()
}

// SourceOf extracts the client address and user agent of r.
func SourceOf(r *http.Request) Source {
	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}
	return Source{IP: ip, UserAgent: r.UserAgent()}
}

// ActorOf converts a session user.
func ActorOf(u models.SessionUser) Actor {
	return Actor{ID: u.ID, Email: u.Email, Role: u.UserType}
}

func newEvent(r *http.Request, typ EventType, outcome Outcome, actor Actor) *Event {
	return &Event{
		Type:      typ,
		Outcome:   outcome,
		Actor:     actor,
		Source:    SourceOf(r),
		RequestID: logging.RequestIDFromContext(r.Context()),
	}
}

// LogLogin records a password sign-in attempt. email identifies failed
// attempts, which have no user.
func (l *Logger) LogLogin(r *http.Request, user *models.SessionUser, email string, reason string) {
	if l == nil {
		return
	}
	if user == nil {
		e := newEvent(r, EventLoginFailed, OutcomeFailure, Actor{Email: email})
		e.Description = reason
		l.Log(e)
		return
	}
	l.Log(newEvent(r, EventLogin, OutcomeSuccess, ActorOf(*user)))
}

// LogSession records a successful session change other than password
// sign-in: EventLogout, EventOAuth or EventRegister.
func (l *Logger) LogSession(r *http.Request, typ EventType, user models.SessionUser) {
	if l == nil {
		return
	}
	l.Log(newEvent(r, typ, OutcomeSuccess, ActorOf(user)))
}

// LogDenied records an authorization denial.
func (l *Logger) LogDenied(r *http.Request, user models.SessionUser, resource, action string) {
	if l == nil {
		return
	}
	e := newEvent(r, EventDenied, OutcomeFailure, ActorOf(user))
	e.Resource = resource
	e.Description = action + " " + r.Method + " " + r.URL.Path
	l.Log(e)
}

// LogMutation records a dashboard create, update or delete.
func (l *Logger) LogMutation(r *http.Request, typ EventType, user models.SessionUser, resource, targetID string) {
	if l == nil {
		return
	}
	e := newEvent(r, typ, OutcomeSuccess, ActorOf(user))
	e.Resource = resource
	e.TargetID = targetID
	l.Log(e)
}
