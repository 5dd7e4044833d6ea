// Runit - Running Events Content Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/runit

package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/runit/internal/admin"
	"github.com/tomtom215/runit/internal/analytics"
	"github.com/tomtom215/runit/internal/audit"
	"github.com/tomtom215/runit/internal/logging"
	"github.com/tomtom215/runit/internal/models"
	"github.com/tomtom215/runit/internal/session"
)

const (
	// maxAnalyticsDays bounds the days parameter of the analytics endpoint.
	maxAnalyticsDays = 365
	maxAuditLimit    = 1000
)

// mountScreen adds the list, create, update and two-step delete routes of
// one management screen under /{resource}.
func mountScreen[T, In any](r chi.Router, h *Handler, s *admin.Screen[T, In]) {
	r.Route("/"+s.Resource(), func(r chi.Router) {
		r.Use(h.Authorize(s.Resource()))
		r.Get("/", listRecords(s))
		r.Post("/", submitRecord(h, s, false))
		r.Put("/{id}", submitRecord(h, s, true))
		r.Delete("/{id}", deleteRecord(h, s))
		r.Delete("/{id}/confirm", cancelDelete(s))
	})
}

func listRecords[T, In any](s *admin.Screen[T, In]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		items, err := s.List(r.Context(), r.URL.Query().Get("q"))
		if err != nil {
			respondErr(w, r, err)
			return
		}
		respondList(w, items, start)
	}
}

func submitRecord[T, In any](h *Handler, s *admin.Screen[T, In], update bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		var in In
		if !decodeJSON(w, r, &in) {
			return
		}
		id := ""
		status := http.StatusCreated
		if update {
			id = chi.URLParam(r, "id")
			status = http.StatusOK
		}

		res, err := s.Submit(r.Context(), session.IDFromContext(r.Context()), &in, id)
		if err != nil && (res == nil || res.Saved == nil) {
			respondErr(w, r, err)
			return
		}
		event := audit.EventCreated
		if update {
			event = audit.EventUpdated
		}
		h.audit.LogMutation(r, event, currentUser(r), s.Resource(), id)
		if err != nil {
			// Saved, but the list could not be refetched.
			logging.Ctx(r.Context()).Warn().Err(err).Str("resource", s.Resource()).Msg("Refetch after save failed")
		}
		respondData(w, status, res, start)
	}
}

// deleteRecord answers the first click with 202 and CONFIRMATION_REQUIRED
// and deletes on the second.
func deleteRecord[T, In any](h *Handler, s *admin.Screen[T, In]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := chi.URLParam(r, "id")
		res, err := s.Delete(r.Context(), session.IDFromContext(r.Context()), id)
		if err != nil && res == nil {
			respondErr(w, r, err)
			return
		}
		if res.State == admin.DeleteDone {
			h.audit.LogMutation(r, audit.EventDeleted, currentUser(r), s.Resource(), id)
		}
		if err != nil {
			logging.Ctx(r.Context()).Warn().Err(err).Str("resource", s.Resource()).Msg("Refetch after delete failed")
		}

		if res.State == admin.DeleteConfirming {
			respondJSON(w, http.StatusAccepted, &models.APIResponse{
				Status:   "pending",
				Data:     res,
				Metadata: models.Metadata{Timestamp: time.Now()},
				Error: &models.APIError{
					Code:    CodeConfirmationRequired,
					Message: "Click delete again to confirm",
				},
			})
			return
		}
		respondData(w, http.StatusOK, res, start)
	}
}

func cancelDelete[T, In any](s *admin.Screen[T, In]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cancelled := s.CancelDelete(session.IDFromContext(r.Context()), chi.URLParam(r, "id"))
		respondData(w, http.StatusOK, map[string]bool{"cancelled": cancelled}, time.Time{})
	}
}

// Analytics returns the dashboard panels. The optional days parameter
// overrides the configured window of the daily series.
func (h *Handler) Analytics(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	days := h.cfg.Dashboard.AnalyticsWindowDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxAnalyticsDays {
			respondError(w, http.StatusBadRequest, CodeValidation, "days must be between 1 and 365", nil)
			return
		}
		days = n
	}

	in, err := h.collector.Collect(r.Context())
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondData(w, http.StatusOK, analytics.Build(in, h.now(), days), start)
}

// AuditTrail returns audit events, newest first. Filters: type (comma
// separated), actor, resource, since (RFC 3339) and limit (1 to 1000).
func (h *Handler) AuditTrail(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	q := r.URL.Query()
	filter := audit.QueryFilter{
		ActorID:  q.Get("actor"),
		Resource: q.Get("resource"),
	}
	if raw := q.Get("type"); raw != "" {
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				filter.Types = append(filter.Types, audit.EventType(t))
			}
		}
	}
	if raw := q.Get("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, CodeValidation, "since must be an RFC 3339 timestamp", nil)
			return
		}
		filter.Since = since
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxAuditLimit {
			respondError(w, http.StatusBadRequest, CodeValidation, "limit must be between 1 and 1000", nil)
			return
		}
		filter.Limit = n
	}

	events, err := h.audit.Query(r.Context(), filter)
	if err != nil {
		respondError(w, http.StatusInternalServerError, CodeInternal, "Failed to read audit trail", err)
		return
	}
	respondList(w, events, start)
}
