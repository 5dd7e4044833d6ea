// Runit - Running Events Content Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/runit

package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/runit/internal/admin"
	"github.com/tomtom215/runit/internal/backend"
	"github.com/tomtom215/runit/internal/logging"
	"github.com/tomtom215/runit/internal/models"
	"github.com/tomtom215/runit/internal/session"
	"github.com/tomtom215/runit/internal/validation"
)

// Error codes of the response envelope.
const (
	CodeValidation           = "VALIDATION_ERROR"
	CodeUnauthorized         = "UNAUTHORIZED"
	CodeForbidden            = "FORBIDDEN"
	CodeNotFound             = "NOT_FOUND"
	CodeConflict             = "CONFLICT"
	CodeBackend              = "BACKEND_ERROR"
	CodeBackendUnavailable   = "BACKEND_UNAVAILABLE"
	CodeConfirmationRequired = "CONFIRMATION_REQUIRED"
	CodeInternal             = "INTERNAL_ERROR"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// sanitizeLogValue escapes control characters so client input cannot
// forge log lines.
func sanitizeLogValue(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			fmt.Fprintf(&b, "\\x%02x", r)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func respondJSON(w http.ResponseWriter, status int, response *models.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")

	data, err := json.Marshal(response)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// respondData writes a success envelope. count is set for slices.
func respondData(w http.ResponseWriter, status int, data interface{}, start time.Time) {
	meta := models.Metadata{Timestamp: time.Now()}
	if !start.IsZero() {
		meta.QueryTimeMS = time.Since(start).Milliseconds()
	}
	respondJSON(w, status, &models.APIResponse{
		Status:   "success",
		Data:     data,
		Metadata: meta,
	})
}

// respondList is respondData for lists, with the item count in metadata.
func respondList[T any](w http.ResponseWriter, items []T, start time.Time) {
	if items == nil {
		items = []T{}
	}
	n := len(items)
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   items,
		Metadata: models.Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: time.Since(start).Milliseconds(),
			Count:       &n,
		},
	})
}

func respondError(w http.ResponseWriter, status int, code, message string, err error) {
	if err != nil {
		logging.Error().Str("code", code).Str("error", sanitizeLogValue(err.Error())).Msg("API Error")
	}
	respondJSON(w, status, &models.APIResponse{
		Status:   "error",
		Metadata: models.Metadata{Timestamp: time.Now()},
		Error: &models.APIError{
			Code:    code,
			Message: message,
		},
	})
}

// respondErr maps err onto a status and error code and writes it.
func respondErr(w http.ResponseWriter, r *http.Request, err error) {
	status, apiErr := classify(err)

	event := logging.Ctx(r.Context()).Warn()
	if status >= http.StatusInternalServerError {
		event = logging.Ctx(r.Context()).Error()
	}
	event.Str("code", apiErr.Code).Int("status", status).
		Str("error", sanitizeLogValue(err.Error())).Msg("Request failed")

	respondJSON(w, status, &models.APIResponse{
		Status:   "error",
		Metadata: models.Metadata{Timestamp: time.Now()},
		Error:    apiErr,
	})
}

// classify picks the HTTP status and envelope error for err. Messages
// follow the dashboard banner so every surface says the same thing.
func classify(err error) (int, *models.APIError) {
	banner := admin.BannerFor(err)
	apiErr := &models.APIError{Code: CodeInternal, Message: banner.Message}

	if fe, ok := validation.AsFormError(err); ok {
		apiErr.Code = CodeValidation
		apiErr.Details = map[string]interface{}{"fields": fe.Messages()}
		return http.StatusBadRequest, apiErr
	}

	switch {
	case errors.Is(err, admin.ErrSubmitting):
		apiErr.Code = CodeConflict
		return http.StatusConflict, apiErr
	case errors.Is(err, session.ErrNotAuthenticated):
		apiErr.Code = CodeUnauthorized
		apiErr.Message = "Sign in to continue"
		return http.StatusUnauthorized, apiErr
	case errors.Is(err, session.ErrUnreachable):
		apiErr.Code = CodeBackend
		apiErr.Message = err.Error()
		return http.StatusBadGateway, apiErr
	case errors.Is(err, backend.ErrBackendUnavailable):
		apiErr.Code = CodeBackendUnavailable
		return http.StatusServiceUnavailable, apiErr
	}

	switch status := backend.StatusOf(err); {
	case status == 0:
		return http.StatusInternalServerError, apiErr
	case status == http.StatusUnauthorized:
		apiErr.Code = CodeUnauthorized
		return http.StatusUnauthorized, apiErr
	case status == http.StatusForbidden:
		apiErr.Code = CodeForbidden
		return http.StatusForbidden, apiErr
	case status == http.StatusNotFound:
		apiErr.Code = CodeNotFound
		return http.StatusNotFound, apiErr
	case status == http.StatusConflict:
		apiErr.Code = CodeConflict
		return http.StatusConflict, apiErr
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		apiErr.Code = CodeValidation
		return http.StatusBadRequest, apiErr
	default:
		apiErr.Code = CodeBackend
		return http.StatusBadGateway, apiErr
	}
}

// decodeJSON reads a JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err == nil {
		err = json.Unmarshal(body, v)
	}
	if err != nil {
		respondError(w, http.StatusBadRequest, CodeValidation, "Invalid request body", nil)
		return false
	}
	return true
}
