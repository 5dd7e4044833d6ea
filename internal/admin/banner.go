// Runit - Running Events Content Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/runit

package admin

import (
	"errors"

	"github.com/tomtom215/runit/internal/backend"
	"github.com/tomtom215/runit/internal/validation"
)

// Banner is the dismissable error shown above a screen. The form keeps its
// values so the user can fix them and retry.
type Banner struct {
	Message     string            `json:"message"`
	Fields      map[string]string `json:"fields,omitempty"`
	Dismissable bool              `json:"dismissable"`
}

// BannerFor turns an action error into a Banner, or nil for nil.
func BannerFor(err error) *Banner {
	if err == nil {
		return nil
	}
	b := &Banner{Dismissable: true}

	var apiErr *backend.APIError
	switch fe, ok := validation.AsFormError(err); {
	case ok:
		b.Message = "Please fix the highlighted fields"
		b.Fields = fe.Messages()
	case errors.Is(err, ErrSubmitting):
		b.Message = "Your previous submission is still being saved"
	case errors.As(err, &apiErr):
		b.Message = apiErr.Message
	case errors.Is(err, backend.ErrBackendUnavailable):
		b.Message = "The server is temporarily unavailable, try again shortly"
	default:
		b.Message = "Something went wrong, try again"
	}
	return b
}
