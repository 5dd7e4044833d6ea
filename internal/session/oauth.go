// Runit - Running Events Content Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/runit

package session

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tomtom215/runit/internal/metrics"
	"github.com/tomtom215/runit/internal/models"
)

// ErrInvalidCallback is returned for an OAuth callback missing its token or
// user id, or carrying a malformed token.
var ErrInvalidCallback = errors.New("invalid sign-in callback")

// CompleteOAuth establishes a session from the query parameters the
// backend appends when redirecting back after third-party sign-in:
// token, id, name, lastName, email and role.
func (s *Store) CompleteOAuth(ctx context.Context, query url.Values) (*Session, error) {
	token := strings.TrimSpace(query.Get("token"))
	user := models.SessionUser{
		ID:       strings.TrimSpace(query.Get("id")),
		Name:     query.Get("name"),
		LastName: query.Get("lastName"),
		Email:    query.Get("email"),
		UserType: strings.ToUpper(query.Get("role")),
	}
	if user.UserType == "" {
		user.UserType = models.RoleUser
	}

	err := checkCallback(token, user.ID)
	metrics.RecordLogin("oauth", err)
	if err != nil {
		s.reset(ctx)
		return nil, err
	}
	return s.establish(ctx, token, user)
}

func checkCallback(token, id string) error {
	if token == "" {
		return fmt.Errorf("%w: missing token", ErrInvalidCallback)
	}
	if id == "" {
		return fmt.Errorf("%w: missing user id", ErrInvalidCallback)
	}
	// The signature is verified by the backend on every call; here only the
	// shape of the token is checked.
	if _, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{}); err != nil {
		return fmt.Errorf("%w: malformed token", ErrInvalidCallback)
	}
	return nil
}

// TokenExpiry returns the exp claim of a JWT without verifying it, or the
// zero time for opaque tokens and tokens without exp.
func TokenExpiry(token string) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}
