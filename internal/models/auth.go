// Runit - Running Events Content Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/runit

package models

// SessionUser is the authenticated user persisted under the currentUser key.
type SessionUser struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	LastName string `json:"lastName,omitempty"`
	Email    string `json:"email"`
	UserType string `json:"user_type"`
}

// Credentials is the login form.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest is the signup form.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	LastName string `json:"lastName" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// AuthResponse is the backend answer to login and register.
type AuthResponse struct {
	Token string      `json:"token"`
	User  SessionUser `json:"user"`
}
