// Runit - Running Events Content Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/runit

package models

// User roles.
const (
	RoleAdmin  = "ADMIN"
	RoleEditor = "EDITOR"
	RoleUser   = "USER"
)

// User is a platform account.
type User struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	LastName         string    `json:"lastName"`
	Email            string    `json:"email"`
	Role             string    `json:"role"`
	MembershipTypeID string    `json:"membershipTypeId,omitempty"`
	Phone            string    `json:"phone,omitempty"`
	City             string    `json:"city,omitempty"`
	State            string    `json:"state,omitempty"`
	BirthDate        string    `json:"birthDate,omitempty"`
	CreatedAt        Timestamp `json:"createdAt"`
}

// UserInput is the create/update payload for a user. Password is only
// sent on create.
type UserInput struct {
	Name             string `json:"name" validate:"required,max=100"`
	LastName         string `json:"lastName" validate:"required,max=100"`
	Email            string `json:"email" validate:"required,email"`
	Password         string `json:"password,omitempty" validate:"omitempty,min=6"`
	Role             string `json:"role" validate:"required,oneof=ADMIN EDITOR USER"`
	MembershipTypeID string `json:"membershipTypeId,omitempty"`
	Phone            string `json:"phone,omitempty" validate:"max=30"`
	City             string `json:"city,omitempty" validate:"max=100"`
	State            string `json:"state,omitempty" validate:"max=100"`
}

// MembershipType is a paid membership plan.
type MembershipType struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	MonthlyPrice float64 `json:"monthlyPrice"`
	Description  string  `json:"description,omitempty"`
}

// MembershipTypeInput is the create/update payload for a membership type.
type MembershipTypeInput struct {
	Name         string  `json:"name" validate:"required,max=100"`
	MonthlyPrice float64 `json:"monthlyPrice" validate:"gte=0"`
	Description  string  `json:"description,omitempty" validate:"max=500"`
}
