// Runit - Running Events Content Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/runit

package models

// Race status values.
const (
	RaceStatusPending   = "PENDING"
	RaceStatusActive    = "ACTIVE"
	RaceStatusCompleted = "COMPLETED"
	RaceStatusCanceled  = "CANCELED"
)

// Race is a running event in the directory.
type Race struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Date            Timestamp `json:"date"`
	City            string    `json:"city,omitempty"`
	State           string    `json:"state,omitempty"`
	Latitude        float64   `json:"latitude"`
	Longitude       float64   `json:"longitude"`
	Distance        float64   `json:"distance"` // kilometres
	Status          string    `json:"status"`
	RegistrationURL string    `json:"registrationUrl,omitempty"`
	Contact         string    `json:"contact,omitempty"`
	MaxParticipants int       `json:"maxParticipants,omitempty"`
}

// RaceInput is the create/update payload for a race. Latitude and
// longitude are pointers so a missing coordinate is distinguishable from 0.
type RaceInput struct {
	Name            string   `json:"name" validate:"required,max=200"`
	Date            string   `json:"date" validate:"required,racedate"`
	City            string   `json:"city,omitempty" validate:"max=100"`
	State           string   `json:"state,omitempty" validate:"max=100"`
	Latitude        *float64 `json:"latitude" validate:"required,latitude"`
	Longitude       *float64 `json:"longitude" validate:"required,longitude"`
	Distance        float64  `json:"distance" validate:"gt=0"`
	Status          string   `json:"status" validate:"omitempty,oneof=PENDING ACTIVE COMPLETED CANCELED"`
	RegistrationURL string   `json:"registrationUrl,omitempty" validate:"omitempty,url"`
	Contact         string   `json:"contact,omitempty" validate:"max=200"`
	MaxParticipants int      `json:"maxParticipants,omitempty" validate:"gte=0"`
}
