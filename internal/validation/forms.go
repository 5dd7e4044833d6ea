// Runit - Running Events Content Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/runit

package validation

import (
	"strings"

	"github.com/gosimple/slug"

	"github.com/tomtom215/runit/internal/models"
)

// MinPostContentLength is the shortest post body the editor accepts.
const MinPostContentLength = 100

// Slugify derives a URL slug from a title or name. Accents are
// transliterated, so "Corrida de São Paulo" becomes "corrida-de-sao-paulo".
func Slugify(s string) string {
	return slug.Make(s)
}

// ValidatePost trims the form, derives the slug from the title when it is
// empty and validates the result.
func ValidatePost(in *models.PostInput) error {
	in.Title = strings.TrimSpace(in.Title)
	in.Excerpt = strings.TrimSpace(in.Excerpt)
	in.Content = strings.TrimSpace(in.Content)
	in.Thumbnail = strings.TrimSpace(in.Thumbnail)
	in.Slug = strings.TrimSpace(in.Slug)
	if in.Slug == "" && in.Title != "" {
		in.Slug = Slugify(in.Title)
	}
	if in.Status == "" {
		in.Status = models.PostStatusDraft
	}
	return ValidateStruct(in)
}

// ValidateCategory trims the form and derives the slug from the name when
// it is empty.
func ValidateCategory(in *models.CategoryInput) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.Slug = strings.TrimSpace(in.Slug)
	if in.Slug == "" && in.Name != "" {
		in.Slug = Slugify(in.Name)
	}
	return ValidateStruct(in)
}

// ValidateRace checks the race form. Coordinates must be within
// [-90, 90] and [-180, 180] and the distance must be positive.
func ValidateRace(in *models.RaceInput) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Date = strings.TrimSpace(in.Date)
	in.City = strings.TrimSpace(in.City)
	in.State = strings.TrimSpace(in.State)
	in.RegistrationURL = strings.TrimSpace(in.RegistrationURL)
	if in.Status == "" {
		in.Status = models.RaceStatusPending
	}
	return ValidateStruct(in)
}

// ValidateUser checks the user form. A password is required on create.
func ValidateUser(in *models.UserInput, create bool) error {
	in.Name = strings.TrimSpace(in.Name)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Role == "" {
		in.Role = models.RoleUser
	}
	if err := ValidateStruct(in); err != nil {
		return err
	}
	if create && in.Password == "" {
		return &FormError{Fields: []FieldError{{Field: "password", Tag: "required", Message: "password is required"}}}
	}
	return nil
}

// ValidateMembershipType checks the membership form.
func ValidateMembershipType(in *models.MembershipTypeInput) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	return ValidateStruct(in)
}

// ValidateCredentials checks the login form.
func ValidateCredentials(in *models.Credentials) error {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	return ValidateStruct(in)
}

// ValidateRegistration checks the signup form.
func ValidateRegistration(in *models.RegisterRequest) error {
	in.Name = strings.TrimSpace(in.Name)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	return ValidateStruct(in)
}
