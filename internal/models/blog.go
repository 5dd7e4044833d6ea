// Runit - Running Events Content Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/runit

package models

// Post status values.
const (
	PostStatusDraft     = "DRAFT"
	PostStatusPublished = "PUBLISHED"
)

// BlogPost is a blog article.
type BlogPost struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Slug        string         `json:"slug"`
	Excerpt     string         `json:"excerpt,omitempty"`
	Content     string         `json:"content"` // HTML or Markdown
	Thumbnail   string         `json:"thumbnail,omitempty"`
	Categories  []BlogCategory `json:"categories,omitempty"`
	Status      string         `json:"status"`
	Author      *Author        `json:"author,omitempty"`
	CreatedAt   Timestamp      `json:"createdAt"`
	UpdatedAt   Timestamp      `json:"updatedAt"`
	PublishedAt Timestamp      `json:"publishedAt"`
}

// Author is the embedded author summary of a post.
type Author struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// PostInput is the create/update payload for a post.
type PostInput struct {
	Title       string   `json:"title" validate:"required,max=200"`
	Slug        string   `json:"slug" validate:"omitempty,slug"`
	Excerpt     string   `json:"excerpt,omitempty" validate:"max=300"`
	Content     string   `json:"content" validate:"required,min=100"`
	Thumbnail   string   `json:"thumbnail,omitempty" validate:"omitempty,url"`
	CategoryIDs []string `json:"categoryIds,omitempty"`
	Status      string   `json:"status" validate:"required,oneof=DRAFT PUBLISHED"`
}

// BlogCategory groups posts.
type BlogCategory struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description,omitempty"`
	Active      bool   `json:"active"`
}

// CategoryInput is the create/update payload for a category.
type CategoryInput struct {
	Name        string `json:"name" validate:"required,max=100"`
	Slug        string `json:"slug" validate:"omitempty,slug"`
	Description string `json:"description,omitempty" validate:"max=500"`
	Active      *bool  `json:"active,omitempty"`
}
