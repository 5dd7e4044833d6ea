// Runit - Running Events Content Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/runit

// Package search implements the global search bar: a term matched against
// published posts and races, a debouncer for keystroke bursts and a live
// WebSocket transport.
package search

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/gosimple/slug"
	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/runit/internal/models"
)

// MaxQueryLength caps the accepted query in characters.
const MaxQueryLength = 100

// DefaultLimit caps hits per kind.
const DefaultLimit = 10

// PostSource lists published posts.
type PostSource interface {
	ListPublished(ctx context.Context) ([]models.BlogPost, error)
}

// RaceSource lists races.
type RaceSource interface {
	ListRaces(ctx context.Context) ([]models.Race, error)
}

// PostHit is a matching post.
type PostHit struct {
	ID        string           `json:"id"`
	Title     string           `json:"title"`
	Slug      string           `json:"slug"`
	Excerpt   string           `json:"excerpt,omitempty"`
	Thumbnail string           `json:"thumbnail,omitempty"`
	Published models.Timestamp `json:"publishedAt"`
}

// RaceHit is a matching race.
type RaceHit struct {
	ID       string           `json:"id"`
	Name     string           `json:"name"`
	City     string           `json:"city,omitempty"`
	State    string           `json:"state,omitempty"`
	Date     models.Timestamp `json:"date"`
	Distance float64          `json:"distance"`
}

// Results is the answer to one query.
type Results struct {
	Query string    `json:"query"`
	Posts []PostHit `json:"posts"`
	Races []RaceHit `json:"races"`
	Total int       `json:"total"`
}

// Querier runs a search. *Searcher implements it.
type Querier interface {
	Search(ctx context.Context, query string) (Results, error)
}

// Searcher matches a term against published posts and races. Matching is
// case and accent insensitive.
type Searcher struct {
	posts PostSource
	races RaceSource
	limit int
}

// NewSearcher creates a Searcher returning at most limit hits per kind.
func NewSearcher(posts PostSource, races RaceSource, limit int) *Searcher {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Searcher{posts: posts, races: races, limit: limit}
}

// NormalizeQuery trims query and truncates it to MaxQueryLength runes.
func NormalizeQuery(query string) string {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) > MaxQueryLength {
		query = string([]rune(query)[:MaxQueryLength])
	}
	return query
}

// Search returns posts and races matching query. A blank query matches
// nothing and makes no backend call.
func (s *Searcher) Search(ctx context.Context, query string) (Results, error) {
	query = NormalizeQuery(query)
	res := Results{Query: query, Posts: []PostHit{}, Races: []RaceHit{}}
	term := fold(query)
	if term == "" {
		return res, nil
	}

	var (
		posts []models.BlogPost
		races []models.Race
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		posts, err = s.posts.ListPublished(gctx)
		if err != nil {
			return fmt.Errorf("search posts: %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		races, err = s.races.ListRaces(gctx)
		if err != nil {
			return fmt.Errorf("search races: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return Results{}, err
	}

	for _, p := range posts {
		if len(res.Posts) == s.limit {
			break
		}
		if matchPost(p, term) {
			res.Posts = append(res.Posts, PostHit{
				ID:        p.ID,
				Title:     p.Title,
				Slug:      p.Slug,
				Excerpt:   p.Excerpt,
				Thumbnail: p.Thumbnail,
				Published: p.PublishedAt,
			})
		}
	}
	for _, r := range races {
		if len(res.Races) == s.limit {
			break
		}
		if matchAny(term, r.Name, r.City, r.State) {
			res.Races = append(res.Races, RaceHit{
				ID:       r.ID,
				Name:     r.Name,
				City:     r.City,
				State:    r.State,
				Date:     r.Date,
				Distance: r.Distance,
			})
		}
	}
	res.Total = len(res.Posts) + len(res.Races)
	return res, nil
}

func matchPost(p models.BlogPost, term string) bool {
	if matchAny(term, p.Title, p.Excerpt) {
		return true
	}
	for _, c := range p.Categories {
		if matchAny(term, c.Name) {
			return true
		}
	}
	return false
}

func matchAny(term string, fields ...string) bool {
	for _, f := range fields {
		if f != "" && strings.Contains(fold(f), term) {
			return true
		}
	}
	return false
}

// fold lowercases, strips accents and joins words with hyphens so
// "São Paulo" and "sao paulo" compare equal.
func fold(s string) string {
	return slug.Make(s)
}
