// Runit - Running Events Content Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/runit

package analytics

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/runit/internal/models"
)

// Totals are the headline numbers of the dashboard.
type Totals struct {
	Posts          int `json:"posts"`
	PublishedPosts int `json:"publishedPosts"`
	Users          int `json:"users"`
	Races          int `json:"races"`
	UpcomingRaces  int `json:"upcomingRaces"`
}

// Dashboard is the combined analytics payload.
type Dashboard struct {
	GeneratedAt     time.Time  `json:"generatedAt"`
	WindowDays      int        `json:"windowDays"`
	Totals          Totals     `json:"totals"`
	PostsByStatus   []Bucket   `json:"postsByStatus"`
	PostsByCategory []Bucket   `json:"postsByCategory"`
	UsersByRole     []Bucket   `json:"usersByRole"`
	RacesByStatus   []Bucket   `json:"racesByStatus"`
	PostsPerDay     []DayCount `json:"postsPerDay"`
	SignupsPerDay   []DayCount `json:"signupsPerDay"`
	Churn           ChurnPanel `json:"churn"`
}

// Input is the raw data a dashboard is built from.
type Input struct {
	Posts []models.BlogPost
	Users []models.User
	Races []models.Race
}

// Build reduces in into a Dashboard for the window ending at now.
func Build(in Input, now time.Time, days int) Dashboard {
	if days <= 0 {
		days = DefaultWindowDays
	}

	totals := Totals{Posts: len(in.Posts), Users: len(in.Users), Races: len(in.Races)}
	for _, p := range in.Posts {
		if p.Status == models.PostStatusPublished {
			totals.PublishedPosts++
		}
	}
	for _, r := range in.Races {
		if !r.Date.IsZero() && !r.Date.Before(now) && r.Status != models.RaceStatusCanceled {
			totals.UpcomingRaces++
		}
	}

	return Dashboard{
		GeneratedAt:     now,
		WindowDays:      days,
		Totals:          totals,
		PostsByStatus:   PostsByStatus(in.Posts),
		PostsByCategory: PostsByCategory(in.Posts),
		UsersByRole:     UsersByRole(in.Users),
		RacesByStatus:   RacesByStatus(in.Races),
		PostsPerDay:     DailyCounts(PostTimes(in.Posts), now, days),
		SignupsPerDay:   DailyCounts(SignupTimes(in.Users), now, days),
		Churn:           ChurnDemo(),
	}
}

// PostLister lists every post, drafts included.
type PostLister interface {
	ListPosts(ctx context.Context) ([]models.BlogPost, error)
}

// UserLister lists every user.
type UserLister interface {
	ListUsers(ctx context.Context) ([]models.User, error)
}

// RaceLister lists every race.
type RaceLister interface {
	ListRaces(ctx context.Context) ([]models.Race, error)
}

// Collector fetches the dashboard input from the backend.
type Collector struct {
	Posts PostLister
	Users UserLister
	Races RaceLister
}

// Collect fetches posts, users and races concurrently. The first failure
// cancels the other requests and is returned.
func (c *Collector) Collect(ctx context.Context) (Input, error) {
	var in Input
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		posts, err := c.Posts.ListPosts(gctx)
		if err != nil {
			return fmt.Errorf("list posts: %w", err)
		}
		in.Posts = posts
		return nil
	})
	g.Go(func() error {
		users, err := c.Users.ListUsers(gctx)
		if err != nil {
			return fmt.Errorf("list users: %w", err)
		}
		in.Users = users
		return nil
	})
	g.Go(func() error {
		races, err := c.Races.ListRaces(gctx)
		if err != nil {
			return fmt.Errorf("list races: %w", err)
		}
		in.Races = races
		return nil
	})

	if err := g.Wait(); err != nil {
		return Input{}, err
	}
	return in, nil
}
