// Runit - Running Events Content Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/runit

// Package analytics reduces fetched posts, users and races into the chart
// series of the admin analytics panels. Every function is a pure reduction
// over its input; nothing is cached or persisted.
package analytics

import (
	"sort"
	"time"

	"github.com/tomtom215/runit/internal/models"
)

// DefaultWindowDays is the trailing window of the per-day charts.
const DefaultWindowDays = 30

// UncategorizedKey groups posts without any category.
const UncategorizedKey = "uncategorized"

// Bucket is one slice of a categorical chart.
type Bucket struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

// DayCount is one point of a per-day series.
type DayCount struct {
	Date  string `json:"date"` // YYYY-MM-DD
	Label string `json:"label"`
	Count int    `json:"count"`
}

// countBy tallies keys. Keys listed in fixed come first in that order,
// zero-filled; any other key follows sorted by count descending then key.
func countBy(keys []string, fixed []string) []Bucket {
	counts := make(map[string]int, len(fixed))
	for _, k := range keys {
		counts[k]++
	}

	buckets := make([]Bucket, 0, len(counts)+len(fixed))
	seen := make(map[string]bool, len(fixed))
	for _, k := range fixed {
		buckets = append(buckets, Bucket{Key: k, Label: k, Count: counts[k]})
		seen[k] = true
	}

	var extra []Bucket
	for k, n := range counts {
		if !seen[k] {
			extra = append(extra, Bucket{Key: k, Label: k, Count: n})
		}
	}
	sortBuckets(extra)
	return append(buckets, extra...)
}

func sortBuckets(b []Bucket) {
	sort.Slice(b, func(i, j int) bool {
		if b[i].Count != b[j].Count {
			return b[i].Count > b[j].Count
		}
		return b[i].Key < b[j].Key
	})
}

// PostsByStatus counts posts per status. DRAFT and PUBLISHED are always
// present.
func PostsByStatus(posts []models.BlogPost) []Bucket {
	keys := make([]string, len(posts))
	for i, p := range posts {
		keys[i] = p.Status
	}
	return countBy(keys, []string{models.PostStatusDraft, models.PostStatusPublished})
}

// PostsByCategory counts posts per category slug, largest first. A post in
// several categories counts once in each; a post in none counts under
// UncategorizedKey.
func PostsByCategory(posts []models.BlogPost) []Bucket {
	counts := make(map[string]*Bucket)
	add := func(key, label string) {
		b, ok := counts[key]
		if !ok {
			b = &Bucket{Key: key, Label: label}
			counts[key] = b
		}
		b.Count++
	}

	for _, p := range posts {
		if len(p.Categories) == 0 {
			add(UncategorizedKey, "Sem categoria")
			continue
		}
		for _, c := range p.Categories {
			key := c.Slug
			if key == "" {
				key = c.ID
			}
			add(key, c.Name)
		}
	}

	buckets := make([]Bucket, 0, len(counts))
	for _, b := range counts {
		buckets = append(buckets, *b)
	}
	sortBuckets(buckets)
	return buckets
}

// UsersByRole counts users per role. ADMIN, EDITOR and USER are always
// present.
func UsersByRole(users []models.User) []Bucket {
	keys := make([]string, len(users))
	for i, u := range users {
		keys[i] = u.Role
	}
	return countBy(keys, []string{models.RoleAdmin, models.RoleEditor, models.RoleUser})
}

// RacesByStatus counts races per status in lifecycle order.
func RacesByStatus(races []models.Race) []Bucket {
	keys := make([]string, len(races))
	for i, r := range races {
		keys[i] = r.Status
	}
	return countBy(keys, []string{
		models.RaceStatusPending,
		models.RaceStatusActive,
		models.RaceStatusCompleted,
		models.RaceStatusCanceled,
	})
}

// DailyCounts buckets times into the days trailing days ending on now's
// calendar day, oldest first. Days with nothing are zero. Zero times and
// times outside the window are ignored. Days are calendar days in now's
// location.
func DailyCounts(times []time.Time, now time.Time, days int) []DayCount {
	if days <= 0 {
		days = DefaultWindowDays
	}
	loc := now.Location()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	first := today.AddDate(0, 0, -(days - 1))

	series := make([]DayCount, days)
	index := make(map[string]int, days)
	for i := range series {
		d := first.AddDate(0, 0, i)
		key := d.Format(time.DateOnly)
		series[i] = DayCount{Date: key, Label: d.Format("Jan 2")}
		index[key] = i
	}

	for _, t := range times {
		if t.IsZero() {
			continue
		}
		if i, ok := index[t.In(loc).Format(time.DateOnly)]; ok {
			series[i].Count++
		}
	}
	return series
}

// PostTimes returns the creation time of each post.
func PostTimes(posts []models.BlogPost) []time.Time {
	out := make([]time.Time, len(posts))
	for i, p := range posts {
		out[i] = p.CreatedAt.Time
	}
	return out
}

// SignupTimes returns the creation time of each user.
func SignupTimes(users []models.User) []time.Time {
	out := make([]time.Time, len(users))
	for i, u := range users {
		out[i] = u.CreatedAt.Time
	}
	return out
}
