// Runit - Running Events Content Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/runit

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/runit/internal/geo"
	"github.com/tomtom215/runit/internal/metrics"
	"github.com/tomtom215/runit/internal/search"
)

// BlogPosts lists published posts, newest first as the backend orders them.
func (h *Handler) BlogPosts(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	posts, err := h.svc.Blog.ListPublished(r.Context())
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondList(w, posts, start)
}

// BlogPost returns one published post by slug.
func (h *Handler) BlogPost(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	post, err := h.svc.Blog.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondData(w, http.StatusOK, post, start)
}

// Races lists the race directory.
func (h *Handler) Races(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	races, err := h.svc.Races.ListRaces(r.Context())
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondList(w, races, start)
}

// Race returns one race.
func (h *Handler) Race(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	race, err := h.svc.Races.GetRace(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondData(w, http.StatusOK, race, start)
}

// RaceMap returns the markers and viewport of the race map. The optional
// select parameter is the id of the race to fly to.
func (h *Handler) RaceMap(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	races, err := h.svc.Races.ListRaces(r.Context())
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondData(w, http.StatusOK, geo.View(races, r.URL.Query().Get("select")), start)
}

// Search is the request/response form of live search.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	query := search.NormalizeQuery(r.URL.Query().Get("q"))
	res, err := h.searcher.Search(r.Context(), query)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	if query != "" {
		metrics.SearchQueriesTotal.WithLabelValues("http").Inc()
	}
	respondData(w, http.StatusOK, res, start)
}
