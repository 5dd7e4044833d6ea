// Runit - Running Events Content Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/runit

// Package geo computes the race directory map: markers, bounding boxes and
// the viewport the map client should show. Projection follows Web Mercator
// (EPSG:3857) with 256px tiles, the same scheme the tile server uses.
//
// Race lists are small, so everything here is a direct iteration. There is
// no clustering and no spatial index.
package geo

import (
	"math"

	"github.com/tomtom215/runit/internal/models"
)

const (
	// TileSize is the edge of one map tile in pixels.
	TileSize = 256

	// MaxZoom is the deepest zoom level served by the tile server.
	MaxZoom = 18

	// DefaultFlyZoom is the zoom used when flying to a selected race.
	DefaultFlyZoom = 13

	// DefaultPadding is the fraction of the box span added on each side
	// when fitting bounds.
	DefaultPadding = 0.1

	// MinSpan is the smallest box edge in degrees. A single race would
	// otherwise yield a zero-area box and an unbounded zoom.
	MinSpan = 0.02

	// Viewport size assumed when computing a fit zoom.
	viewportWidth  = 1024
	viewportHeight = 768

	// Web Mercator cannot represent the poles.
	maxMercatorLat = 85.05112878
)

// DefaultCenter is shown when there are no races to fit.
var DefaultCenter = Point{Lat: -14.235, Lon: -51.9253}

// DefaultZoom goes with DefaultCenter.
const DefaultZoom = 4

// Point is a WGS84 coordinate.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lng"`
}

// Box is a bounding box in degrees.
type Box struct {
	MinLat float64 `json:"south"`
	MinLon float64 `json:"west"`
	MaxLat float64 `json:"north"`
	MaxLon float64 `json:"east"`
}

// Center returns the midpoint of the box.
func (b Box) Center() Point {
	return Point{Lat: (b.MinLat + b.MaxLat) / 2, Lon: (b.MinLon + b.MaxLon) / 2}
}

// Contains reports whether p lies inside the box, edges included.
func (b Box) Contains(p Point) bool {
	return p.Lat >= b.MinLat && p.Lat <= b.MaxLat && p.Lon >= b.MinLon && p.Lon <= b.MaxLon
}

// Viewport modes.
const (
	ModeFit     = "fit"
	ModeFlyTo   = "flyTo"
	ModeDefault = "default"
)

// Viewport tells the map client where to look.
type Viewport struct {
	Mode   string `json:"mode"`
	Center Point  `json:"center"`
	Zoom   int    `json:"zoom"`
	Bounds *Box   `json:"bounds,omitempty"`
}

// Marker classes.
const (
	MarkerActive = "active"
	MarkerNormal = "normal"
)

// Marker is one race pin.
type Marker struct {
	RaceID   string  `json:"raceId"`
	Name     string  `json:"name"`
	Position Point   `json:"position"`
	Class    string  `json:"class"`
	Status   string  `json:"status,omitempty"`
	Distance float64 `json:"distance,omitempty"`
}

// MapView is the complete map payload.
type MapView struct {
	Markers  []Marker `json:"markers"`
	Viewport Viewport `json:"viewport"`
	Selected string   `json:"selected,omitempty"`
}

// Located reports whether the race carries usable coordinates.
func Located(r models.Race) bool {
	return r.Latitude >= -90 && r.Latitude <= 90 && r.Longitude >= -180 && r.Longitude <= 180 &&
		!math.IsNaN(r.Latitude) && !math.IsNaN(r.Longitude)
}

func position(r models.Race) Point {
	return Point{Lat: r.Latitude, Lon: r.Longitude}
}

// Bounds returns the bounding box over every located race. ok is false
// when no race has coordinates.
func Bounds(races []models.Race) (box Box, ok bool) {
	for _, r := range races {
		if !Located(r) {
			continue
		}
		if !ok {
			box = Box{MinLat: r.Latitude, MinLon: r.Longitude, MaxLat: r.Latitude, MaxLon: r.Longitude}
			ok = true
			continue
		}
		box.MinLat = math.Min(box.MinLat, r.Latitude)
		box.MaxLat = math.Max(box.MaxLat, r.Latitude)
		box.MinLon = math.Min(box.MinLon, r.Longitude)
		box.MaxLon = math.Max(box.MaxLon, r.Longitude)
	}
	return box, ok
}

// FitBounds returns the viewport that shows the whole box. Each side is
// grown by padding times the span, and spans below MinSpan are widened
// around the centre first.
func FitBounds(box Box, padding float64) Viewport {
	if padding < 0 {
		padding = 0
	}
	box = widen(box)

	latPad := (box.MaxLat - box.MinLat) * padding
	lonPad := (box.MaxLon - box.MinLon) * padding
	padded := Box{
		MinLat: math.Max(box.MinLat-latPad, -maxMercatorLat),
		MaxLat: math.Min(box.MaxLat+latPad, maxMercatorLat),
		MinLon: math.Max(box.MinLon-lonPad, -180),
		MaxLon: math.Min(box.MaxLon+lonPad, 180),
	}

	return Viewport{
		Mode:   ModeFit,
		Center: padded.Center(),
		Zoom:   fitZoom(padded),
		Bounds: &padded,
	}
}

func widen(b Box) Box {
	if span := b.MaxLat - b.MinLat; span < MinSpan {
		grow := (MinSpan - span) / 2
		b.MinLat -= grow
		b.MaxLat += grow
	}
	if span := b.MaxLon - b.MinLon; span < MinSpan {
		grow := (MinSpan - span) / 2
		b.MinLon -= grow
		b.MaxLon += grow
	}
	return b
}

// fitZoom is the deepest integer zoom at which the box fits the viewport.
func fitZoom(b Box) int {
	lonFraction := (b.MaxLon - b.MinLon) / 360
	latFraction := (mercatorY(b.MaxLat) - mercatorY(b.MinLat)) / (2 * math.Pi)

	zoomX := math.Log2(viewportWidth / TileSize / lonFraction)
	zoomY := math.Log2(viewportHeight / TileSize / latFraction)

	zoom := int(math.Floor(math.Min(zoomX, zoomY)))
	return clampZoom(zoom)
}

func mercatorY(lat float64) float64 {
	lat = math.Max(math.Min(lat, maxMercatorLat), -maxMercatorLat)
	rad := lat * math.Pi / 180
	return math.Log(math.Tan(math.Pi/4 + rad/2))
}

func clampZoom(z int) int {
	if z < 0 {
		return 0
	}
	if z > MaxZoom {
		return MaxZoom
	}
	return z
}

// FlyTo returns the viewport centred on race r. A zoom of 0 or less uses
// DefaultFlyZoom.
func FlyTo(r models.Race, zoom int) Viewport {
	if zoom <= 0 {
		zoom = DefaultFlyZoom
	}
	return Viewport{Mode: ModeFlyTo, Center: position(r), Zoom: clampZoom(zoom)}
}

// Markers returns one marker per located race, in input order. The race
// whose id equals selectedID gets MarkerActive.
func Markers(races []models.Race, selectedID string) []Marker {
	markers := make([]Marker, 0, len(races))
	for _, r := range races {
		if !Located(r) {
			continue
		}
		class := MarkerNormal
		if selectedID != "" && r.ID == selectedID {
			class = MarkerActive
		}
		markers = append(markers, Marker{
			RaceID:   r.ID,
			Name:     r.Name,
			Position: position(r),
			Class:    class,
			Status:   r.Status,
			Distance: r.Distance,
		})
	}
	return markers
}

// View builds the map payload. With a selection that matches a located
// race the viewport flies to it; otherwise it fits every race. An unknown
// selection is ignored.
func View(races []models.Race, selectedID string) MapView {
	view := MapView{Markers: Markers(races, selectedID)}

	if selectedID != "" {
		for _, r := range races {
			if r.ID == selectedID && Located(r) {
				view.Selected = selectedID
				view.Viewport = FlyTo(r, DefaultFlyZoom)
				return view
			}
		}
	}

	if box, ok := Bounds(races); ok {
		view.Viewport = FitBounds(box, DefaultPadding)
		return view
	}
	view.Viewport = Viewport{Mode: ModeDefault, Center: DefaultCenter, Zoom: DefaultZoom}
	return view
}
