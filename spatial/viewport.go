// Copyright 2025 The MapPlaces Authors
// SPDX-License-Identifier: Apache-2.0

package spatial

import (
	"errors"
	"fmt"
	"math"
)

// Zoom range of the Google Maps roadmap tiles.
const (
	MinZoom = 0
	MaxZoom = 21
)

const (
	tileSize = 256

	// DefaultWidth is the map width used when the host gives none.
	DefaultWidth = 640
	// RemPixels converts the host's rem-based height to pixels.
	RemPixels = 16
	// DefaultZoom is the zoom of a freshly created map.
	DefaultZoom = 13
)

// DefaultCenter is the center of a freshly created map, Sydney.
var DefaultCenter = Point{Lat: -33.8688, Lng: 151.2195}

// ErrInvalidSize is returned when a viewport would have no drawable area.
var ErrInvalidSize = errors.New("viewport width and height must be positive")

// Viewport models the visible window of a map: its center, zoom and pixel
// size. It is the in-process stand-in for a rendered map.
type Viewport struct {
	Center Point `json:"center"`
	Zoom   int   `json:"zoom"`
	Width  int   `json:"width"`
	Height int   `json:"height"`
}

// NewViewport creates a viewport of the given pixel size at the default
// center and zoom.
func NewViewport(width, height int) (*Viewport, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}

	return &Viewport{
		Center: DefaultCenter,
		Zoom:   DefaultZoom,
		Width:  width,
		Height: height,
	}, nil
}

// SetCenter moves the view.
func (v *Viewport) SetCenter(p Point) {
	v.Center = p
}

// SetZoom changes the zoom, clamped to [MinZoom, MaxZoom].
func (v *Viewport) SetZoom(zoom int) {
	v.Zoom = clampZoom(zoom)
}

// ZoomLevel returns the current zoom.
func (v *Viewport) ZoomLevel() int {
	return v.Zoom
}

// FitBounds centers the view on b and picks the largest zoom at which the
// whole rectangle is visible.
func (v *Viewport) FitBounds(b Bounds) {
	if b.IsEmpty() {
		return
	}

	v.Center = b.Center()
	v.Zoom = FitZoom(b, v.Width, v.Height)
}

// Visible reports whether p falls inside the area currently shown.
func (v *Viewport) Visible(p Point) bool {
	worldPx := tileSize * math.Exp2(float64(v.Zoom))
	cx, cy := project(v.Center, worldPx)
	px, py := project(p, worldPx)

	dx := math.Abs(px - cx)
	if dx > worldPx/2 {
		dx = worldPx - dx
	}

	return dx <= float64(v.Width)/2 && math.Abs(py-cy) <= float64(v.Height)/2
}

// FitZoom returns the largest zoom at which b fits in a width x height
// pixel window under Web Mercator. Bounds collapsed to a point yield MaxZoom.
func FitZoom(b Bounds, width, height int) int {
	if b.IsEmpty() || b.IsPoint() {
		return MaxZoom
	}

	ne, sw := b.NorthEast(), b.SouthWest()

	latFraction := (mercatorLat(ne.Lat) - mercatorLat(sw.Lat)) / math.Pi

	lngDiff := ne.Lng - sw.Lng
	if lngDiff < 0 {
		lngDiff += 360
	}

	lngFraction := lngDiff / 360

	latZoom := zoomFor(height, latFraction)
	lngZoom := zoomFor(width, lngFraction)

	return clampZoom(min(latZoom, lngZoom))
}

func zoomFor(px int, fraction float64) int {
	if fraction <= 0 {
		return MaxZoom
	}

	return int(math.Floor(math.Log2(float64(px) / tileSize / fraction)))
}

func mercatorLat(lat float64) float64 {
	sin := math.Sin(lat * math.Pi / 180)
	radX2 := math.Log((1+sin)/(1-sin)) / 2

	return math.Max(math.Min(radX2, math.Pi), -math.Pi) / 2
}

// project maps p to world pixel coordinates at the given world size.
func project(p Point, worldPx float64) (float64, float64) {
	x := (p.Lng + 180) / 360 * worldPx
	y := (0.5 - mercatorLat(p.Lat)/math.Pi) * worldPx

	return x, y
}

func clampZoom(zoom int) int {
	return max(MinZoom, min(zoom, MaxZoom))
}
