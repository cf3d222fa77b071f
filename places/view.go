// Copyright 2025 The MapPlaces Authors
// SPDX-License-Identifier: Apache-2.0

package places

import (
	"errors"
	"fmt"
	"sync"

	"github.com/jcodagnone/mapplaces/spatial"
)

// MapView is the rendering surface markers are placed on.
type MapView interface {
	// AddMarker shows m and arranges for onClick to run when it is clicked.
	AddMarker(m *Marker, onClick func())
	// OpenInfoWindow shows content anchored to m.
	OpenInfoWindow(m *Marker, content string)
	SetCenter(p spatial.Point)
	FitBounds(b spatial.Bounds)
	ZoomLevel() int
	SetZoom(zoom int)
}

// ErrUnknownMarker is returned when clicking a marker that is not on the map.
var ErrUnknownMarker = errors.New("unknown marker")

// InfoWindow is the currently open info window.
type InfoWindow struct {
	MarkerID string `json:"marker_id"`
	Content  string `json:"content"`
}

// ViewportMap is a MapView kept in memory on top of a spatial.Viewport.
// Hosts without a real map drive clicks through Click.
type ViewportMap struct {
	mu       sync.Mutex
	viewport *spatial.Viewport
	markers  []*Marker
	handlers map[string]func()
	window   *InfoWindow
}

// NewViewportMap creates a map of the given pixel size.
func NewViewportMap(width, height int) (*ViewportMap, error) {
	viewport, err := spatial.NewViewport(width, height)
	if err != nil {
		return nil, fmt.Errorf("creating map: %w", err)
	}

	return &ViewportMap{
		viewport: viewport,
		handlers: make(map[string]func()),
	}, nil
}

// AddMarker implements MapView.
func (m *ViewportMap) AddMarker(marker *Marker, onClick func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.markers = append(m.markers, marker)
	m.handlers[marker.ID] = onClick
}

// OpenInfoWindow implements MapView. Only one window is open at a time.
func (m *ViewportMap) OpenInfoWindow(marker *Marker, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.window = &InfoWindow{MarkerID: marker.ID, Content: content}
}

// SetCenter implements MapView.
func (m *ViewportMap) SetCenter(p spatial.Point) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.viewport.SetCenter(p)
}

// FitBounds implements MapView.
func (m *ViewportMap) FitBounds(b spatial.Bounds) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.viewport.FitBounds(b)
}

// ZoomLevel implements MapView.
func (m *ViewportMap) ZoomLevel() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.viewport.ZoomLevel()
}

// SetZoom implements MapView.
func (m *ViewportMap) SetZoom(zoom int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.viewport.SetZoom(zoom)
}

// Click runs the handler bound to the marker, as a user click would.
func (m *ViewportMap) Click(markerID string) error {
	m.mu.Lock()
	handler, ok := m.handlers[markerID]
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownMarker, markerID)
	}

	if handler != nil {
		handler()
	}

	return nil
}

// Viewport returns a copy of the current viewport.
func (m *ViewportMap) Viewport() spatial.Viewport {
	m.mu.Lock()
	defer m.mu.Unlock()

	return *m.viewport
}

// InfoWindow returns the open info window, nil when none is open.
func (m *ViewportMap) InfoWindow() *InfoWindow {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.window == nil {
		return nil
	}

	w := *m.window

	return &w
}

// MarkerCount returns how many markers have been placed.
func (m *ViewportMap) MarkerCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.markers)
}
