// Copyright 2025 The MapPlaces Authors
// SPDX-License-Identifier: Apache-2.0

package places

import (
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jcodagnone/mapplaces/spatial"
)

// Zoom adjustments applied after fitting the markers' bounds.
const (
	// SingleMarkerZoomOut backs off from the closest zoom around a lone marker.
	SingleMarkerZoomOut = 5
	// EdgeZoomOut keeps markers away from the viewport edges.
	EdgeZoomOut = 1
)

// State is the position of a Tracker in its load cycle.
type State int

// Load cycle states.
const (
	Idle State = iota
	Loading
	Populating
	Fitted
	AwaitingClicks
	Completed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Populating:
		return "populating"
	case Fitted:
		return "fitted"
	case AwaitingClicks:
		return "awaiting_clicks"
	case Completed:
		return "completed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Errors returned by ReduceOutcome.
var (
	ErrNotLoading   = errors.New("tracker has no load cycle in progress")
	ErrCycleSettled = errors.New("every query of the load cycle already has an outcome")
)

// TrackerOptions configures a Tracker.
type TrackerOptions struct {
	// View receives markers and viewport changes, required
	View MapView

	// Complete is the host completion callback, delivered at most once per cycle
	Complete func() error

	// CompletionOnClick gates completion on clicking every marker. When
	// false, completion is signaled as soon as the load cycle settles.
	CompletionOnClick bool

	// OnMarkerClick runs after a marker's info window opens, with the
	// number of queries still expected to yield markers
	OnMarkerClick func(m *Marker, foundCount int)

	// NewID generates marker ids, random UUIDs by default
	NewID func() string
}

// Tracker owns the markers of one map for one load cycle. It is not safe
// for concurrent use: callers serialize reductions and clicks.
type Tracker struct {
	options    TrackerOptions
	completion *CompletionSignal

	state     State
	requested int
	found     int
	realized  int // found queries whose markers are placed

	markers []*Marker
	byID    map[string]*Marker
	clicked map[string]struct{}
	pending []*Marker
	fits    int
}

// NewTracker creates an idle tracker.
func NewTracker(options TrackerOptions) *Tracker {
	if options.NewID == nil {
		options.NewID = uuid.NewString
	}

	return &Tracker{
		options:    options,
		completion: NewCompletionSignal(options.Complete),
		byID:       make(map[string]*Marker),
		clicked:    make(map[string]struct{}),
	}
}

// Initialize starts a load cycle for requestedCount queries, discarding the
// previous cycle.
func (t *Tracker) Initialize(requestedCount int) {
	requestedCount = max(requestedCount, 0)

	t.completion = NewCompletionSignal(t.options.Complete)
	t.state = Loading
	t.requested = requestedCount
	t.found = requestedCount
	t.realized = 0
	t.markers = nil
	t.byID = make(map[string]*Marker)
	t.clicked = make(map[string]struct{})
	t.pending = nil
	t.fits = 0
}

// ReduceOutcome applies the outcome of one query. Found results become
// markers; a query that was not found or failed counts down foundCount once.
func (t *Tracker) ReduceOutcome(query PlaceQuery, outcome Outcome) error {
	switch t.state {
	case Loading, Populating:
	case Idle:
		return ErrNotLoading
	default:
		return ErrCycleSettled
	}

	t.state = Populating

	if outcome.Kind == Found && len(outcome.Results) > 0 {
		for _, result := range outcome.Results {
			result.Query = query
			t.addMarker(result)
		}

		t.realized++
	} else {
		t.found--
	}

	t.TryFitViewport()

	return nil
}

func (t *Tracker) addMarker(result GeocodeResult) {
	m := &Marker{ID: t.options.NewID(), Result: result}

	t.markers = append(t.markers, m)
	t.byID[m.ID] = m
	t.pending = append(t.pending, m)

	t.options.View.AddMarker(m, func() { t.handleClick(m) })
}

func (t *Tracker) handleClick(m *Marker) {
	content, err := InfoWindowContent(m.Result.Query)
	if err != nil {
		log.Printf("Rendering content of %q: %s", m.Result.Query.Address, err)

		content = NoContent
	}

	t.options.View.OpenInfoWindow(m, content)

	if t.options.OnMarkerClick != nil {
		t.options.OnMarkerClick(m, t.found)
	}
}

// TryFitViewport fits the map to the markers once every found query has
// been realized. The batch is consumed: later calls in the same cycle do
// nothing. It reports whether the viewport changed.
func (t *Tracker) TryFitViewport() bool {
	if t.state != Loading && t.state != Populating {
		return false
	}

	if t.realized != t.found {
		return false
	}

	fitted := false

	if len(t.pending) > 0 {
		bounds := spatial.Bounds{}
		for _, m := range t.pending {
			bounds = bounds.Extend(m.Result.Location)
		}

		view := t.options.View
		view.SetCenter(bounds.Center())
		view.FitBounds(bounds)

		if len(t.pending) == 1 {
			view.SetZoom(view.ZoomLevel() - SingleMarkerZoomOut)
		} else {
			view.SetZoom(view.ZoomLevel() - EdgeZoomOut)
		}

		t.pending = nil
		t.fits++
		fitted = true
	}

	t.state = Fitted
	t.settle()

	return fitted
}

func (t *Tracker) settle() {
	if !t.options.CompletionOnClick {
		t.complete()

		return
	}

	t.state = AwaitingClicks
	t.checkClicks(len(t.markers))
}

// RecordClick counts a click on markerID. Clicking the same marker again
// has no effect. Once totalExpectedClicks distinct markers were clicked the
// completion signal fires. It reports whether this click completed the
// cycle. Without click-gated completion it does nothing.
func (t *Tracker) RecordClick(markerID string, totalExpectedClicks int) bool {
	if !t.options.CompletionOnClick {
		return false
	}

	m, ok := t.byID[markerID]
	if !ok {
		log.Printf("Ignoring click on unknown marker %s", markerID)

		return false
	}

	if _, seen := t.clicked[markerID]; !seen {
		t.clicked[markerID] = struct{}{}
		m.Clicked = true
	}

	return t.checkClicks(totalExpectedClicks)
}

func (t *Tracker) checkClicks(totalExpectedClicks int) bool {
	if t.state != AwaitingClicks || totalExpectedClicks <= 0 {
		return false
	}

	if len(t.clicked) < totalExpectedClicks {
		return false
	}

	t.complete()

	return true
}

func (t *Tracker) complete() {
	t.completion.Fire()
	t.state = Completed
}

// State returns the current load cycle state.
func (t *Tracker) State() State {
	return t.state
}

// RequestedCount returns how many queries the cycle started with.
func (t *Tracker) RequestedCount() int {
	return t.requested
}

// FoundCount returns how many queries are still expected to yield markers.
func (t *Tracker) FoundCount() int {
	return t.found
}

// Settled reports whether every query has its outcome.
func (t *Tracker) Settled() bool {
	return t.state >= Fitted
}

// Markers returns a copy of the markers in creation order.
func (t *Tracker) Markers() []Marker {
	markers := make([]Marker, 0, len(t.markers))
	for _, m := range t.markers {
		markers = append(markers, *m)
	}

	return markers
}

// Marker looks a marker up by id.
func (t *Tracker) Marker(id string) (Marker, bool) {
	m, ok := t.byID[id]
	if !ok {
		return Marker{}, false
	}

	return *m, true
}

// ClickedCount returns how many distinct markers were clicked.
func (t *Tracker) ClickedCount() int {
	return len(t.clicked)
}

// ExpectedClicks returns how many distinct clicks complete the cycle: one
// per placed marker, ambiguous matches included.
func (t *Tracker) ExpectedClicks() int {
	return len(t.markers)
}

// FitCount returns how many times the viewport was fitted this cycle.
func (t *Tracker) FitCount() int {
	return t.fits
}

// Completed reports whether the completion signal was delivered.
func (t *Tracker) Completed() bool {
	return t.completion.Fired()
}

// CompletionErr returns the host's error from the completion callback.
func (t *Tracker) CompletionErr() error {
	return t.completion.Err()
}
