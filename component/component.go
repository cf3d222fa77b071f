// Copyright 2025 The MapPlaces Authors
// SPDX-License-Identifier: Apache-2.0

// Package component runs the interactive map places component for a host:
// it prepares the map, resolves the configured places and tracks the
// learner's clicks until the component is complete.
package component

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/jcodagnone/mapplaces/geocode"
	"github.com/jcodagnone/mapplaces/loader"
	"github.com/jcodagnone/mapplaces/places"
	"github.com/jcodagnone/mapplaces/spatial"
)

// Element id conventions of the host page.
const (
	MapIDPrefix          = "interactiveMapPlaces-map-"
	InvalidListIDSuffix  = "-invalid-list"
	alertMapUnavailable  = "Google Maps could not be loaded."
	alertMultipleResults = "Found multiple results for address "
)

// Errors returned by the lifecycle methods.
var (
	ErrNotPrepared    = errors.New("component was not prepared")
	ErrMapUnavailable = errors.New("map unavailable")
)

// Host is the course runtime the component reports to.
type Host interface {
	// SetCompletionStatus marks the component complete for the learner.
	SetCompletionStatus() error
	// SetReadyStatus tells the host the component finished rendering.
	SetReadyStatus()
	// Alert shows a message to the author or learner.
	Alert(message string)
}

// Options carries the collaborators of a Component. Zero values pick
// working defaults.
type Options struct {
	// Loader loads the Maps script, shared between instances
	Loader *loader.Loader

	// NewGeocoder builds the geocoder for a configuration
	NewGeocoder func(cfg Config) geocode.Geocoder

	// NewMap creates the map view once the scripts are loaded
	NewMap func(width, height int) (*places.ViewportMap, error)

	// HTTPClient is used by the default geocoder
	HTTPClient *http.Client

	MaxConcurrency int

	// Progress is called after each place query gets its outcome
	Progress func(done, total int)
}

// Snapshot is the observable state of a component.
type Snapshot struct {
	MapID          string             `json:"map_id"`
	InvalidListID  string             `json:"invalid_list_id"`
	State          places.State       `json:"state"`
	RequestedCount int                `json:"requested_count"`
	FoundCount     int                `json:"found_count"`
	Markers        []places.Marker    `json:"markers"`
	Unresolved     []string           `json:"unresolved"`
	ShowUnresolved bool               `json:"show_unresolved"`
	ClickedCount   int                `json:"clicked_count"`
	ExpectedClicks int                `json:"expected_clicks"`
	Viewport       *spatial.Viewport  `json:"viewport,omitempty"`
	InfoWindow     *places.InfoWindow `json:"info_window,omitempty"`
	Completed      bool               `json:"completed"`
	Ready          bool               `json:"ready"`
}

// Component is one instance of the map on a page. All methods are safe for
// concurrent use; tracker updates are serialized. Host callbacks run without
// the component lock held, so a host may call back into the component.
type Component struct {
	config  Config
	host    Host
	options Options

	mu          sync.Mutex
	mapID       string
	prepared    bool
	prepareErr  error
	view        *places.ViewportMap
	tracker     *places.Tracker
	unresolved  []string
	metrics     geocode.ResolveMetrics
	ready       bool
	done        *places.CompletionSignal
	pending     []func()
}

// New creates a component for cfg reporting to host.
func New(cfg Config, host Host, options Options) *Component {
	if options.Loader == nil {
		options.Loader = loader.New(options.HTTPClient)
	}

	if options.NewGeocoder == nil {
		client := options.HTTPClient
		options.NewGeocoder = func(cfg Config) geocode.Geocoder {
			return geocode.NewGoogleMapsGeocoder(geocode.GoogleMapsOptions{
				APIKey:     cfg.APIKey,
				Language:   cfg.Language,
				HTTPClient: client,
			})
		}
	}

	if options.NewMap == nil {
		options.NewMap = places.NewViewportMap
	}

	return &Component{config: cfg, host: host, options: options}
}

// Prepare assigns the map id and validates the configuration. A
// configuration error is alerted to the host and prevents rendering.
func (c *Component) Prepare() error {
	defer c.deliver()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.mapID = MapIDPrefix + uuid.NewString()
	c.config.applyDefaults()
	c.prepared = true
	c.prepareErr = c.config.Validate()

	if c.prepareErr != nil {
		c.alert(c.prepareErr.Error())
	}

	return c.prepareErr
}

// Render loads the map, resolves every place and fits the viewport. The
// host is signaled ready when Render returns, whatever the outcome.
func (c *Component) Render(ctx context.Context) error {
	defer c.signalReady()

	c.mu.Lock()
	prepared, prepareErr, mapID := c.prepared, c.prepareErr, c.mapID
	c.mu.Unlock()

	if !prepared {
		return ErrNotPrepared
	}

	if prepareErr != nil {
		return prepareErr
	}

	view, err := c.loadMap(ctx)
	if err != nil {
		log.Printf("Map %s unavailable: %v", mapID, err)
		c.mapUnavailable()

		return errors.Join(ErrMapUnavailable, err)
	}

	items := c.config.Items

	c.mu.Lock()
	c.view = view
	c.unresolved = nil
	c.done = places.NewCompletionSignal(c.host.SetCompletionStatus)
	c.tracker = places.NewTracker(places.TrackerOptions{
		View:              view,
		Complete:          c.queueCompletion,
		CompletionOnClick: c.config.EnableCompletionOnMarkersClick,
		OnMarkerClick:     c.trackMarkerClick,
	})
	c.tracker.Initialize(len(items))
	c.mu.Unlock()

	client := geocode.NewClient(c.options.NewGeocoder(c.config), c.options.MaxConcurrency)
	done := 0

	metrics := client.Resolve(ctx, items, func(q places.PlaceQuery, outcome places.Outcome) {
		c.mu.Lock()
		c.reduce(q, outcome)
		c.mu.Unlock()
		c.deliver()

		done++
		if c.options.Progress != nil {
			c.options.Progress(done, len(items))
		}
	})

	defer c.deliver()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.metrics = metrics
	// Settles cycles that produced no outcome at all.
	c.tracker.TryFitViewport()

	return nil
}

func (c *Component) loadMap(ctx context.Context) (*places.ViewportMap, error) {
	var (
		view   *places.ViewportMap
		mapErr error
	)

	width, height := c.config.MapSize()
	urls := []string{loader.MapsScriptURL(c.config.Language, c.config.APIKey)}

	err := c.options.Loader.Load(ctx, urls, func() {
		view, mapErr = c.options.NewMap(width, height)
	})
	if err != nil {
		return nil, err
	}

	if mapErr != nil {
		return nil, mapErr
	}

	return view, nil
}

// mapUnavailable alerts the host. Without click gating the component is
// still completed, since the learner has nothing to click.
func (c *Component) mapUnavailable() {
	c.host.Alert(alertMapUnavailable)

	if c.config.EnableCompletionOnMarkersClick {
		return
	}

	done := places.NewCompletionSignal(c.host.SetCompletionStatus)

	c.mu.Lock()
	c.done = done
	c.mu.Unlock()

	done.Fire()
}

func (c *Component) signalReady() {
	c.mu.Lock()
	c.ready = true
	c.mu.Unlock()

	c.host.SetReadyStatus()
}

// alert queues a host alert; c.mu must be held.
func (c *Component) alert(message string) {
	c.pending = append(c.pending, func() { c.host.Alert(message) })
}

// queueCompletion is the tracker's completion callback. It runs with c.mu
// held, so the host call is deferred to deliver.
func (c *Component) queueCompletion() error {
	done := c.done
	c.pending = append(c.pending, func() { done.Fire() })

	return nil
}

// deliver runs the queued host calls. c.mu must not be held.
func (c *Component) deliver() {
	c.mu.Lock()
	pending := c.pending
	c.pending = nil
	c.mu.Unlock()

	for _, f := range pending {
		f()
	}
}

// reduce is called with c.mu held.
func (c *Component) reduce(q places.PlaceQuery, outcome places.Outcome) {
	if err := c.tracker.ReduceOutcome(q, outcome); err != nil {
		log.Printf("Dropping outcome for %q: %v", q.Address, err)

		return
	}

	switch {
	case outcome.Ambiguous():
		c.alert(alertMultipleResults + q.Address)
	case outcome.Kind == places.Failed:
		c.alert(fmt.Sprintf("Error looking to address %s on Google Maps.", q.Address))
	case outcome.Kind != places.Found || len(outcome.Results) == 0:
		c.unresolved = append(c.unresolved, q.Address)
	}
}

// trackMarkerClick runs inside Click, with c.mu held.
func (c *Component) trackMarkerClick(m *places.Marker, _ int) {
	c.tracker.RecordClick(m.ID, c.tracker.ExpectedClicks())
}

// Click clicks a marker as the learner would and returns the info window
// it opened.
func (c *Component) Click(markerID string) (places.InfoWindow, error) {
	defer c.deliver()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.view == nil {
		return places.InfoWindow{}, ErrMapUnavailable
	}

	if err := c.view.Click(markerID); err != nil {
		return places.InfoWindow{}, err
	}

	w := c.view.InfoWindow()
	if w == nil {
		return places.InfoWindow{}, fmt.Errorf("marker %s opened no info window", markerID)
	}

	return *w, nil
}

// MapID returns the map element id, empty before Prepare.
func (c *Component) MapID() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.mapID
}

// Config returns the configuration after defaults were applied.
func (c *Component) Config() Config {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.config
}

// Metrics returns the counters of the last Render.
func (c *Component) Metrics() geocode.ResolveMetrics {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.metrics
}

// Snapshot returns the current observable state.
func (c *Component) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Snapshot{
		MapID:      c.mapID,
		Unresolved: append([]string{}, c.unresolved...),
		Ready:      c.ready,
		Completed:  c.done != nil && c.done.Fired(),
	}

	if c.mapID != "" {
		s.InvalidListID = c.mapID + InvalidListIDSuffix
	}

	if c.tracker != nil {
		s.State = c.tracker.State()
		s.RequestedCount = c.tracker.RequestedCount()
		s.FoundCount = c.tracker.FoundCount()
		s.Markers = c.tracker.Markers()
		s.ClickedCount = c.tracker.ClickedCount()
		s.ExpectedClicks = c.tracker.ExpectedClicks()
		s.Completed = s.Completed || c.tracker.Completed()
		s.ShowUnresolved = s.FoundCount != s.RequestedCount
	}

	if c.view != nil {
		viewport := c.view.Viewport()
		s.Viewport = &viewport
		s.InfoWindow = c.view.InfoWindow()
	}

	return s
}
