// Copyright 2025 The MapPlaces Authors
// SPDX-License-Identifier: Apache-2.0

package component

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jcodagnone/mapplaces/geocode"
	"github.com/jcodagnone/mapplaces/loader"
	"github.com/jcodagnone/mapplaces/places"
	"github.com/jcodagnone/mapplaces/spatial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHost struct {
	mu          sync.Mutex
	alerts      []string
	completions int
	ready       int
	completeErr error
}

func (h *fakeHost) SetCompletionStatus() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.completions++

	return h.completeErr
}

func (h *fakeHost) SetReadyStatus() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.ready++
}

func (h *fakeHost) Alert(message string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.alerts = append(h.alerts, message)
}

var world = map[string][]geocode.Result{
	"Sydney Opera House": {{Location: spatial.Point{Lat: -33.8568, Lng: 151.2153}, FormattedAddress: "Opera House"}},
	"Harbour Bridge":     {{Location: spatial.Point{Lat: -33.8523, Lng: 151.2108}, FormattedAddress: "Bridge"}},
	"Springfield": {
		{Location: spatial.Point{Lat: 39.78, Lng: -89.65}, FormattedAddress: "Springfield, IL"},
		{Location: spatial.Point{Lat: 37.21, Lng: -93.29}, FormattedAddress: "Springfield, MO"},
	},
}

func newTestComponent(t *testing.T, gated bool, addresses ...string) (*Component, *fakeHost) {
	t.Helper()

	items := make([]places.PlaceQuery, 0, len(addresses))
	for _, a := range addresses {
		items = append(items, places.PlaceQuery{Address: a, Content: a})
	}

	host := &fakeHost{}
	c := New(Config{
		APIKey:                         "k",
		Items:                          items,
		EnableCompletionOnMarkersClick: gated,
	}, host, Options{
		Loader: loader.Preloaded(),
		NewGeocoder: func(Config) geocode.Geocoder {
			return geocode.GeocoderFunc(func(_ context.Context, address string) ([]geocode.Result, error) {
				if address == "Denied" {
					return nil, geocode.ClassifyStatus(geocode.StatusRequestDenied, "")
				}

				if results, ok := world[address]; ok {
					return results, nil
				}

				return nil, geocode.ClassifyStatus(geocode.StatusZeroResults, "")
			})
		},
	})

	return c, host
}

func TestPrepareAssignsMapID(t *testing.T) {
	c, host := newTestComponent(t, true)
	require.NoError(t, c.Prepare())

	assert.True(t, strings.HasPrefix(c.MapID(), MapIDPrefix))
	assert.Equal(t, c.MapID()+InvalidListIDSuffix, c.Snapshot().InvalidListID)
	assert.Empty(t, host.alerts)
	assert.Equal(t, DefaultMapHeight, c.Config().MapHeight)
}

func TestPrepareRejectsMissingKey(t *testing.T) {
	for _, key := range []string{"", PlaceholderAPIKey} {
		host := &fakeHost{}
		c := New(Config{APIKey: key}, host, Options{Loader: loader.Preloaded()})

		var cfgErr *ConfigurationError
		require.ErrorAs(t, c.Prepare(), &cfgErr)
		require.Len(t, host.alerts, 1)

		err := c.Render(context.Background())
		require.ErrorAs(t, err, &cfgErr)
		assert.Equal(t, 1, host.ready)
		assert.True(t, c.Snapshot().Ready)
	}
}

func TestRenderBeforePrepare(t *testing.T) {
	c, host := newTestComponent(t, false)
	assert.ErrorIs(t, c.Render(context.Background()), ErrNotPrepared)
	assert.Equal(t, 1, host.ready)
}

func TestRenderWithoutClickGating(t *testing.T) {
	c, host := newTestComponent(t, false, "Sydney Opera House", "Atlantis", "Harbour Bridge")
	require.NoError(t, c.Prepare())
	require.NoError(t, c.Render(context.Background()))

	s := c.Snapshot()
	assert.Equal(t, places.Completed, s.State)
	assert.Equal(t, 3, s.RequestedCount)
	assert.Equal(t, 2, s.FoundCount)
	assert.Len(t, s.Markers, 2)
	assert.Equal(t, []string{"Atlantis"}, s.Unresolved)
	assert.True(t, s.ShowUnresolved)
	assert.True(t, s.Completed)
	assert.True(t, s.Ready)
	assert.Zero(t, s.ClickedCount)

	require.NotNil(t, s.Viewport)
	for _, m := range s.Markers {
		assert.True(t, s.Viewport.Visible(m.Result.Location))
	}

	assert.Equal(t, 1, host.completions)
	assert.Equal(t, 1, host.ready)
	assert.Empty(t, host.alerts)
	assert.Equal(t, geocode.ResolveMetrics{Queries: 3, Found: 2, NotFound: 1, Results: 2}, c.Metrics())
}

func TestRenderWithClickGating(t *testing.T) {
	c, host := newTestComponent(t, true, "Sydney Opera House", "Harbour Bridge")
	require.NoError(t, c.Prepare())
	require.NoError(t, c.Render(context.Background()))

	s := c.Snapshot()
	assert.Equal(t, places.AwaitingClicks, s.State)
	assert.Equal(t, 2, s.ExpectedClicks)
	assert.False(t, s.ShowUnresolved)
	assert.Zero(t, host.completions)
	assert.Equal(t, 1, host.ready)

	first, second := s.Markers[0].ID, s.Markers[1].ID

	window, err := c.Click(first)
	require.NoError(t, err)
	assert.Equal(t, first, window.MarkerID)
	assert.Contains(t, window.Content, s.Markers[0].Result.Query.Address)

	_, err = c.Click(first)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Snapshot().ClickedCount)
	assert.Zero(t, host.completions)

	_, err = c.Click(second)
	require.NoError(t, err)

	s = c.Snapshot()
	assert.Equal(t, places.Completed, s.State)
	assert.True(t, s.Completed)
	assert.Equal(t, 1, host.completions)
	require.NotNil(t, s.InfoWindow)
	assert.Equal(t, second, s.InfoWindow.MarkerID)

	_, err = c.Click(first)
	require.NoError(t, err)
	assert.Equal(t, 1, host.completions)
}

func TestRenderAlertsAmbiguousAndFailedPlaces(t *testing.T) {
	c, host := newTestComponent(t, true, "Springfield", "Denied")
	require.NoError(t, c.Prepare())
	require.NoError(t, c.Render(context.Background()))

	assert.ElementsMatch(t, []string{
		"Found multiple results for address Springfield",
		"Error looking to address Denied on Google Maps.",
	}, host.alerts)

	s := c.Snapshot()
	assert.Len(t, s.Markers, 2)
	assert.Equal(t, 1, s.FoundCount)
	assert.Equal(t, 2, s.ExpectedClicks)
	assert.Empty(t, s.Unresolved, "failures are alerted, not listed")
	assert.True(t, s.ShowUnresolved)

	for _, m := range s.Markers {
		_, err := c.Click(m.ID)
		require.NoError(t, err)
	}

	assert.Equal(t, 1, host.completions)
}

func TestRenderWithoutPlaces(t *testing.T) {
	c, host := newTestComponent(t, false)
	require.NoError(t, c.Prepare())
	require.NoError(t, c.Render(context.Background()))
	assert.Equal(t, 1, host.completions)

	c, host = newTestComponent(t, true)
	require.NoError(t, c.Prepare())
	require.NoError(t, c.Render(context.Background()))
	assert.Zero(t, host.completions)
	assert.Equal(t, places.AwaitingClicks, c.Snapshot().State)
}

func TestRenderMapUnavailable(t *testing.T) {
	for _, gated := range []bool{false, true} {
		c, host := newTestComponent(t, gated, "Sydney Opera House")
		c.options.NewMap = func(int, int) (*places.ViewportMap, error) {
			return nil, errors.New("no WebGL")
		}

		require.NoError(t, c.Prepare())

		err := c.Render(context.Background())
		require.ErrorIs(t, err, ErrMapUnavailable)

		assert.Equal(t, []string{alertMapUnavailable}, host.alerts)
		assert.Equal(t, 1, host.ready)

		s := c.Snapshot()
		assert.Equal(t, !gated, s.Completed)
		assert.Nil(t, s.Viewport)

		_, err = c.Click("any")
		assert.ErrorIs(t, err, ErrMapUnavailable)
	}
}

func TestClickUnknownMarker(t *testing.T) {
	c, _ := newTestComponent(t, true, "Sydney Opera House")
	require.NoError(t, c.Prepare())
	require.NoError(t, c.Render(context.Background()))

	_, err := c.Click("nope")
	assert.ErrorIs(t, err, places.ErrUnknownMarker)
}

func TestCompletionErrorIsContained(t *testing.T) {
	c, host := newTestComponent(t, false, "Sydney Opera House")
	host.completeErr = errors.New("tracking backend down")

	require.NoError(t, c.Prepare())
	require.NoError(t, c.Render(context.Background()))

	assert.Equal(t, 1, host.completions)
	assert.True(t, c.Snapshot().Completed)
	assert.Equal(t, 1, host.ready)
}

func TestRenderReportsProgress(t *testing.T) {
	c, _ := newTestComponent(t, false, "Sydney Opera House", "Harbour Bridge", "Atlantis")

	var seen []int
	c.options.Progress = func(done, total int) {
		assert.Equal(t, 3, total)
		seen = append(seen, done)
	}

	require.NoError(t, c.Prepare())
	require.NoError(t, c.Render(context.Background()))
	assert.Equal(t, []int{1, 2, 3}, seen)
}

// reentrantHost reads the component back from inside its callbacks.
type reentrantHost struct {
	fakeHost
	c         *Component
	snapshots []Snapshot
}

func (h *reentrantHost) SetCompletionStatus() error {
	h.snapshots = append(h.snapshots, h.c.Snapshot())

	return h.fakeHost.SetCompletionStatus()
}

func (h *reentrantHost) Alert(message string) {
	h.snapshots = append(h.snapshots, h.c.Snapshot())
	h.fakeHost.Alert(message)
}

func TestHostCallbacksMayReenter(t *testing.T) {
	tests := []struct {
		name      string
		gated     bool
		addresses []string
	}{
		{"completion on load", false, []string{"Sydney Opera House"}},
		{"completion on clicks", true, []string{"Sydney Opera House"}},
		{"alerts", false, []string{"Springfield", "Denied"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestComponent(t, tt.gated, tt.addresses...)
			host := &reentrantHost{c: c}
			c.host = host

			finished := make(chan error, 1)
			go func() {
				if err := c.Prepare(); err != nil {
					finished <- err

					return
				}

				if err := c.Render(context.Background()); err != nil {
					finished <- err

					return
				}

				for _, m := range c.Snapshot().Markers {
					if _, err := c.Click(m.ID); err != nil {
						finished <- err

						return
					}
				}

				finished <- nil
			}()

			select {
			case err := <-finished:
				require.NoError(t, err)
			case <-time.After(3 * time.Second):
				t.Fatal("host callback calling back into the component never returned")
			}

			assert.Equal(t, 1, host.completions)
			assert.NotEmpty(t, host.snapshots)
			assert.True(t, c.Snapshot().Completed)
		})
	}
}
