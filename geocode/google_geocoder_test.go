// Copyright 2025 The MapPlaces Authors
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jcodagnone/mapplaces/places"
	"github.com/jcodagnone/mapplaces/spatial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeGoogle(t *testing.T, status int, body string, seen *url.Values) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if seen != nil {
			*seen = r.URL.Query()
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	return srv
}

const twoResults = `{
  "status": "OK",
  "results": [
    {
      "formatted_address": "Springfield, IL, USA",
      "place_id": "p-il",
      "geometry": {"location": {"lat": 39.7817, "lng": -89.6501}, "location_type": "APPROXIMATE"}
    },
    {
      "formatted_address": "Springfield, MO, USA",
      "place_id": "p-mo",
      "geometry": {"location": {"lat": 37.2089, "lng": -93.2923}, "location_type": "APPROXIMATE"}
    }
  ]
}`

func TestGoogleMapsGeocoderReturnsAllResults(t *testing.T) {
	var seen url.Values

	srv := fakeGoogle(t, http.StatusOK, twoResults, &seen)
	g := NewGoogleMapsGeocoder(GoogleMapsOptions{APIKey: "secret", Language: "es", BaseURL: srv.URL})

	got, err := g.Geocode(context.Background(), "Springfield")
	require.NoError(t, err)

	want := []Result{
		{
			Location:         spatial.Point{Lat: 39.7817, Lng: -89.6501},
			FormattedAddress: "Springfield, IL, USA",
			LocationType:     "APPROXIMATE",
			PlaceID:          "p-il",
		},
		{
			Location:         spatial.Point{Lat: 37.2089, Lng: -93.2923},
			FormattedAddress: "Springfield, MO, USA",
			LocationType:     "APPROXIMATE",
			PlaceID:          "p-mo",
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Geocode() mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, "Springfield", seen.Get("address"))
	assert.Equal(t, "secret", seen.Get("key"))
	assert.Equal(t, "es", seen.Get("language"))
	assert.Empty(t, seen.Get("region"))
}

func TestGoogleMapsGeocoderStatuses(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantType ErrorType
		wantKind places.OutcomeKind
	}{
		{"zero results", http.StatusOK, `{"status": "ZERO_RESULTS", "results": []}`, ErrorTypeNotFound, places.NotFound},
		{"ok but empty", http.StatusOK, `{"status": "OK", "results": []}`, ErrorTypeNotFound, places.NotFound},
		{"over query limit", http.StatusOK, `{"status": "OVER_QUERY_LIMIT"}`, ErrorTypeQuotaExceeded, places.Failed},
		{"request denied", http.StatusOK, `{"status": "REQUEST_DENIED", "error_message": "bad key"}`, ErrorTypeRequestDenied, places.Failed},
		{"invalid request", http.StatusOK, `{"status": "INVALID_REQUEST"}`, ErrorTypeInvalidRequest, places.Failed},
		{"unknown error", http.StatusOK, `{"status": "UNKNOWN_ERROR"}`, ErrorTypeUnknown, places.Failed},
		{"garbage", http.StatusOK, `<html>`, ErrorTypeUnknown, places.Failed},
		{"out of range", http.StatusOK, `{"status": "OK", "results": [{"geometry": {"location": {"lat": 91, "lng": 0}}}]}`, ErrorTypeNotFound, places.NotFound},
		{"http 429", http.StatusTooManyRequests, ``, ErrorTypeRateLimit, places.Failed},
		{"http 404", http.StatusNotFound, `<html>Not Found</html>`, ErrorTypeUnknown, places.Failed},
		{"http 503", http.StatusServiceUnavailable, ``, ErrorTypeNetworkError, places.Failed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := fakeGoogle(t, tt.status, tt.body, nil)
			g := NewGoogleMapsGeocoder(GoogleMapsOptions{APIKey: "k", BaseURL: srv.URL})

			got, err := g.Geocode(context.Background(), "somewhere")
			assert.Nil(t, got)

			var geoErr *GeocodingError
			require.ErrorAs(t, err, &geoErr)
			assert.Equal(t, tt.wantType, geoErr.Type)

			outcome := Classify(places.PlaceQuery{Address: "somewhere"}, got, err)
			assert.Equal(t, tt.wantKind, outcome.Kind)
		})
	}
}

func TestGoogleMapsGeocoderTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	g := NewGoogleMapsGeocoder(GoogleMapsOptions{APIKey: "k", BaseURL: srv.URL})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := g.Geocode(ctx, "slow")
	assert.True(t, IsTimeoutError(err), "got %v", err)
}

func TestDomain(t *testing.T) {
	assert.Equal(t, DomainChina, Domain("zh-CN"))
	assert.Equal(t, DomainGeneral, Domain("zh-TW"))
	assert.Equal(t, DomainGeneral, Domain(""))
}

func TestConfidence(t *testing.T) {
	assert.Equal(t, "high", Result{LocationType: "ROOFTOP"}.Confidence())
	assert.Equal(t, "high", Result{LocationType: "RANGE_INTERPOLATED"}.Confidence())
	assert.Equal(t, "medium", Result{LocationType: "GEOMETRIC_CENTER"}.Confidence())
	assert.Equal(t, "low", Result{LocationType: "APPROXIMATE"}.Confidence())
}
