// Copyright 2025 The MapPlaces Authors
// SPDX-License-Identifier: Apache-2.0

// Package geocode resolves place queries into coordinates.
package geocode

import (
	"context"

	"github.com/jcodagnone/mapplaces/spatial"
)

// Result represents a geocoding result from any provider.
type Result struct {
	Location         spatial.Point `json:"location"`
	FormattedAddress string        `json:"formatted_address"`
	LocationType     string        `json:"location_type"` // ROOFTOP, RANGE_INTERPOLATED, GEOMETRIC_CENTER, APPROXIMATE
	PlaceID          string        `json:"place_id"`
}

// Confidence grades the precision of the result: high, medium or low.
func (r Result) Confidence() string {
	switch r.LocationType {
	case "ROOFTOP", "RANGE_INTERPOLATED":
		return "high"
	case "GEOMETRIC_CENTER":
		return "medium"
	default:
		return "low"
	}
}

// Geocoder interface for different geocoding providers. Implementations
// return every match, or a *GeocodingError.
type Geocoder interface {
	Geocode(ctx context.Context, address string) ([]Result, error)
}

// GeocoderFunc adapts a function to the Geocoder interface.
type GeocoderFunc func(ctx context.Context, address string) ([]Result, error)

// Geocode implements Geocoder.
func (f GeocoderFunc) Geocode(ctx context.Context, address string) ([]Result, error) {
	return f(ctx, address)
}
