// Copyright 2025 The MapPlaces Authors
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"

	"github.com/jcodagnone/mapplaces/spatial"
	"github.com/jcodagnone/mapplaces/utils/httputils"
)

// Google Maps serves mainland China from its own domain.
const (
	DomainGeneral = "maps.googleapis.com"
	DomainChina   = "maps.googleapis.cn"
)

// Domain returns the Google Maps domain for a map language.
func Domain(language string) string {
	if language == "zh-CN" {
		return DomainChina
	}

	return DomainGeneral
}

// GoogleMapsOptions configures a GoogleMapsGeocoder.
type GoogleMapsOptions struct {
	APIKey string

	// Language of the results, also picks the endpoint domain
	Language string

	// Region biases results towards a ccTLD, optional
	Region string

	// BaseURL overrides the endpoint (tests)
	BaseURL string

	// HTTPClient overrides the default client
	HTTPClient *http.Client
}

// GoogleMapsGeocoder uses Google Maps Geocoding API.
type GoogleMapsGeocoder struct {
	apiKey     string
	language   string
	region     string
	baseURL    string
	httpClient *http.Client
}

// NewGoogleMapsGeocoder creates a new Google Maps geocoder.
func NewGoogleMapsGeocoder(options GoogleMapsOptions) *GoogleMapsGeocoder {
	baseURL := options.BaseURL
	if baseURL == "" {
		baseURL = "https://" + Domain(options.Language) + "/maps/api/geocode/json"
	}

	client := options.HTTPClient
	if client == nil {
		client = httputils.NewClient(httputils.ClientOptions{})
	}

	return &GoogleMapsGeocoder{
		apiKey:     options.APIKey,
		language:   options.Language,
		region:     options.Region,
		baseURL:    baseURL,
		httpClient: client,
	}
}

type googleMapsResponse struct {
	Results []struct {
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
			LocationType string `json:"location_type"`
		} `json:"geometry"`
		FormattedAddress string `json:"formatted_address"`
		PlaceID          string `json:"place_id"`
	} `json:"results"`
	Status       string `json:"status"` // OK, ZERO_RESULTS, etc.
	ErrorMessage string `json:"error_message"`
}

// Geocode implements Geocoder.
func (g *GoogleMapsGeocoder) Geocode(ctx context.Context, address string) ([]Result, error) {
	params := url.Values{}
	params.Set("address", address)
	params.Set("key", g.apiKey)

	if g.language != "" {
		params.Set("language", g.language)
	}

	if g.region != "" {
		params.Set("region", g.region)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, &GeocodingError{Type: ErrorTypeInvalidRequest, Message: "building geocoding request", Err: err}
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ClassifyHTTPError(resp.StatusCode, "")
	}

	var gmResp googleMapsResponse
	if err := json.NewDecoder(resp.Body).Decode(&gmResp); err != nil {
		return nil, &GeocodingError{Type: ErrorTypeUnknown, Message: "decoding response", Err: err}
	}

	if geoErr := ClassifyStatus(gmResp.Status, gmResp.ErrorMessage); geoErr != nil {
		return nil, geoErr
	}

	if len(gmResp.Results) == 0 {
		return nil, &GeocodingError{
			Type:    ErrorTypeNotFound,
			Status:  StatusZeroResults,
			Message: fmt.Sprintf("no results found for address: %s", address),
		}
	}

	results := make([]Result, 0, len(gmResp.Results))
	for _, r := range gmResp.Results {
		location := spatial.Point{
			Lat: r.Geometry.Location.Lat,
			Lng: r.Geometry.Location.Lng,
		}
		if !location.Valid() {
			log.Printf("Skipping result %q for %q with coordinates out of range: %s", r.FormattedAddress, address, location)

			continue
		}

		results = append(results, Result{
			Location:         location,
			FormattedAddress: r.FormattedAddress,
			LocationType:     r.Geometry.LocationType,
			PlaceID:          r.PlaceID,
		})
	}

	if len(results) == 0 {
		return nil, &GeocodingError{
			Type:    ErrorTypeNotFound,
			Message: fmt.Sprintf("no valid results for address: %s", address),
		}
	}

	return results, nil
}
