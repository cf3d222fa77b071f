// Copyright 2025 The MapPlaces Authors
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"

	"github.com/jcodagnone/mapplaces/places"
)

// DefaultMaxConcurrency bounds the lookups in flight.
const DefaultMaxConcurrency = 4

// ErrEmptyAddress is reported for queries without an address.
var ErrEmptyAddress = errors.New("empty address")

// ResolveMetrics counts the outcomes of one Resolve call.
type ResolveMetrics struct {
	Queries   int
	Found     int
	NotFound  int
	Failed    int
	Ambiguous int
	Results   int
}

func (m *ResolveMetrics) add(outcome places.Outcome) {
	switch outcome.Kind {
	case places.Found:
		m.Found++
		m.Results += len(outcome.Results)

		if outcome.Ambiguous() {
			m.Ambiguous++
		}
	case places.NotFound:
		m.NotFound++
	case places.Failed:
		m.Failed++
	}
}

// Client issues one lookup per place query and reports every outcome.
type Client struct {
	geocoder       Geocoder
	maxConcurrency int
}

// NewClient creates a client; maxConcurrency <= 0 means DefaultMaxConcurrency.
func NewClient(geocoder Geocoder, maxConcurrency int) *Client {
	if maxConcurrency <= 0 {
		maxConcurrency = DefaultMaxConcurrency
	}

	return &Client{geocoder: geocoder, maxConcurrency: maxConcurrency}
}

type arrival struct {
	index   int
	outcome places.Outcome
}

// Resolve looks up every query concurrently. reduce is invoked exactly once
// per query, in arrival order, always from the calling goroutine, so it never
// runs concurrently with itself. Resolve returns after the last reduce.
func (c *Client) Resolve(ctx context.Context, queries []places.PlaceQuery, reduce func(places.PlaceQuery, places.Outcome)) ResolveMetrics {
	metrics := ResolveMetrics{Queries: len(queries)}

	arrivals := make(chan arrival)
	semaphore := make(chan struct{}, c.maxConcurrency)

	var wg sync.WaitGroup

	for i, q := range queries {
		wg.Add(1)

		go func() {
			defer wg.Done()

			semaphore <- struct{}{}
			outcome := c.lookup(ctx, q)
			<-semaphore

			arrivals <- arrival{index: i, outcome: outcome}
		}()
	}

	go func() {
		wg.Wait()
		close(arrivals)
	}()

	for a := range arrivals {
		q := queries[a.index]
		metrics.add(a.outcome)

		switch {
		case a.outcome.Ambiguous():
			log.Printf("Found %d results for address %q", len(a.outcome.Results), q.Address)
		case a.outcome.Kind == places.NotFound:
			log.Printf("Address not found: %q", q.Address)
		case a.outcome.Kind == places.Failed:
			log.Printf("Geocoding %q failed (%s): %v", q.Address, a.outcome.Reason, a.outcome.Err)
		}

		reduce(q, a.outcome)
	}

	return metrics
}

func (c *Client) lookup(ctx context.Context, q places.PlaceQuery) places.Outcome {
	if strings.TrimSpace(q.Address) == "" {
		return places.FailedOutcome(places.ReasonInvalidRequest, ErrEmptyAddress)
	}

	results, err := c.geocoder.Geocode(ctx, q.Address)

	return Classify(q, results, err)
}

// Classify turns the answer of a Geocoder into a tracker outcome.
func Classify(q places.PlaceQuery, results []Result, err error) places.Outcome {
	if err != nil {
		if IsNotFoundError(err) {
			return places.NotFoundOutcome()
		}

		return places.FailedOutcome(FailureReasonOf(err), err)
	}

	if len(results) == 0 {
		return places.NotFoundOutcome()
	}

	found := make([]places.GeocodeResult, 0, len(results))
	for _, r := range results {
		found = append(found, places.GeocodeResult{
			Query:            q,
			Location:         r.Location,
			FormattedAddress: r.FormattedAddress,
			LocationType:     r.LocationType,
			PlaceID:          r.PlaceID,
		})
	}

	return places.FoundOutcome(found...)
}
