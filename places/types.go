// Copyright 2025 The MapPlaces Authors
// SPDX-License-Identifier: Apache-2.0

// Package places tracks the markers of an interactive map: which place
// queries were found, which markers the learner clicked, when the viewport
// should be fitted and when completion must be signaled.
package places

import (
	"fmt"

	"github.com/jcodagnone/mapplaces/spatial"
)

// PlaceQuery is one place, as configured by the course author.
type PlaceQuery struct {
	Address              string `json:"address" mapstructure:"address"`
	Content              string `json:"content,omitempty" mapstructure:"content"`
	PictureURL           string `json:"picture,omitempty" mapstructure:"picture"`
	ExternalReferenceURL string `json:"extreference,omitempty" mapstructure:"extreference"`
}

// GeocodeResult is one geographic match for a PlaceQuery.
type GeocodeResult struct {
	Query            PlaceQuery    `json:"query"`
	Location         spatial.Point `json:"location"`
	FormattedAddress string        `json:"formatted_address"`
	LocationType     string        `json:"location_type,omitempty"`
	PlaceID          string        `json:"place_id,omitempty"`
}

// Marker is a GeocodeResult realized as a pin on the map.
type Marker struct {
	ID      string        `json:"id"`
	Result  GeocodeResult `json:"result"`
	Clicked bool          `json:"clicked"`
}

// OutcomeKind classifies the answer to one query.
type OutcomeKind int

const (
	// Found means the address matched at least one place.
	Found OutcomeKind = iota + 1
	// NotFound means the geocoder knows no such place.
	NotFound
	// Failed means the lookup itself failed.
	Failed
)

func (k OutcomeKind) String() string {
	switch k {
	case Found:
		return "found"
	case NotFound:
		return "not_found"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("OutcomeKind(%d)", int(k))
	}
}

// FailureReason tells why a lookup Failed.
type FailureReason int

const (
	// ReasonUnknown covers server errors, timeouts and unreadable answers.
	ReasonUnknown FailureReason = iota
	// ReasonOverQuota means the API key ran out of quota.
	ReasonOverQuota
	// ReasonRequestDenied means the key is not allowed to geocode.
	ReasonRequestDenied
	// ReasonInvalidRequest means the query was malformed or empty.
	ReasonInvalidRequest
)

func (r FailureReason) String() string {
	switch r {
	case ReasonOverQuota:
		return "OVER_QUERY_LIMIT"
	case ReasonRequestDenied:
		return "REQUEST_DENIED"
	case ReasonInvalidRequest:
		return "INVALID_REQUEST"
	default:
		return "UNKNOWN_ERROR"
	}
}

// Outcome is the single answer a query receives.
type Outcome struct {
	Kind    OutcomeKind
	Results []GeocodeResult
	Reason  FailureReason
	Err     error
}

// FoundOutcome builds a Found outcome.
func FoundOutcome(results ...GeocodeResult) Outcome {
	return Outcome{Kind: Found, Results: results}
}

// NotFoundOutcome builds a NotFound outcome.
func NotFoundOutcome() Outcome {
	return Outcome{Kind: NotFound}
}

// FailedOutcome builds a Failed outcome.
func FailedOutcome(reason FailureReason, err error) Outcome {
	return Outcome{Kind: Failed, Reason: reason, Err: err}
}

// Ambiguous reports whether a Found outcome matched more than one place.
func (o Outcome) Ambiguous() bool {
	return o.Kind == Found && len(o.Results) > 1
}
