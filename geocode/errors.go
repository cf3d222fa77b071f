// Copyright 2025 The MapPlaces Authors
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/jcodagnone/mapplaces/places"
)

// GeocodingError represents geocoding specific failures.
type GeocodingError struct {
	Type ErrorType
	// Status is the provider status string, when there is one
	Status  string
	Message string
	Err     error
}

// ErrorType defines kinds of geocoding errors.
type ErrorType int

const (
	// ErrorTypeUnknown unknown error.
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeRateLimit rate limit reached.
	ErrorTypeRateLimit
	// ErrorTypeQuotaExceeded quota exceeded.
	ErrorTypeQuotaExceeded
	// ErrorTypeTimeout connection timeout.
	ErrorTypeTimeout
	// ErrorTypeNotFound location not found.
	ErrorTypeNotFound
	// ErrorTypeInvalidRequest invalid request.
	ErrorTypeInvalidRequest
	// ErrorTypeNetworkError network error.
	ErrorTypeNetworkError
	// ErrorTypeRequestDenied the API key may not use the service.
	ErrorTypeRequestDenied
)

func (t ErrorType) String() string {
	switch t {
	case ErrorTypeRateLimit:
		return "rate_limit"
	case ErrorTypeQuotaExceeded:
		return "quota_exceeded"
	case ErrorTypeTimeout:
		return "timeout"
	case ErrorTypeNotFound:
		return "not_found"
	case ErrorTypeInvalidRequest:
		return "invalid_request"
	case ErrorTypeNetworkError:
		return "network_error"
	case ErrorTypeRequestDenied:
		return "request_denied"
	default:
		return "unknown"
	}
}

func (e *GeocodingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	return e.Message
}

func (e *GeocodingError) Unwrap() error {
	return e.Err
}

func hasType(err error, t ErrorType) (bool, bool) {
	var geoErr *GeocodingError
	if errors.As(err, &geoErr) {
		return geoErr.Type == t, true
	}

	return false, false
}

// IsNotFoundError checks whether the address matched no place.
func IsNotFoundError(err error) bool {
	if err == nil {
		return false
	}

	is, _ := hasType(err, ErrorTypeNotFound)

	return is
}

// IsRateLimitError checks whether the error comes from a rate limit.
func IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}

	if is, typed := hasType(err, ErrorTypeRateLimit); typed {
		return is
	}

	// Detect from common error messages
	errStr := strings.ToLower(err.Error())

	return strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests") ||
		strings.Contains(errStr, "429")
}

// IsQuotaExceededError checks whether the error comes from an exhausted quota.
func IsQuotaExceededError(err error) bool {
	if err == nil {
		return false
	}

	if is, typed := hasType(err, ErrorTypeQuotaExceeded); typed {
		return is
	}

	// Detect from common error messages (Google Maps)
	errStr := strings.ToLower(err.Error())

	return strings.Contains(errStr, "over_query_limit") ||
		strings.Contains(errStr, "quota exceeded")
}

// IsTimeoutError checks whether the error is a timeout.
func IsTimeoutError(err error) bool {
	if err == nil {
		return false
	}

	if is, typed := hasType(err, ErrorTypeTimeout); typed {
		return is
	}

	errStr := strings.ToLower(err.Error())

	return strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "deadline exceeded")
}

// ClassifyHTTPError classifies an HTTP status into a geocoding error.
func ClassifyHTTPError(statusCode int, _ string) *GeocodingError {
	switch statusCode {
	case http.StatusTooManyRequests: // 429
		return &GeocodingError{
			Type:    ErrorTypeRateLimit,
			Message: "rate limit reached",
		}
	case http.StatusForbidden: // 403
		return &GeocodingError{
			Type:    ErrorTypeQuotaExceeded,
			Message: "quota exceeded or access denied",
		}
	case http.StatusBadRequest: // 400
		return &GeocodingError{
			Type:    ErrorTypeInvalidRequest,
			Message: "invalid request",
		}
	case http.StatusNotFound: // 404
		// The endpoint is missing. Unmatched addresses come back as ZERO_RESULTS.
		return &GeocodingError{
			Type:    ErrorTypeUnknown,
			Message: "geocoding endpoint not found (status 404)",
		}
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		return &GeocodingError{
			Type:    ErrorTypeNetworkError,
			Message: fmt.Sprintf("service unavailable (status %d)", statusCode),
		}
	default:
		return &GeocodingError{
			Type:    ErrorTypeUnknown,
			Message: fmt.Sprintf("HTTP error %d", statusCode),
		}
	}
}

// Geocoding API status values.
const (
	StatusOK             = "OK"
	StatusZeroResults    = "ZERO_RESULTS"
	StatusOverQueryLimit = "OVER_QUERY_LIMIT"
	StatusOverDailyLimit = "OVER_DAILY_LIMIT"
	StatusRequestDenied  = "REQUEST_DENIED"
	StatusInvalidRequest = "INVALID_REQUEST"
	StatusUnknownError   = "UNKNOWN_ERROR"
)

// ClassifyStatus maps a Geocoding API status to an error, nil for OK.
func ClassifyStatus(status, message string) *GeocodingError {
	var t ErrorType

	switch status {
	case StatusOK:
		return nil
	case StatusZeroResults:
		t = ErrorTypeNotFound
	case StatusOverQueryLimit, StatusOverDailyLimit:
		t = ErrorTypeQuotaExceeded
	case StatusRequestDenied:
		t = ErrorTypeRequestDenied
	case StatusInvalidRequest:
		t = ErrorTypeInvalidRequest
	default:
		t = ErrorTypeUnknown
	}

	msg := "google maps status: " + status
	if message != "" {
		msg += " (" + message + ")"
	}

	return &GeocodingError{Type: t, Status: status, Message: msg}
}

func classifyTransportError(err error) *GeocodingError {
	var netErr net.Error

	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		return &GeocodingError{Type: ErrorTypeTimeout, Message: "geocoding request timed out", Err: err}
	case errors.Is(err, context.Canceled):
		return &GeocodingError{Type: ErrorTypeUnknown, Message: "geocoding request canceled", Err: err}
	default:
		return &GeocodingError{Type: ErrorTypeNetworkError, Message: "geocoding request failed", Err: err}
	}
}

// FailureReasonOf maps a lookup error to the reason reported to the tracker.
func FailureReasonOf(err error) places.FailureReason {
	var geoErr *GeocodingError
	if !errors.As(err, &geoErr) {
		return places.ReasonUnknown
	}

	switch geoErr.Type {
	case ErrorTypeQuotaExceeded, ErrorTypeRateLimit:
		return places.ReasonOverQuota
	case ErrorTypeRequestDenied:
		return places.ReasonRequestDenied
	case ErrorTypeInvalidRequest:
		return places.ReasonInvalidRequest
	default:
		return places.ReasonUnknown
	}
}
