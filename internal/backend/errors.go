// GeoCampaign - Geofence Campaign Lifecycle and Event Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocampaign

package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrBackendUnavailable marks failures worth retrying later: transport
	// errors, server errors, throttling and an open circuit.
	ErrBackendUnavailable = errors.New("campaign backend unavailable")

	// ErrRejected marks a request the backend refused. Retrying it unchanged
	// will not help.
	ErrRejected = errors.New("campaign backend rejected request")
)

// StatusError carries the HTTP status and a bounded excerpt of the body.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend returned HTTP %d: %s", e.StatusCode, e.Body)
}

// retryableStatus reports whether a status code indicates a transient condition.
func retryableStatus(code int) bool {
	return code >= 500 || code == http.StatusRequestTimeout || code == http.StatusTooManyRequests
}

// classify wraps a status error with the matching sentinel.
func classify(se *StatusError) error {
	if retryableStatus(se.StatusCode) {
		return fmt.Errorf("%w: %w", ErrBackendUnavailable, se)
	}
	return fmt.Errorf("%w: %w", ErrRejected, se)
}

// IsRetryable reports whether err may succeed on a later attempt.
// Anything wrapped in ErrBackendUnavailable is retryable, including an
// http.Client timeout, which also matches context.DeadlineExceeded. A bare
// context error means the caller gave up and is never retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrBackendUnavailable) {
		return true
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, ErrRejected) {
		return false
	}
	return true
}
