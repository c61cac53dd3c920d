// GeoCampaign - Geofence Campaign Lifecycle and Event Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocampaign

package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/tomtom215/geocampaign/internal/logging"
)

func TestRequestID_GeneratesNewID(t *testing.T) {
	t.Parallel()
	var capturedID, capturedCorrelation string
	handler := RequestID(func(w http.ResponseWriter, r *http.Request) {
		capturedID = GetRequestID(r.Context())
		capturedCorrelation = logging.CorrelationIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	responseID := rec.Header().Get(HeaderRequestID)
	if _, err := uuid.Parse(responseID); err != nil {
		t.Errorf("Response X-Request-ID is not a valid UUID: %v", err)
	}
	if capturedID != responseID {
		t.Errorf("Context ID (%s) doesn't match response header ID (%s)", capturedID, responseID)
	}
	if capturedCorrelation == "" || rec.Header().Get(HeaderCorrelationID) != capturedCorrelation {
		t.Errorf("correlation id not set consistently: ctx=%q header=%q", capturedCorrelation, rec.Header().Get(HeaderCorrelationID))
	}
}

func TestRequestID_PreservesClientIDs(t *testing.T) {
	t.Parallel()
	var capturedID, capturedCorrelation string
	handler := RequestID(func(w http.ResponseWriter, r *http.Request) {
		capturedID = GetRequestID(r.Context())
		capturedCorrelation = logging.CorrelationIDFromContext(r.Context())
	})

	req := httptest.NewRequest(http.MethodPost, "/test", nil)
	req.Header.Set(HeaderRequestID, "req-abc")
	req.Header.Set(HeaderCorrelationID, "corr-xyz")
	rec := httptest.NewRecorder()
	handler(rec, req)

	if capturedID != "req-abc" {
		t.Errorf("request id = %q, want req-abc", capturedID)
	}
	if capturedCorrelation != "corr-xyz" {
		t.Errorf("correlation id = %q, want corr-xyz", capturedCorrelation)
	}
	if rec.Header().Get(HeaderCorrelationID) != "corr-xyz" {
		t.Errorf("correlation header not echoed")
	}
}

func TestRequestID_RejectsOversizedIDs(t *testing.T) {
	t.Parallel()
	var capturedID string
	handler := RequestID(func(w http.ResponseWriter, r *http.Request) {
		capturedID = GetRequestID(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(HeaderRequestID, strings.Repeat("x", maxIDLength+1))
	handler(httptest.NewRecorder(), req)

	if _, err := uuid.Parse(capturedID); err != nil {
		t.Errorf("oversized id should be replaced by a UUID, got %q", capturedID)
	}
}

func TestGetRequestID_Empty(t *testing.T) {
	t.Parallel()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := GetRequestID(req.Context()); got != "" {
		t.Errorf("expected empty id, got %q", got)
	}
}
