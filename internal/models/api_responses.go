// GeoCampaign - Geofence Campaign Lifecycle and Event Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocampaign

package models

import (
	"time"
)

// APIResponse is the envelope returned by every HTTP endpoint.
//
// Status is "success" (see Data) or "error" (see Error).
//
//	{
//	  "status": "success",
//	  "data": {"reports": 1},
//	  "metadata": {"timestamp": "2026-03-01T12:00:00Z"}
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata contains response metadata.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
}

// APIError is a structured error body.
//
// Codes used by the API:
//   - VALIDATION_ERROR, INVALID_JSON, INVALID_CAMPAIGN: rejected request body
//   - UNKNOWN_EVENT_KIND: system event kind not recognized
//   - NOT_FOUND, METHOD_NOT_ALLOWED: routing failures
//   - REGISTRATION_DISABLED: sync requested while push registration is off
//   - SYNC_FAILED: the backend could not take the batch; it was requeued
//   - QUEUE_CLOSED: the report queue is shutting down
//   - RATE_LIMITED: too many requests
//   - *_FAILED: local storage errors
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
