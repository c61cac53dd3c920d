// GeoCampaign - Geofence Campaign Lifecycle and Event Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocampaign

/*
Package backend is the HTTP client for the campaign backend.

One endpoint is used:

	POST {backend.url}/geo/event/v2

	{
	  "messagePayloads": [{"messageId": "M1", "title": "...", "internalData": "..."}],
	  "eventReports": [{
	    "eventType": "entry", "areaId": "A1", "campaignId": "C1",
	    "signalingMessageId": "M1", "clientMessageId": "9f0c...",
	    "secondsSinceOccurrence": 12
	  }],
	  "deviceId": "device-1"
	}

	200 {"messageIds": {"9f0c...": "srv-123"}, "finishedCampaignIds": [], "suspendedCampaignIds": []}

# Resilience

Every call passes a client side token bucket (golang.org/x/time/rate) and a
circuit breaker (sony/gobreaker). Transport failures, 5xx, 408 and 429 count
against the breaker and are reported as ErrBackendUnavailable. Other 4xx
responses are reported as ErrRejected and do not trip the breaker because
the backend itself is healthy. Retrying is the caller's decision; see
IsRetryable.
*/
package backend
