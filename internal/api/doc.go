// GeoCampaign - Geofence Campaign Lifecycle and Event Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocampaign

/*
Package api exposes the engine to the host platform over HTTP using the chi
router.

Routes:

	POST /api/v1/messages               store a signaling message and register its areas
	GET  /api/v1/inbox                  messages synthesized from delivered reports
	POST /api/v1/transitions            host transition callback
	POST /api/v1/system-events          consistency events, always 202 once parsed
	POST /api/v1/sync                   synchronize queued reports now
	GET  /api/v1/regions                currently monitored areas
	GET  /api/v1/campaigns/{id}/status  active, finished or suspended
	GET  /api/v1/registration           push registration flag
	PUT  /api/v1/registration           toggle push registration
	POST /api/v1/reset                  clear status cache, queue and counters
	GET  /health, /health/ready         liveness and readiness
	GET  /metrics                       Prometheus

Every JSON response uses the models.APIResponse envelope. Request bodies are
validated with go-playground/validator through internal/validation.
*/
package api
