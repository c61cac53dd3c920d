// GeoCampaign - Geofence Campaign Lifecycle and Event Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocampaign

/*
Package middleware provides HTTP middleware shared by the API router.

  - RequestID: accepts or generates X-Request-ID and X-Correlation-ID and
    stores both in the logging context, so a transition can be followed from
    the host callback through resolution, the queue and the backend request.
  - PrometheusMetrics: request count, latency and in-flight gauge, labelled
    with the chi route pattern rather than the raw path.

Both are plain func(http.HandlerFunc) http.HandlerFunc and are adapted to chi
by the api package.
*/
package middleware
