// GeoCampaign - Geofence Campaign Lifecycle and Event Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocampaign

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Reasons a resolved transition may be dropped before it becomes a report.
const (
	FilterNotStarted     = "not_started"
	FilterExpired        = "expired"
	FilterInactive       = "inactive"
	FilterDeliveryWindow = "delivery_window"
	FilterLimit          = "limit"
	FilterTimeout        = "timeout"
	FilterEventType      = "event_type"
	FilterParseError     = "parse_error"
	FilterOverlap        = "overlap"
)

var (
	// Geofence Metrics
	TransitionsReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geofence_transitions_received_total",
			Help: "Total number of transition callbacks received from the monitoring capability",
		},
		[]string{"event"},
	)

	ReportsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geofence_reports_generated_total",
			Help: "Total number of geo reports produced by trigger resolution",
		},
		[]string{"event"},
	)

	ReportsFiltered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geofence_reports_filtered_total",
			Help: "Total number of candidate areas dropped during resolution",
		},
		[]string{"reason"},
	)

	MonitoredRegions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "geofence_monitored_regions",
			Help: "Current number of areas registered with the monitoring capability",
		},
	)

	RecoveryRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geofence_recovery_runs_total",
			Help: "Total number of consistency recovery passes",
		},
		[]string{"kind", "result"}, // kind: full, expire; result: success, failure, skipped
	)

	RecoveryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "geofence_recovery_duration_seconds",
			Help:    "Duration of consistency recovery passes",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
	)

	SystemEventsReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geofence_system_events_total",
			Help: "Total number of consistency events submitted, by kind and outcome",
		},
		[]string{"kind", "outcome"}, // outcome: queued, dropped, ignored
	)

	// Reporting Metrics
	SyncDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "reporting_sync_duration_seconds",
			Help:    "Duration of one synchronization including retries",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	SyncOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reporting_sync_total",
			Help: "Total number of synchronizations by outcome",
		},
		[]string{"outcome"}, // success, failure, empty, disabled
	)

	SyncLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "reporting_sync_last_success_timestamp",
			Help: "Unix timestamp of the last successful synchronization",
		},
	)

	SyncBatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "reporting_batch_size",
			Help:    "Number of event reports per submitted batch",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100, 500},
		},
	)

	SyncAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reporting_submit_attempts_total",
			Help: "Total number of backend submit attempts",
		},
		[]string{"result"}, // success, retry, exhausted
	)

	MessagesSynthesized = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reporting_messages_synthesized_total",
			Help: "Total number of messages synthesized from delivered reports",
		},
	)

	InactiveCampaigns = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "reporting_inactive_campaigns",
			Help: "Current number of campaigns known to be finished or suspended",
		},
	)

	// Backend Metrics
	BackendRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "backend_request_duration_seconds",
			Help:    "Duration of campaign backend requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"status"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)
)

// RecordTransition counts a transition callback.
func RecordTransition(event string) {
	TransitionsReceived.WithLabelValues(event).Inc()
}

// RecordReportsGenerated counts produced reports.
func RecordReportsGenerated(event string, n int) {
	if n > 0 {
		ReportsGenerated.WithLabelValues(event).Add(float64(n))
	}
}

// RecordFiltered counts one dropped candidate.
func RecordFiltered(reason string) {
	ReportsFiltered.WithLabelValues(reason).Inc()
}

// RecordRecovery records one recovery pass.
func RecordRecovery(kind, result string, duration time.Duration) {
	RecoveryRuns.WithLabelValues(kind, result).Inc()
	RecoveryDuration.Observe(duration.Seconds())
}

// RecordSync records one synchronization. outcome is one of success,
// failure, empty or disabled; batch is the number of reports submitted.
func RecordSync(outcome string, batch int, duration time.Duration) {
	SyncOutcomes.WithLabelValues(outcome).Inc()
	switch outcome {
	case "success":
		SyncDuration.Observe(duration.Seconds())
		SyncBatchSize.Observe(float64(batch))
		SyncLastSuccess.Set(float64(time.Now().Unix()))
	case "failure":
		SyncDuration.Observe(duration.Seconds())
	}
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}
