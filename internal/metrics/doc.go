// GeoCampaign - Geofence Campaign Lifecycle and Event Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocampaign

/*
Package metrics defines the Prometheus instrumentation of the engine.

All collectors are registered on the default registry through promauto and
exposed by the API server at /metrics.

# Metric Families

Geofence:
  - geofence_transitions_received_total{event}
  - geofence_reports_generated_total{event}
  - geofence_reports_filtered_total{reason}
  - geofence_monitored_regions
  - geofence_recovery_runs_total{kind,result}
  - geofence_recovery_duration_seconds
  - geofence_system_events_total{kind,outcome}

Reporting:
  - reporting_sync_total{outcome}
  - reporting_sync_duration_seconds
  - reporting_sync_last_success_timestamp
  - reporting_batch_size
  - reporting_submit_attempts_total{result}
  - reporting_messages_synthesized_total
  - reporting_inactive_campaigns

Backend and resilience:
  - backend_request_duration_seconds{status}
  - circuit_breaker_state{name}
  - circuit_breaker_requests_total{name,result}
  - circuit_breaker_consecutive_failures{name}
  - circuit_breaker_state_transitions_total{name,from_state,to_state}

HTTP:
  - api_requests_total{method,endpoint,status_code}
  - api_request_duration_seconds{method,endpoint}
  - api_active_requests
  - api_rate_limit_hits_total{endpoint}

The report queue exports its own geo_queue_* family from package wal.

# Example Queries

	# Share of transitions that produced a report
	sum(rate(geofence_reports_generated_total[5m])) / sum(rate(geofence_transitions_received_total[5m]))

	# Failed synchronizations
	rate(reporting_sync_total{outcome="failure"}[15m])
*/
package metrics
