// GeoCampaign - Geofence Campaign Lifecycle and Event Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocampaign

package wal

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for queue operations
var (
	queueEnqueuedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "geo_queue_enqueued_total",
		Help: "Total number of reports written to the event queue",
	})

	queueDrainedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "geo_queue_drained_total",
		Help: "Total number of reports drained from the event queue for submission",
	})

	queueRestoredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "geo_queue_restored_total",
		Help: "Total number of reports put back after a failed submission",
	})

	queueExpiredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "geo_queue_expired_total",
		Help: "Total number of undelivered reports dropped after their TTL",
	})

	queueWriteFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "geo_queue_write_failures_total",
		Help: "Total number of failed queue writes",
	})

	queuePendingEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "geo_queue_pending_entries",
		Help: "Current number of reports waiting in the event queue",
	})

	queueDBSizeBytes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "geo_queue_db_size_bytes",
		Help: "BadgerDB database size in bytes",
	})

	queueWriteLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "geo_queue_write_latency_seconds",
		Help:    "Event queue write latency in seconds",
		Buckets: prometheus.DefBuckets,
	})

	queueCompactionLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "geo_queue_compaction_latency_seconds",
		Help:    "Queue compaction latency in seconds",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
	})

	queueGCLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "geo_queue_gc_latency_seconds",
		Help:    "BadgerDB value log GC latency in seconds",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
	})
)

// RecordQueueEnqueued records reports written to the queue.
func RecordQueueEnqueued(n int) {
	queueEnqueuedTotal.Add(float64(n))
}

// RecordQueueDrained records reports removed for submission.
func RecordQueueDrained(n int) {
	queueDrainedTotal.Add(float64(n))
}

// RecordQueueRestored records reports put back after a failure.
func RecordQueueRestored(n int) {
	queueRestoredTotal.Add(float64(n))
}

// RecordQueueExpired records reports dropped by compaction.
func RecordQueueExpired(n int64) {
	queueExpiredTotal.Add(float64(n))
}

// RecordQueueWriteFailure records a failed write.
func RecordQueueWriteFailure() {
	queueWriteFailures.Inc()
}

// UpdateQueuePendingEntries sets the pending gauge.
func UpdateQueuePendingEntries(n int64) {
	queuePendingEntries.Set(float64(n))
}

// UpdateQueueDBSize sets the database size gauge.
func UpdateQueueDBSize(bytes int64) {
	queueDBSizeBytes.Set(float64(bytes))
}

// RecordQueueWriteLatency observes one write.
func RecordQueueWriteLatency(seconds float64) {
	queueWriteLatency.Observe(seconds)
}

// RecordQueueCompaction observes one compaction run.
func RecordQueueCompaction(seconds float64) {
	queueCompactionLatency.Observe(seconds)
}

// RecordQueueGCLatency observes one GC run.
func RecordQueueGCLatency(seconds float64) {
	queueGCLatency.Observe(seconds)
}
