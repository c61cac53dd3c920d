// GeoCampaign - Geofence Campaign Lifecycle and Event Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocampaign

// Package wal provides the durable unreported-events queue on BadgerDB.
//
// Every resolved GeoReport is written here before any network call. The
// reporting pipeline drains the queue (read and delete in one transaction),
// submits the batch, and on failure restores the exact drained entries, so a
// report is delivered at least once and never silently dropped while the
// process is killed between steps.
//
// # Keys
//
//	queue:<created-unix-nano, zero padded>:<uuid>
//
// Keys sort by creation time so a capped Drain takes the oldest entries first.
// The state store and the message store share the same database under their
// own prefixes (see DB).
//
// # Maintenance
//
// Compactor runs on CompactInterval: it drops entries older than EntryTTL
// (when set), runs value log GC and refreshes the geo_queue_* gauges.
//
// # Usage
//
//	q, err := wal.Open(&cfg)
//	if err != nil {
//	    return err
//	}
//	defer q.Close()
//
//	_ = q.Enqueue(ctx, reports...)
//	entries, _ := q.Drain(ctx)
//	if err := submit(wal.Reports(entries)); err != nil {
//	    _ = q.Restore(ctx, entries, err)
//	}
package wal
