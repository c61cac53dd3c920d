// GeoCampaign - Geofence Campaign Lifecycle and Event Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocampaign

/*
Package reporting delivers resolved GeoReports to the campaign backend with
at-least-once semantics.

Reports are first written to the durable queue (internal/wal). A
synchronization drains the queue in one transaction, submits the batch
under a RetryPolicy and then either puts the exact drained set back (on
failure) or processes the backend response:

  - finished and suspended campaign ids are merged into the status cache;
  - reports of inactive campaigns are dropped from what is broadcast;
  - one message is synthesized per remaining report, carrying a single-area
    copy of its campaign and the server-assigned message id when known;
  - the synthesized messages are broadcast and handed to the MessageSink.

Synchronizations never overlap. SynchronizeAsync coalesces concurrent
triggers into at most one background run, and SyncLoop retries on a fixed
interval.
*/
package reporting
