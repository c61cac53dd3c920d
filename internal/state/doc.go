// GeoCampaign - Geofence Campaign Lifecycle and Event Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocampaign

/*
Package state holds the small pieces of durable engine state that live next
to the report queue in the shared BadgerDB instance.

# Components

  - StatusCache: campaigns the backend reported as finished or suspended
  - Flags: the "all monitored" marker written by consistency recovery and
    the push registration switch read by the reporting pipeline
  - Occurrences: per campaign and event type counters used to enforce event
    limits and timeouts

# Key Layout

	status:finished:<campaignID>     time of merge
	status:suspended:<campaignID>    time of merge
	flag:<name>                      "1" or "0"
	occurrence:<campaignID>:<event>  {"count": n, "last": t}

Every read-modify-write runs inside a single BadgerDB transaction; writes that
lose a conflict are retried a bounded number of times.
*/
package state
