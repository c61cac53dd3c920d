// GeoCampaign - Geofence Campaign Lifecycle and Event Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocampaign

/*
Package cache provides the in-memory duplicate suppressor used by trigger
resolution.

Every client message id generated for a GeoReport is recorded here so the
receive pipeline can recognize the synthesized message when it comes back
(either through synchronization or through a later push) and avoid showing
it twice.

# Behavior

  - O(1) IsDuplicate, Add and Remove using a hash map plus a doubly linked list
  - Least recently used entries are evicted once capacity is reached
  - Entries expire lazily after the configured TTL; CleanupExpired sweeps them
  - Safe for concurrent use

# Usage

	dups := cache.NewDuplicateSuppressor(cfg.Geofence.DuplicateCacheSize, cfg.Geofence.DuplicateCacheTTL)
	dups.Add(report.MessageID)

	if dups.IsDuplicate(incoming.MessageID) {
	    return // already delivered locally
	}
*/
package cache
