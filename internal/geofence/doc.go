// GeoCampaign - Geofence Campaign Lifecycle and Event Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocampaign

/*
Package geofence turns a transition reported by the monitoring capability
into GeoReports.

# Resolution

For every stored signaling message whose campaign contains one of the
triggered area ids:

 1. Campaigns that have not started or have expired are skipped.
 2. The Policy is applied: the event type must be configured, the delivery
    window must be open, the campaign must not be known inactive (when the
    status cache check is enabled), and the occurrence limit and timeout
    must allow another report.
 3. When several triggered areas of the same message overlap, only the one
    with the smallest radius is reported. Equal radii are broken by the
    lexicographically smallest area id.
 4. A report is built with a fresh client message id, which is recorded with
    the duplicate suppressor, and the occurrence is counted.

Messages whose campaign cannot be decoded are logged and skipped; the other
messages are still resolved.
*/
package geofence
