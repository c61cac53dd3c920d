// GeoCampaign - Geofence Campaign Lifecycle and Event Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocampaign

/*
Package models defines the data structures shared by the geofence engine.

Key Components:

  - Area: a circular monitored region; IsValid gates registration
  - DeliveryTime: weekday set plus daily window restricting reporting
  - Campaign: the geofencing configuration embedded in a signaling message
  - EventSettings: per event type occurrence limit and timeout
  - Message: a stored push message, optionally carrying a campaign
  - GeoReport: one resolved transition
  - GeoReportingResult: outcome of one batch submission
  - APIResponse: HTTP response envelope

Campaign values are decoded from Message.InternalData every time they are
read. Time predicates take the current time as an argument so callers can
inject a clock:

	c, err := msg.Campaign()
	if err == nil && c != nil && c.IsEligibleForMonitoring(time.Now()) {
		register(c.ValidAreas())
	}

All JSON encoding uses github.com/goccy/go-json.
*/
package models
