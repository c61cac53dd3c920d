// GeoCampaign - Geofence Campaign Lifecycle and Event Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocampaign

package models

// Area is a circular monitored region tied to one campaign.
//
// Latitude, Longitude and RadiusMeters are pointers because a campaign
// definition may omit any of them, and omission must be distinguishable from
// a zero value. An Area is never mutated after decoding.
//
// Example:
//
//	{"id": "A1", "title": "Main St", "latitude": 59.33, "longitude": 18.06, "radiusInMeters": 100}
type Area struct {
	ID           string   `json:"id,omitempty"`
	Title        string   `json:"title,omitempty"`
	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`
	RadiusMeters *int     `json:"radiusInMeters,omitempty"`
}

// IsValid reports whether every field needed for registration is present.
// Invalid areas are never handed to the monitoring capability.
func (a Area) IsValid() bool {
	return a.ID != "" && a.Latitude != nil && a.Longitude != nil && a.RadiusMeters != nil
}

// Radius returns the radius in meters, or 0 when absent.
func (a Area) Radius() int {
	if a.RadiusMeters == nil {
		return 0
	}
	return *a.RadiusMeters
}

// NewArea builds a fully populated Area.
func NewArea(id, title string, lat, lng float64, radius int) Area {
	return Area{
		ID:           id,
		Title:        title,
		Latitude:     &lat,
		Longitude:    &lng,
		RadiusMeters: &radius,
	}
}
