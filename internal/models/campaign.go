// GeoCampaign - Geofence Campaign Lifecycle and Event Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocampaign

package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/geocampaign/internal/logging"
)

// EventType is the kind of transition reported by the monitoring capability.
type EventType string

const (
	EventEntry EventType = "entry"
	EventExit  EventType = "exit"
	EventDwell EventType = "dwell"
)

// ErrUnknownEventType is returned by ParseEventType.
var ErrUnknownEventType = errors.New("unknown event type")

// ParseEventType accepts the canonical names case-insensitively, plus
// "enter" as an alias for entry.
func ParseEventType(s string) (EventType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "entry", "enter":
		return EventEntry, nil
	case "exit":
		return EventExit, nil
	case "dwell":
		return EventDwell, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownEventType, s)
	}
}

// EventSettings configures how often one event type may be reported for a campaign.
type EventSettings struct {
	Type EventType `json:"type"`

	// Limit caps the number of reported occurrences. 0 means unlimited.
	Limit int `json:"limit"`

	// TimeoutInMinutes is the minimum gap between two reported occurrences.
	TimeoutInMinutes int `json:"timeoutInMinutes"`
}

// DefaultEventSettings applies when a campaign carries no event settings:
// entry only, reported once.
func DefaultEventSettings() []EventSettings {
	return []EventSettings{{Type: EventEntry, Limit: 1}}
}

// Campaign is the geofencing configuration embedded in one signaling message.
//
// StartTime and ExpiryTime are ISO-8601 strings as received. Unparsable
// values are treated as absent (fail-open) and logged.
type Campaign struct {
	CampaignID          string          `json:"campaignId"`
	TriggeringLatitude  *float64        `json:"triggeringLatitude,omitempty"`
	TriggeringLongitude *float64        `json:"triggeringLongitude,omitempty"`
	DeliveryTime        *DeliveryTime   `json:"deliveryTime,omitempty"`
	StartTime           string          `json:"startTime,omitempty"`
	ExpiryTime          string          `json:"expiryTime,omitempty"`
	Areas               []Area          `json:"geo"`
	EventSettings       []EventSettings `json:"event,omitempty"`
	SentTimestamp       int64           `json:"sentTimestamp,omitempty"`
	ContentURL          string          `json:"contentUrl,omitempty"`
}

var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000-0700",
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04:05",
}

// ParseISO8601 parses the timestamp formats campaigns are sent with.
// Values without a zone are read as UTC.
func ParseISO8601(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range isoLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func (c *Campaign) bound(name, raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	t, err := ParseISO8601(raw)
	if err != nil {
		logging.Warn().
			Err(err).
			Str("campaign_id", c.CampaignID).
			Str("field", name).
			Str("value", raw).
			Msg("Unparsable campaign time ignored")
		return time.Time{}, false
	}
	return t, true
}

// StartsAt returns the parsed start time, if any.
func (c *Campaign) StartsAt() (time.Time, bool) {
	return c.bound("startTime", c.StartTime)
}

// ExpiresAt returns the parsed expiry time, if any.
func (c *Campaign) ExpiresAt() (time.Time, bool) {
	return c.bound("expiryTime", c.ExpiryTime)
}

// IsStarted is true when there is no start time or it has passed.
func (c *Campaign) IsStarted(now time.Time) bool {
	start, ok := c.StartsAt()
	return !ok || !start.After(now)
}

// IsExpired is true when an expiry time is present and in the past.
func (c *Campaign) IsExpired(now time.Time) bool {
	expiry, ok := c.ExpiresAt()
	return ok && expiry.Before(now)
}

// IsEligibleForMonitoring is true when the campaign has started and not expired.
func (c *Campaign) IsEligibleForMonitoring(now time.Time) bool {
	return c.IsStarted(now) && !c.IsExpired(now)
}

// ValidAreas returns the areas that may be registered, in definition order.
func (c *Campaign) ValidAreas() []Area {
	out := make([]Area, 0, len(c.Areas))
	for _, a := range c.Areas {
		if a.IsValid() {
			out = append(out, a)
		}
	}
	return out
}

// SettingsFor returns the settings for an event type. A campaign without any
// settings falls back to DefaultEventSettings. ok is false when the event
// type is not configured for reporting.
func (c *Campaign) SettingsFor(event EventType) (EventSettings, bool) {
	settings := c.EventSettings
	if len(settings) == 0 {
		settings = DefaultEventSettings()
	}
	for _, s := range settings {
		if s.Type == event {
			return s, true
		}
	}
	return EventSettings{}, false
}

// WithSingleArea returns a copy of the campaign carrying only area.
func (c *Campaign) WithSingleArea(area Area) *Campaign {
	cp := *c
	cp.Areas = []Area{area}
	if len(c.EventSettings) > 0 {
		cp.EventSettings = append([]EventSettings(nil), c.EventSettings...)
	}
	return &cp
}
