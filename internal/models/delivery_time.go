// GeoCampaign - Geofence Campaign Lifecycle and Event Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocampaign

package models

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidDeliveryTime is returned when days or the time interval cannot be parsed.
var ErrInvalidDeliveryTime = errors.New("invalid delivery time")

// DeliveryTime restricts when a transition may be reported.
//
// Days is a comma separated list of ISO weekdays (1 = Monday .. 7 = Sunday).
// TimeInterval is either "HHMM/HHMM" or "HH:MM-HH:MM". A window whose end is
// earlier than its start wraps past midnight, and one whose start equals its
// end ("0000/0000") covers the whole day. Empty fields impose no restriction.
type DeliveryTime struct {
	Days         string `json:"days,omitempty"`
	TimeInterval string `json:"timeInterval,omitempty"`
}

// IsZero reports whether no restriction is configured.
func (d *DeliveryTime) IsZero() bool {
	return d == nil || (strings.TrimSpace(d.Days) == "" && strings.TrimSpace(d.TimeInterval) == "")
}

// Weekdays parses Days. A nil map means every day is allowed.
func (d *DeliveryTime) Weekdays() (map[time.Weekday]bool, error) {
	if d == nil || strings.TrimSpace(d.Days) == "" {
		return nil, nil
	}
	days := make(map[time.Weekday]bool, 7)
	for _, part := range strings.Split(d.Days, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 1 || n > 7 {
			return nil, fmt.Errorf("%w: day %q", ErrInvalidDeliveryTime, part)
		}
		// ISO 7 (Sunday) maps to time.Sunday (0).
		days[time.Weekday(n%7)] = true
	}
	return days, nil
}

// Window parses TimeInterval into minutes since midnight.
// ok is false when no interval is configured.
func (d *DeliveryTime) Window() (start, end int, ok bool, err error) {
	if d == nil {
		return 0, 0, false, nil
	}
	raw := strings.TrimSpace(d.TimeInterval)
	if raw == "" {
		return 0, 0, false, nil
	}

	sep := "/"
	if !strings.Contains(raw, sep) {
		sep = "-"
	}
	parts := strings.Split(raw, sep)
	if len(parts) != 2 {
		return 0, 0, false, fmt.Errorf("%w: interval %q", ErrInvalidDeliveryTime, raw)
	}
	if start, err = parseClock(parts[0]); err != nil {
		return 0, 0, false, err
	}
	if end, err = parseClock(parts[1]); err != nil {
		return 0, 0, false, err
	}
	return start, end, true, nil
}

// Allows reports whether t falls inside the configured days and window.
// t should already be expressed in the location the policy evaluates in.
func (d *DeliveryTime) Allows(t time.Time) (bool, error) {
	if d.IsZero() {
		return true, nil
	}

	days, err := d.Weekdays()
	if err != nil {
		return false, err
	}
	if days != nil && !days[t.Weekday()] {
		return false, nil
	}

	start, end, ok, err := d.Window()
	if err != nil {
		return false, err
	}
	if !ok {
		return true, nil
	}

	minute := t.Hour()*60 + t.Minute()
	switch {
	case start == end:
		return true, nil
	case start < end:
		return minute >= start && minute < end, nil
	default:
		return minute >= start || minute < end, nil
	}
}

// parseClock accepts "HHMM" and "HH:MM".
func parseClock(s string) (int, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ":", "")
	if len(s) != 4 {
		return 0, fmt.Errorf("%w: time %q", ErrInvalidDeliveryTime, s)
	}
	hh, err := strconv.Atoi(s[:2])
	if err != nil || hh < 0 || hh > 23 {
		return 0, fmt.Errorf("%w: hour %q", ErrInvalidDeliveryTime, s)
	}
	mm, err := strconv.Atoi(s[2:])
	if err != nil || mm < 0 || mm > 59 {
		return 0, fmt.Errorf("%w: minute %q", ErrInvalidDeliveryTime, s)
	}
	return hh*60 + mm, nil
}
