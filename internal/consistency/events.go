// GeoCampaign - Geofence Campaign Lifecycle and Event Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocampaign

package consistency

import (
	"errors"
	"fmt"
	"strings"
)

// EventKind is a system event that may desynchronize the monitored region set.
type EventKind int

const (
	EventMonitoringEnabled EventKind = iota + 1
	EventRefreshAlarm
	EventTimeChanged
	EventMonitorDataCleared
	EventExpireAlarm
	EventBootCompleted
)

// ErrUnknownEventKind is returned by ParseEventKind.
var ErrUnknownEventKind = errors.New("unknown system event kind")

var kindNames = map[EventKind]string{
	EventMonitoringEnabled:  "monitoring_enabled",
	EventRefreshAlarm:       "refresh_alarm",
	EventTimeChanged:        "time_changed",
	EventMonitorDataCleared: "monitor_data_cleared",
	EventExpireAlarm:        "expire_alarm",
	EventBootCompleted:      "boot_completed",
}

// String returns the snake_case name used on the API.
func (k EventKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// ParseEventKind accepts the snake_case names, case-insensitively.
func ParseEventKind(s string) (EventKind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for kind, name := range kindNames {
		if name == s {
			return kind, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownEventKind, s)
}

// FullRecovery reports whether the event requires re-registering every area.
// Only ExpireAlarm runs the lighter expire pass.
func (k EventKind) FullRecovery() bool {
	switch k {
	case EventMonitoringEnabled, EventRefreshAlarm, EventTimeChanged, EventMonitorDataCleared, EventBootCompleted:
		return true
	case EventExpireAlarm:
		return false
	default:
		return false
	}
}

// Event is one submitted system event. Package is only meaningful for
// EventMonitorDataCleared.
type Event struct {
	Kind    EventKind
	Package string
}
