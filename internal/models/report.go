// GeoCampaign - Geofence Campaign Lifecycle and Event Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocampaign

package models

import (
	"strings"
	"time"
)

// GeoReport is one resolved transition waiting for, or already sent to, the backend.
//
// MessageID is the client-generated id of the message that will be
// synthesized for this report; SignalingMessageID is the id of the push
// message that carried the campaign.
type GeoReport struct {
	CampaignID          string    `json:"campaignId"`
	MessageID           string    `json:"messageId"`
	SignalingMessageID  string    `json:"signalingMessageId"`
	Event               EventType `json:"event"`
	Area                Area      `json:"area"`
	TimestampOccurred   time.Time `json:"timestampOccurred"`
	TriggeringLatitude  *float64  `json:"triggeringLatitude,omitempty"`
	TriggeringLongitude *float64  `json:"triggeringLongitude,omitempty"`
}

// Key is the structural identity of a report.
func (r GeoReport) Key() string {
	return strings.Join([]string{
		r.CampaignID,
		string(r.Event),
		r.Area.ID,
		r.SignalingMessageID,
		r.MessageID,
	}, "|")
}

// SecondsSinceOccurrence is measured at submission time.
func (r GeoReport) SecondsSinceOccurrence(now time.Time) int64 {
	d := now.Sub(r.TimestampOccurred)
	if d < 0 {
		return 0
	}
	return int64(d / time.Second)
}

// GeoReportingResult is the outcome of submitting one batch.
type GeoReportingResult struct {
	// Err is set when the batch could not be delivered.
	Err error `json:"-"`

	// MessageIDs maps client message ids to server-assigned ids.
	MessageIDs map[string]string `json:"messageIds,omitempty"`

	FinishedCampaignIDs  []string `json:"finishedCampaignIds,omitempty"`
	SuspendedCampaignIDs []string `json:"suspendedCampaignIds,omitempty"`
}

// Failed reports whether the result carries an error.
func (r *GeoReportingResult) Failed() bool {
	return r == nil || r.Err != nil
}

// ServerMessageID returns the server id for clientID, or clientID itself
// when the server did not provide a mapping.
func (r *GeoReportingResult) ServerMessageID(clientID string) string {
	if r != nil {
		if id, ok := r.MessageIDs[clientID]; ok && id != "" {
			return id
		}
	}
	return clientID
}
