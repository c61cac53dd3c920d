// GeoCampaign - Geofence Campaign Lifecycle and Event Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocampaign

package backend

import (
	"time"

	"github.com/tomtom215/geocampaign/internal/models"
)

// EventReport is one reported transition on the wire.
type EventReport struct {
	EventType              string `json:"eventType"`
	AreaID                 string `json:"areaId"`
	CampaignID             string `json:"campaignId"`
	SignalingMessageID     string `json:"signalingMessageId"`
	ClientMessageID        string `json:"clientMessageId"`
	SecondsSinceOccurrence int64  `json:"secondsSinceOccurrence"`
}

// ReportRequest is the body of POST /geo/event/v2.
type ReportRequest struct {
	MessagePayloads []models.MessagePayload `json:"messagePayloads"`
	EventReports    []EventReport           `json:"eventReports"`
	DeviceID        string                  `json:"deviceId"`
}

// ReportResponse is the backend's answer to a ReportRequest.
type ReportResponse struct {
	MessageIDs           map[string]string `json:"messageIds"`
	FinishedCampaignIDs  []string          `json:"finishedCampaignIds"`
	SuspendedCampaignIDs []string          `json:"suspendedCampaignIds"`
}

// NewEventReport converts a GeoReport, measuring its age at now.
func NewEventReport(r models.GeoReport, now time.Time) EventReport {
	return EventReport{
		EventType:              string(r.Event),
		AreaID:                 r.Area.ID,
		CampaignID:             r.CampaignID,
		SignalingMessageID:     r.SignalingMessageID,
		ClientMessageID:        r.MessageID,
		SecondsSinceOccurrence: r.SecondsSinceOccurrence(now),
	}
}

// Result converts the response into a successful GeoReportingResult.
func (r *ReportResponse) Result() *models.GeoReportingResult {
	if r == nil {
		return &models.GeoReportingResult{}
	}
	return &models.GeoReportingResult{
		MessageIDs:           r.MessageIDs,
		FinishedCampaignIDs:  r.FinishedCampaignIDs,
		SuspendedCampaignIDs: r.SuspendedCampaignIDs,
	}
}
