// GeoCampaign - Geofence Campaign Lifecycle and Event Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocampaign

package api

import (
	"time"

	"github.com/tomtom215/geocampaign/internal/models"
)

// MessageRequest is a signaling message delivered by the host.
type MessageRequest struct {
	MessageID     string                 `json:"messageId" validate:"required,max=256"`
	Title         string                 `json:"title" validate:"max=1024"`
	Body          string                 `json:"body" validate:"max=8192"`
	Sound         string                 `json:"sound" validate:"max=256"`
	Icon          string                 `json:"icon" validate:"max=2048"`
	Category      string                 `json:"category" validate:"max=256"`
	Silent        bool                   `json:"silent"`
	CustomPayload map[string]interface{} `json:"customPayload"`
	InternalData  string                 `json:"internalData" validate:"max=65536"`
}

// Message converts the request to a model.
func (r *MessageRequest) Message() *models.Message {
	return &models.Message{
		MessageID:     r.MessageID,
		Title:         r.Title,
		Body:          r.Body,
		Sound:         r.Sound,
		Icon:          r.Icon,
		Category:      r.Category,
		Silent:        r.Silent,
		CustomPayload: r.CustomPayload,
		InternalData:  r.InternalData,
	}
}

// TransitionRequest is the host's transition callback.
type TransitionRequest struct {
	TriggeredIDs []string   `json:"triggeredIds" validate:"required,min=1,max=100,dive,required,max=256"`
	Event        string     `json:"event" validate:"required,eventtype"`
	Latitude     *float64   `json:"latitude" validate:"omitempty,min=-90,max=90"`
	Longitude    *float64   `json:"longitude" validate:"omitempty,min=-180,max=180"`
	OccurredAt   *time.Time `json:"occurredAt"`
}

// SystemEventRequest carries a consistency event.
type SystemEventRequest struct {
	Kind    string `json:"kind" validate:"required,max=64"`
	Package string `json:"package" validate:"max=256"`
}

// RegistrationRequest toggles push registration.
type RegistrationRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

// TransitionResponse lists what a transition produced.
type TransitionResponse struct {
	Reports          int      `json:"reports"`
	ClientMessageIDs []string `json:"clientMessageIds"`
}

// MessageResponse reports what happened to a submitted message.
type MessageResponse struct {
	MessageID string `json:"messageId"`
	Stored    bool   `json:"stored"`
	Duplicate bool   `json:"duplicate,omitempty"`
	Campaign  bool   `json:"campaign"`
}

// SyncResponse is the outcome of a forced synchronization.
type SyncResponse struct {
	Delivered            bool              `json:"delivered"`
	MessageIDs           map[string]string `json:"messageIds,omitempty"`
	FinishedCampaignIDs  []string          `json:"finishedCampaignIds,omitempty"`
	SuspendedCampaignIDs []string          `json:"suspendedCampaignIds,omitempty"`

	// Warning is set when the batch was delivered but follow-up work failed.
	Warning string `json:"warning,omitempty"`
}

// RegionsResponse lists monitored areas.
type RegionsResponse struct {
	Available bool          `json:"available"`
	Count     int           `json:"count"`
	Regions   []models.Area `json:"regions"`
}

// CampaignStatusResponse is the cached status of one campaign.
type CampaignStatusResponse struct {
	CampaignID string `json:"campaignId"`
	Status     string `json:"status"`
}

// RegistrationResponse is the current registration flag.
type RegistrationResponse struct {
	Enabled bool `json:"enabled"`
}

// SystemEventResponse acknowledges a system event.
type SystemEventResponse struct {
	Kind     string `json:"kind"`
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"`
}
