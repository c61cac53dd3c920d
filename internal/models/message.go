// GeoCampaign - Geofence Campaign Lifecycle and Event Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocampaign

package models

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

// geoKey is the internal data key carrying the area list of a campaign.
const geoKey = "geo"

// Message is a stored push message. A signaling message carries a campaign
// encoded in InternalData; messages synthesized after reporting carry a
// single-area copy of it.
type Message struct {
	MessageID     string                 `json:"messageId" validate:"required,max=256"`
	Title         string                 `json:"title,omitempty"`
	Body          string                 `json:"body,omitempty"`
	Sound         string                 `json:"sound,omitempty"`
	Icon          string                 `json:"icon,omitempty"`
	Category      string                 `json:"category,omitempty"`
	Silent        bool                   `json:"silent"`
	CustomPayload map[string]interface{} `json:"customPayload,omitempty"`
	InternalData  string                 `json:"internalData,omitempty"`
	ReceivedAt    time.Time              `json:"receivedAt"`
}

// Campaign decodes the campaign embedded in InternalData. It returns
// (nil, nil) when the message is not a signaling message. The campaign is
// decoded on every call and never shared between callers.
func (m *Message) Campaign() (*Campaign, error) {
	if m.InternalData == "" {
		return nil, nil
	}

	var keys map[string]json.RawMessage
	if err := json.Unmarshal([]byte(m.InternalData), &keys); err != nil {
		return nil, fmt.Errorf("decode internal data of message %s: %w", m.MessageID, err)
	}
	if _, ok := keys[geoKey]; !ok {
		return nil, nil
	}

	var c Campaign
	if err := json.Unmarshal([]byte(m.InternalData), &c); err != nil {
		return nil, fmt.Errorf("decode campaign of message %s: %w", m.MessageID, err)
	}
	return &c, nil
}

// HasCampaign reports whether InternalData carries a campaign with at least one area.
func (m *Message) HasCampaign() bool {
	c, err := m.Campaign()
	return err == nil && c != nil && len(c.Areas) > 0
}

// InternalDataWithCampaign returns InternalData with the campaign fields
// replaced by c. Unrelated keys of the original internal data are kept.
func (m *Message) InternalDataWithCampaign(c *Campaign) (string, error) {
	merged := map[string]json.RawMessage{}
	if m.InternalData != "" {
		if err := json.Unmarshal([]byte(m.InternalData), &merged); err != nil {
			return "", fmt.Errorf("decode internal data of message %s: %w", m.MessageID, err)
		}
	}

	encoded, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("encode campaign %s: %w", c.CampaignID, err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(encoded, &fields); err != nil {
		return "", fmt.Errorf("re-decode campaign %s: %w", c.CampaignID, err)
	}
	for k, v := range fields {
		merged[k] = v
	}

	out, err := json.Marshal(merged)
	if err != nil {
		return "", fmt.Errorf("encode internal data: %w", err)
	}
	return string(out), nil
}

// MessagePayload is the compact form of a signaling message sent along with
// event reports so the backend can correlate them without a lookup.
type MessagePayload struct {
	MessageID     string                 `json:"messageId"`
	Title         string                 `json:"title,omitempty"`
	Body          string                 `json:"body,omitempty"`
	Sound         string                 `json:"sound,omitempty"`
	Silent        bool                   `json:"silent"`
	CustomPayload map[string]interface{} `json:"customPayload,omitempty"`
	InternalData  string                 `json:"internalData,omitempty"`
}

// Payload builds the MessagePayload for m.
func (m *Message) Payload() MessagePayload {
	return MessagePayload{
		MessageID:     m.MessageID,
		Title:         m.Title,
		Body:          m.Body,
		Sound:         m.Sound,
		Silent:        m.Silent,
		CustomPayload: m.CustomPayload,
		InternalData:  m.InternalData,
	}
}
