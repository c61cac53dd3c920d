// GeoCampaign - Geofence Campaign Lifecycle and Event Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocampaign

package geofence

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/geocampaign/internal/logging"
	"github.com/tomtom215/geocampaign/internal/metrics"
	"github.com/tomtom215/geocampaign/internal/models"
	"github.com/tomtom215/geocampaign/internal/state"
)

// StatusChecker reports whether a campaign is still active.
type StatusChecker interface {
	IsActive(ctx context.Context, campaignID string) (bool, error)
}

// OccurrenceStore counts reported occurrences per campaign and event type.
type OccurrenceStore interface {
	Get(ctx context.Context, campaignID string, event models.EventType) (state.Occurrence, error)
	Record(ctx context.Context, campaignID string, event models.EventType, at time.Time) (state.Occurrence, error)
}

// Policy decides whether a campaign may report an event at a given time.
// Nil collaborators disable the checks that need them.
type Policy struct {
	// Location is the zone delivery windows are evaluated in. Nil means time.Local.
	Location *time.Location

	// Status, when set and CheckStatusCache is true, drops inactive campaigns.
	Status           StatusChecker
	CheckStatusCache bool

	Occurrences OccurrenceStore
}

// Evaluate returns ("", nil) when the campaign may report event at at,
// otherwise one of the metrics.Filter* reasons.
func (p *Policy) Evaluate(ctx context.Context, c *models.Campaign, event models.EventType, at time.Time) (string, error) {
	settings, ok := c.SettingsFor(event)
	if !ok {
		return metrics.FilterEventType, nil
	}

	if !c.DeliveryTime.IsZero() {
		loc := p.Location
		if loc == nil {
			loc = time.Local
		}
		allowed, err := c.DeliveryTime.Allows(at.In(loc))
		if err != nil {
			// Same fail-open treatment as unparsable campaign dates.
			logging.Warn().Err(err).Str("campaign_id", c.CampaignID).Msg("Ignoring unparsable delivery time")
		} else if !allowed {
			return metrics.FilterDeliveryWindow, nil
		}
	}

	if p.CheckStatusCache && p.Status != nil {
		active, err := p.Status.IsActive(ctx, c.CampaignID)
		if err != nil {
			return "", fmt.Errorf("check status of campaign %s: %w", c.CampaignID, err)
		}
		if !active {
			return metrics.FilterInactive, nil
		}
	}

	if p.Occurrences != nil && (settings.Limit > 0 || settings.TimeoutInMinutes > 0) {
		occ, err := p.Occurrences.Get(ctx, c.CampaignID, event)
		if err != nil {
			return "", fmt.Errorf("read occurrences of campaign %s: %w", c.CampaignID, err)
		}
		if settings.Limit > 0 && occ.Count >= settings.Limit {
			return metrics.FilterLimit, nil
		}
		if settings.TimeoutInMinutes > 0 && !occ.Last.IsZero() &&
			at.Sub(occ.Last) < time.Duration(settings.TimeoutInMinutes)*time.Minute {
			return metrics.FilterTimeout, nil
		}
	}

	return "", nil
}
