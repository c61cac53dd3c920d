// GeoCampaign - Geofence Campaign Lifecycle and Event Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocampaign

package geofence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/geocampaign/internal/logging"
	"github.com/tomtom215/geocampaign/internal/metrics"
	"github.com/tomtom215/geocampaign/internal/models"
)

// Transition is one callback from the monitoring capability.
type Transition struct {
	TriggeredIDs []string
	Event        models.EventType
	Latitude     *float64
	Longitude    *float64
	OccurredAt   time.Time
}

// MessageSource lists stored messages.
type MessageSource interface {
	FindAll(ctx context.Context) ([]*models.Message, error)
}

// DuplicateRecorder remembers generated client message ids.
type DuplicateRecorder interface {
	Add(ids ...string)
}

// Resolver maps transitions to reports.
type Resolver struct {
	messages MessageSource
	policy   *Policy
	dups     DuplicateRecorder
	log      *logging.GeoLogger

	now   func() time.Time
	newID func() string
}

// NewResolver creates a resolver. dups may be nil.
func NewResolver(messages MessageSource, policy *Policy, dups DuplicateRecorder) *Resolver {
	if policy == nil {
		policy = &Policy{}
	}
	return &Resolver{
		messages: messages,
		policy:   policy,
		dups:     dups,
		log:      logging.NewGeoLogger("geofence"),
		now:      time.Now,
		newID:    func() string { return uuid.New().String() },
	}
}

// Resolve returns one report per stored message with at least one
// triggered, eligible area.
func (r *Resolver) Resolve(ctx context.Context, t Transition) ([]models.GeoReport, error) {
	metrics.RecordTransition(string(t.Event))
	r.log.LogTransition(ctx, string(t.Event), len(t.TriggeredIDs))

	if len(t.TriggeredIDs) == 0 {
		return nil, nil
	}
	occurredAt := t.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = r.now()
	}

	triggered := make(map[string]struct{}, len(t.TriggeredIDs))
	for _, id := range t.TriggeredIDs {
		triggered[id] = struct{}{}
	}

	msgs, err := r.messages.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}

	now := r.now()
	var reports []models.GeoReport
	for _, msg := range msgs {
		campaign, err := msg.Campaign()
		if err != nil {
			metrics.RecordFiltered(metrics.FilterParseError)
			r.log.LogParseFailure(ctx, msg.MessageID, err)
			continue
		}
		if campaign == nil || len(campaign.Areas) == 0 {
			continue
		}

		candidates := matchingAreas(campaign, triggered)
		if len(candidates) == 0 {
			continue
		}

		if !campaign.IsStarted(now) {
			r.skip(ctx, campaign.CampaignID, metrics.FilterNotStarted)
			continue
		}
		if campaign.IsExpired(now) {
			r.skip(ctx, campaign.CampaignID, metrics.FilterExpired)
			continue
		}

		reason, err := r.policy.Evaluate(ctx, campaign, t.Event, occurredAt)
		if err != nil {
			return nil, err
		}
		if reason != "" {
			r.skip(ctx, campaign.CampaignID, reason)
			continue
		}

		area := SmallestArea(candidates)
		for i := 1; i < len(candidates); i++ {
			metrics.RecordFiltered(metrics.FilterOverlap)
		}

		reports = append(reports, models.GeoReport{
			CampaignID:          campaign.CampaignID,
			MessageID:           r.newID(),
			SignalingMessageID:  msg.MessageID,
			Event:               t.Event,
			Area:                area,
			TimestampOccurred:   occurredAt,
			TriggeringLatitude:  t.Latitude,
			TriggeringLongitude: t.Longitude,
		})
	}

	if len(reports) == 0 {
		return nil, nil
	}

	if r.dups != nil {
		ids := make([]string, len(reports))
		for i := range reports {
			ids[i] = reports[i].MessageID
		}
		r.dups.Add(ids...)
	}

	if r.policy.Occurrences != nil {
		for i := range reports {
			if _, err := r.policy.Occurrences.Record(ctx, reports[i].CampaignID, reports[i].Event, occurredAt); err != nil {
				// The report is still valid; only limit enforcement degrades.
				logging.Ctx(ctx).Error().Err(err).Str("campaign_id", reports[i].CampaignID).Msg("Failed to record occurrence")
			}
		}
	}

	metrics.RecordReportsGenerated(string(t.Event), len(reports))
	return reports, nil
}

func (r *Resolver) skip(ctx context.Context, campaignID, reason string) {
	metrics.RecordFiltered(reason)
	r.log.LogCampaignSkipped(ctx, campaignID, reason)
}

// matchingAreas returns the valid areas of c whose id was triggered.
func matchingAreas(c *models.Campaign, triggered map[string]struct{}) []models.Area {
	var out []models.Area
	for _, a := range c.ValidAreas() {
		if _, ok := triggered[a.ID]; ok {
			out = append(out, a)
		}
	}
	return out
}

// SmallestArea returns the area with the smallest radius, ties broken by the
// lexicographically smallest id. areas must not be empty.
func SmallestArea(areas []models.Area) models.Area {
	best := areas[0]
	for _, a := range areas[1:] {
		if a.Radius() < best.Radius() || (a.Radius() == best.Radius() && a.ID < best.ID) {
			best = a
		}
	}
	return best
}
