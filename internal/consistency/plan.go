// GeoCampaign - Geofence Campaign Lifecycle and Event Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocampaign

package consistency

import (
	"sort"
	"time"

	"github.com/tomtom215/geocampaign/internal/models"
)

// plan is the monitoring state derived from the stored messages at one instant.
type plan struct {
	eligible       []*models.Campaign
	expiredAreaIDs []string

	// nextStart is the earliest future start of a not yet started campaign.
	nextStart time.Time
	// nextExpiry is the earliest future expiry of an eligible campaign.
	nextExpiry time.Time
}

func planFor(msgs []*models.Message, now time.Time) plan {
	var p plan
	expired := make(map[string]struct{})
	live := make(map[string]struct{})

	for _, msg := range msgs {
		campaign, err := msg.Campaign()
		if err != nil || campaign == nil || len(campaign.Areas) == 0 {
			continue
		}

		switch {
		case campaign.IsExpired(now):
			for _, a := range campaign.Areas {
				if a.ID != "" {
					expired[a.ID] = struct{}{}
				}
			}
		case !campaign.IsStarted(now):
			if start, ok := campaign.StartsAt(); ok {
				p.nextStart = earliest(p.nextStart, start)
			}
		default:
			p.eligible = append(p.eligible, campaign)
			for _, a := range campaign.Areas {
				live[a.ID] = struct{}{}
			}
			if expiry, ok := campaign.ExpiresAt(); ok {
				p.nextExpiry = earliest(p.nextExpiry, expiry)
			}
		}
	}

	for id := range expired {
		if _, ok := live[id]; !ok {
			p.expiredAreaIDs = append(p.expiredAreaIDs, id)
		}
	}
	sort.Strings(p.expiredAreaIDs)
	return p
}

func earliest(cur, t time.Time) time.Time {
	if cur.IsZero() || t.Before(cur) {
		return t
	}
	return cur
}
