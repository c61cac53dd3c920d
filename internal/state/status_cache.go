// GeoCampaign - Geofence Campaign Lifecycle and Event Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocampaign

package state

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/geocampaign/internal/models"
)

const (
	prefixFinished  = "status:finished:"
	prefixSuspended = "status:suspended:"
)

// CampaignStatus is the locally known lifecycle state of a campaign.
type CampaignStatus string

const (
	StatusActive    CampaignStatus = "active"
	StatusFinished  CampaignStatus = "finished"
	StatusSuspended CampaignStatus = "suspended"
)

// StatusCache persists the finished and suspended campaign id sets.
// Both sets only grow until Clear.
type StatusCache struct {
	db *badger.DB
}

// NewStatusCache creates a status cache on db.
func NewStatusCache(db *badger.DB) *StatusCache {
	return &StatusCache{db: db}
}

// IsActive reports whether campaignID is in neither set.
func (c *StatusCache) IsActive(ctx context.Context, campaignID string) (bool, error) {
	status, err := c.Status(ctx, campaignID)
	if err != nil {
		return false, err
	}
	return status == StatusActive, nil
}

// Status returns the status of campaignID. Finished takes precedence over
// suspended when a campaign is in both sets.
func (c *StatusCache) Status(_ context.Context, campaignID string) (CampaignStatus, error) {
	status := StatusActive
	err := c.db.View(func(txn *badger.Txn) error {
		finished, err := exists(txn, prefixFinished+campaignID)
		if err != nil {
			return err
		}
		if finished {
			status = StatusFinished
			return nil
		}
		suspended, err := exists(txn, prefixSuspended+campaignID)
		if err != nil {
			return err
		}
		if suspended {
			status = StatusSuspended
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("campaign status %s: %w", campaignID, err)
	}
	return status, nil
}

// Inactive returns the sorted union of finished and suspended ids.
func (c *StatusCache) Inactive(_ context.Context) ([]string, error) {
	var out []string
	err := c.db.View(func(txn *badger.Txn) error {
		out = union(listSuffixes(txn, prefixFinished), listSuffixes(txn, prefixSuspended))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list inactive campaigns: %w", err)
	}
	return out, nil
}

// MergeFromResult adds the finished and suspended ids of a successful result
// and returns the updated union. A failed result leaves the cache untouched
// and the existing union is returned.
func (c *StatusCache) MergeFromResult(ctx context.Context, result *models.GeoReportingResult) ([]string, error) {
	if result.Failed() {
		return c.Inactive(ctx)
	}
	if len(result.FinishedCampaignIDs) == 0 && len(result.SuspendedCampaignIDs) == 0 {
		return c.Inactive(ctx)
	}

	stamp := []byte(time.Now().UTC().Format(time.RFC3339))
	err := update(c.db, func(txn *badger.Txn) error {
		for _, id := range result.FinishedCampaignIDs {
			if id == "" {
				continue
			}
			if err := txn.Set([]byte(prefixFinished+id), stamp); err != nil {
				return err
			}
		}
		for _, id := range result.SuspendedCampaignIDs {
			if id == "" {
				continue
			}
			if err := txn.Set([]byte(prefixSuspended+id), stamp); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("merge campaign status: %w", err)
	}
	return c.Inactive(ctx)
}

// Clear empties both sets.
func (c *StatusCache) Clear(_ context.Context) error {
	return dropPrefixes(c.db, prefixFinished, prefixSuspended)
}

func union(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, list := range [][]string{a, b} {
		for _, id := range list {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}
