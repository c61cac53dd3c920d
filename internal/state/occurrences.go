// GeoCampaign - Geofence Campaign Lifecycle and Event Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocampaign

package state

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/geocampaign/internal/models"
)

const prefixOccurrence = "occurrence:"

// Occurrence counts the reported transitions of one event type for one campaign.
type Occurrence struct {
	Count int       `json:"count"`
	Last  time.Time `json:"last"`
}

// Occurrences persists occurrence counters.
type Occurrences struct {
	db *badger.DB
}

// NewOccurrences creates an occurrence store on db.
func NewOccurrences(db *badger.DB) *Occurrences {
	return &Occurrences{db: db}
}

func occurrenceKey(campaignID string, event models.EventType) []byte {
	return []byte(prefixOccurrence + campaignID + ":" + string(event))
}

func readOccurrence(txn *badger.Txn, key []byte) (Occurrence, error) {
	var occ Occurrence
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return occ, nil
	}
	if err != nil {
		return occ, err
	}
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &occ)
	})
	return occ, err
}

// Get returns the counter for campaignID and event. A missing counter is zero.
func (o *Occurrences) Get(_ context.Context, campaignID string, event models.EventType) (Occurrence, error) {
	var occ Occurrence
	err := o.db.View(func(txn *badger.Txn) error {
		var err error
		occ, err = readOccurrence(txn, occurrenceKey(campaignID, event))
		return err
	})
	if err != nil {
		return Occurrence{}, fmt.Errorf("read occurrence %s/%s: %w", campaignID, event, err)
	}
	return occ, nil
}

// Record increments the counter and stores at as the last occurrence.
func (o *Occurrences) Record(_ context.Context, campaignID string, event models.EventType, at time.Time) (Occurrence, error) {
	key := occurrenceKey(campaignID, event)
	var occ Occurrence
	err := update(o.db, func(txn *badger.Txn) error {
		current, err := readOccurrence(txn, key)
		if err != nil {
			return err
		}
		current.Count++
		if at.After(current.Last) {
			current.Last = at.UTC()
		}
		data, err := json.Marshal(current)
		if err != nil {
			return err
		}
		occ = current
		return txn.Set(key, data)
	})
	if err != nil {
		return Occurrence{}, fmt.Errorf("record occurrence %s/%s: %w", campaignID, event, err)
	}
	return occ, nil
}

// Clear removes every counter.
func (o *Occurrences) Clear(_ context.Context) error {
	return dropPrefixes(o.db, prefixOccurrence)
}
