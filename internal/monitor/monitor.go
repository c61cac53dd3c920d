// GeoCampaign - Geofence Campaign Lifecycle and Event Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocampaign

package monitor

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/tomtom215/geocampaign/internal/logging"
	"github.com/tomtom215/geocampaign/internal/metrics"
	"github.com/tomtom215/geocampaign/internal/models"
)

var (
	// ErrUnavailable is returned when the capability cannot be used.
	ErrUnavailable = errors.New("monitoring capability unavailable")

	// ErrCapacityExceeded is returned when not every area could be registered.
	ErrCapacityExceeded = errors.New("monitored region capacity exceeded")
)

// Monitor is the host proximity monitoring capability.
type Monitor interface {
	// Register starts monitoring areas until expiry. A zero expiry never expires.
	// Invalid areas are ignored.
	Register(ctx context.Context, areas []models.Area, expiry time.Time) error

	// Unregister stops monitoring the given area ids. Unknown ids are ignored.
	Unregister(ctx context.Context, ids []string) error

	// UnregisterAll stops monitoring every area.
	UnregisterAll(ctx context.Context) error

	// Available reports whether the capability can currently be used.
	Available() bool

	// Registered returns the monitored areas, sorted by id.
	Registered() []models.Area
}

type region struct {
	area   models.Area
	expiry time.Time
}

// Registry is an in-memory Monitor with a fixed capacity.
type Registry struct {
	mu        sync.RWMutex
	capacity  int
	available bool
	regions   map[string]region
	now       func() time.Time
}

// NewRegistry creates an available registry holding at most capacity areas.
// A non-positive capacity means unlimited.
func NewRegistry(capacity int) *Registry {
	return &Registry{
		capacity:  capacity,
		available: true,
		regions:   make(map[string]region),
		now:       time.Now,
	}
}

// SetAvailable switches the capability on or off, for example when the host
// revokes location permission.
func (r *Registry) SetAvailable(v bool) {
	r.mu.Lock()
	r.available = v
	r.mu.Unlock()
	logging.Info().Bool("available", v).Msg("Monitoring capability availability changed")
}

func (r *Registry) Available() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.available
}

// Register adds areas in order until capacity is reached. Already registered
// ids are updated in place and do not consume capacity. When some areas do
// not fit, the ones that fit stay registered and ErrCapacityExceeded is returned.
func (r *Registry) Register(_ context.Context, areas []models.Area, expiry time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.available {
		return ErrUnavailable
	}
	r.pruneExpiredLocked()

	rejected := 0
	for _, area := range areas {
		if !area.IsValid() {
			continue
		}
		if _, ok := r.regions[area.ID]; !ok && r.capacity > 0 && len(r.regions) >= r.capacity {
			rejected++
			continue
		}
		r.regions[area.ID] = region{area: area, expiry: expiry}
	}
	metrics.MonitoredRegions.Set(float64(len(r.regions)))

	if rejected > 0 {
		return fmt.Errorf("%w: %d of %d areas not registered (capacity %d)", ErrCapacityExceeded, rejected, len(areas), r.capacity)
	}
	return nil
}

func (r *Registry) Unregister(_ context.Context, ids []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.available {
		return ErrUnavailable
	}
	for _, id := range ids {
		delete(r.regions, id)
	}
	metrics.MonitoredRegions.Set(float64(len(r.regions)))
	return nil
}

func (r *Registry) UnregisterAll(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.available {
		return ErrUnavailable
	}
	r.regions = make(map[string]region)
	metrics.MonitoredRegions.Set(0)
	return nil
}

// Registered returns the non-expired areas sorted by id.
func (r *Registry) Registered() []models.Area {
	r.mu.RLock()
	defer r.mu.RUnlock()

	now := r.now()
	out := make([]models.Area, 0, len(r.regions))
	for _, reg := range r.regions {
		if !reg.expiry.IsZero() && reg.expiry.Before(now) {
			continue
		}
		out = append(out, reg.area)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// pruneExpiredLocked drops areas whose registration expired so they stop
// consuming capacity.
func (r *Registry) pruneExpiredLocked() {
	now := r.now()
	for id, reg := range r.regions {
		if !reg.expiry.IsZero() && reg.expiry.Before(now) {
			delete(r.regions, id)
		}
	}
}
