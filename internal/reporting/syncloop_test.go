// GeoCampaign - Geofence Campaign Lifecycle and Event Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocampaign

package reporting

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tomtom215/geocampaign/internal/models"
)

type countingSynchronizer struct {
	calls atomic.Int32
	err   error
}

func (c *countingSynchronizer) Synchronize(context.Context) (*models.GeoReportingResult, error) {
	c.calls.Add(1)
	return nil, c.err
}

func TestSyncLoop_StartStop(t *testing.T) {
	t.Parallel()
	target := &countingSynchronizer{err: ErrRegistrationDisabled}
	loop := NewSyncLoop(target, 5*time.Millisecond)

	if err := loop.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !loop.IsRunning() {
		t.Fatal("expected loop to be running")
	}
	// A second Start is a no-op.
	if err := loop.Start(context.Background()); err != nil {
		t.Fatalf("second Start: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for target.calls.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if target.calls.Load() < 2 {
		t.Fatalf("expected at least 2 ticks, got %d", target.calls.Load())
	}

	loop.Stop()
	if loop.IsRunning() {
		t.Error("expected loop to be stopped")
	}
	after := target.calls.Load()
	time.Sleep(30 * time.Millisecond)
	if target.calls.Load() != after {
		t.Error("loop kept ticking after Stop")
	}

	// Stop is idempotent.
	loop.Stop()
}

func TestSyncLoop_StopsWithContext(t *testing.T) {
	t.Parallel()
	loop := NewSyncLoop(&countingSynchronizer{}, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	if err := loop.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	cancel()
	loop.Stop()
	if loop.IsRunning() {
		t.Error("expected loop to be stopped")
	}
}

func TestNewSyncLoop_DefaultInterval(t *testing.T) {
	t.Parallel()
	if l := NewSyncLoop(&countingSynchronizer{}, 0); l.interval != time.Minute {
		t.Errorf("interval = %v, want 1m", l.interval)
	}
}
