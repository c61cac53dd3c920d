// GeoCampaign - Geofence Campaign Lifecycle and Event Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocampaign

package reporting

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/tomtom215/geocampaign/internal/logging"
	"github.com/tomtom215/geocampaign/internal/models"
)

// Synchronizer is what the SyncLoop drives.
type Synchronizer interface {
	Synchronize(ctx context.Context) (*models.GeoReportingResult, error)
}

// SyncLoop periodically synchronizes queued reports.
type SyncLoop struct {
	target   Synchronizer
	interval time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	// State - all protected by mu
	mu       sync.Mutex
	running  bool
	stopping bool
	stopDone chan struct{}
}

// NewSyncLoop creates a loop running every interval (default one minute).
func NewSyncLoop(s Synchronizer, interval time.Duration) *SyncLoop {
	if interval <= 0 {
		interval = time.Minute
	}
	return &SyncLoop{target: s, interval: interval}
}

// Start begins the loop. It runs until Stop is called or ctx is canceled.
func (l *SyncLoop) Start(ctx context.Context) error {
	l.mu.Lock()

	// Wait for any in-progress Stop() to complete
	for l.stopping {
		stopDone := l.stopDone
		l.mu.Unlock()
		<-stopDone
		l.mu.Lock()
	}

	if l.running {
		l.mu.Unlock()
		return nil
	}

	l.ctx, l.cancel = context.WithCancel(ctx)
	l.running = true
	l.stopDone = make(chan struct{})

	loopCtx := l.ctx
	done := l.stopDone
	l.mu.Unlock()

	go l.run(loopCtx, done)

	logging.Info().Dur("interval", l.interval).Msg("Report sync loop started")
	return nil
}

// Stop ends the loop and waits for an in-flight synchronization.
func (l *SyncLoop) Stop() {
	l.mu.Lock()
	if !l.running || l.stopping {
		l.mu.Unlock()
		return
	}

	l.cancel()
	l.running = false
	l.stopping = true
	stopDone := l.stopDone
	l.mu.Unlock()

	<-stopDone

	l.mu.Lock()
	l.stopping = false
	l.mu.Unlock()

	logging.Info().Msg("Report sync loop stopped")
}

// IsRunning reports whether the loop is active.
func (l *SyncLoop) IsRunning() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

func (l *SyncLoop) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.tick(ctx)
		}
	}
}

func (l *SyncLoop) tick(ctx context.Context) {
	result, err := l.target.Synchronize(logging.ContextWithNewCorrelationID(ctx))
	switch {
	case err == nil:
		if result != nil {
			logging.Debug().Int("mapped_ids", len(result.MessageIDs)).Msg("Periodic synchronization delivered reports")
		}
	case errors.Is(err, ErrRegistrationDisabled), errors.Is(err, context.Canceled):
	default:
		logging.Warn().Err(err).Msg("Periodic synchronization failed")
	}
}
