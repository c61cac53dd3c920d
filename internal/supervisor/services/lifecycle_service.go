// GeoCampaign - Geofence Campaign Lifecycle and Event Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocampaign

package services

import (
	"context"
	"fmt"
)

// StartStopper is a component with its own background goroutine.
//
// Satisfied by *reporting.SyncLoop and *wal.Compactor.
type StartStopper interface {
	Start(ctx context.Context) error
	Stop()
	IsRunning() bool
}

// StartStopService adapts a StartStopper to suture's Serve pattern: Start,
// block until canceled, Stop. Stop must wait for the component's goroutine.
//
//	loop := reporting.NewSyncLoop(pipeline, cfg.Reporting.SyncInterval)
//	tree.AddProcessingService(services.NewStartStopService("reporting-sync-loop", loop))
type StartStopService struct {
	component StartStopper
	name      string
}

// NewStartStopService wraps component under name.
func NewStartStopService(name string, component StartStopper) *StartStopService {
	return &StartStopService{component: component, name: name}
}

// Serve implements suture.Service. A Start error is returned so suture
// restarts the service with backoff.
func (s *StartStopService) Serve(ctx context.Context) error {
	if err := s.component.Start(ctx); err != nil {
		return fmt.Errorf("%s start failed: %w", s.name, err)
	}

	<-ctx.Done()
	s.component.Stop()
	return ctx.Err()
}

func (s *StartStopService) String() string {
	return s.name
}
