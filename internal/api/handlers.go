// GeoCampaign - Geofence Campaign Lifecycle and Event Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocampaign

package api

import (
	"context"
	"time"

	"github.com/tomtom215/geocampaign/internal/consistency"
	"github.com/tomtom215/geocampaign/internal/geofence"
	"github.com/tomtom215/geocampaign/internal/models"
	"github.com/tomtom215/geocampaign/internal/state"
	"github.com/tomtom215/geocampaign/internal/wal"
)

// MessageStore persists signaling messages.
type MessageStore interface {
	Save(ctx context.Context, msgs ...*models.Message) error
}

// MessageLister lists stored messages.
type MessageLister interface {
	FindAll(ctx context.Context) ([]*models.Message, error)
}

// TransitionResolver turns transitions into reports.
type TransitionResolver interface {
	Resolve(ctx context.Context, t geofence.Transition) ([]models.GeoReport, error)
}

// ReportPipeline is the reporting pipeline.
type ReportPipeline interface {
	Report(ctx context.Context, reports []models.GeoReport) error
	Synchronize(ctx context.Context) (*models.GeoReportingResult, error)
	Reset(ctx context.Context) error
}

// RecoveryController is the consistency recovery controller.
type RecoveryController interface {
	Submit(ev consistency.Event) error
	OnMessageStored(ctx context.Context, msg *models.Message) error
}

// RegionLister exposes the monitored region set.
type RegionLister interface {
	Registered() []models.Area
	Available() bool
}

// CampaignStatusReader reads the campaign status cache.
type CampaignStatusReader interface {
	Status(ctx context.Context, campaignID string) (state.CampaignStatus, error)
}

// RegistrationFlag reads and writes the push registration flag.
type RegistrationFlag interface {
	RegistrationEnabled(ctx context.Context) (bool, error)
	SetRegistrationEnabled(ctx context.Context, v bool) error
}

// Clearer drops persisted state on reset.
type Clearer interface {
	Clear(ctx context.Context) error
}

// DuplicateFilter recognizes message ids generated locally.
type DuplicateFilter interface {
	IsDuplicate(id string) bool
	Clear()
}

// QueueStats reports queue statistics.
type QueueStats interface {
	Stats() wal.Stats
}

// ReadinessCheck returns nil when a dependency is ready.
type ReadinessCheck func(ctx context.Context) error

// Deps are the collaborators of the Handler. Inbox, Occurrences,
// Duplicates, Queue and Ready are optional.
type Deps struct {
	Messages     MessageStore
	Inbox        MessageLister
	Resolver     TransitionResolver
	Pipeline     ReportPipeline
	Recovery     RecoveryController
	Regions      RegionLister
	Status       CampaignStatusReader
	Registration RegistrationFlag
	Occurrences  Clearer
	Duplicates   DuplicateFilter
	Queue        QueueStats
	Ready        map[string]ReadinessCheck
}

// Handler implements the HTTP endpoints.
type Handler struct {
	deps      Deps
	startTime time.Time
}

// NewHandler creates a Handler.
func NewHandler(deps Deps) *Handler {
	return &Handler{deps: deps, startTime: time.Now()}
}
