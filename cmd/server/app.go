// GeoCampaign - Geofence Campaign Lifecycle and Event Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocampaign

package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"

	"github.com/tomtom215/geocampaign/internal/api"
	"github.com/tomtom215/geocampaign/internal/backend"
	"github.com/tomtom215/geocampaign/internal/broadcast"
	"github.com/tomtom215/geocampaign/internal/cache"
	"github.com/tomtom215/geocampaign/internal/config"
	"github.com/tomtom215/geocampaign/internal/consistency"
	"github.com/tomtom215/geocampaign/internal/geofence"
	"github.com/tomtom215/geocampaign/internal/logging"
	"github.com/tomtom215/geocampaign/internal/messagestore"
	"github.com/tomtom215/geocampaign/internal/models"
	"github.com/tomtom215/geocampaign/internal/monitor"
	"github.com/tomtom215/geocampaign/internal/reporting"
	"github.com/tomtom215/geocampaign/internal/state"
	"github.com/tomtom215/geocampaign/internal/supervisor"
	"github.com/tomtom215/geocampaign/internal/supervisor/services"
	"github.com/tomtom215/geocampaign/internal/wal"
)

// app holds the wired components of one process.
type app struct {
	cfg *config.Config

	queue       *wal.BadgerWAL
	compactor   *wal.Compactor
	backend     *backend.Client
	broadcaster *broadcast.Broadcaster
	registry    *monitor.Registry
	pipeline    *reporting.Pipeline
	syncLoop    *reporting.SyncLoop
	controller  *consistency.Controller
	server      *http.Server
}

func newApp(cfg *config.Config) (*app, error) {
	walCfg := wal.FromStorageConfig(cfg.Storage)
	if err := walCfg.Validate(); err != nil {
		return nil, fmt.Errorf("storage config: %w", err)
	}
	queue, err := wal.Open(&walCfg)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	db := queue.DB()

	signaling := messagestore.NewBadgerStore(db)
	inbox := messagestore.NewBadgerStoreWithPrefix(db, messagestore.PrefixInbox)
	status := state.NewStatusCache(db)
	flags := state.NewFlags(db, cfg.Reporting.RegistrationEnabled)
	occurrences := state.NewOccurrences(db)
	duplicates := cache.NewDuplicateSuppressor(cfg.Geofence.DuplicateCacheSize, cfg.Geofence.DuplicateCacheTTL)

	client := backend.NewClient(cfg.Backend)
	broadcaster := broadcast.New(0)
	registry := monitor.NewRegistry(cfg.Monitor.Capacity)

	pipeline := reporting.NewPipeline(reporting.Deps{
		Queue:       queue,
		Backend:     client,
		Messages:    signaling,
		Status:      status,
		Flags:       flags,
		Broadcaster: broadcaster,
		Sink: reporting.MessageSinkFunc(func(ctx context.Context, msgs []*models.Message) error {
			return inbox.Save(ctx, msgs...)
		}),
		Retry: reporting.NewRetryPolicy(cfg.Retry),
	})

	resolver := geofence.NewResolver(signaling, &geofence.Policy{
		Location:         cfg.Geofence.Location(),
		Status:           status,
		CheckStatusCache: cfg.Geofence.CheckStatusCache,
		Occurrences:      occurrences,
	}, duplicates)

	controller := consistency.NewController(registry, signaling, flags, cfg.Monitor.PackageName)

	handler := api.NewHandler(api.Deps{
		Messages:     signaling,
		Inbox:        inbox,
		Resolver:     resolver,
		Pipeline:     pipeline,
		Recovery:     controller,
		Regions:      registry,
		Status:       status,
		Registration: flags,
		Occurrences:  occurrences,
		Duplicates:   duplicates,
		Queue:        queue,
		Ready: map[string]api.ReadinessCheck{
			"storage": func(ctx context.Context) error {
				_, err := signaling.Count(ctx)
				return err
			},
			"backend": func(context.Context) error {
				if client.BreakerState() == "open" {
					return errors.New("circuit breaker open")
				}
				return nil
			},
		},
	})
	router := api.NewRouter(handler, api.NewChiMiddleware(api.ChiMiddlewareConfigFromSecurity(cfg.Security)))

	server := &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:           router.SetupChi(),
		ReadTimeout:       cfg.Server.Timeout,
		ReadHeaderTimeout: cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       2 * cfg.Server.Timeout,
	}

	return &app{
		cfg:         cfg,
		queue:       queue,
		compactor:   wal.NewCompactor(queue),
		backend:     client,
		broadcaster: broadcaster,
		registry:    registry,
		pipeline:    pipeline,
		syncLoop:    reporting.NewSyncLoop(pipeline, cfg.Reporting.SyncInterval),
		controller:  controller,
		server:      server,
	}, nil
}

// AddServices puts the long-lived components under tree.
func (a *app) AddServices(tree *supervisor.SupervisorTree) {
	tree.AddDataService(services.NewStartStopService("queue-compactor", a.compactor))

	tree.AddProcessingService(a.controller)
	tree.AddProcessingService(services.NewStartStopService("reporting-sync-loop", a.syncLoop))
	tree.AddProcessingService(broadcast.NewJournal(a.broadcaster))

	tree.AddAPIService(services.NewHTTPServerService(a.server, a.cfg.Server.ShutdownTimeout))
}

// Boot queues the startup recovery and flushes reports left from a
// previous run.
func (a *app) Boot() {
	if a.cfg.Monitor.RecoverOnStart {
		if err := a.controller.Submit(consistency.Event{Kind: consistency.EventBootCompleted}); err != nil {
			logging.Warn().Err(err).Msg("Startup recovery not queued")
		}
	}
	if stats := a.queue.Stats(); stats.PendingCount > 0 {
		logging.Info().Int64("pending", stats.PendingCount).Msg("Delivering reports queued by a previous run")
		a.pipeline.SynchronizeAsync(context.Background())
	}
}

// Close releases the broadcaster and the database.
func (a *app) Close() {
	if err := a.broadcaster.Close(); err != nil {
		logging.Error().Err(err).Msg("Error closing broadcaster")
	}
	if err := a.queue.Close(); err != nil {
		logging.Error().Err(err).Msg("Error closing storage")
	}
}
