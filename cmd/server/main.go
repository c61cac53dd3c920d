// GeoCampaign - Geofence Campaign Lifecycle and Event Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocampaign

// Package main runs the geocampaign service.
//
// The service keeps signaling messages carrying geofence campaigns, keeps
// the host's monitored region set consistent with them, turns area
// transitions into event reports and delivers those reports to the campaign
// backend through a durable queue.
//
// # Startup
//
//  1. Configuration: defaults, optional config.yaml, environment (koanf v2)
//  2. Logging: zerolog, bridged to slog for the supervisor
//  3. Storage: one BadgerDB holding the report queue, campaign state and messages
//  4. Components: backend client, reporting pipeline, trigger resolver,
//     consistency controller, HTTP API
//  5. Supervisor tree: data, processing and API layers (suture v4)
//
// # Signals
//
// SIGINT and SIGTERM cancel the tree. The HTTP server drains within
// server.shutdown_timeout, background loops stop and the database is closed.
//
// # Example
//
//	export BACKEND_URL=https://campaigns.example.com
//	export DEVICE_ID=device-1
//	export STORAGE_PATH=/var/lib/geocampaign
//	./geocampaign
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/geocampaign/internal/config"
	"github.com/tomtom215/geocampaign/internal/logging"
	"github.com/tomtom215/geocampaign/internal/supervisor"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("environment", cfg.Server.Environment).
		Str("storage_path", cfg.Storage.Path).
		Bool("in_memory", cfg.Storage.InMemory).
		Str("backend_url", cfg.Backend.URL).
		Msg("Starting geocampaign")

	a, err := newApp(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize")
	}
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}
	a.AddServices(tree)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	a.Boot()

	logging.Info().Str("addr", a.server.Addr).Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	// Let an in-flight background delivery finish or requeue before the
	// database closes.
	a.pipeline.Wait()
	logging.Info().Msg("Stopped")
}
