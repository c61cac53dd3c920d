// GeoCampaign - Geofence Campaign Lifecycle and Event Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocampaign

package logging

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// GeoLogger provides domain-specific log lines for the geofence engine so
// the same events are always logged with the same field names.
type GeoLogger struct {
	logger zerolog.Logger
}

// NewGeoLogger creates a GeoLogger tagged with the given component.
func NewGeoLogger(component string) *GeoLogger {
	return &GeoLogger{logger: WithComponent(component)}
}

// NewGeoLoggerWithLogger creates a GeoLogger on top of a custom logger.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewGeoLoggerWithLogger(logger zerolog.Logger, component string) *GeoLogger {
	return &GeoLogger{logger: logger.With().Str("component", component).Logger()}
}

func (g *GeoLogger) withContext(ctx context.Context) zerolog.Logger {
	logCtx := g.logger.With()
	if id := CorrelationIDFromContext(ctx); id != "" {
		logCtx = logCtx.Str("correlation_id", id)
	}
	if id := RequestIDFromContext(ctx); id != "" {
		logCtx = logCtx.Str("request_id", id)
	}
	return logCtx.Logger()
}

// Logger exposes the underlying zerolog logger for ad-hoc entries.
func (g *GeoLogger) Logger(ctx context.Context) zerolog.Logger {
	return g.withContext(ctx)
}

// LogTransition logs a transition callback received from the host capability.
func (g *GeoLogger) LogTransition(ctx context.Context, event string, triggered int) {
	l := g.withContext(ctx)
	l.Debug().Str("event", event).Int("triggered_ids", triggered).Msg("transition received")
}

// LogCampaignSkipped logs a campaign that was excluded during resolution.
func (g *GeoLogger) LogCampaignSkipped(ctx context.Context, campaignID, reason string) {
	l := g.withContext(ctx)
	l.Debug().Str("campaign_id", campaignID).Str("reason", reason).Msg("campaign skipped")
}

// LogParseFailure logs a stored record that could not be decoded.
func (g *GeoLogger) LogParseFailure(ctx context.Context, messageID string, err error) {
	l := g.withContext(ctx)
	l.Error().Err(err).Str("message_id", messageID).Msg("failed to parse campaign from message")
}

// LogBatchSubmitted logs a successful batch submission.
func (g *GeoLogger) LogBatchSubmitted(ctx context.Context, reports, broadcast int, duration time.Duration) {
	l := g.withContext(ctx)
	l.Info().
		Int("reports", reports).
		Int("broadcast", broadcast).
		Dur("duration", duration).
		Msg("geo events reported")
}

// LogBatchRequeued logs a failed batch that went back onto the queue.
func (g *GeoLogger) LogBatchRequeued(ctx context.Context, reports int, err error) {
	l := g.withContext(ctx)
	l.Warn().Err(err).Int("reports", reports).Msg("geo event reporting failed, events requeued")
}

// LogRecovery logs the outcome of a consistency recovery run.
func (g *GeoLogger) LogRecovery(ctx context.Context, kind string, campaigns, areas int) {
	l := g.withContext(ctx)
	l.Info().
		Str("kind", kind).
		Int("campaigns", campaigns).
		Int("areas", areas).
		Msg("monitored areas re-registered")
}
