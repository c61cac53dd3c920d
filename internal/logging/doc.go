// GeoCampaign - Geofence Campaign Lifecycle and Event Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocampaign

// Package logging provides centralized zerolog-based structured logging.
//
// The package wraps a process-wide zerolog logger behind level functions so
// that call sites never build their own loggers:
//
//	logging.Info().Str("campaign_id", id).Msg("Campaign registered")
//	logging.Error().Err(err).Msg("Failed to open queue")
//
// # Context
//
// HTTP middleware stores a request ID and a correlation ID in the request
// context. Ctx picks them up:
//
//	logging.Ctx(ctx).Warn().Msg("Batch requeued")
//
// Work that continues after the request returns (reporting, recovery) uses
// Detach to keep the identifiers without inheriting the request deadline.
//
// # Domain events
//
// GeoLogger logs transitions, skipped campaigns, batch outcomes and
// recovery runs with stable field names.
//
// # Supervisor integration
//
// NewSlogLogger returns an *slog.Logger backed by zerolog for sutureslog.
//
// # Configuration
//
//	logging.level   trace, debug, info, warn, error (default: info)
//	logging.format  json, console (default: json)
//	logging.caller  include caller file:line (default: false)
package logging
