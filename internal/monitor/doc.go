// GeoCampaign - Geofence Campaign Lifecycle and Event Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocampaign

// Package monitor defines the contract with the host proximity monitoring
// capability and provides an in-process Registry implementing it.
//
// The registry does no geodesic work. It keeps the set of areas the host is
// expected to watch, enforces the host's region capacity and exposes the set
// for inspection; the host reports transitions back through the API.
//
// Registrations carry an expiry. Expired areas are hidden from Registered
// and pruned before the next Register so they stop consuming capacity.
// While the capability is switched off with SetAvailable(false), every
// mutating call returns ErrUnavailable.
//
//	registry := monitor.NewRegistry(100)
//	err := registry.Register(ctx, campaign.ValidAreas(), expiry)
//	if errors.Is(err, monitor.ErrCapacityExceeded) {
//		// the areas that fit stay registered
//	}
package monitor
