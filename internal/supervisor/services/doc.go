// GeoCampaign - Geofence Campaign Lifecycle and Event Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocampaign

/*
Package services adapts geocampaign components to suture.Service.

Each wrapper translates a component's own lifecycle (ListenAndServe,
Start/Stop) into suture's context-aware Serve and identifies itself through
fmt.Stringer so the supervisor's event log names it.

# Available Services

HTTP Server (HTTPServerService):
  - Wraps *http.Server with graceful shutdown
  - Treats http.ErrServerClosed as a clean exit

Start/Stop components (StartStopService):
  - Drives any StartStopper: the reporting sync loop and the queue compactor
  - A Start error is returned so suture restarts the component with backoff

The consistency controller and the broadcast journal implement Serve
directly and need no wrapper.

# Usage

	tree.AddDataService(services.NewStartStopService("queue-compactor", compactor))
	tree.AddProcessingService(services.NewStartStopService("reporting-sync-loop", syncLoop))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
*/
package services
