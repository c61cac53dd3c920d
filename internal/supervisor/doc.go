// GeoCampaign - Geofence Campaign Lifecycle and Event Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocampaign

/*
Package supervisor runs the long-lived parts of geocampaign under a suture v4
supervisor tree.

	RootSupervisor ("geocampaign")
	├── DataSupervisor ("data-layer")
	│   ├── queue compactor
	│   └── state GC
	├── ProcessingSupervisor ("processing-layer")
	│   ├── consistency controller
	│   └── reporting sync loop
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

A crashed service is restarted with suture's backoff; a failure in the
processing layer leaves the API serving. Supervisor events are logged through
sutureslog into the zerolog-backed slog handler.

Example:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddProcessingService(controller)
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	errCh := tree.ServeBackground(ctx)
*/
package supervisor
