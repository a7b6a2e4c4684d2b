// RetailScope - Retail Transaction Analytics and Segmentation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailscope

/*
Package supervisor runs the server's long-lived services under suture v4.

	RootSupervisor ("retailscope")
	├── ModelSupervisor ("model-layer")
	│   └── ArtifactWatcherService (if ARTIFACTS_RELOAD_INTERVAL > 0)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

Crashed services restart with suture's backoff. Layers restart
independently: a failing watcher never interrupts the HTTP listener, which
keeps serving the last published bundle.

Supervisor events are logged through sutureslog into the zerolog-backed
slog logger from logging.NewSlogLogger.

Usage:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
	    ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	tree.AddModelService(services.NewArtifactWatcher(holder, loader.Probe, watcherCfg, logger))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	err = tree.Serve(ctx)

Services live in the services subpackage.
*/
package supervisor
