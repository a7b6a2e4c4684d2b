// RetailScope - Retail Transaction Analytics and Segmentation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailscope

/*
Package main is the entry point for the RetailScope API server.

The server loads the transaction dataset together with the latest artifact
release written by cmd/train and serves dashboard aggregations, cluster views
and revenue predictions over a JSON REST API.

# Application Architecture

Long-running components run under a Suture v4 supervisor tree:

	RootSupervisor ("retailscope")
	├── ModelSupervisor ("model-layer")
	│   └── ArtifactWatcher (reloads the bundle when a release or the dataset changes)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

Startup order:

 1. Configuration: defaults, optional YAML file and environment (Koanf v2)
 2. Logging: zerolog, JSON or console
 3. Query cache: in-memory TTL cache with an optional Badger snapshot tier
 4. Bundle: dataset plus the current release, loaded once before serving
 5. HTTP server: chi router with CORS, rate limiting and Prometheus metrics
 6. Supervisor tree: watcher and HTTP server

A missing dataset or release does not stop the server. Endpoints that need the
missing piece answer 503 until a later reload supplies it.

# Signal Handling

SIGINT and SIGTERM cancel the root context. The HTTP server drains in-flight
requests within server.shutdown_timeout and the cache is closed afterwards.

# Example Usage

	export DATA_PATH=/data/SUPERMERCADO_500_000_ESPAÑOL.csv
	export ARTIFACTS_DIR=/data/models
	./retailscope-server

With a config file:

	CONFIG_PATH=/etc/retailscope/config.yaml ./retailscope-server
*/
package main
