// RetailScope - Retail Transaction Analytics and Segmentation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailscope

/*
Package config loads RetailScope configuration with Koanf v2.

# Sources

Configuration is layered, later sources overriding earlier ones:

 1. Built-in defaults (defaultConfig)
 2. A YAML file: the --config flag, CONFIG_PATH, or config.yaml in the
    working directory
 3. Environment variables from the explicit envMappings table

# Environment Variables

Server:
  - HTTP_HOST, HTTP_PORT (default: 5000), HTTP_TIMEOUT
  - CORS_ORIGINS: comma-separated list (default: *)
  - RATE_LIMIT_REQUESTS, RATE_LIMIT_WINDOW, DISABLE_RATE_LIMIT

Data:
  - DATA_SOURCE: csv or duckdb
  - DATA_PATH: transaction CSV
  - DUCKDB_PATH, DUCKDB_TABLE

Artifacts:
  - ARTIFACTS_DIR (default: models)
  - ARTIFACTS_KEEP_RELEASES, ARTIFACTS_RELOAD_INTERVAL

Training:
  - N_CLUSTERS, N_CLUSTERS_CLIENTES, CLUSTER_TYPE
  - SKIP_PREDICTION, SKIP_CLUSTERING, SKIP_CLUSTERING_PRODUCTOS, SKIP_CLUSTERING_CLIENTES
  - FOREST_TREES, FOREST_MAX_DEPTH, KMEANS_RESTARTS, TRAINING_SEED

Logging:
  - LOG_LEVEL, LOG_FORMAT, LOG_CALLER
*/
package config
