// RetailScope - Retail Transaction Analytics and Segmentation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailscope

/*
Package metrics exposes Prometheus instrumentation for RetailScope.

Collectors are package-level promauto values registered on the default
registry; callers use the Record* helpers rather than touching the vectors.

# Families

  - retailscope_dataset_*: rows loaded and repaired, load latency
  - retailscope_training_*, retailscope_forest_r2, retailscope_cluster_inertia:
    offline job progress and fit diagnostics
  - retailscope_predictions_total, retailscope_unseen_category_encodings_total,
    retailscope_unavailable_responses_total: serving outcomes
  - retailscope_bundle_*: artifact reloads
  - retailscope_cache_*: dashboard cache efficiency
  - retailscope_api_*: HTTP latency and throughput

The server exposes the registry at /metrics:

	curl http://localhost:5000/metrics
*/
package metrics
