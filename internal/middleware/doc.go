// RetailScope - Retail Transaction Analytics and Segmentation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailscope

/*
Package middleware provides chi-compatible HTTP middleware for the API.

  - RequestID: X-Request-ID propagation into the logging context
  - PrometheusMetrics: request count, latency and in-flight gauge
  - LatencyMonitor: sliding-window per-route percentiles and slow request logs

Metric and monitor labels use the matched chi route pattern, not the raw
path, so /api/v1/clusters/products?cluster=3 and ?cluster=4 share a series.
*/
package middleware
