// RetailScope - Retail Transaction Analytics and Segmentation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailscope

/*
Package api exposes the serving adapter over HTTP using the chi router.

Endpoints (all JSON, wrapped in the {success, data, error, metadata} envelope):

	GET  /api/v1/health                   liveness, uptime and artifact status
	GET  /api/v1/health/ready             503 until the dataset is loaded
	GET  /api/v1/health/latency           per-route latency percentiles
	GET  /api/v1/dashboard/stats          global KPIs
	GET  /api/v1/dashboard/top-products   ?limit=N, default 20
	GET  /api/v1/dashboard/categories
	GET  /api/v1/dashboard/top-clients    ?limit=N, default 20
	GET  /api/v1/products
	GET  /api/v1/categories
	GET  /api/v1/clients
	GET  /api/v1/clusters/products        ?cluster=N
	GET  /api/v1/clusters/clients         ?cluster=N
	POST /api/v1/predict
	POST /api/v1/predict/client
	POST /api/v1/admin/reload
	GET  /metrics                         Prometheus exposition

Serving errors map to status codes in one place, writeServiceError:
a missing artifact is 503 SERVICE_UNAVAILABLE with a training hint, an
unknown client or cluster is 404 NOT_FOUND and an invalid body is 400
VALIDATION_ERROR.

Read endpoints carry an ETag derived from the published bundle fingerprint
and the request URI, so dashboards polling an unchanged release get 304.
*/
package api
