// RetailScope - Retail Transaction Analytics and Segmentation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailscope

/*
Package services adapts server components to suture.Service.

HTTPServerService translates http.Server's blocking ListenAndServe into a
context-aware Serve with graceful Shutdown.

ArtifactWatcher polls a fingerprint probe and reloads the serving bundle
when a new release is published or the dataset file changes. Reloads are
throttled with golang.org/x/time/rate so a flapping release or a dataset
rewritten in a loop cannot cause a reload storm. A failed reload keeps the
previous bundle and is retried on a later tick.
*/
package services
