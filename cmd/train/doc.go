// RetailScope - Retail Transaction Analytics and Segmentation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailscope

/*
Package main is the offline training job.

It loads the transaction dataset, fits the revenue forest and the clustering
views, and publishes them as a new artifact release. A running server picks
the release up through its artifact watcher.

# Flags

Flags override the loaded configuration only when given:

	--config                     YAML config file (default: CONFIG_PATH or DefaultConfigPaths)
	--n-clusters                 k for the product view (default 5)
	--n-clusters-clientes        k for the client view (default: --n-clusters)
	--cluster-type               productos, rentabilidad, cantidad or clientes
	--skip-prediction            do not fit the revenue forest
	--skip-clustering            do not fit any clustering view
	--skip-clustering-productos  do not fit the product view
	--skip-clustering-clientes   do not fit the client view

The run report is printed to stdout as JSON. Logs go to stderr. The exit
status is 1 when the run fails and 2 on invalid flags.

# Example Usage

	./retailscope-train --cluster-type cantidad --n-clusters 8
*/
package main
