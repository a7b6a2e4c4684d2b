// RetailScope - Retail Transaction Analytics and Segmentation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailscope

/*
Package artifacts persists the fitted objects of a training run.

# Layout

	models/
	  CURRENT                  name of the live release, swapped by rename
	  releases/
	    r1/
	      manifest.json        kind, file, sha256, size and metadata per artifact
	      regressor.gob.gz
	      encoder.gob.gz
	      scaler_rentabilidad.gob.gz
	      clusters_rentabilidad.gob.gz
	      product_clusters.csv
	      client_clusters.csv

Binary artifacts are gob encoded and gzip compressed. Cluster tables are CSV
with a header naming the key columns, the label column, the value columns
and Cluster.

# Publishing

A Writer stages files in a hidden directory. Commit writes the manifest,
renames the directory to the next r{n} and atomically replaces CURRENT, so a
reader that follows CURRENT always sees a complete release.

# Loading

Every artifact is optional. Release.Load and Release.LoadTable return
ErrArtifactNotFound when the artifact is absent and ErrChecksumMismatch when
its bytes differ from the manifest.
*/
package artifacts
