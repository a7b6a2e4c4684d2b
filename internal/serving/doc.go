// RetailScope - Retail Transaction Analytics and Segmentation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailscope

/*
Package serving answers prediction, dashboard and cluster queries from a
loaded artifact bundle.

# Bundles

A Bundle is an immutable snapshot of the transactions, their lookup Index,
the category encoder, the revenue forest and both cluster tables. LoadBundle
assembles one from the dataset source and the current artifact release; any
piece may be missing, in which case the operations that need it return an
*UnavailableError.

Holder publishes bundles through an atomic pointer. Handlers read Current()
once per request. Reload builds a complete replacement before swapping it in,
so a request never sees an old scaler next to a new centroid model.

# Feature Reconstruction

Reconstruct turns a partial request into the six regressor inputs. Every
fallback lives there, and the returned Trace names the rule each field came
from:

	fv, trace, err := serving.Reconstruct(bundle, serving.PredictRequest{
		Product:  "WHITE HANGING HEART T-LIGHT HOLDER",
		Quantity: 3,
	}, time.Now())

Categories unknown to the encoder get code 0. That code is also the first
fitted label, so such requests are counted in metrics and marked in the
trace.

# Queries

Service wraps a Holder with the query operations. Dashboard and cluster
results are memoized through internal/cache under keys that include the
bundle fingerprint, and a bundle swap clears them.
*/
package serving
