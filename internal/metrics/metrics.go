// RetailScope - Retail Transaction Analytics and Segmentation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailscope

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Dataset ingestion
	DatasetRowsLoaded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retailscope_dataset_rows_loaded_total",
			Help: "Transaction rows loaded, by source",
		},
		[]string{"source"},
	)

	DatasetRowsRepaired = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retailscope_dataset_rows_repaired_total",
			Help: "Rows loaded with neutral defaults, by defect",
		},
		[]string{"defect"}, // "bad_date", "bad_number", "short_row"
	)

	DatasetLoadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "retailscope_dataset_load_duration_seconds",
			Help:    "Time to load and derive the transaction table",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"source"},
	)

	// Training pipeline
	TrainingStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "retailscope_training_stage_duration_seconds",
			Help:    "Duration of each training stage",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"stage"},
	)

	TrainingRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retailscope_training_runs_total",
			Help: "Training runs by outcome",
		},
		[]string{"outcome"},
	)

	ForestR2 = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "retailscope_forest_r2",
			Help: "Coefficient of determination of the revenue regressor",
		},
		[]string{"partition"}, // "train", "test"
	)

	ClusterInertia = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "retailscope_cluster_inertia",
			Help: "Within-cluster sum of squares of the last fit, by view",
		},
		[]string{"view"},
	)

	SanitizedValues = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retailscope_sanitized_values_total",
			Help: "Non-finite feature values replaced by zero before clustering",
		},
		[]string{"view"},
	)

	// Serving
	PredictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retailscope_predictions_total",
			Help: "Predictions served, by kind and outcome",
		},
		[]string{"kind", "outcome"}, // kind: "product", "client"
	)

	UnseenCategories = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "retailscope_unseen_category_encodings_total",
			Help: "Category labels encoded with the sentinel code because they were not seen in training",
		},
	)

	UnavailableResponses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retailscope_unavailable_responses_total",
			Help: "Requests refused because an artifact was not loaded",
		},
		[]string{"artifact"},
	)

	BundleReloads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retailscope_bundle_reloads_total",
			Help: "Artifact bundle reload attempts by outcome",
		},
		[]string{"outcome"},
	)

	BundleLoadedAt = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "retailscope_bundle_loaded_timestamp_seconds",
			Help: "Unix time at which the current artifact bundle was installed",
		},
	)

	// Dashboard cache
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retailscope_cache_hits_total",
			Help: "Dashboard cache hits, by tier",
		},
		[]string{"tier"}, // "memory", "badger"
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "retailscope_cache_misses_total",
			Help: "Dashboard queries computed from the bundle",
		},
	)

	// HTTP API
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retailscope_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "retailscope_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "retailscope_api_active_requests",
			Help: "Current number of in-flight API requests",
		},
	)
)

// RecordDatasetLoad records one completed dataset load.
func RecordDatasetLoad(source string, rows, badDates, badNumbers, shortRows int, duration time.Duration) {
	DatasetRowsLoaded.WithLabelValues(source).Add(float64(rows))
	if badDates > 0 {
		DatasetRowsRepaired.WithLabelValues("bad_date").Add(float64(badDates))
	}
	if badNumbers > 0 {
		DatasetRowsRepaired.WithLabelValues("bad_number").Add(float64(badNumbers))
	}
	if shortRows > 0 {
		DatasetRowsRepaired.WithLabelValues("short_row").Add(float64(shortRows))
	}
	DatasetLoadDuration.WithLabelValues(source).Observe(duration.Seconds())
}

// RecordTrainingStage observes the duration of one pipeline stage.
func RecordTrainingStage(stage string, duration time.Duration) {
	TrainingStageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// RecordTrainingRun counts a finished training run.
func RecordTrainingRun(err error) {
	if err != nil {
		TrainingRuns.WithLabelValues("failure").Inc()
		return
	}
	TrainingRuns.WithLabelValues("success").Inc()
}

// RecordForestScores publishes the train and test R².
func RecordForestScores(train, test float64) {
	ForestR2.WithLabelValues("train").Set(train)
	ForestR2.WithLabelValues("test").Set(test)
}

// RecordClusterFit publishes the inertia and sanitized value count of a view.
func RecordClusterFit(view string, inertia float64, sanitized int) {
	ClusterInertia.WithLabelValues(view).Set(inertia)
	if sanitized > 0 {
		SanitizedValues.WithLabelValues(view).Add(float64(sanitized))
	}
}

// RecordPrediction counts a prediction by kind ("product", "client") and
// outcome ("ok", "not_found", "unavailable", "error").
func RecordPrediction(kind, outcome string) {
	PredictionsTotal.WithLabelValues(kind, outcome).Inc()
}

// RecordUnseenCategory counts one sentinel encoding.
func RecordUnseenCategory() {
	UnseenCategories.Inc()
}

// RecordUnavailable counts a refusal caused by a missing artifact.
func RecordUnavailable(artifact string) {
	UnavailableResponses.WithLabelValues(artifact).Inc()
}

// RecordBundleReload counts a reload and, on success, stamps the load time.
func RecordBundleReload(err error) {
	if err != nil {
		BundleReloads.WithLabelValues("failure").Inc()
		return
	}
	BundleReloads.WithLabelValues("success").Inc()
	BundleLoadedAt.Set(float64(time.Now().Unix()))
}

// RecordCacheHit counts a dashboard cache hit on tier.
func RecordCacheHit(tier string) {
	CacheHits.WithLabelValues(tier).Inc()
}

// RecordCacheMiss counts a dashboard cache miss.
func RecordCacheMiss() {
	CacheMisses.Inc()
}

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest moves the in-flight gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}
