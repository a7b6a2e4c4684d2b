// RetailScope - Retail Transaction Analytics and Segmentation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailscope

package config

import "time"

// Config is the complete application configuration shared by cmd/server and
// cmd/train. Field tags name the koanf paths used by YAML files and the
// environment mapping in koanf.go.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Data      DataConfig      `koanf:"data"`
	Artifacts ArtifactsConfig `koanf:"artifacts"`
	Training  TrainingConfig  `koanf:"training"`
	Cache     CacheConfig     `koanf:"cache"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig controls the HTTP serving process.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	Timeout         time.Duration `koanf:"timeout"`          // per-request handler timeout
	ReadTimeout     time.Duration `koanf:"read_timeout"`     // http.Server ReadTimeout
	WriteTimeout    time.Duration `koanf:"write_timeout"`    // http.Server WriteTimeout
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"` // graceful shutdown budget
	CORSOrigins     []string      `koanf:"cors_origins"`
	RateLimitReqs   int           `koanf:"rate_limit_reqs"` // per-IP requests per window on prediction routes
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
	RateLimitOff    bool          `koanf:"rate_limit_disabled"`
}

// Data source kinds.
const (
	SourceCSV    = "csv"
	SourceDuckDB = "duckdb"
)

// DataConfig points at the transaction dataset.
type DataConfig struct {
	Source       string `koanf:"source"` // csv or duckdb
	Path         string `koanf:"path"`   // CSV file path
	DuckDBPath   string `koanf:"duckdb_path"`
	DuckDBTable  string `koanf:"duckdb_table"`
	ParseWorkers int    `koanf:"parse_workers"` // 0 = runtime.NumCPU()
	BatchSize    int    `koanf:"batch_size"`
}

// ArtifactsConfig locates the artifact store.
type ArtifactsConfig struct {
	Dir            string        `koanf:"dir"`
	KeepReleases   int           `koanf:"keep_releases"`
	ReloadInterval time.Duration `koanf:"reload_interval"` // 0 disables the watcher
	ReloadBurst    int           `koanf:"reload_burst"`
}

// TrainingConfig mirrors the train command flags plus algorithm knobs.
type TrainingConfig struct {
	NClusters        int    `koanf:"n_clusters"`
	NClustersClients int    `koanf:"n_clusters_clients"` // 0 = same as NClusters
	ClusterType      string `koanf:"cluster_type"`

	SkipPrediction         bool `koanf:"skip_prediction"`
	SkipClustering         bool `koanf:"skip_clustering"`
	SkipProductsClustering bool `koanf:"skip_products_clustering"`
	SkipClientsClustering  bool `koanf:"skip_clients_clustering"`

	Seed           int64   `koanf:"seed"`
	Trees          int     `koanf:"trees"`
	MaxDepth       int     `koanf:"max_depth"` // 0 = unlimited
	MinSamplesLeaf int     `koanf:"min_samples_leaf"`
	TestFraction   float64 `koanf:"test_fraction"`
	Workers        int     `koanf:"workers"` // 0 = runtime.NumCPU()

	KMeansRestarts  int     `koanf:"kmeans_restarts"`
	KMeansMaxIter   int     `koanf:"kmeans_max_iter"`
	KMeansTolerance float64 `koanf:"kmeans_tolerance"`
}

// CacheConfig tunes the dashboard query cache.
type CacheConfig struct {
	TTL        time.Duration `koanf:"ttl"`
	PersistDir string        `koanf:"persist_dir"` // empty disables the Badger snapshot store
}

// LoggingConfig configures internal/logging.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// ClientClusters returns the effective k for the client view.
func (t *TrainingConfig) ClientClusters() int {
	if t.NClustersClients > 0 {
		return t.NClustersClients
	}
	return t.NClusters
}
