// RetailScope - Retail Transaction Analytics and Segmentation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailscope

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are searched in order when no explicit path is given.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/retailscope/config.yaml",
	"/etc/retailscope/config.yml",
}

// ConfigPathEnvVar overrides the config file search.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            5000,
			Timeout:         30 * time.Second,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   120,
			RateLimitWindow: time.Minute,
		},
		Data: DataConfig{
			Source:      SourceCSV,
			Path:        "SUPERMERCADO_500_000_ESPAÑOL.csv",
			DuckDBTable: "transactions",
			BatchSize:   4096,
		},
		Artifacts: ArtifactsConfig{
			Dir:            "models",
			KeepReleases:   3,
			ReloadInterval: 30 * time.Second,
			ReloadBurst:    2,
		},
		Training: TrainingConfig{
			NClusters:       5,
			ClusterType:     "rentabilidad",
			Seed:            42,
			Trees:           100,
			MinSamplesLeaf:  1,
			TestFraction:    0.2,
			KMeansRestarts:  10,
			KMeansMaxIter:   300,
			KMeansTolerance: 1e-4,
		},
		Cache: CacheConfig{
			TTL: 10 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load resolves the config file through CONFIG_PATH and DefaultConfigPaths.
func Load() (*Config, error) {
	return LoadFile(findConfigFile())
}

// LoadFile loads configuration with three layers, lowest precedence first:
//  1. built-in defaults
//  2. the YAML file at path, when path is non-empty
//  3. environment variables listed in envMappings
func LoadFile(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

var sliceConfigPaths = []string{
	"server.cors_origins",
}

// processSliceFields splits comma-separated env values for slice fields.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		s, ok := k.Get(path).(string)
		if !ok || s == "" {
			continue
		}
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		if err := k.Set(path, out); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps environment variable names (lowercased) to koanf paths.
// Unlisted variables are ignored.
var envMappings = map[string]string{
	"http_host":             "server.host",
	"http_port":             "server.port",
	"http_timeout":          "server.timeout",
	"http_read_timeout":     "server.read_timeout",
	"http_write_timeout":    "server.write_timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",
	"cors_origins":          "server.cors_origins",
	"rate_limit_requests":   "server.rate_limit_reqs",
	"rate_limit_window":     "server.rate_limit_window",
	"disable_rate_limit":    "server.rate_limit_disabled",

	"data_source":        "data.source",
	"data_path":          "data.path",
	"duckdb_path":        "data.duckdb_path",
	"duckdb_table":       "data.duckdb_table",
	"data_parse_workers": "data.parse_workers",
	"data_batch_size":    "data.batch_size",

	"artifacts_dir":             "artifacts.dir",
	"artifacts_keep_releases":   "artifacts.keep_releases",
	"artifacts_reload_interval": "artifacts.reload_interval",
	"artifacts_reload_burst":    "artifacts.reload_burst",

	"n_clusters":                "training.n_clusters",
	"n_clusters_clientes":       "training.n_clusters_clients",
	"cluster_type":              "training.cluster_type",
	"skip_prediction":           "training.skip_prediction",
	"skip_clustering":           "training.skip_clustering",
	"skip_clustering_productos": "training.skip_products_clustering",
	"skip_clustering_clientes":  "training.skip_clients_clustering",
	"training_seed":             "training.seed",
	"forest_trees":              "training.trees",
	"forest_max_depth":          "training.max_depth",
	"forest_min_samples_leaf":   "training.min_samples_leaf",
	"training_test_fraction":    "training.test_fraction",
	"training_workers":          "training.workers",
	"kmeans_restarts":           "training.kmeans_restarts",
	"kmeans_max_iter":           "training.kmeans_max_iter",
	"kmeans_tolerance":          "training.kmeans_tolerance",

	"cache_ttl":         "cache.ttl",
	"cache_persist_dir": "cache.persist_dir",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
