// RetailScope - Retail Transaction Analytics and Segmentation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailscope

package config

import (
	"fmt"
	"strings"
)

// ClusterTypes lists the accepted values of training.cluster_type.
var ClusterTypes = []string{"productos", "rentabilidad", "cantidad", "clientes"}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateData(); err != nil {
		return err
	}
	if err := c.validateArtifacts(); err != nil {
		return err
	}
	if err := c.validateTraining(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive, got %v", c.Server.Timeout)
	}
	if !c.Server.RateLimitOff && (c.Server.RateLimitReqs <= 0 || c.Server.RateLimitWindow <= 0) {
		return fmt.Errorf("rate limit requires positive RATE_LIMIT_REQUESTS and RATE_LIMIT_WINDOW")
	}
	return nil
}

func (c *Config) validateData() error {
	switch c.Data.Source {
	case SourceCSV:
		if c.Data.Path == "" {
			return fmt.Errorf("DATA_PATH is required when DATA_SOURCE=csv")
		}
	case SourceDuckDB:
		if c.Data.DuckDBPath == "" || c.Data.DuckDBTable == "" {
			return fmt.Errorf("DUCKDB_PATH and DUCKDB_TABLE are required when DATA_SOURCE=duckdb")
		}
	default:
		return fmt.Errorf("DATA_SOURCE must be csv or duckdb, got %q", c.Data.Source)
	}
	if c.Data.ParseWorkers < 0 {
		return fmt.Errorf("DATA_PARSE_WORKERS must be >= 0, got %d", c.Data.ParseWorkers)
	}
	if c.Data.BatchSize <= 0 {
		return fmt.Errorf("DATA_BATCH_SIZE must be positive, got %d", c.Data.BatchSize)
	}
	return nil
}

func (c *Config) validateArtifacts() error {
	if c.Artifacts.Dir == "" {
		return fmt.Errorf("ARTIFACTS_DIR is required")
	}
	if c.Artifacts.KeepReleases < 1 {
		return fmt.Errorf("ARTIFACTS_KEEP_RELEASES must be >= 1, got %d", c.Artifacts.KeepReleases)
	}
	if c.Artifacts.ReloadInterval < 0 {
		return fmt.Errorf("ARTIFACTS_RELOAD_INTERVAL must be >= 0, got %v", c.Artifacts.ReloadInterval)
	}
	return nil
}

func (c *Config) validateTraining() error {
	t := &c.Training
	if t.NClusters < 1 {
		return fmt.Errorf("N_CLUSTERS must be >= 1, got %d", t.NClusters)
	}
	if t.NClustersClients < 0 {
		return fmt.Errorf("N_CLUSTERS_CLIENTES must be >= 0, got %d", t.NClustersClients)
	}
	if !isClusterType(t.ClusterType) {
		return fmt.Errorf("CLUSTER_TYPE must be one of %s, got %q", strings.Join(ClusterTypes, ", "), t.ClusterType)
	}
	if t.Trees < 1 {
		return fmt.Errorf("FOREST_TREES must be >= 1, got %d", t.Trees)
	}
	if t.MaxDepth < 0 || t.MinSamplesLeaf < 1 {
		return fmt.Errorf("forest requires MAX_DEPTH >= 0 and MIN_SAMPLES_LEAF >= 1")
	}
	if t.TestFraction <= 0 || t.TestFraction >= 1 {
		return fmt.Errorf("TRAINING_TEST_FRACTION must be in (0, 1), got %v", t.TestFraction)
	}
	if t.KMeansRestarts < 1 || t.KMeansMaxIter < 1 {
		return fmt.Errorf("k-means requires KMEANS_RESTARTS >= 1 and KMEANS_MAX_ITER >= 1")
	}
	if t.KMeansTolerance < 0 {
		return fmt.Errorf("KMEANS_TOLERANCE must be >= 0, got %v", t.KMeansTolerance)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic", "disabled":
	default:
		return fmt.Errorf("LOG_LEVEL %q is not a valid level", c.Logging.Level)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

func isClusterType(s string) bool {
	for _, ct := range ClusterTypes {
		if s == ct {
			return true
		}
	}
	return false
}
