// RetailScope - Retail Transaction Analytics and Segmentation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailscope

package serving

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog"

	"github.com/tomtom215/retailscope/internal/artifacts"
	"github.com/tomtom215/retailscope/internal/cluster"
	"github.com/tomtom215/retailscope/internal/dataset"
	"github.com/tomtom215/retailscope/internal/features"
	"github.com/tomtom215/retailscope/internal/regress"
)

// ClusterSet is a cluster table with the model that produced it. Model may be
// nil for tables published without one.
type ClusterSet struct {
	Table *artifacts.ClusterTable
	Model *cluster.Model
}

// Bundle is an immutable snapshot of everything the request path reads.
// Any field may be nil when its artifact is missing; operations that need it
// return an UnavailableError.
type Bundle struct {
	ReleaseID   string // manifest uuid, empty without a release
	Release     string // release directory name, e.g. "r3"
	Fingerprint string // release plus dataset identity, used in cache keys
	LoadedAt    time.Time

	Rows     []dataset.Transaction
	Index    *Index
	Encoder  *features.Encoder
	Forest   *regress.Forest
	Products *ClusterSet
	Clients  *ClusterSet
}

// HasDataset reports whether transactions are loaded.
func (b *Bundle) HasDataset() bool { return b != nil && b.Rows != nil }

// Status lists which artifacts are loaded.
func (b *Bundle) Status() map[string]bool {
	if b == nil {
		return map[string]bool{
			ArtifactDataset: false, ArtifactRegressor: false, ArtifactEncoder: false,
			ArtifactProductCluster: false, ArtifactClientCluster: false,
		}
	}
	return map[string]bool{
		ArtifactDataset:        b.Rows != nil,
		ArtifactRegressor:      b.Forest != nil,
		ArtifactEncoder:        b.Encoder != nil,
		ArtifactProductCluster: b.Products != nil,
		ArtifactClientCluster:  b.Clients != nil,
	}
}

// LoaderConfig tells LoadBundle where to look.
type LoaderConfig struct {
	Source dataset.Source
	Store  *artifacts.Store
}

// LoadBundle assembles a bundle from the dataset and the current release.
// Missing or unreadable pieces are logged and left nil so serving can start
// without a trained release. Only context cancellation is returned as an error.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func LoadBundle(ctx context.Context, cfg LoaderConfig, logger zerolog.Logger) (*Bundle, error) {
	b := &Bundle{LoadedAt: time.Now()}

	rows, _, err := dataset.Load(ctx, cfg.Source, logger)
	switch {
	case err == nil:
		b.Rows = rows
		b.Index = BuildIndex(rows)
	case ctx.Err() != nil:
		return nil, ctx.Err()
	default:
		logger.Warn().Err(err).Str("path", sourcePath(cfg.Source)).Msg("Dataset not loaded; dashboard endpoints unavailable")
	}

	if cfg.Store != nil {
		if err := loadRelease(ctx, cfg.Store, b, logger); err != nil {
			return nil, err
		}
	}

	b.Fingerprint = fingerprint(b.ReleaseID, cfg.Source)
	return b, nil
}

// Probe returns the fingerprint LoadBundle would produce now. It reads only
// the current manifest and stats the dataset file.
func (c LoaderConfig) Probe(context.Context) (string, error) {
	var id string
	if c.Store != nil {
		rel, err := c.Store.OpenCurrent()
		switch {
		case err == nil:
			id = rel.Manifest.ReleaseID
		case !errors.Is(err, artifacts.ErrNoRelease):
			return "", err
		}
	}
	return fingerprint(id, c.Source), nil
}

func loadRelease(ctx context.Context, store *artifacts.Store, b *Bundle, logger zerolog.Logger) error {
	rel, err := store.OpenCurrent()
	if errors.Is(err, artifacts.ErrNoRelease) {
		logger.Warn().Str("dir", store.Dir()).Msg("No published release; " + TrainingHint)
		return nil
	}
	if err != nil {
		logger.Error().Err(err).Msg("Failed to open current release")
		return nil
	}
	b.ReleaseID = rel.Manifest.ReleaseID
	b.Release = rel.Name()
	log := logger.With().Str("release", b.Release).Logger()

	if rel.Has(artifacts.KindRegressor) {
		var f regress.Forest
		if err := rel.Load(ctx, artifacts.KindRegressor, &f); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Error().Err(err).Msg("Regressor not loaded")
		} else {
			b.Forest = &f
		}
	}
	if rel.Has(artifacts.KindEncoder) {
		enc := &features.Encoder{}
		if err := rel.Load(ctx, artifacts.KindEncoder, enc); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Error().Err(err).Msg("Encoder not loaded")
		} else {
			b.Encoder = enc
		}
	}

	var err2 error
	if b.Products, err2 = loadClusterSet(ctx, rel, artifacts.KindProductTable, log); err2 != nil {
		return err2
	}
	if b.Clients, err2 = loadClusterSet(ctx, rel, artifacts.KindClientTable, log); err2 != nil {
		return err2
	}

	log.Info().
		Bool("regressor", b.Forest != nil).
		Bool("encoder", b.Encoder != nil).
		Bool("product_clusters", b.Products != nil).
		Bool("client_clusters", b.Clients != nil).
		Msg("Release loaded")
	return nil
}

// loadClusterSet reads a cluster table and, when present, its model and
// scaler. A broken model does not discard the table.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func loadClusterSet(ctx context.Context, rel *artifacts.Release, kind string, log zerolog.Logger) (*ClusterSet, error) {
	if !rel.Has(kind) {
		return nil, nil
	}
	table, err := rel.LoadTable(ctx, kind)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Error().Err(err).Str("artifact", kind).Msg("Cluster table not loaded")
		return nil, nil
	}
	set := &ClusterSet{Table: table}

	modelKind := artifacts.KindClusters(table.View)
	scalerKind := artifacts.KindScaler(table.View)
	if !rel.Has(modelKind) || !rel.Has(scalerKind) {
		return set, nil
	}
	var model cluster.Model
	var scaler cluster.Scaler
	if err := rel.Load(ctx, modelKind, &model); err != nil {
		log.Warn().Err(err).Str("artifact", modelKind).Msg("Cluster model not loaded")
		return set, ctx.Err()
	}
	if err := rel.Load(ctx, scalerKind, &scaler); err != nil {
		log.Warn().Err(err).Str("artifact", scalerKind).Msg("Cluster scaler not loaded")
		return set, ctx.Err()
	}
	model.Scaler = &scaler
	set.Model = &model
	return set, nil
}

func sourcePath(src dataset.Source) string {
	if src.Kind == dataset.KindDuckDB {
		return src.DuckDBPath
	}
	return src.Path
}

// fingerprint identifies the release and the dataset file version.
func fingerprint(releaseID string, src dataset.Source) string {
	path := sourcePath(src)
	id := path
	if info, err := os.Stat(path); err == nil {
		id = fmt.Sprintf("%s|%d|%d", path, info.Size(), info.ModTime().UnixNano())
	}
	if releaseID == "" {
		releaseID = "none"
	}
	return fmt.Sprintf("%s-%016x", releaseID, xxhash.Sum64String(id))
}
