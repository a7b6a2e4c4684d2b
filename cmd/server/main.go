// RetailScope - Retail Transaction Analytics and Segmentation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailscope

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/retailscope/internal/api"
	"github.com/tomtom215/retailscope/internal/artifacts"
	"github.com/tomtom215/retailscope/internal/cache"
	"github.com/tomtom215/retailscope/internal/config"
	"github.com/tomtom215/retailscope/internal/dataset"
	"github.com/tomtom215/retailscope/internal/logging"
	"github.com/tomtom215/retailscope/internal/middleware"
	"github.com/tomtom215/retailscope/internal/serving"
	"github.com/tomtom215/retailscope/internal/supervisor"
	"github.com/tomtom215/retailscope/internal/supervisor/services"
)

const (
	latencyWindow    = 2048
	slowRequest      = 2 * time.Second
	cacheCleanup     = time.Minute
	initialLoadLimit = 5 * time.Minute
)

//nolint:gocyclo // main wires every component in order
func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})

	logging.Info().
		Str("data_source", cfg.Data.Source).
		Str("artifacts_dir", cfg.Artifacts.Dir).
		Msg("Starting RetailScope with supervisor tree")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Query cache
	var disk *cache.SnapshotStore
	if cfg.Cache.PersistDir != "" {
		disk, err = cache.OpenSnapshotStore(cfg.Cache.PersistDir, cfg.Cache.TTL)
		if err != nil {
			logging.Fatal().Err(err).Str("dir", cfg.Cache.PersistDir).Msg("Failed to open cache snapshot store")
		}
		logging.Info().Str("dir", cfg.Cache.PersistDir).Msg("Cache snapshot store opened")
	}
	queryCache := cache.NewTiered(cache.NewWithCleanup(cfg.Cache.TTL, cacheCleanup), disk, logging.WithComponent("cache"))
	defer func() {
		if err := queryCache.Close(); err != nil {
			logging.Error().Err(err).Msg("Failed to close query cache")
		}
	}()

	// Bundle
	store, err := artifacts.NewStore(cfg.Artifacts.Dir)
	if err != nil {
		logging.Fatal().Err(err).Str("dir", cfg.Artifacts.Dir).Msg("Failed to open artifact store")
	}
	loader := serving.LoaderConfig{
		Source: dataset.SourceFromConfig(cfg.Data),
		Store:  store,
	}
	bundleLogger := logging.WithComponent("bundle")
	holder := serving.NewHolder(func(ctx context.Context) (*serving.Bundle, error) {
		return serving.LoadBundle(ctx, loader, bundleLogger)
	}, bundleLogger)

	loadCtx, cancelLoad := context.WithTimeout(ctx, initialLoadLimit)
	if b, err := holder.Reload(loadCtx); err != nil {
		logging.Warn().Err(err).Msg("Initial bundle load failed, serving without artifacts until the next reload")
	} else {
		logging.Info().
			Str("release", b.Release).
			Int("rows", len(b.Rows)).
			Msg("Initial bundle loaded")
	}
	cancelLoad()

	svc := serving.NewService(holder, queryCache, logging.WithComponent("serving"))

	// HTTP server
	latency := middleware.NewLatencyMonitor(latencyWindow, slowRequest, logging.WithComponent("latency"))
	handler := api.NewHandler(svc, latency)
	mw := api.NewChiMiddleware(api.ChiMiddlewareConfigFrom(cfg.Server))
	router := api.NewRouter(handler, mw, latency, cfg.Server.Timeout)

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router.Setup(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       2 * cfg.Server.WriteTimeout,
	}

	// Supervisor tree
	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	if cfg.Artifacts.ReloadInterval > 0 {
		tree.AddModelService(services.NewArtifactWatcher(holder, loader.Probe, services.WatcherConfig{
			Interval: cfg.Artifacts.ReloadInterval,
			Burst:    cfg.Artifacts.ReloadBurst,
		}, logging.WithComponent("watcher")))
		logging.Info().Dur("interval", cfg.Artifacts.ReloadInterval).Msg("Artifact watcher added to supervisor tree")
	}
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server added to supervisor tree")

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Shutdown signal received, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
		stop()
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, s := range unstopped {
			logging.Warn().Str("service", s.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("RetailScope stopped gracefully")
}
