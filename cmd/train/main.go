// RetailScope - Retail Transaction Analytics and Segmentation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailscope

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/goccy/go-json"

	"github.com/tomtom215/retailscope/internal/config"
	"github.com/tomtom215/retailscope/internal/logging"
	"github.com/tomtom215/retailscope/internal/training"
)

// options holds the parsed command line. set records the flags given
// explicitly so defaults never override the config file.
type options struct {
	configPath       string
	nClusters        int
	nClustersClients int
	clusterType      string
	skipPrediction   bool
	skipClustering   bool
	skipProducts     bool
	skipClients      bool
	set              map[string]bool
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	o := &options{set: make(map[string]bool)}
	fs := flag.NewFlagSet("train", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&o.configPath, "config", "", "YAML config file")
	fs.IntVar(&o.nClusters, "n-clusters", 5, "number of clusters for the product view")
	fs.IntVar(&o.nClustersClients, "n-clusters-clientes", 0, "number of clusters for the client view (0 = --n-clusters)")
	fs.StringVar(&o.clusterType, "cluster-type", "rentabilidad", "product view: productos, rentabilidad, cantidad or clientes")
	fs.BoolVar(&o.skipPrediction, "skip-prediction", false, "skip the revenue forest")
	fs.BoolVar(&o.skipClustering, "skip-clustering", false, "skip every clustering view")
	fs.BoolVar(&o.skipProducts, "skip-clustering-productos", false, "skip the product view")
	fs.BoolVar(&o.skipClients, "skip-clustering-clientes", false, "skip the client view")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	fs.Visit(func(f *flag.Flag) { o.set[f.Name] = true })
	return o, nil
}

// apply copies the explicitly given flags onto t.
func (o *options) apply(t *config.TrainingConfig) {
	if o.set["n-clusters"] {
		t.NClusters = o.nClusters
	}
	if o.set["n-clusters-clientes"] {
		t.NClustersClients = o.nClustersClients
	}
	if o.set["cluster-type"] {
		t.ClusterType = o.clusterType
	}
	if o.set["skip-prediction"] {
		t.SkipPrediction = o.skipPrediction
	}
	if o.set["skip-clustering"] {
		t.SkipClustering = o.skipClustering
	}
	if o.set["skip-clustering-productos"] {
		t.SkipProductsClustering = o.skipProducts
	}
	if o.set["skip-clustering-clientes"] {
		t.SkipClientsClustering = o.skipClients
	}
}

func loadConfig(o *options) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if o.configPath != "" {
		cfg, err = config.LoadFile(o.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	o.apply(&cfg.Training)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid flags: %w", err)
	}
	return cfg, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	o, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	cfg, err := loadConfig(o)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})
	logger := logging.WithComponent("training")

	report, err := training.Run(ctx, cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Training failed")
		return 1
	}
	report.Log(logger)

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		logger.Error().Err(err).Msg("Failed to write report")
		return 1
	}
	return 0
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
