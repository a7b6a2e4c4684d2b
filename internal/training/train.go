// RetailScope - Retail Transaction Analytics and Segmentation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailscope

package training

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/retailscope/internal/artifacts"
	"github.com/tomtom215/retailscope/internal/cluster"
	"github.com/tomtom215/retailscope/internal/config"
	"github.com/tomtom215/retailscope/internal/dataset"
	"github.com/tomtom215/retailscope/internal/features"
	"github.com/tomtom215/retailscope/internal/metrics"
	"github.com/tomtom215/retailscope/internal/regress"
	"github.com/tomtom215/retailscope/internal/serving"
)

// Training stages, used as metric labels.
const (
	StageLoad      = "load"
	StageEncoder   = "encoder"
	StageRegressor = "regressor"
	StageClusters  = "clusters"
	StagePublish   = "publish"
)

var (
	// ErrNothingToTrain is returned when every stage is skipped.
	ErrNothingToTrain = errors.New("every training stage is skipped")

	// ErrNoRows is returned for an empty dataset.
	ErrNoRows = errors.New("dataset has no rows")
)

// Run loads the configured dataset, trains and publishes a release.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func Run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*Report, error) {
	report, err := run(ctx, cfg, logger)
	metrics.RecordTrainingRun(err)
	return report, err
}

//nolint:gocritic // zerolog.Logger is designed to be passed by value
func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*Report, error) {
	store, err := artifacts.NewStore(cfg.Artifacts.Dir)
	if err != nil {
		return nil, err
	}

	done := stageTimer(StageLoad, logger)
	rows, _, err := dataset.Load(ctx, dataset.SourceFromConfig(cfg.Data), logger)
	done()
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}

	return NewTrainer(cfg.Training, store, cfg.Artifacts.KeepReleases, logger).Train(ctx, rows)
}

// Trainer fits every planned model on a set of transactions and publishes
// them as one release.
type Trainer struct {
	cfg    config.TrainingConfig
	store  *artifacts.Store
	keep   int
	logger zerolog.Logger
	now    func() time.Time
}

// NewTrainer creates a trainer publishing to store and keeping the newest
// keep releases. keep <= 0 disables pruning.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewTrainer(cfg config.TrainingConfig, store *artifacts.Store, keep int, logger zerolog.Logger) *Trainer {
	return &Trainer{cfg: cfg, store: store, keep: keep, logger: logger, now: time.Now}
}

// Train runs the plan derived from the training configuration. Stages that
// are skipped carry their artifacts over from the current release, so a
// partial run never drops a model serving depends on.
func (t *Trainer) Train(ctx context.Context, rows []dataset.Transaction) (report *Report, err error) {
	start := time.Now()
	plan := NewPlan(t.cfg)
	if plan.Empty() {
		return nil, ErrNothingToTrain
	}
	if len(rows) == 0 {
		return nil, ErrNoRows
	}

	t.logger.Info().
		Int("rows", len(rows)).
		Bool("prediction", plan.Prediction).
		Str("product_view", plan.ProductView).
		Int("product_k", plan.ProductK).
		Bool("clients", plan.Clients).
		Int("client_k", plan.ClientK).
		Msg("Starting training")

	prev, err := t.store.OpenCurrent()
	if err != nil {
		if !errors.Is(err, artifacts.ErrNoRelease) {
			t.logger.Warn().Err(err).Msg("Current release unreadable; skipped stages will not be carried over")
		}
		prev = nil
	}

	w, err := t.store.Begin()
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			if abortErr := w.Abort(); abortErr != nil {
				t.logger.Warn().Err(abortErr).Msg("Failed to discard staged release")
			}
		}
	}()

	report = &Report{Rows: len(rows), Plan: plan, ReleaseID: w.ReleaseID()}

	if err = t.predictionStage(ctx, w, prev, rows, plan, report); err != nil {
		return nil, err
	}

	done := stageTimer(StageClusters, t.logger)
	if plan.ProductView != "" {
		vr, fitErr := t.fitView(ctx, w, rows, plan.ProductView, plan.ProductK, artifacts.KindProductTable)
		if fitErr != nil {
			return nil, fitErr
		}
		report.Views = append(report.Views, vr)
	} else {
		report.Carried = append(report.Carried, t.carryClusters(w, prev, artifacts.KindProductTable)...)
	}
	if plan.Clients {
		vr, fitErr := t.fitView(ctx, w, rows, features.ViewClients, plan.ClientK, artifacts.KindClientTable)
		if fitErr != nil {
			return nil, fitErr
		}
		report.Views = append(report.Views, vr)
	} else {
		report.Carried = append(report.Carried, t.carryClusters(w, prev, artifacts.KindClientTable)...)
	}
	done()

	done = stageTimer(StagePublish, t.logger)
	report.Release, err = w.Commit(t.now())
	done()
	if err != nil {
		return nil, err
	}

	if t.keep > 0 {
		pruned, pruneErr := t.store.Prune(t.keep)
		if pruneErr != nil {
			t.logger.Warn().Err(pruneErr).Msg("Failed to prune old releases")
		}
		report.Pruned = pruned
	}

	report.Duration = time.Since(start)
	report.Log(t.logger)
	return report, nil
}

// predictionStage fits the encoder and forest, or carries both over. The
// encoder always travels with the forest it was trained against.
func (t *Trainer) predictionStage(ctx context.Context, w *artifacts.Writer, prev *artifacts.Release, rows []dataset.Transaction, plan Plan, report *Report) error {
	if !plan.Prediction && prev != nil && prev.Has(artifacts.KindRegressor) && prev.Has(artifacts.KindEncoder) {
		for _, kind := range []string{artifacts.KindEncoder, artifacts.KindRegressor} {
			if err := w.CopyFrom(prev, kind); err != nil {
				return fmt.Errorf("carry %s: %w", kind, err)
			}
			report.Carried = append(report.Carried, kind)
		}
		return nil
	}

	done := stageTimer(StageEncoder, t.logger)
	enc := FitEncoder(rows)
	done()
	if err := w.Put(artifacts.KindEncoder, enc, map[string]string{
		"name":    enc.Name(),
		"classes": strconv.Itoa(enc.Len()),
	}); err != nil {
		return err
	}
	if !plan.Prediction {
		return nil
	}

	done = stageTimer(StageRegressor, t.logger)
	forest, rr, err := t.fitRegressor(ctx, rows, enc)
	done()
	if err != nil {
		return fmt.Errorf("fit regressor: %w", err)
	}
	report.Regressor = &rr
	return w.Put(artifacts.KindRegressor, forest, map[string]string{
		"trees":    strconv.Itoa(len(forest.Trees)),
		"train_r2": strconv.FormatFloat(rr.TrainR2, 'f', 6, 64),
		"test_r2":  strconv.FormatFloat(rr.TestR2, 'f', 6, 64),
	})
}

// FitEncoder fits the category encoder over every row.
func FitEncoder(rows []dataset.Transaction) *features.Encoder {
	labels := make([]string, len(rows))
	for i := range rows {
		labels[i] = rows[i].Category
	}
	return features.NewEncoder(dataset.ColCategory).Fit(labels)
}

// Design builds the regressor matrix and revenue target.
func Design(rows []dataset.Transaction, enc *features.Encoder) ([][]float64, []float64) {
	x := make([][]float64, len(rows))
	y := make([]float64, len(rows))
	for i := range rows {
		tx := &rows[i]
		x[i] = regress.Vector(tx.Quantity, tx.UnitPrice, enc.Encode(tx.Category), tx.Month, tx.Weekday, tx.Hour)
		y[i] = tx.Revenue
	}
	return x, y
}

func (t *Trainer) fitRegressor(ctx context.Context, rows []dataset.Transaction, enc *features.Encoder) (*regress.Forest, RegressorReport, error) {
	x, y := Design(rows, enc)
	train, test := regress.TrainTestSplit(len(rows), t.cfg.TestFraction, t.cfg.Seed)
	xTrain, yTrain := regress.Rows(x, y, train)
	xTest, yTest := regress.Rows(x, y, test)

	forest, err := regress.Fit(ctx, xTrain, yTrain, regress.ForestConfig{
		Trees:          t.cfg.Trees,
		MaxDepth:       t.cfg.MaxDepth,
		MinSamplesLeaf: t.cfg.MinSamplesLeaf,
		Seed:           t.cfg.Seed,
		Workers:        t.cfg.Workers,
	})
	if err != nil {
		return nil, RegressorReport{}, err
	}

	rr := RegressorReport{TrainRows: len(train), TestRows: len(test), Trees: len(forest.Trees)}
	predTrain, err := forest.PredictBatch(xTrain)
	if err != nil {
		return nil, rr, err
	}
	rr.TrainR2 = regress.R2(yTrain, predTrain)
	if len(xTest) > 0 {
		predTest, err := forest.PredictBatch(xTest)
		if err != nil {
			return nil, rr, err
		}
		rr.TestR2 = regress.R2(yTest, predTest)
	}
	metrics.RecordForestScores(rr.TrainR2, rr.TestR2)
	return forest, rr, nil
}

// fitView builds one clustering view, fits k-means and stages the scaler,
// centroid model and assignment table.
func (t *Trainer) fitView(ctx context.Context, w *artifacts.Writer, rows []dataset.Transaction, name string, k int, tableKind string) (ViewReport, error) {
	view, err := features.LookupView(name)
	if err != nil {
		return ViewReport{}, err
	}
	data, err := features.Build(view, rows)
	if err != nil {
		return ViewReport{}, fmt.Errorf("build view %s: %w", name, err)
	}
	if data.Sanitized > 0 {
		t.logger.Warn().Str("view", name).Int("values", data.Sanitized).Msg("Replaced non-finite feature values with 0")
	}

	model, labels, diag, err := cluster.FitAssign(ctx, data.Matrix, cluster.KMeansConfig{
		K:         k,
		Restarts:  t.cfg.KMeansRestarts,
		MaxIter:   t.cfg.KMeansMaxIter,
		Tolerance: t.cfg.KMeansTolerance,
		Seed:      t.cfg.Seed,
		Workers:   t.cfg.Workers,
	})
	if err != nil {
		return ViewReport{}, fmt.Errorf("cluster view %s: %w", name, err)
	}
	model.View = view.Name
	model.Features = append([]string(nil), view.Features...)

	table, err := artifacts.NewClusterTable(data, labels)
	if err != nil {
		return ViewReport{}, err
	}

	meta := map[string]string{"view": view.Name, "k": strconv.Itoa(model.K())}
	stored := *model
	stored.Scaler = nil
	if err := w.Put(artifacts.KindScaler(view.Name), model.Scaler, meta); err != nil {
		return ViewReport{}, err
	}
	if err := w.Put(artifacts.KindClusters(view.Name), &stored, meta); err != nil {
		return ViewReport{}, err
	}
	if err := w.PutTable(tableKind, table); err != nil {
		return ViewReport{}, err
	}
	metrics.RecordClusterFit(view.Name, model.Inertia, data.Sanitized)

	vr := ViewReport{
		View:       view.Name,
		Features:   model.Features,
		Entities:   len(table.Rows),
		RequestedK: k,
		K:          model.K(),
		Inertia:    model.Inertia,
		Iterations: model.Iterations,
		Sanitized:  data.Sanitized,
		Summary:    serving.Summarize(table),
		Profiles:   cluster.Profiles(data.Matrix, labels, model.K()),
	}
	if diag != nil {
		vr.Diagnostic = diag.Message
		t.logger.Warn().
			Str("view", view.Name).
			Int("requested_k", diag.RequestedK).
			Int("effective_k", diag.EffectiveK).
			Msg(diag.Message)
	}
	return vr, nil
}

// carryClusters copies a cluster table and its model from prev. It returns
// the kinds carried.
func (t *Trainer) carryClusters(w *artifacts.Writer, prev *artifacts.Release, tableKind string) []string {
	if prev == nil || !prev.Has(tableKind) {
		return nil
	}
	info, _ := prev.Info(tableKind)
	kinds := []string{tableKind}
	if view := info.Meta["view"]; view != "" {
		kinds = append(kinds, artifacts.KindClusters(view), artifacts.KindScaler(view))
	}

	var carried []string
	for _, kind := range kinds {
		if !prev.Has(kind) {
			continue
		}
		if err := w.CopyFrom(prev, kind); err != nil {
			t.logger.Warn().Err(err).Str("artifact", kind).Msg("Failed to carry artifact from previous release")
			continue
		}
		carried = append(carried, kind)
	}
	return carried
}

//nolint:gocritic // zerolog.Logger is designed to be passed by value
func stageTimer(stage string, logger zerolog.Logger) func() {
	start := time.Now()
	return func() {
		elapsed := time.Since(start)
		metrics.RecordTrainingStage(stage, elapsed)
		logger.Debug().Str("stage", stage).Dur("elapsed", elapsed).Msg("Training stage finished")
	}
}
