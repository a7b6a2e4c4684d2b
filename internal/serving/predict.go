// RetailScope - Retail Transaction Analytics and Segmentation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailscope

package serving

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/tomtom215/retailscope/internal/dataset"
	"github.com/tomtom215/retailscope/internal/logging"
	"github.com/tomtom215/retailscope/internal/metrics"
)

// Prediction kinds for metrics.
const (
	KindProduct = "product"
	KindClient  = "client"
)

// MonthlyDays scales a per-event client prediction into a monthly projection.
const MonthlyDays = 30

// Prediction is the result of a product prediction.
type Prediction struct {
	PredictedRevenue float64 `json:"prediccion_ingresos"`
	ExpectedRevenue  float64 `json:"ingresos_esperados"`
	ProfitScore      float64 `json:"rentabilidad_score"`
	Quantity         float64 `json:"cantidad"`
	UnitPrice        float64 `json:"precio_unitario"`
	Category         string  `json:"categoria"`
	CategoryCode     int     `json:"categoria_codigo"`
	Product          string  `json:"producto"`
	Release          string  `json:"release,omitempty"`
	Trace            Trace   `json:"trace"`
}

// ClientMetrics summarizes a client's history.
type ClientMetrics struct {
	Purchases        int     `json:"total_compras"`
	Revenue          float64 `json:"ingresos_totales"`
	Quantity         float64 `json:"cantidad_total"`
	UniqueProducts   int     `json:"productos_unicos"`
	UniqueCategories int     `json:"categorias_unicas"`
	MeanPrice        float64 `json:"precio_promedio"`
	MeanRevenue      float64 `json:"ingreso_promedio"`
}

// ClientPrediction is the result of a client prediction.
type ClientPrediction struct {
	ClientID          string        `json:"client_id"`
	Metrics           ClientMetrics `json:"metricas"`
	DailyRevenue      float64       `json:"prediccion_ingresos_diarios"`
	MonthlyProjection float64       `json:"proyeccion_mensual"`
	PreferredCategory string        `json:"categoria_preferida"`
	Release           string        `json:"release,omitempty"`
	Trace             Trace         `json:"trace"`
}

// Predict estimates revenue for a partial product request.
func (s *Service) Predict(ctx context.Context, req PredictRequest) (*Prediction, error) {
	b := s.holder.Current()
	if b == nil || b.Forest == nil {
		return nil, s.unavailable(KindProduct, ArtifactRegressor)
	}

	fv, tr, err := Reconstruct(b, req, s.now())
	if err != nil {
		return nil, s.fail(KindProduct, err)
	}
	pred, err := b.Forest.Predict(fv.Values())
	if err != nil {
		return nil, s.fail(KindProduct, fmt.Errorf("predict: %w", err))
	}
	s.noteTrace(ctx, tr, fv.Category)

	expected := fv.Quantity * fv.UnitPrice
	score := 0.0
	if expected > 0 {
		score = pred / expected * 100
	}

	metrics.RecordPrediction(KindProduct, "ok")
	return &Prediction{
		PredictedRevenue: pred,
		ExpectedRevenue:  expected,
		ProfitScore:      score,
		Quantity:         fv.Quantity,
		UnitPrice:        fv.UnitPrice,
		Category:         fv.Category,
		CategoryCode:     fv.CategoryCode,
		Product:          req.Product,
		Release:          b.Release,
		Trace:            tr,
	}, nil
}

// PredictClient projects a client's revenue from the mean of their history.
func (s *Service) PredictClient(ctx context.Context, clientID string) (*ClientPrediction, error) {
	b := s.holder.Current()
	if b == nil || b.Forest == nil {
		return nil, s.unavailable(KindClient, ArtifactRegressor)
	}
	if !b.HasDataset() {
		return nil, s.unavailable(KindClient, ArtifactDataset)
	}

	id := dataset.NormalizeID(clientID)
	idx := b.Index.ClientRows(id)
	if id == "" || len(idx) == 0 {
		metrics.RecordPrediction(KindClient, "not_found")
		return nil, &NotFoundError{Kind: "client", ID: clientID}
	}

	m, meanQty, preferred := clientHistory(b.Rows, idx)
	fv, tr, err := clientVector(b, meanQty, m.MeanPrice, preferred, s.now())
	if err != nil {
		return nil, s.fail(KindClient, err)
	}
	pred, err := b.Forest.Predict(fv.Values())
	if err != nil {
		return nil, s.fail(KindClient, fmt.Errorf("predict: %w", err))
	}
	s.noteTrace(ctx, tr, fv.Category)

	metrics.RecordPrediction(KindClient, "ok")
	return &ClientPrediction{
		ClientID:          id,
		Metrics:           m,
		DailyRevenue:      pred,
		MonthlyProjection: pred * MonthlyDays,
		PreferredCategory: preferred,
		Release:           b.Release,
		Trace:             tr,
	}, nil
}

// clientHistory aggregates the rows at idx. The preferred category is the
// most frequent one, the lexicographically smallest among ties.
func clientHistory(rows []dataset.Transaction, idx []int) (ClientMetrics, float64, string) {
	var (
		m          ClientMetrics
		qty, price float64
		products   = make(map[string]struct{})
		categories = make(map[string]int)
	)
	for _, i := range idx {
		tx := &rows[i]
		m.Revenue += tx.Revenue
		qty += tx.Quantity
		price += tx.UnitPrice
		products[tx.ProductCode] = struct{}{}
		categories[tx.Category]++
	}

	n := float64(len(idx))
	m.Purchases = len(idx)
	m.Quantity = qty
	m.UniqueProducts = len(products)
	m.UniqueCategories = len(categories)
	m.MeanPrice = price / n
	m.MeanRevenue = m.Revenue / n

	names := make([]string, 0, len(categories))
	for c := range categories {
		names = append(names, c)
	}
	sort.Strings(names)
	preferred, best := "", -1
	for _, c := range names {
		if categories[c] > best {
			preferred, best = c, categories[c]
		}
	}
	return m, qty / n, preferred
}

func (s *Service) noteTrace(ctx context.Context, tr Trace, category string) {
	if !tr.UnseenCategory() {
		return
	}
	metrics.RecordUnseenCategory()
	logging.Ctx(ctx).Debug().Str("category", category).Msg("Category not in encoder; using sentinel code")
}

func (s *Service) unavailable(kind, artifact string) error {
	metrics.RecordUnavailable(artifact)
	metrics.RecordPrediction(kind, "unavailable")
	return unavailable(artifact)
}

func (s *Service) fail(kind string, err error) error {
	var ue *UnavailableError
	if errors.As(err, &ue) {
		return s.unavailable(kind, ue.Artifact)
	}
	metrics.RecordPrediction(kind, "error")
	return err
}
