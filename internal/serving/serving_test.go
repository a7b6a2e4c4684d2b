// RetailScope - Retail Transaction Analytics and Segmentation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailscope

package serving

import (
	"context"
	"errors"
	"math"
	"strconv"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/tomtom215/retailscope/internal/artifacts"
	"github.com/tomtom215/retailscope/internal/cache"
	"github.com/tomtom215/retailscope/internal/cluster"
	"github.com/tomtom215/retailscope/internal/dataset"
	"github.com/tomtom215/retailscope/internal/features"
	"github.com/tomtom215/retailscope/internal/metrics"
	"github.com/tomtom215/retailscope/internal/regress"
)

// constantRevenue is what the test forest predicts for every input.
const constantRevenue = 7.0

// fixedNow is a Sunday afternoon in March.
var fixedNow = time.Date(2024, time.March, 10, 14, 30, 0, 0, time.UTC)

func tx(code, en, es, cat string, qty, price float64, client, invoice string, day int) dataset.Transaction {
	return dataset.Transaction{
		ProductCode:   code,
		DescriptionEN: en,
		DescriptionES: es,
		Category:      cat,
		Quantity:      qty,
		UnitPrice:     price,
		ClientID:      client,
		InvoiceID:     invoice,
		Date:          time.Date(2024, time.January, day, 0, 0, 0, 0, time.UTC),
		HasDate:       true,
		Hour:          10,
	}
}

func sampleRows() []dataset.Transaction {
	return dataset.Derive([]dataset.Transaction{
		tx("P1", "Apple", "Manzana", "Fruit", 2, 1.0, "100", "I1", 1),
		tx("P1", "Apple", "Manzana", "Fruit", 4, 3.0, "100", "I2", 2),
		tx("P2", "Bread", "Pan", "Bakery", 1, 2.5, "100", "I2", 2),
		tx("P3", "Milk", "Leche", "Dairy", 3, 1.5, "200", "I3", 3),
		tx("P2", "Bread", "Pan", "Bakery", 2, 2.5, "200", "I4", 5),
		tx("P4", "Cheese", "Queso", "Dairy", 1, 8.0, "300", "I5", 7),
	})
}

func testForest(t *testing.T) *regress.Forest {
	t.Helper()
	x := [][]float64{
		regress.Vector(1, 1, 0, 1, 0, 0),
		regress.Vector(2, 3, 1, 6, 3, 12),
		regress.Vector(5, 2, 2, 12, 6, 23),
	}
	y := []float64{constantRevenue, constantRevenue, constantRevenue}
	f, err := regress.Fit(context.Background(), x, y, regress.ForestConfig{Trees: 3, MinSamplesLeaf: 1, Seed: 1})
	if err != nil {
		t.Fatalf("regress.Fit() error = %v", err)
	}
	return f
}

func testBundle(t *testing.T, rows []dataset.Transaction) *Bundle {
	t.Helper()
	cats := make([]string, 0, len(rows))
	for i := range rows {
		cats = append(cats, rows[i].Category)
	}
	return &Bundle{
		ReleaseID:   "test-release",
		Release:     "r1",
		Fingerprint: "fp-1",
		LoadedAt:    fixedNow,
		Rows:        rows,
		Index:       BuildIndex(rows),
		Encoder:     features.NewEncoder(dataset.ColCategory).Fit(cats),
		Forest:      testForest(t),
	}
}

func testService(t *testing.T, b *Bundle, c *cache.Tiered) *Service {
	t.Helper()
	h := NewHolder(func(context.Context) (*Bundle, error) { return b, nil }, zerolog.Nop())
	s := NewService(h, c, zerolog.Nop()).WithClock(func() time.Time { return fixedNow })
	if b != nil {
		h.Set(b)
	}
	return s
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestReconstruct(t *testing.T) {
	b := testBundle(t, sampleRows())
	globalMean := (1.0 + 3.0 + 2.5 + 1.5 + 2.5 + 8.0) / 6

	tests := []struct {
		name      string
		req       PredictRequest
		wantPrice float64
		wantQty   float64
		wantCat   string
		trace     Trace
	}{
		{
			name:      "request values win",
			req:       PredictRequest{Product: "Apple", Category: "Dairy", Quantity: 2, UnitPrice: 5},
			wantPrice: 5, wantQty: 2, wantCat: "Dairy",
			trace: Trace{ProductMatched: true, UnitPrice: RuleRequest, Category: RuleRequest, CategoryCode: RuleEncoded, Quantity: RuleRequest},
		},
		{
			name:      "english description fills price and category",
			req:       PredictRequest{Product: "Apple", Quantity: 1},
			wantPrice: 2.0, wantQty: 1, wantCat: "Fruit",
			trace: Trace{ProductMatched: true, UnitPrice: RuleProductHistory, Category: RuleProductHistory, CategoryCode: RuleEncoded, Quantity: RuleRequest},
		},
		{
			name:      "spanish description matches",
			req:       PredictRequest{Product: "Pan"},
			wantPrice: 2.5, wantQty: 1, wantCat: "Bakery",
			trace: Trace{ProductMatched: true, UnitPrice: RuleProductHistory, Category: RuleProductHistory, CategoryCode: RuleEncoded, Quantity: RuleDefault},
		},
		{
			name:      "product code matches",
			req:       PredictRequest{Product: "P4", Quantity: 2},
			wantPrice: 8.0, wantQty: 2, wantCat: "Dairy",
			trace: Trace{ProductMatched: true, UnitPrice: RuleProductHistory, Category: RuleProductHistory, CategoryCode: RuleEncoded, Quantity: RuleRequest},
		},
		{
			name:      "unknown product uses global mean price",
			req:       PredictRequest{Product: "Unknown", Quantity: 3, UnitPrice: 0},
			wantPrice: globalMean, wantQty: 3, wantCat: "",
			trace: Trace{UnitPrice: RuleGlobalMean, Category: RuleNone, CategoryCode: RuleSentinel, Quantity: RuleRequest},
		},
		{
			name:      "unseen category gets sentinel",
			req:       PredictRequest{Category: "Electronics", Quantity: 1, UnitPrice: 4},
			wantPrice: 4, wantQty: 1, wantCat: "Electronics",
			trace: Trace{UnitPrice: RuleRequest, Category: RuleRequest, CategoryCode: RuleSentinel, Quantity: RuleRequest},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fv, tr, err := Reconstruct(b, tt.req, fixedNow)
			if err != nil {
				t.Fatalf("Reconstruct() error = %v", err)
			}
			if !approx(fv.UnitPrice, tt.wantPrice) {
				t.Errorf("UnitPrice = %v, want %v", fv.UnitPrice, tt.wantPrice)
			}
			if fv.Quantity != tt.wantQty {
				t.Errorf("Quantity = %v, want %v", fv.Quantity, tt.wantQty)
			}
			if fv.Category != tt.wantCat {
				t.Errorf("Category = %q, want %q", fv.Category, tt.wantCat)
			}
			if tr != tt.trace {
				t.Errorf("Trace = %+v, want %+v", tr, tt.trace)
			}
			if tr.UnseenCategory() && fv.CategoryCode != features.SentinelCode {
				t.Errorf("CategoryCode = %d, want sentinel", fv.CategoryCode)
			}
		})
	}
}

func TestReconstructCalendarAndCodes(t *testing.T) {
	b := testBundle(t, sampleRows())
	fv, _, err := Reconstruct(b, PredictRequest{Category: "Fruit", Quantity: 1, UnitPrice: 1}, fixedNow)
	if err != nil {
		t.Fatalf("Reconstruct() error = %v", err)
	}
	if fv.Month != 3 || fv.Weekday != 6 || fv.Hour != 14 {
		t.Errorf("calendar = %d/%d/%d, want 3/6/14", fv.Month, fv.Weekday, fv.Hour)
	}
	// Sorted classes: Bakery, Dairy, Fruit.
	if fv.CategoryCode != 2 {
		t.Errorf("CategoryCode = %d, want 2", fv.CategoryCode)
	}
	v := fv.Values()
	if len(v) != regress.NumFeatures || v[regress.FeatCategoryCode] != 2 || v[regress.FeatHour] != 14 {
		t.Errorf("Values() = %v", v)
	}
}

func TestReconstructUnavailable(t *testing.T) {
	b := testBundle(t, sampleRows())
	b.Encoder = nil
	if _, _, err := Reconstruct(b, PredictRequest{UnitPrice: 1}, fixedNow); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Reconstruct() without encoder error = %v, want ErrUnavailable", err)
	}

	noData := testBundle(t, sampleRows())
	noData.Rows, noData.Index = nil, nil
	_, _, err := Reconstruct(noData, PredictRequest{Quantity: 1}, fixedNow)
	var ue *UnavailableError
	if !errors.As(err, &ue) || ue.Artifact != ArtifactDataset {
		t.Errorf("Reconstruct() without dataset error = %v, want dataset unavailable", err)
	}
	if _, _, err := Reconstruct(noData, PredictRequest{Quantity: 1, UnitPrice: 2}, fixedNow); err != nil {
		t.Errorf("explicit price should not need the dataset: %v", err)
	}
}

func TestPredict(t *testing.T) {
	s := testService(t, testBundle(t, sampleRows()), nil)

	got, err := s.Predict(context.Background(), PredictRequest{Product: "Unknown", Quantity: 3})
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	globalMean := (1.0 + 3.0 + 2.5 + 1.5 + 2.5 + 8.0) / 6
	if !approx(got.UnitPrice, globalMean) || got.UnitPrice == 0 {
		t.Errorf("UnitPrice = %v, want global mean %v", got.UnitPrice, globalMean)
	}
	if !approx(got.PredictedRevenue, constantRevenue) {
		t.Errorf("PredictedRevenue = %v, want %v", got.PredictedRevenue, constantRevenue)
	}
	if !approx(got.ExpectedRevenue, 3*globalMean) {
		t.Errorf("ExpectedRevenue = %v", got.ExpectedRevenue)
	}
	if want := constantRevenue / (3 * globalMean) * 100; !approx(got.ProfitScore, want) {
		t.Errorf("ProfitScore = %v, want %v", got.ProfitScore, want)
	}
	if got.Release != "r1" || got.Product != "Unknown" {
		t.Errorf("Release/Product = %q/%q", got.Release, got.Product)
	}
}

func TestUnseenCategoryCountedOnce(t *testing.T) {
	b := testBundle(t, sampleRows())
	s := testService(t, b, nil)

	before := testutil.ToFloat64(metrics.UnseenCategories)
	if code := b.Encoder.Encode("Electronics"); code != features.SentinelCode {
		t.Fatalf("Encode() = %d, want sentinel", code)
	}
	if got := testutil.ToFloat64(metrics.UnseenCategories); got != before {
		t.Errorf("Encode() changed the unseen counter by %v", got-before)
	}

	if _, err := s.Predict(context.Background(), PredictRequest{Category: "Electronics", Quantity: 1, UnitPrice: 4}); err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	if got := testutil.ToFloat64(metrics.UnseenCategories); got != before+1 {
		t.Errorf("unseen counter = %v, want %v", got, before+1)
	}

	if _, err := s.Predict(context.Background(), PredictRequest{Category: "Fruit", Quantity: 1, UnitPrice: 4}); err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	if got := testutil.ToFloat64(metrics.UnseenCategories); got != before+1 {
		t.Errorf("known category changed the unseen counter to %v", got)
	}
}

func TestPredictUnavailable(t *testing.T) {
	b := testBundle(t, sampleRows())
	b.Forest = nil
	s := testService(t, b, nil)
	if _, err := s.Predict(context.Background(), PredictRequest{UnitPrice: 1}); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Predict() error = %v, want ErrUnavailable", err)
	}
	if _, err := s.PredictClient(context.Background(), "100"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("PredictClient() error = %v, want ErrUnavailable", err)
	}

	empty := testService(t, nil, nil)
	if _, err := empty.Predict(context.Background(), PredictRequest{}); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Predict() before first load error = %v, want ErrUnavailable", err)
	}
}

func TestPredictClient(t *testing.T) {
	s := testService(t, testBundle(t, sampleRows()), nil)

	got, err := s.PredictClient(context.Background(), "100.0")
	if err != nil {
		t.Fatalf("PredictClient() error = %v", err)
	}
	if got.ClientID != "100" {
		t.Errorf("ClientID = %q, want 100", got.ClientID)
	}
	m := got.Metrics
	if m.Purchases != 3 || m.UniqueProducts != 2 || m.UniqueCategories != 2 || m.Quantity != 7 {
		t.Errorf("Metrics = %+v", m)
	}
	if !approx(m.Revenue, 2+12+2.5) || !approx(m.MeanPrice, 6.5/3) {
		t.Errorf("Revenue/MeanPrice = %v/%v", m.Revenue, m.MeanPrice)
	}
	if got.PreferredCategory != "Fruit" {
		t.Errorf("PreferredCategory = %q, want Fruit", got.PreferredCategory)
	}
	if !approx(got.MonthlyProjection, MonthlyDays*got.DailyRevenue) {
		t.Errorf("MonthlyProjection = %v, daily %v", got.MonthlyProjection, got.DailyRevenue)
	}
	if got.Trace.UnitPrice != RuleClientHistory || got.Trace.Quantity != RuleClientHistory {
		t.Errorf("Trace = %+v", got.Trace)
	}
}

func TestPredictClientCategoryTie(t *testing.T) {
	rows := dataset.Derive([]dataset.Transaction{
		tx("P2", "Bread", "Pan", "Bakery", 1, 2, "9", "I1", 1),
		tx("P1", "Apple", "Manzana", "Fruit", 1, 1, "9", "I2", 2),
		tx("P1", "Apple", "Manzana", "Fruit", 1, 1, "9", "I3", 3),
		tx("P2", "Bread", "Pan", "Bakery", 1, 2, "9", "I4", 4),
	})
	s := testService(t, testBundle(t, rows), nil)
	got, err := s.PredictClient(context.Background(), "9")
	if err != nil {
		t.Fatalf("PredictClient() error = %v", err)
	}
	if got.PreferredCategory != "Bakery" {
		t.Errorf("PreferredCategory = %q, want Bakery (smallest label among ties)", got.PreferredCategory)
	}
}

func TestPredictClientKeepsHistoryMeans(t *testing.T) {
	rows := append(sampleRows(), dataset.Derive([]dataset.Transaction{
		tx("P9", "Gift", "Regalo", "Promo", -2, 0, "900", "C1", 8),
		tx("P9", "Gift", "Regalo", "Promo", 1, 0, "900", "I9", 9),
	})...)
	b := testBundle(t, rows)
	s := testService(t, b, nil)

	got, err := s.PredictClient(context.Background(), "900")
	if err != nil {
		t.Fatalf("PredictClient() error = %v", err)
	}
	if got.Trace.UnitPrice != RuleClientHistory || got.Trace.Quantity != RuleClientHistory {
		t.Errorf("Trace = %+v, want client history for price and quantity", got.Trace)
	}
	if got.Metrics.MeanPrice != 0 || got.Metrics.Quantity != -1 {
		t.Errorf("Metrics = %+v", got.Metrics)
	}

	fv, _, err := clientVector(b, -0.5, 0, "Promo", fixedNow)
	if err != nil {
		t.Fatalf("clientVector() error = %v", err)
	}
	if fv.Quantity != -0.5 || fv.UnitPrice != 0 {
		t.Errorf("vector quantity/price = %v/%v, want -0.5/0", fv.Quantity, fv.UnitPrice)
	}
	if fv.Month != 3 || fv.Weekday != 6 || fv.Hour != 14 {
		t.Errorf("calendar = %d/%d/%d, want 3/6/14", fv.Month, fv.Weekday, fv.Hour)
	}
}

func TestPredictClientNotFound(t *testing.T) {
	s := testService(t, testBundle(t, sampleRows()), nil)
	for _, id := range []string{"999", "", "  "} {
		_, err := s.PredictClient(context.Background(), id)
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("PredictClient(%q) error = %v, want ErrNotFound", id, err)
		}
	}
}

func TestStats(t *testing.T) {
	s := testService(t, testBundle(t, sampleRows()), nil)
	st, err := s.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	// Revenues: 2, 12, 2.5, 4.5, 5, 8.
	if st.Transactions != 6 || st.UniqueProducts != 4 || st.UniqueCategories != 3 {
		t.Errorf("Stats = %+v", st)
	}
	if !approx(st.TotalRevenue, 34) || st.TotalQuantity != 13 {
		t.Errorf("totals = %v/%v", st.TotalRevenue, st.TotalQuantity)
	}
	if !approx(st.MeanRevenue, 34.0/6) || !approx(st.MedianRevenue, 4.75) {
		t.Errorf("mean/median = %v/%v", st.MeanRevenue, st.MedianRevenue)
	}
}

func TestTopProductsTieBreak(t *testing.T) {
	rows := dataset.Derive([]dataset.Transaction{
		tx("B", "Beta", "Beta", "X", 2, 10, "1", "I1", 1),
		tx("A", "Alpha", "Alfa", "X", 10, 2, "1", "I2", 1),
	})
	s := testService(t, testBundle(t, rows), nil)

	for run := 0; run < 3; run++ {
		got, err := s.TopProducts(context.Background(), 0)
		if err != nil {
			t.Fatalf("TopProducts() error = %v", err)
		}
		if len(got) != 2 || got[0].Code != "A" || got[1].Code != "B" {
			t.Fatalf("TopProducts() = %+v, want A then B", got)
		}
		if got[0].Revenue != 20 || got[1].Revenue != 20 {
			t.Errorf("revenues = %v/%v, want 20/20", got[0].Revenue, got[1].Revenue)
		}
	}
}

func TestDashboardQueries(t *testing.T) {
	s := testService(t, testBundle(t, sampleRows()), nil)
	ctx := context.Background()

	top, err := s.TopProducts(ctx, 2)
	if err != nil {
		t.Fatalf("TopProducts() error = %v", err)
	}
	if len(top) != 2 || top[0].Code != "P1" || top[0].Revenue != 14 || top[0].MeanPrice != 2 {
		t.Errorf("TopProducts() = %+v", top)
	}

	cats, err := s.Categories(ctx)
	if err != nil {
		t.Fatalf("Categories() error = %v", err)
	}
	// Fruit 14, Dairy 12.5, Bakery 7.5.
	if len(cats) != 3 || cats[0].Category != "Fruit" || cats[1].Category != "Dairy" || cats[1].UniqueProducts != 2 {
		t.Errorf("Categories() = %+v", cats)
	}

	clients, err := s.TopClients(ctx, 0)
	if err != nil {
		t.Fatalf("TopClients() error = %v", err)
	}
	// 100: 2 invoices, 16.5; 200: 2 invoices, 9.5; 300: 1 invoice.
	if len(clients) != 3 || clients[0].ClientID != "100" || clients[1].ClientID != "200" || clients[0].Purchases != 2 {
		t.Errorf("TopClients() = %+v", clients)
	}

	list, err := s.Clients(ctx)
	if err != nil {
		t.Fatalf("Clients() error = %v", err)
	}
	if len(list) != 3 || list[0].ClientID != "100" || list[1].ClientID != "200" || list[2].ClientID != "300" {
		t.Errorf("Clients() = %+v", list)
	}

	products, err := s.Products(ctx)
	if err != nil {
		t.Fatalf("Products() error = %v", err)
	}
	if len(products) != 4 || products[0].DescriptionEN != "Apple" || products[3].DescriptionEN != "Milk" {
		t.Errorf("Products() = %+v", products)
	}

	names, err := s.CategoryList(ctx)
	if err != nil {
		t.Fatalf("CategoryList() error = %v", err)
	}
	if len(names) != 3 || names[0] != "Bakery" || names[2] != "Fruit" {
		t.Errorf("CategoryList() = %v", names)
	}
}

func TestDashboardWithoutDataset(t *testing.T) {
	b := testBundle(t, sampleRows())
	b.Rows, b.Index = nil, nil
	s := testService(t, b, nil)
	if _, err := s.Stats(context.Background()); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Stats() error = %v, want ErrUnavailable", err)
	}
}

func TestCacheInvalidatedOnSwap(t *testing.T) {
	tiered := cache.NewTiered(cache.New(time.Minute), nil, zerolog.Nop())
	defer func() { _ = tiered.Close() }()

	first := testBundle(t, sampleRows())
	s := testService(t, first, tiered)
	st, err := s.Stats(context.Background())
	if err != nil || st.Transactions != 6 {
		t.Fatalf("Stats() = %+v, %v", st, err)
	}

	second := testBundle(t, sampleRows()[:2])
	second.Fingerprint = "fp-2"
	s.Holder().Set(second)

	st, err = s.Stats(context.Background())
	if err != nil || st.Transactions != 2 {
		t.Errorf("Stats() after swap = %+v, %v", st, err)
	}
}

func withProductClusters(t *testing.T, b *Bundle, k int) {
	t.Helper()
	view, err := features.LookupView(features.ViewProducts)
	if err != nil {
		t.Fatalf("LookupView() error = %v", err)
	}
	data, err := features.Build(view, b.Rows)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	cfg := cluster.DefaultKMeansConfig()
	cfg.K = k
	model, labels, _, err := cluster.FitAssign(context.Background(), data.Matrix, cfg)
	if err != nil {
		t.Fatalf("FitAssign() error = %v", err)
	}
	table, err := artifacts.NewClusterTable(data, labels)
	if err != nil {
		t.Fatalf("NewClusterTable() error = %v", err)
	}
	b.Products = &ClusterSet{Table: table, Model: model}
}

func TestProductClusters(t *testing.T) {
	b := testBundle(t, sampleRows())
	withProductClusters(t, b, 2)
	s := testService(t, b, nil)
	ctx := context.Background()

	r, err := s.ProductClusters(ctx, ClusterFilter{})
	if err != nil {
		t.Fatalf("ProductClusters() error = %v", err)
	}
	if r.TotalClusters != 2 || len(r.Summary) != 2 || r.View != features.ViewProducts {
		t.Fatalf("report = %+v", r)
	}
	members, revenue := 0, 0.0
	for _, cs := range r.Summary {
		members += cs.Size()
		revenue += cs.Revenue
	}
	if members != 4 || !approx(revenue, 34) {
		t.Errorf("members/revenue = %d/%v, want 4/34", members, revenue)
	}

	id := r.Summary[0].Cluster
	filtered, err := s.ProductClusters(ctx, ClusterFilter{Cluster: &id})
	if err != nil {
		t.Fatalf("ProductClusters(filter) error = %v", err)
	}
	if len(filtered.Summary) != 1 || len(filtered.Clusters) != 1 || filtered.TotalClusters != 2 {
		t.Errorf("filtered report = %+v", filtered)
	}
	for _, m := range filtered.Clusters[strconv.Itoa(id)] {
		if m[artifacts.ClusterColumn] != id {
			t.Errorf("member %v outside cluster %d", m, id)
		}
		if _, ok := m[features.LabelProduct]; !ok {
			t.Errorf("member %v missing label column", m)
		}
	}

	missing := 42
	if _, err := s.ProductClusters(ctx, ClusterFilter{Cluster: &missing}); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown cluster error = %v, want ErrNotFound", err)
	}
	if _, err := s.ClientClusters(ctx, ClusterFilter{}); !errors.Is(err, ErrUnavailable) {
		t.Errorf("ClientClusters() error = %v, want ErrUnavailable", err)
	}
}
