// RetailScope - Retail Transaction Analytics and Segmentation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailscope

package artifacts

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/retailscope/internal/dataset"
	"github.com/tomtom215/retailscope/internal/features"
)

type testModel struct {
	Weights []float64
	Name    string
}

func publish(t *testing.T, s *Store, weights []float64) string {
	t.Helper()
	w, err := s.Begin()
	if err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	if err := w.Put(KindRegressor, testModel{Weights: weights, Name: "forest"}, map[string]string{"trees": "3"}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	name, err := w.Commit(time.Now())
	if err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	return name
}

func TestNewStore(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T) string
	}{
		{"creates directory if not exists", func(t *testing.T) string { return filepath.Join(t.TempDir(), "models") }},
		{"uses existing directory", func(t *testing.T) string { return t.TempDir() }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewStore(tt.setup(t))
			if err != nil {
				t.Fatalf("NewStore() error = %v", err)
			}
			if _, err := s.Current(); !errors.Is(err, ErrNoRelease) {
				t.Errorf("Current() on empty store error = %v, want ErrNoRelease", err)
			}
		})
	}
}

func TestStore_PublishAndLoad(t *testing.T) {
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}

	name := publish(t, s, []float64{1, 2, 3})
	if name != "r1" {
		t.Errorf("first release = %q, want r1", name)
	}

	rel, err := s.OpenCurrent()
	if err != nil {
		t.Fatalf("OpenCurrent() error = %v", err)
	}
	if rel.Name() != "r1" || rel.Manifest.ReleaseID == "" {
		t.Errorf("manifest = %+v", rel.Manifest)
	}
	info, ok := rel.Info(KindRegressor)
	if !ok || info.Meta["trees"] != "3" || len(info.Checksum) != 64 {
		t.Errorf("regressor info = %+v", info)
	}

	var got testModel
	if err := rel.Load(context.Background(), KindRegressor, &got); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.Name != "forest" || len(got.Weights) != 3 || got.Weights[2] != 3 {
		t.Errorf("loaded model = %+v", got)
	}

	if err := rel.Load(context.Background(), KindEncoder, &got); !errors.Is(err, ErrArtifactNotFound) {
		t.Errorf("Load(missing) error = %v, want ErrArtifactNotFound", err)
	}
}

func TestStore_ReleasesAdvanceAndPrune(t *testing.T) {
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	for i := 0; i < 4; i++ {
		publish(t, s, []float64{float64(i)})
	}

	current, err := s.Current()
	if err != nil || current != "r4" {
		t.Fatalf("Current() = %q, %v; want r4", current, err)
	}

	removed, err := s.Prune(2)
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if removed != 2 {
		t.Errorf("Prune() removed %d, want 2", removed)
	}
	names, err := s.Releases()
	if err != nil {
		t.Fatalf("Releases() error = %v", err)
	}
	if strings.Join(names, ",") != "r4,r3" {
		t.Errorf("Releases() = %v, want [r4 r3]", names)
	}

	if next := publish(t, s, nil); next != "r5" {
		t.Errorf("release after prune = %q, want r5", next)
	}
}

func TestStore_ChecksumMismatch(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	name := publish(t, s, []float64{1})

	path := filepath.Join(dir, releasesDir, name, KindRegressor+".gob.gz")
	if err := os.WriteFile(path, []byte("tampered"), 0o600); err != nil {
		t.Fatalf("tamper: %v", err)
	}

	rel, err := s.Open(name)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	var got testModel
	if err := rel.Load(context.Background(), KindRegressor, &got); !errors.Is(err, ErrChecksumMismatch) {
		t.Errorf("Load() error = %v, want ErrChecksumMismatch", err)
	}
}

func TestWriter_AbortLeavesNoRelease(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	w, err := s.Begin()
	if err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	if err := w.Put(KindEncoder, testModel{}, nil); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := w.Abort(); err != nil {
		t.Fatalf("Abort() error = %v", err)
	}
	if err := w.Put(KindEncoder, testModel{}, nil); !errors.Is(err, ErrWriterClosed) {
		t.Errorf("Put() after Abort error = %v", err)
	}

	entries, err := os.ReadDir(filepath.Join(dir, releasesDir))
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("releases dir has %d entries after abort", len(entries))
	}
	if _, err := s.Current(); !errors.Is(err, ErrNoRelease) {
		t.Errorf("Current() error = %v, want ErrNoRelease", err)
	}
}

func TestClusterTable_RoundTrip(t *testing.T) {
	rows := []dataset.Transaction{
		{ProductCode: "A", DescriptionEN: "Mug, large", DescriptionES: "Taza", Category: "Hogar", Quantity: 2, UnitPrice: 3, ClientID: "1"},
		{ProductCode: "B", DescriptionEN: "Tea", DescriptionES: "Te", Category: "Bebidas", Quantity: 1, UnitPrice: 5, ClientID: "2"},
	}
	dataset.Derive(rows)

	view, err := features.LookupView(features.ViewProducts)
	if err != nil {
		t.Fatalf("LookupView() error = %v", err)
	}
	data, err := features.Build(view, rows)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	table, err := NewClusterTable(data, []int{1, 0})
	if err != nil {
		t.Fatalf("NewClusterTable() error = %v", err)
	}
	if _, err := NewClusterTable(data, []int{1}); err == nil {
		t.Error("NewClusterTable() with wrong label count should fail")
	}

	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	w, _ := s.Begin()
	if err := w.PutTable(KindProductTable, table); err != nil {
		t.Fatalf("PutTable() error = %v", err)
	}
	if _, err := w.Commit(time.Now()); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}

	rel, err := s.OpenCurrent()
	if err != nil {
		t.Fatalf("OpenCurrent() error = %v", err)
	}
	back, err := rel.LoadTable(context.Background(), KindProductTable)
	if err != nil {
		t.Fatalf("LoadTable() error = %v", err)
	}

	if back.View != features.ViewProducts || back.LabelColumn != features.LabelProduct {
		t.Errorf("view/label = %q/%q", back.View, back.LabelColumn)
	}
	if len(back.KeyColumns) != 4 || back.KeyColumns[0] != dataset.ColProductCode {
		t.Errorf("KeyColumns = %v", back.KeyColumns)
	}
	if back.Col(features.FeatRevenueTotal) < 0 {
		t.Errorf("ValueColumns = %v, missing %s", back.ValueColumns, features.FeatRevenueTotal)
	}
	if len(back.Rows) != 2 || back.Rows[0].Label != "Mug, large" || back.Rows[0].Cluster != 1 {
		t.Errorf("rows = %+v", back.Rows)
	}
	if got := back.Rows[1].Values[back.Col(features.FeatRevenueTotal)]; got != 5 {
		t.Errorf("Tea revenue = %v, want 5", got)
	}
}

func TestReadClusterTable_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"no cluster column", "IDCliente,Cliente,Ingresos_Total\n1,1,2\n"},
		{"missing label", "IDCliente,Ingresos_Total,Cluster\n1,2,0\n"},
		{"bad number", "IDCliente,Cliente,Ingresos_Total,Cluster\n1,1,x,0\n"},
		{"bad cluster", "IDCliente,Cliente,Ingresos_Total,Cluster\n1,1,2,z\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadClusterTable(strings.NewReader(tt.input), features.LabelClient); err == nil {
				t.Error("ReadClusterTable() expected error")
			}
		})
	}
}

func TestWriter_CopyFrom(t *testing.T) {
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	publish(t, s, []float64{4, 5})
	prev, err := s.OpenCurrent()
	if err != nil {
		t.Fatalf("OpenCurrent() error = %v", err)
	}

	w, err := s.Begin()
	if err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	if err := w.CopyFrom(prev, KindRegressor); err != nil {
		t.Fatalf("CopyFrom() error = %v", err)
	}
	if err := w.CopyFrom(prev, KindEncoder); !errors.Is(err, ErrArtifactNotFound) {
		t.Errorf("CopyFrom(missing) error = %v, want ErrArtifactNotFound", err)
	}
	name, err := w.Commit(time.Now())
	if err != nil {
		t.Fatalf("Commit() error = %v", err)
	}

	rel, err := s.Open(name)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	var got testModel
	if err := rel.Load(context.Background(), KindRegressor, &got); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(got.Weights) != 2 || got.Weights[1] != 5 {
		t.Errorf("carried model = %+v", got)
	}
	before, _ := prev.Info(KindRegressor)
	after, _ := rel.Info(KindRegressor)
	if before.Checksum != after.Checksum || after.Meta["trees"] != "3" {
		t.Errorf("carried info %+v, want checksum %s", after, before.Checksum)
	}

	if err := w.CopyFrom(prev, KindRegressor); !errors.Is(err, ErrWriterClosed) {
		t.Errorf("CopyFrom() after commit error = %v, want ErrWriterClosed", err)
	}
}
