// RetailScope - Retail Transaction Analytics and Segmentation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailscope

package artifacts

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Artifact kinds.
const (
	KindRegressor    = "regressor"
	KindEncoder      = "encoder"
	KindProductTable = "product_clusters"
	KindClientTable  = "client_clusters"
)

// KindScaler is the scaler artifact of a cluster view.
func KindScaler(view string) string { return "scaler_" + view }

// KindClusters is the centroid model artifact of a cluster view.
func KindClusters(view string) string { return "clusters_" + view }

const (
	releasesDir  = "releases"
	currentFile  = "CURRENT"
	manifestFile = "manifest.json"
	stagingPref  = ".staging-"
	releasePref  = "r"
)

// ArtifactInfo describes one file of a release.
type ArtifactInfo struct {
	Kind      string            `json:"kind"`
	File      string            `json:"file"`
	Checksum  string            `json:"checksum"`
	SizeBytes int64             `json:"size_bytes"`
	Meta      map[string]string `json:"meta,omitempty"`
}

// Manifest lists the artifacts of a release.
type Manifest struct {
	ReleaseID string                  `json:"release_id"`
	Release   string                  `json:"release"`
	CreatedAt time.Time               `json:"created_at"`
	TrainedAt time.Time               `json:"trained_at"`
	Artifacts map[string]ArtifactInfo `json:"artifacts"`
}

// Store manages releases under a base directory. Each training run writes a
// complete release directory and then swaps the CURRENT pointer, so readers
// never see a partial release.
type Store struct {
	baseDir string
	mu      sync.Mutex
}

// NewStore creates a store at baseDir, creating it if needed.
func NewStore(baseDir string) (*Store, error) {
	if err := os.MkdirAll(filepath.Join(baseDir, releasesDir), 0o750); err != nil { //nolint:gosec // 0750 is acceptable for artifact storage
		return nil, fmt.Errorf("create artifact directory: %w", err)
	}
	return &Store{baseDir: baseDir}, nil
}

// Dir returns the base directory.
func (s *Store) Dir() string { return s.baseDir }

// Current returns the name of the current release.
func (s *Store) Current() (string, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, currentFile))
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrNoRelease
	}
	if err != nil {
		return "", fmt.Errorf("read current release: %w", err)
	}
	name := strings.TrimSpace(string(data))
	if name == "" {
		return "", ErrNoRelease
	}
	return name, nil
}

// OpenCurrent opens the current release.
func (s *Store) OpenCurrent() (*Release, error) {
	name, err := s.Current()
	if err != nil {
		return nil, err
	}
	return s.Open(name)
}

// Open reads the manifest of a named release.
func (s *Store) Open(name string) (*Release, error) {
	dir := filepath.Join(s.baseDir, releasesDir, name)
	data, err := os.ReadFile(filepath.Join(dir, manifestFile)) //nolint:gosec // path built from store directory
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: release %s has no manifest", ErrNoRelease, name)
	}
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &Release{dir: dir, Manifest: m}, nil
}

// Begin starts a new release in a staging directory.
func (s *Store) Begin() (*Writer, error) {
	dir := filepath.Join(s.baseDir, releasesDir, stagingPref+uuid.NewString())
	if err := os.MkdirAll(dir, 0o750); err != nil { //nolint:gosec // 0750 is acceptable for artifact storage
		return nil, fmt.Errorf("create staging directory: %w", err)
	}
	return &Writer{
		store: s,
		dir:   dir,
		manifest: Manifest{
			ReleaseID: uuid.NewString(),
			Artifacts: make(map[string]ArtifactInfo),
		},
	}, nil
}

// Releases returns the published release names, newest first.
func (s *Store) Releases() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.baseDir, releasesDir))
	if err != nil {
		return nil, fmt.Errorf("read releases: %w", err)
	}
	type numbered struct {
		name string
		n    int
	}
	var found []numbered
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if n, ok := parseRelease(e.Name()); ok {
			found = append(found, numbered{e.Name(), n})
		}
	}
	sort.Slice(found, func(i, j int) bool { return found[i].n > found[j].n })

	names := make([]string, len(found))
	for i, f := range found {
		names[i] = f.name
	}
	return names, nil
}

// Prune removes all but the newest keep releases. The current release is
// never removed.
func (s *Store) Prune(keep int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if keep < 1 {
		keep = 1
	}
	names, err := s.Releases()
	if err != nil {
		return 0, err
	}
	current, _ := s.Current()

	removed := 0
	for i := keep; i < len(names); i++ {
		if names[i] == current {
			continue
		}
		if err := os.RemoveAll(filepath.Join(s.baseDir, releasesDir, names[i])); err != nil {
			return removed, fmt.Errorf("remove release %s: %w", names[i], err)
		}
		removed++
	}
	return removed, nil
}

func parseRelease(name string) (int, bool) {
	if !strings.HasPrefix(name, releasePref) {
		return 0, false
	}
	n, err := strconv.Atoi(name[len(releasePref):])
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// Writer stages the artifacts of one release.
type Writer struct {
	store    *Store
	dir      string
	manifest Manifest
	closed   bool
}

// ReleaseID returns the id the release will be published under.
func (w *Writer) ReleaseID() string { return w.manifest.ReleaseID }

// Put gob-encodes and gzips value as the named artifact.
func (w *Writer) Put(kind string, value any, meta map[string]string) error {
	if w.closed {
		return ErrWriterClosed
	}
	var raw bytes.Buffer
	if err := gob.NewEncoder(&raw).Encode(value); err != nil {
		return fmt.Errorf("encode %s: %w", kind, err)
	}
	var compressed bytes.Buffer
	gzw := gzip.NewWriter(&compressed)
	if _, err := gzw.Write(raw.Bytes()); err != nil {
		return fmt.Errorf("compress %s: %w", kind, err)
	}
	if err := gzw.Close(); err != nil {
		return fmt.Errorf("finalize compression of %s: %w", kind, err)
	}
	return w.writeFile(kind, kind+".gob.gz", compressed.Bytes(), meta)
}

// PutTable writes a cluster table as CSV.
func (w *Writer) PutTable(kind string, table *ClusterTable) error {
	if w.closed {
		return ErrWriterClosed
	}
	var buf bytes.Buffer
	if err := table.WriteCSV(&buf); err != nil {
		return fmt.Errorf("write %s: %w", kind, err)
	}
	meta := map[string]string{
		"label_column": table.LabelColumn,
		"view":         table.View,
		"rows":         strconv.Itoa(len(table.Rows)),
	}
	return w.writeFile(kind, kind+".csv", buf.Bytes(), meta)
}

// CopyFrom carries an artifact of a published release into this one
// unchanged. Training uses it for stages it skips.
func (w *Writer) CopyFrom(r *Release, kind string) error {
	if w.closed {
		return ErrWriterClosed
	}
	data, info, err := r.read(kind)
	if err != nil {
		return err
	}
	return w.writeFile(kind, info.File, data, info.Meta)
}

func (w *Writer) writeFile(kind, file string, data []byte, meta map[string]string) error {
	path := filepath.Join(w.dir, file)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", kind, err)
	}
	sum := sha256.Sum256(data)
	w.manifest.Artifacts[kind] = ArtifactInfo{
		Kind:      kind,
		File:      file,
		Checksum:  hex.EncodeToString(sum[:]),
		SizeBytes: int64(len(data)),
		Meta:      meta,
	}
	return nil
}

// Commit publishes the staged release and points CURRENT at it.
func (w *Writer) Commit(trainedAt time.Time) (string, error) {
	if w.closed {
		return "", ErrWriterClosed
	}
	w.closed = true

	s := w.store
	s.mu.Lock()
	defer s.mu.Unlock()

	names, err := s.Releases()
	if err != nil {
		return "", err
	}
	next := 1
	if len(names) > 0 {
		n, _ := parseRelease(names[0])
		next = n + 1
	}
	name := releasePref + strconv.Itoa(next)

	w.manifest.Release = name
	w.manifest.CreatedAt = time.Now().UTC()
	w.manifest.TrainedAt = trainedAt.UTC()
	data, err := json.MarshalIndent(w.manifest, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(w.dir, manifestFile), data, 0o600); err != nil {
		return "", fmt.Errorf("write manifest: %w", err)
	}

	final := filepath.Join(s.baseDir, releasesDir, name)
	if err := os.Rename(w.dir, final); err != nil {
		return "", fmt.Errorf("publish release: %w", err)
	}
	if err := writeAtomic(filepath.Join(s.baseDir, currentFile), []byte(name+"\n")); err != nil {
		return "", fmt.Errorf("swap current release: %w", err)
	}
	return name, nil
}

// Abort discards the staged release.
func (w *Writer) Abort() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return os.RemoveAll(w.dir)
}

// writeAtomic replaces path via a temp file in the same directory.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-"+filepath.Base(path)+"-")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}

// Release is a published, read-only set of artifacts.
type Release struct {
	dir      string
	Manifest Manifest
}

// Name returns the release directory name, e.g. "r3".
func (r *Release) Name() string { return r.Manifest.Release }

// Has reports whether the release contains kind.
func (r *Release) Has(kind string) bool {
	_, ok := r.Manifest.Artifacts[kind]
	return ok
}

// Info returns the manifest entry for kind.
func (r *Release) Info(kind string) (ArtifactInfo, bool) {
	info, ok := r.Manifest.Artifacts[kind]
	return info, ok
}

// read returns the verified bytes of an artifact.
func (r *Release) read(kind string) ([]byte, ArtifactInfo, error) {
	info, ok := r.Manifest.Artifacts[kind]
	if !ok {
		return nil, ArtifactInfo{}, fmt.Errorf("%w: %s", ErrArtifactNotFound, kind)
	}
	data, err := os.ReadFile(filepath.Join(r.dir, info.File)) //nolint:gosec // file name comes from the manifest
	if errors.Is(err, os.ErrNotExist) {
		return nil, info, fmt.Errorf("%w: %s", ErrArtifactNotFound, kind)
	}
	if err != nil {
		return nil, info, fmt.Errorf("read %s: %w", kind, err)
	}
	sum := sha256.Sum256(data)
	if got := hex.EncodeToString(sum[:]); got != info.Checksum {
		return nil, info, fmt.Errorf("%w: %s expected %s, got %s", ErrChecksumMismatch, kind, info.Checksum, got)
	}
	return data, info, nil
}

// Load decodes a gob artifact into target. It either fully succeeds or leaves
// the caller with an error.
func (r *Release) Load(ctx context.Context, kind string, target any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, _, err := r.read(kind)
	if err != nil {
		return err
	}
	gzr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("decompress %s: %w", kind, err)
	}
	defer func() { _ = gzr.Close() }()

	raw, err := io.ReadAll(gzr)
	if err != nil {
		return fmt.Errorf("read decompressed %s: %w", kind, err)
	}
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(target); err != nil {
		return fmt.Errorf("decode %s: %w", kind, err)
	}
	return nil
}

// LoadTable reads a cluster table artifact.
func (r *Release) LoadTable(ctx context.Context, kind string) (*ClusterTable, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, info, err := r.read(kind)
	if err != nil {
		return nil, err
	}
	table, err := ReadClusterTable(bytes.NewReader(data), info.Meta["label_column"])
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", kind, err)
	}
	table.View = info.Meta["view"]
	return table, nil
}
