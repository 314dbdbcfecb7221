// Animerec - Anime Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animerec

package storage

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

	"github.com/tomtom215/animerec/internal/recommend"
)

const modelFileSuffix = ".gob.gz"

// ErrModelNotFound is returned when no stored model matches a request.
var ErrModelNotFound = errors.New("model not found")

// ModelMetadata contains information about a stored model.
type ModelMetadata struct {
	// Name is the model family name (e.g., "anime_model").
	Name string `json:"name"`

	// Version is the model version (monotonically increasing).
	Version int `json:"version"`

	// ModelID is the unique identifier assigned at training time.
	ModelID string `json:"model_id"`

	// TrainedAt is when the model was trained.
	TrainedAt time.Time `json:"trained_at"`

	// SavedAt is when the model was saved.
	SavedAt time.Time `json:"saved_at"`

	// RatingCount is the number of raw ratings used for training.
	RatingCount int `json:"rating_count"`

	// UserCount and ItemCount are the matrix dimensions.
	UserCount int `json:"user_count"`
	ItemCount int `json:"item_count"`

	// Checksum is the SHA-256 checksum of the uncompressed model data.
	Checksum string `json:"checksum"`

	// SizeBytes is the compressed model size in bytes.
	SizeBytes int64 `json:"size_bytes"`
}

// Store manages versioned model files in a directory.
type Store struct {
	baseDir string
	mu      sync.RWMutex

	// Keep track of latest version per model name
	versions map[string]int
}

// NewStore creates a new model store at the given directory.
func NewStore(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0o750); err != nil { //nolint:gosec // 0750 is acceptable for model storage
		return nil, fmt.Errorf("create storage directory: %w", err)
	}

	s := &Store{
		baseDir:  baseDir,
		versions: make(map[string]int),
	}

	if err := s.scanModels(); err != nil {
		return nil, fmt.Errorf("scan existing models: %w", err)
	}

	return s, nil
}

// scanModels records the latest version of every model file on disk.
func (s *Store) scanModels() error {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name, version, ok := parseModelFilename(entry.Name())
		if !ok {
			continue
		}
		if current, exists := s.versions[name]; !exists || version > current {
			s.versions[name] = version
		}
	}

	return nil
}

// parseModelFilename splits "anime_model_v3.gob.gz" into ("anime_model", 3).
func parseModelFilename(filename string) (name string, version int, ok bool) {
	base, found := strings.CutSuffix(filename, modelFileSuffix)
	if !found {
		return "", 0, false
	}

	idx := strings.LastIndex(base, "_v")
	if idx <= 0 {
		return "", 0, false
	}

	version, err := strconv.Atoi(base[idx+2:])
	if err != nil || version < 0 {
		return "", 0, false
	}
	return base[:idx], version, true
}

// storedFile is the on-disk format for model files.
type storedFile struct {
	Metadata       ModelMetadata
	CompressedData []byte
}

// Save stores data as the given model name and version.
//
//nolint:gocritic // meta passed by value is acceptable for this write operation
func (s *Store) Save(ctx context.Context, name string, version int, data interface{}, meta ModelMetadata) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(data); err != nil {
		return fmt.Errorf("encode model: %w", err)
	}
	rawData := buf.Bytes()

	hash := sha256.Sum256(rawData)
	meta.Checksum = hex.EncodeToString(hash[:])

	var compressed bytes.Buffer
	gzw := gzip.NewWriter(&compressed)
	if _, err := gzw.Write(rawData); err != nil {
		return fmt.Errorf("compress model: %w", err)
	}
	if err := gzw.Close(); err != nil {
		return fmt.Errorf("finalize compression: %w", err)
	}

	meta.SizeBytes = int64(compressed.Len())
	meta.SavedAt = time.Now()
	meta.Name = name
	meta.Version = version

	// Write to a temp file and rename so readers never see a partial file.
	final := s.modelPath(name, version)
	tmp, err := os.CreateTemp(s.baseDir, ".model-*.tmp")
	if err != nil {
		return fmt.Errorf("create model file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }() //nolint:errcheck // no-op after a successful rename

	sf := storedFile{
		Metadata:       meta,
		CompressedData: compressed.Bytes(),
	}
	if err := gob.NewEncoder(tmp).Encode(sf); err != nil {
		_ = tmp.Close() //nolint:errcheck // write error takes precedence
		return fmt.Errorf("write model file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close model file: %w", err)
	}
	if err := os.Rename(tmpName, final); err != nil {
		return fmt.Errorf("publish model file: %w", err)
	}

	if current, ok := s.versions[name]; !ok || version > current {
		s.versions[name] = version
	}

	return nil
}

// Load decodes a stored model into target.
// If version is 0, loads the latest version.
func (s *Store) Load(ctx context.Context, name string, version int, target interface{}) (*ModelMetadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if version == 0 {
		var ok bool
		version, ok = s.versions[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrModelNotFound, name)
		}
	}

	sf, err := s.readStoredFile(s.modelPath(name, version))
	if err != nil {
		return nil, err
	}

	gzr, err := gzip.NewReader(bytes.NewReader(sf.CompressedData))
	if err != nil {
		return nil, fmt.Errorf("decompress model: %w", err)
	}
	defer func() { _ = gzr.Close() }() //nolint:errcheck // error on gzip close after read is not actionable

	rawData, err := io.ReadAll(gzr)
	if err != nil {
		return nil, fmt.Errorf("read decompressed data: %w", err)
	}

	hash := sha256.Sum256(rawData)
	if checksum := hex.EncodeToString(hash[:]); checksum != sf.Metadata.Checksum {
		return nil, fmt.Errorf("checksum mismatch: expected %s, got %s", sf.Metadata.Checksum, checksum)
	}

	if err := gob.NewDecoder(bytes.NewReader(rawData)).Decode(target); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}

	return &sf.Metadata, nil
}

func (s *Store) readStoredFile(path string) (*storedFile, error) {
	f, err := os.Open(path) //nolint:gosec // path is built from the store directory and a parsed model name
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrModelNotFound, filepath.Base(path))
		}
		return nil, fmt.Errorf("open model file: %w", err)
	}
	defer func() { _ = f.Close() }() //nolint:errcheck // error on close after read is not actionable

	var sf storedFile
	if err := gob.NewDecoder(f).Decode(&sf); err != nil {
		return nil, fmt.Errorf("read model file: %w", err)
	}
	return &sf, nil
}

// LatestVersion returns the latest version number for a model.
func (s *Store) LatestVersion(name string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	version, ok := s.versions[name]
	return version, ok
}

// ListModels returns metadata for the latest version of every stored model.
func (s *Store) ListModels(ctx context.Context) ([]ModelMetadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	models := make([]ModelMetadata, 0, len(s.versions))
	for name, version := range s.versions {
		sf, err := s.readStoredFile(s.modelPath(name, version))
		if err != nil {
			continue
		}
		models = append(models, sf.Metadata)
	}

	sort.Slice(models, func(i, j int) bool { return models[i].Name < models[j].Name })
	return models, nil
}

// versionsOnDisk lists every stored version of name, newest first.
// Must be called with mu held.
func (s *Store) versionsOnDisk(name string) ([]int, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("read directory: %w", err)
	}

	var versions []int
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		n, v, ok := parseModelFilename(entry.Name())
		if ok && n == name {
			versions = append(versions, v)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(versions)))
	return versions, nil
}

// Delete removes a specific model version.
func (s *Store) Delete(ctx context.Context, name string, version int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.modelPath(name, version)); err != nil {
		return fmt.Errorf("delete model: %w", err)
	}

	if s.versions[name] != version {
		return nil
	}

	versions, err := s.versionsOnDisk(name)
	if err != nil {
		return err
	}
	if len(versions) == 0 {
		delete(s.versions, name)
	} else {
		s.versions[name] = versions[0]
	}
	return nil
}

// Prune removes old model versions, keeping only the latest keepVersions.
func (s *Store) Prune(ctx context.Context, name string, keepVersions int) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if keepVersions < 1 {
		keepVersions = 1
	}

	versions, err := s.versionsOnDisk(name)
	if err != nil {
		return 0, err
	}

	removed := 0
	for i := keepVersions; i < len(versions); i++ {
		if err := os.Remove(s.modelPath(name, versions[i])); err == nil {
			removed++
		}
	}
	return removed, nil
}

// modelPath returns the file path for a model.
func (s *Store) modelPath(name string, version int) string {
	return filepath.Join(s.baseDir, fmt.Sprintf("%s_v%d%s", name, version, modelFileSuffix))
}

// RecommendStore adapts Store to recommend.ModelStore for one model name.
type RecommendStore struct {
	store *Store
	name  string
	keep  int
}

// NewRecommendStore persists models as name, keeping the newest keep files.
func NewRecommendStore(store *Store, name string, keep int) *RecommendStore {
	return &RecommendStore{store: store, name: name, keep: keep}
}

// SaveModel writes the model and prunes older versions.
func (r *RecommendStore) SaveModel(ctx context.Context, state *recommend.ModelState) error {
	meta := ModelMetadata{
		ModelID:     state.ID,
		TrainedAt:   state.TrainedAt,
		RatingCount: state.RawRatings,
		UserCount:   len(state.Matrix.Users),
		ItemCount:   len(state.Matrix.Items),
	}
	if err := r.store.Save(ctx, r.name, state.Version, state, meta); err != nil {
		return err
	}
	if r.keep > 0 {
		if _, err := r.store.Prune(ctx, r.name, r.keep); err != nil {
			return fmt.Errorf("prune models: %w", err)
		}
	}
	return nil
}

// LoadLatestModel returns the newest stored model, or nil when none exists.
func (r *RecommendStore) LoadLatestModel(ctx context.Context) (*recommend.ModelState, error) {
	if _, ok := r.store.LatestVersion(r.name); !ok {
		return nil, nil
	}

	var state recommend.ModelState
	if _, err := r.store.Load(ctx, r.name, 0, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// Register gob types for serialization.
//
//nolint:gochecknoinits // gob.Register must be called in init for type registration
func init() {
	gob.Register(recommend.ModelState{})
	gob.Register(ModelMetadata{})
	gob.Register(storedFile{})
}
