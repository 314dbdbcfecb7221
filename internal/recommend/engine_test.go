// Animerec - Anime Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animerec

package recommend

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// mockDataProvider implements DataProvider for testing.
type mockDataProvider struct {
	ratings    []Rating
	items      []Item
	ratingsErr error
	itemsErr   error
	delay      time.Duration
	loadCalls  atomic.Int32
}

func (m *mockDataProvider) LoadRatings(ctx context.Context) ([]Rating, error) {
	m.loadCalls.Add(1)
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.ratingsErr != nil {
		return nil, m.ratingsErr
	}
	return m.ratings, nil
}

func (m *mockDataProvider) LoadItems(ctx context.Context) ([]Item, error) {
	if m.itemsErr != nil {
		return nil, m.itemsErr
	}
	return m.items, nil
}

// mockModelStore implements ModelStore for testing.
type mockModelStore struct {
	mu     sync.Mutex
	saved  []*ModelState
	latest *ModelState
	err    error
}

func (m *mockModelStore) SaveModel(ctx context.Context, state *ModelState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.saved = append(m.saved, state)
	m.latest = state
	return nil
}

func (m *mockModelStore) LoadLatestModel(ctx context.Context) (*ModelState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.latest, m.err
}

// countingCache wraps MemoryCache and counts reads.
type countingCache struct {
	*MemoryCache
	gets atomic.Int32
}

func (c *countingCache) Get(ctx context.Context, key string) ([]Recommendation, bool, error) {
	c.gets.Add(1)
	return c.MemoryCache.Get(ctx, key)
}

func testEngineConfig() *Config {
	cfg := DefaultConfig()
	cfg.MinRatings = 1
	cfg.Workers = 2
	return cfg
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(testEngineConfig(), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	return e
}

func TestNewEngine(t *testing.T) {
	t.Parallel()

	t.Run("nil config uses defaults", func(t *testing.T) {
		t.Parallel()
		e, err := NewEngine(nil, zerolog.Nop())
		if err != nil {
			t.Fatalf("NewEngine() error = %v", err)
		}
		if e.Config().MinRatings != DefaultMinRatings {
			t.Errorf("MinRatings = %d, want %d", e.Config().MinRatings, DefaultMinRatings)
		}
	})

	t.Run("invalid config", func(t *testing.T) {
		t.Parallel()
		cfg := DefaultConfig()
		cfg.MinRatings = 0
		if _, err := NewEngine(cfg, zerolog.Nop()); err == nil {
			t.Error("expected error for min_ratings 0")
		}
	})
}

func TestEngine_RecommendBeforeTraining(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	if e.IsTrained() {
		t.Fatal("new engine should not be trained")
	}
	if _, err := e.Recommend(context.Background(), 1, 5); !errors.Is(err, ErrModelNotTrained) {
		t.Errorf("Recommend() error = %v, want ErrModelNotTrained", err)
	}
	if info := e.Info(); info.Trained {
		t.Errorf("Info().Trained = true before training")
	}
}

func TestEngine_TrainAndRecommend(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	store := &mockModelStore{}
	e.SetModelStore(store)
	e.SetDataProvider(&mockDataProvider{ratings: neighbourRatings(), items: testCatalog()})

	summary, err := e.Train(context.Background())
	if err != nil {
		t.Fatalf("Train() error = %v", err)
	}
	if summary.MatrixUsers != 3 || summary.MatrixItems != 3 {
		t.Errorf("summary = %+v, want 3x3 matrix", summary)
	}

	resp, err := e.Recommend(context.Background(), 1, 1)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if len(resp.Recommendations) != 1 || resp.Recommendations[0].ItemID != itemC {
		t.Errorf("Recommend() = %+v, want item C", resp.Recommendations)
	}
	if resp.Fallback || resp.CacheHit {
		t.Errorf("unexpected flags: fallback=%v cache_hit=%v", resp.Fallback, resp.CacheHit)
	}
	if resp.ModelVersion != 1 || resp.ModelID == "" {
		t.Errorf("model identity = %q/v%d", resp.ModelID, resp.ModelVersion)
	}

	if len(store.saved) != 1 || store.saved[0].ID != resp.ModelID {
		t.Errorf("expected one persisted model with id %s", resp.ModelID)
	}

	info := e.Info()
	if !info.Trained || info.Version != 1 || info.Summary.RetainedUsers != 3 {
		t.Errorf("Info() = %+v", info)
	}
}

func TestEngine_CacheHit(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	cache := &countingCache{MemoryCache: NewMemoryCache(10)}
	e.SetCache(cache)

	if _, err := e.TrainWith(context.Background(), neighbourRatings(), testCatalog()); err != nil {
		t.Fatalf("TrainWith() error = %v", err)
	}

	first, err := e.Recommend(context.Background(), 1, 5)
	if err != nil {
		t.Fatal(err)
	}
	second, err := e.Recommend(context.Background(), 1, 5)
	if err != nil {
		t.Fatal(err)
	}

	if first.CacheHit || !second.CacheHit {
		t.Errorf("cache hits: first=%v second=%v", first.CacheHit, second.CacheHit)
	}
	if len(second.Recommendations) != len(first.Recommendations) {
		t.Error("cached result differs from computed result")
	}

	stats := e.Stats()
	if stats.CacheHits != 1 || stats.CacheMisses != 1 || stats.Requests != 2 {
		t.Errorf("Stats() = %+v", stats)
	}

	// Retraining publishes a new model ID, so the old entry is not reused.
	if _, err := e.TrainWith(context.Background(), neighbourRatings(), testCatalog()); err != nil {
		t.Fatal(err)
	}
	third, err := e.Recommend(context.Background(), 1, 5)
	if err != nil {
		t.Fatal(err)
	}
	if third.CacheHit {
		t.Error("expected cache miss after retraining")
	}
	if third.ModelVersion != 2 {
		t.Errorf("ModelVersion = %d, want 2", third.ModelVersion)
	}
}

func TestEngine_FallbackCounted(t *testing.T) {
	t.Parallel()

	cfg := testEngineConfig()
	cfg.MinRatings = 2
	e, err := NewEngine(cfg, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.TrainWith(context.Background(), constantRatings(), testCatalog()); err != nil {
		t.Fatal(err)
	}

	resp, err := e.Recommend(context.Background(), 1, 3)
	if err != nil {
		t.Fatal(err)
	}
	if !resp.Fallback {
		t.Error("expected fallback response")
	}
	if got := e.Stats().Fallbacks; got != 1 {
		t.Errorf("Fallbacks = %d, want 1", got)
	}
}

func TestEngine_UserNotFound(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	if _, err := e.TrainWith(context.Background(), neighbourRatings(), testCatalog()); err != nil {
		t.Fatal(err)
	}

	_, err := e.Recommend(context.Background(), 42, 5)
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("Recommend() error = %v, want ErrUserNotFound", err)
	}
	if got := e.Stats().Errors; got != 0 {
		t.Errorf("unknown users should not count as engine errors, got %d", got)
	}
}

func TestEngine_TrainErrors(t *testing.T) {
	t.Parallel()

	t.Run("no data provider", func(t *testing.T) {
		t.Parallel()
		e := newTestEngine(t)
		if _, err := e.Train(context.Background()); err == nil {
			t.Error("expected error without data provider")
		}
	})

	t.Run("ratings error", func(t *testing.T) {
		t.Parallel()
		e := newTestEngine(t)
		loadErr := errors.New("disk on fire")
		e.SetDataProvider(&mockDataProvider{ratingsErr: loadErr})
		if _, err := e.Train(context.Background()); !errors.Is(err, loadErr) {
			t.Errorf("Train() error = %v, want wrapped %v", err, loadErr)
		}
		if e.Stats().TrainingError == "" {
			t.Error("expected training error to be recorded")
		}
		if e.IsTrained() {
			t.Error("failed training must not publish a model")
		}
	})

	t.Run("invalid ratings", func(t *testing.T) {
		t.Parallel()
		e := newTestEngine(t)
		bad := []Rating{{UserID: 1, ItemID: 1, Value: nan()}}
		if _, err := e.TrainWith(context.Background(), bad, nil); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("TrainWith() error = %v, want ErrInvalidInput", err)
		}
	})
}

func TestEngine_ConcurrentTrainingRejected(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	dp := &mockDataProvider{ratings: neighbourRatings(), items: testCatalog(), delay: 200 * time.Millisecond}
	e.SetDataProvider(dp)

	done := make(chan error, 1)
	go func() {
		_, err := e.Train(context.Background())
		done <- err
	}()

	// Wait until the first run holds the lock.
	deadline := time.Now().Add(2 * time.Second)
	for dp.loadCalls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	if _, err := e.Train(context.Background()); !errors.Is(err, ErrTrainingInProgress) {
		t.Errorf("second Train() error = %v, want ErrTrainingInProgress", err)
	}
	if err := <-done; err != nil {
		t.Errorf("first Train() error = %v", err)
	}
}

func TestEngine_ConcurrentReadsDuringRetrain(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	e.SetCache(nil)
	if _, err := e.TrainWith(context.Background(), neighbourRatings(), testCatalog()); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	var failures atomic.Int32
	for r := 0; r < 8; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				resp, err := e.Recommend(context.Background(), 1, 1)
				if err != nil || len(resp.Recommendations) != 1 {
					failures.Add(1)
				}
			}
		}()
	}

	for i := 0; i < 10; i++ {
		_, err := e.TrainWith(context.Background(), neighbourRatings(), testCatalog())
		if err != nil && !errors.Is(err, ErrTrainingInProgress) {
			t.Errorf("TrainWith() error = %v", err)
		}
	}
	wg.Wait()

	if failures.Load() != 0 {
		t.Errorf("%d reads failed during retraining", failures.Load())
	}
}

func TestEngine_LoadLatest(t *testing.T) {
	t.Parallel()

	store := &mockModelStore{}

	trainer := newTestEngine(t)
	trainer.SetModelStore(store)
	for i := 0; i < 3; i++ {
		if _, err := trainer.TrainWith(context.Background(), neighbourRatings(), testCatalog()); err != nil {
			t.Fatal(err)
		}
	}

	restarted := newTestEngine(t)
	restarted.SetModelStore(store)
	loaded, err := restarted.LoadLatest(context.Background())
	if err != nil {
		t.Fatalf("LoadLatest() error = %v", err)
	}
	if !loaded {
		t.Fatal("LoadLatest() reported no model")
	}
	if got := restarted.Info().Version; got != 3 {
		t.Errorf("restored version = %d, want 3", got)
	}

	// The next training continues the version sequence.
	if _, err := restarted.TrainWith(context.Background(), neighbourRatings(), testCatalog()); err != nil {
		t.Fatal(err)
	}
	if got := restarted.Info().Version; got != 4 {
		t.Errorf("version after retrain = %d, want 4", got)
	}
}

func TestEngine_LoadLatestEmptyStore(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	loaded, err := e.LoadLatest(context.Background())
	if err != nil || loaded {
		t.Errorf("LoadLatest() without store = %v, %v", loaded, err)
	}

	e.SetModelStore(&mockModelStore{})
	loaded, err = e.LoadLatest(context.Background())
	if err != nil || loaded {
		t.Errorf("LoadLatest() with empty store = %v, %v", loaded, err)
	}
}

func TestEngine_PersistFailureKeepsModel(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	e.SetModelStore(&mockModelStore{err: errors.New("read-only filesystem")})

	if _, err := e.TrainWith(context.Background(), neighbourRatings(), testCatalog()); err != nil {
		t.Fatalf("TrainWith() error = %v", err)
	}
	if !e.IsTrained() {
		t.Error("model should be published even when persistence fails")
	}
}
