package oracle

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
)

type stubOracle struct {
	score float64
	err   error
	calls int
}

func (s *stubOracle) ExtractKeywords(context.Context, string) (*Extraction, error) {
	return &Extraction{Terms: []string{"go"}, Language: "en"}, nil
}

func (s *stubOracle) ScoreSimilarity(context.Context, string, string) (float64, error) {
	s.calls++
	if s.err != nil {
		return 0, s.err
	}
	return s.score, nil
}

type mapCache struct {
	entries map[string]float64
	getErr  error
	setErr  error
}

func newMapCache() *mapCache {
	return &mapCache{entries: make(map[string]float64)}
}

func (m *mapCache) Get(_ context.Context, key string) (float64, bool, error) {
	if m.getErr != nil {
		return 0, false, m.getErr
	}
	score, ok := m.entries[key]
	return score, ok, nil
}

func (m *mapCache) Set(_ context.Context, key string, score float64) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.entries[key] = score
	return nil
}

func TestCachedScoreSimilarityHitsCacheOnce(t *testing.T) {
	inner := &stubOracle{score: 0.8}
	cached := NewCached(inner, newMapCache(), zap.NewNop())

	for range 3 {
		score, err := cached.ScoreSimilarity(context.Background(), "go", "golang")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if score != 0.8 {
			t.Fatalf("expected 0.8, got %v", score)
		}
	}

	if inner.calls != 1 {
		t.Fatalf("expected a single oracle call, got %d", inner.calls)
	}
}

func TestCachedPairKeyIsSymmetric(t *testing.T) {
	inner := &stubOracle{score: 0.8}
	cached := NewCached(inner, newMapCache(), zap.NewNop())

	if _, err := cached.ScoreSimilarity(context.Background(), "go", "golang"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := cached.ScoreSimilarity(context.Background(), "Golang", "GO"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if inner.calls != 1 {
		t.Fatalf("reversed and recased pair must share the cache entry, got %d calls", inner.calls)
	}
}

func TestCachedCacheFailuresAreSoft(t *testing.T) {
	inner := &stubOracle{score: 0.6}
	cache := newMapCache()
	cache.getErr = errors.New("redis down")
	cache.setErr = errors.New("redis down")
	cached := NewCached(inner, cache, zap.NewNop())

	score, err := cached.ScoreSimilarity(context.Background(), "go", "golang")
	if err != nil {
		t.Fatalf("cache failures must not fail the lookup: %v", err)
	}
	if score != 0.6 {
		t.Fatalf("expected 0.6, got %v", score)
	}
}

func TestCachedOracleErrorPropagates(t *testing.T) {
	inner := &stubOracle{err: ErrUnavailable}
	cached := NewCached(inner, newMapCache(), zap.NewNop())

	_, err := cached.ScoreSimilarity(context.Background(), "go", "golang")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}
