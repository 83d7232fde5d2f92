package oracle

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// SimilarityCache stores term-pair similarity scores. Implementations must
// tolerate concurrent use; cache failures are soft and never fail the lookup.
type SimilarityCache interface {
	Get(ctx context.Context, key string) (float64, bool, error)
	Set(ctx context.Context, key string, score float64) error
}

// Cached wraps an Oracle with a similarity cache so repeated term pairs do
// not hit the external service again. Extraction is never cached; documents
// rarely repeat.
type Cached struct {
	inner  Oracle
	cache  SimilarityCache
	logger *zap.Logger
}

func NewCached(inner Oracle, cache SimilarityCache, logger *zap.Logger) *Cached {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cached{inner: inner, cache: cache, logger: logger}
}

func (c *Cached) ExtractKeywords(ctx context.Context, text string) (*Extraction, error) {
	return c.inner.ExtractKeywords(ctx, text)
}

func (c *Cached) ScoreSimilarity(ctx context.Context, termA, termB string) (float64, error) {
	key := pairKey(termA, termB)

	if score, ok, err := c.cache.Get(ctx, key); err != nil {
		c.logger.Debug("similarity cache read failed", zap.String("key", key), zap.Error(err))
	} else if ok {
		return score, nil
	}

	score, err := c.inner.ScoreSimilarity(ctx, termA, termB)
	if err != nil {
		return 0, err
	}

	if err := c.cache.Set(ctx, key, score); err != nil {
		c.logger.Debug("similarity cache write failed", zap.String("key", key), zap.Error(err))
	}

	return score, nil
}

// pairKey is symmetric: similarity(a, b) and similarity(b, a) share an entry.
func pairKey(a, b string) string {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if b < a {
		a, b = b, a
	}
	return a + "\x00" + b
}
