// Package rediscache backs the oracle similarity cache with Redis, so score
// lookups survive restarts and are shared between processes.
package rediscache

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "similarity:"

// Cache implements oracle.SimilarityCache on top of a Redis client.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

func New(rdb *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &Cache{rdb: rdb, ttl: ttl}
}

func (c *Cache) Get(ctx context.Context, key string) (float64, bool, error) {
	val, err := c.rdb.Get(ctx, redisKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}

	score, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, false, fmt.Errorf("corrupt similarity entry %q: %w", val, err)
	}
	return score, true, nil
}

func (c *Cache) Set(ctx context.Context, key string, score float64) error {
	return c.rdb.Set(ctx, redisKey(key), strconv.FormatFloat(score, 'f', -1, 64), c.ttl).Err()
}

// redisKey hashes the pair key so arbitrary terms cannot produce oversized or
// binary-unsafe Redis keys.
func redisKey(key string) string {
	return keyPrefix + fmt.Sprintf("%x", sha256.Sum256([]byte(key)))
}
