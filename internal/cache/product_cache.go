// Package cache keeps hot read projections (featured, trending) in redis.
// Every operation fails open: on a miss or a redis error callers fall back
// to the database.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/apporbit/apporbit-server/internal/domain"
	"github.com/apporbit/apporbit-server/pkg/logger"
)

const (
	FeaturedKey = "products:featured"
	TrendingKey = "products:trending"
)

type ProductCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewProductCache(rdb *redis.Client, ttl time.Duration) *ProductCache {
	return &ProductCache{rdb: rdb, ttl: ttl}
}

func (c *ProductCache) GetList(ctx context.Context, key string) ([]domain.Product, bool) {
	if c == nil || c.rdb == nil {
		return nil, false
	}

	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.DebugContext(ctx, "cache get failed", "key", key, "error", err)
		}
		return nil, false
	}

	var products []domain.Product
	if err := json.Unmarshal(raw, &products); err != nil {
		logger.DebugContext(ctx, "cache entry corrupt, dropping", "key", key, "error", err)
		c.rdb.Del(ctx, key)
		return nil, false
	}
	return products, true
}

func (c *ProductCache) SetList(ctx context.Context, key string, products []domain.Product) {
	if c == nil || c.rdb == nil {
		return
	}

	raw, err := json.Marshal(products)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		logger.DebugContext(ctx, "cache set failed", "key", key, "error", err)
	}
}

func (c *ProductCache) Invalidate(ctx context.Context, keys ...string) {
	if c == nil || c.rdb == nil || len(keys) == 0 {
		return
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		logger.DebugContext(ctx, "cache invalidate failed", "keys", keys, "error", err)
	}
}
