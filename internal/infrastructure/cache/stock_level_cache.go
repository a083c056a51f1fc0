package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RedisStockLevelCache caches on-hand quantities in Redis with a short TTL.
// It is strictly best-effort: failures are logged and reported as misses so
// reads always fall through to the database.
type RedisStockLevelCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// RedisStockLevelCacheOption is a functional option for configuring the cache
type RedisStockLevelCacheOption func(*RedisStockLevelCache)

// WithTTL sets the cache entry lifetime
func WithTTL(ttl time.Duration) RedisStockLevelCacheOption {
	return func(c *RedisStockLevelCache) {
		c.ttl = ttl
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) RedisStockLevelCacheOption {
	return func(c *RedisStockLevelCache) {
		c.logger = logger
	}
}

// NewRedisStockLevelCache creates a stock level cache on an existing client
func NewRedisStockLevelCache(client *redis.Client, opts ...RedisStockLevelCacheOption) *RedisStockLevelCache {
	c := &RedisStockLevelCache{
		client: client,
		ttl:    30 * time.Second,
		logger: zap.NewNop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// GetQuantity returns a cached quantity, reporting a miss on absence or on
// any Redis error
func (c *RedisStockLevelCache) GetQuantity(ctx context.Context, tenantID, productID uuid.UUID, locationID *uuid.UUID) (decimal.Decimal, bool) {
	key := stockLevelKey(tenantID, productID, locationID)

	val, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("stock level cache read failed",
				zap.String("key", key),
				zap.Error(err))
		}
		return decimal.Zero, false
	}

	qty, err := decimal.NewFromString(val)
	if err != nil {
		c.logger.Warn("stock level cache entry is not a decimal, dropping it",
			zap.String("key", key),
			zap.String("value", val))
		c.client.Del(ctx, key)
		return decimal.Zero, false
	}

	return qty, true
}

// SetQuantity stores a quantity with the configured TTL
func (c *RedisStockLevelCache) SetQuantity(ctx context.Context, tenantID, productID uuid.UUID, locationID *uuid.UUID, quantity decimal.Decimal) {
	key := stockLevelKey(tenantID, productID, locationID)

	if err := c.client.Set(ctx, key, quantity.String(), c.ttl).Err(); err != nil {
		c.logger.Warn("stock level cache write failed",
			zap.String("key", key),
			zap.Error(err))
	}
}

// InvalidateProduct drops all cached quantities for a product. The location
// scope is part of the key, so both the per-location and all-locations
// entries are removed.
func (c *RedisStockLevelCache) InvalidateProduct(ctx context.Context, tenantID, productID uuid.UUID) {
	pattern := fmt.Sprintf("stocklevel:%s:%s:*", tenantID, productID)

	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			c.logger.Warn("stock level cache invalidation failed",
				zap.String("key", iter.Val()),
				zap.Error(err))
		}
	}
	if err := iter.Err(); err != nil {
		c.logger.Warn("stock level cache scan failed",
			zap.String("pattern", pattern),
			zap.Error(err))
	}
}

func stockLevelKey(tenantID, productID uuid.UUID, locationID *uuid.UUID) string {
	scope := "all"
	if locationID != nil {
		scope = locationID.String()
	}
	return fmt.Sprintf("stocklevel:%s:%s:%s", tenantID, productID, scope)
}
