package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/vietcv/skillpath/internal/platform/envutil"
	"github.com/vietcv/skillpath/internal/platform/logger"
)

// Cache is a request-layer cache for skill search results and embed()
// outputs. Every method is nil-safe: with no REDIS_ADDR configured the
// service simply recomputes.
type Cache struct {
	log *logger.Logger
	rdb *goredis.Client
	ttl time.Duration
}

// NewCache connects using REDIS_* variables. Returns (nil, nil) when
// REDIS_ADDR is unset.
func NewCache(log *logger.Logger) (*Cache, error) {
	if log == nil {
		return nil, fmt.Errorf("redis: logger required")
	}
	addr := envutil.Str("REDIS_ADDR", "")
	if addr == "" {
		return nil, nil
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    envutil.Str("REDIS_PASSWORD", ""),
		DB:          envutil.Int("REDIS_DB", 0),
		DialTimeout: 5 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}
	return &Cache{
		log: log.With("client", "RedisCache"),
		rdb: rdb,
		ttl: envutil.Dur("REDIS_CACHE_TTL", 10*time.Minute),
	}, nil
}

// GetJSON loads key into out. The bool reports a hit.
func (c *Cache) GetJSON(ctx context.Context, key string, out any) bool {
	if c == nil || c.rdb == nil {
		return false
	}
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		c.log.Warn("cache entry undecodable, dropping", "key", key, "error", err)
		_ = c.rdb.Del(ctx, key).Err()
		return false
	}
	return true
}

// SetJSON stores val under key with the configured TTL. Failures are
// logged, never propagated; the cache is an optimization.
func (c *Cache) SetJSON(ctx context.Context, key string, val any) {
	if c == nil || c.rdb == nil {
		return
	}
	raw, err := json.Marshal(val)
	if err != nil {
		c.log.Warn("cache encode failed", "key", key, "error", err)
		return
	}
	if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.log.Warn("cache set failed", "key", key, "error", err)
	}
}

// Healthy reports connectivity for the healthcheck endpoint.
func (c *Cache) Healthy(ctx context.Context) bool {
	if c == nil || c.rdb == nil {
		return false
	}
	return c.rdb.Ping(ctx).Err() == nil
}

func (c *Cache) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}
