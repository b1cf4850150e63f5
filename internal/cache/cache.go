package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const readCachePrefix = "nemu:cache:"

// ReadCache is a best-effort cache-aside store for read views.
// Failures are logged and reported as misses so reads fall through to the database.
type ReadCache interface {
	Get(ctx context.Context, key string, dest interface{}) bool
	Set(ctx context.Context, key string, value interface{})
	Delete(ctx context.Context, keys ...string)
}

type redisReadCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisReadCache creates a ReadCache storing JSON values with a TTL
func NewRedisReadCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) ReadCache {
	return &redisReadCache{client: client, ttl: ttl, logger: logger}
}

func (c *redisReadCache) Get(ctx context.Context, key string, dest interface{}) bool {
	data, err := c.client.Get(ctx, readCachePrefix+key).Bytes()
	if err == redis.Nil {
		return false
	}
	if err != nil {
		c.logger.Warn("Read cache get failed", zap.String("key", key), zap.Error(err))
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		c.logger.Warn("Discarding undecodable cache entry", zap.String("key", key), zap.Error(err))
		_ = c.client.Del(ctx, readCachePrefix+key).Err()
		return false
	}
	return true
}

func (c *redisReadCache) Set(ctx context.Context, key string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("Read cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, readCachePrefix+key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("Read cache set failed", zap.String("key", key), zap.Error(err))
	}
}

func (c *redisReadCache) Delete(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	prefixed := make([]string, len(keys))
	for i, k := range keys {
		prefixed[i] = readCachePrefix + k
	}
	if err := c.client.Del(ctx, prefixed...).Err(); err != nil {
		c.logger.Warn("Read cache invalidation failed", zap.Strings("keys", keys), zap.Error(err))
	}
}

type noopReadCache struct{}

// NewNoopReadCache returns a ReadCache that never hits
func NewNoopReadCache() ReadCache {
	return noopReadCache{}
}

func (noopReadCache) Get(context.Context, string, interface{}) bool { return false }
func (noopReadCache) Set(context.Context, string, interface{})      {}
func (noopReadCache) Delete(context.Context, ...string)             {}

// Key helpers shared by writers and readers
func RequestKey(id string) string           { return "request:" + id }
func RequestOrderKey(orderID string) string { return "request:order:" + orderID }
func UserRequestsKey(userID string) string  { return "requests:user:" + userID }
func CommissionRequestsKey(id string) string {
	return "requests:commission:" + id
}
