package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/debemdeboas/folio/internal/config"
	"github.com/debemdeboas/folio/internal/model"
)

const redisKeyPrefix = "folio:list:"

// RedisListCache shares list entries between server replicas. Redis errors degrade
// to cache misses.
type RedisListCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisListCache(cfg config.CacheConfig) *RedisListCache {
	return &RedisListCache{
		client: redis.NewClient(&redis.Options{
			Addr:        cfg.RedisAddr,
			Password:    cfg.RedisPassword,
			DB:          cfg.RedisDB,
			DialTimeout: 2 * time.Second,
		}),
		ttl: cfg.TTL,
	}
}

func (r *RedisListCache) key(kind model.Kind) string {
	return redisKeyPrefix + string(kind)
}

func (r *RedisListCache) GetList(ctx context.Context, kind model.Kind) ([]byte, bool) {
	data, err := r.client.Get(ctx, r.key(kind)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			cacheLogger.Warn().Err(err).Str("kind", string(kind)).Msg("Redis get failed")
		}
		return nil, false
	}
	return data, true
}

func (r *RedisListCache) SetList(ctx context.Context, kind model.Kind, data []byte) {
	if err := r.client.Set(ctx, r.key(kind), data, r.ttl).Err(); err != nil {
		cacheLogger.Warn().Err(err).Str("kind", string(kind)).Msg("Redis set failed")
	}
}

func (r *RedisListCache) Invalidate(ctx context.Context, kind model.Kind) {
	if err := r.client.Del(ctx, r.key(kind)).Err(); err != nil {
		cacheLogger.Warn().Err(err).Str("kind", string(kind)).Msg("Redis delete failed")
	}
}

func (r *RedisListCache) Close() error {
	return r.client.Close()
}
