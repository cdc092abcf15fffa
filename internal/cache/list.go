package cache

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/debemdeboas/folio/internal/config"
	"github.com/debemdeboas/folio/internal/model"
)

var cacheLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	cacheLogger = l
}

// ListCache holds the encoded collection of each kind. Entries are dropped on every
// mutation of that kind; a miss always falls through to the store.
type ListCache interface {
	GetList(ctx context.Context, kind model.Kind) ([]byte, bool)
	SetList(ctx context.Context, kind model.Kind, data []byte)
	Invalidate(ctx context.Context, kind model.Kind)
}

type MemoryListCache struct {
	lists *Cache[model.Kind, []byte]
}

func NewMemoryListCache(ttl time.Duration) *MemoryListCache {
	return &MemoryListCache{lists: NewTTLCache[model.Kind, []byte](ttl)}
}

func (m *MemoryListCache) GetList(_ context.Context, kind model.Kind) ([]byte, bool) {
	return m.lists.Get(kind)
}

func (m *MemoryListCache) SetList(_ context.Context, kind model.Kind, data []byte) {
	m.lists.Set(kind, data)
}

func (m *MemoryListCache) Invalidate(_ context.Context, kind model.Kind) {
	m.lists.Delete(kind)
}

// NewListCache picks the configured backend.
func NewListCache(cfg config.CacheConfig) ListCache {
	if cfg.Driver == config.CacheRedis {
		cacheLogger.Info().Str("addr", cfg.RedisAddr).Msg("Using redis list cache")
		return NewRedisListCache(cfg)
	}
	return NewMemoryListCache(cfg.TTL)
}
