package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/lysyi3m/rss-blend/app/cfg"
	"github.com/lysyi3m/rss-blend/app/feed"
)

// Store persists merged channel results under opaque keys.
type Store interface {
	Has(ctx context.Context, key string) (bool, error)
	Get(ctx context.Context, key string) ([]feed.Item, bool, error)
	Set(ctx context.Context, key string, items []feed.Item) error
	Close() error
}

const (
	BackendNone   = "none"
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// New builds the store selected by the cache backend setting.
func New(ctx context.Context, c *cfg.Cfg) (Store, error) {
	ttl := time.Duration(c.CacheTTL) * time.Second

	switch c.CacheBackend {
	case BackendNone, "":
		return NopStore{}, nil
	case BackendMemory:
		return NewMemoryStore(ttl), nil
	case BackendSQLite:
		return NewSQLiteStore(ctx, c.SQLitePath, ttl)
	case BackendRedis:
		return NewRedisStore(ctx, c.RedisAddr, c.RedisDB, ttl)
	default:
		return nil, fmt.Errorf("unknown cache backend: %s", c.CacheBackend)
	}
}

func cloneItems(items []feed.Item) []feed.Item {
	cloned := make([]feed.Item, len(items))
	for i, item := range items {
		item.Categories = append([]string{}, item.Categories...)
		cloned[i] = item
	}
	return cloned
}
