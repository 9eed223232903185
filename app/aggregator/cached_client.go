package aggregator

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/lysyi3m/rss-blend/app/cache"
	"github.com/lysyi3m/rss-blend/app/feed"
	"github.com/lysyi3m/rss-blend/app/metrics"
	"golang.org/x/sync/singleflight"
)

const cacheKeyPrefix = "rss_cache_client"

// CachedClient memoizes channel results in a cache.Store, keyed by the channel's
// ordered source list. A hit is returned as stored, whatever limit the caller
// asks for; empty results are never stored.
type CachedClient struct {
	*Client

	store   cache.Store
	storeMu sync.RWMutex

	keys   map[string]string
	keysMu sync.Mutex

	group singleflight.Group
}

func NewCachedClient(client *Client, store cache.Store) *CachedClient {
	return &CachedClient{
		Client: client,
		store:  store,
		keys:   make(map[string]string),
	}
}

// SetCache attaches a store. A nil store makes every fetch fail with ErrCacheNotSet.
func (c *CachedClient) SetCache(store cache.Store) {
	c.storeMu.Lock()
	defer c.storeMu.Unlock()
	c.store = store
}

// SetFeeds replaces the sources of a channel and forgets its cache key.
func (c *CachedClient) SetFeeds(channel string, urls []string) {
	c.keysMu.Lock()
	defer c.keysMu.Unlock()

	c.Client.SetFeeds(channel, urls)
	delete(c.keys, channel)
}

func (c *CachedClient) SetChannels(channels map[string][]string) {
	c.keysMu.Lock()
	defer c.keysMu.Unlock()

	c.Client.SetChannels(channels)
	clear(c.keys)
}

func (c *CachedClient) Fetch(ctx context.Context, channel string, limit int) (Result, error) {
	if _, err := c.validate(channel, limit); err != nil {
		return Result{}, err
	}

	store := c.getStore()
	if store == nil {
		return Result{}, ErrCacheNotSet
	}

	key := c.CacheKey(channel)

	if items, ok := c.lookup(ctx, store, key); ok {
		metrics.CacheLookups.WithLabelValues("hit").Inc()
		slog.Debug("Cache hit", "channel", channel, "key", key, "items", len(items))
		return Result{Items: items, Found: true}, nil
	}
	metrics.CacheLookups.WithLabelValues("miss").Inc()

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	// Concurrent misses on the same key share one fetch and one write. The shared
	// fetch outlives any single caller, so a caller that goes away only stops
	// waiting for it.
	fetchCtx := context.WithoutCancel(ctx)
	done := c.group.DoChan(key, func() (any, error) {
		result, err := c.Client.Fetch(fetchCtx, channel, limit)
		if err != nil {
			return Result{}, err
		}
		if result.Found {
			if err := store.Set(fetchCtx, key, result.Items); err != nil {
				c.addError(metrics.FailureCache, fmt.Errorf("failed to store channel %s in cache: %w", channel, err))
				slog.Warn("Cache write failed", "channel", channel, "key", key, "error", err)
			}
		}
		return result, nil
	})

	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	case res := <-done:
		if res.Err != nil {
			return Result{}, res.Err
		}
		return res.Val.(Result), nil
	}
}

// CacheKey returns the store key of a channel, computed once per source list.
func (c *CachedClient) CacheKey(channel string) string {
	c.keysMu.Lock()
	defer c.keysMu.Unlock()

	if key, ok := c.keys[channel]; ok {
		return key
	}

	sources, _ := c.Feeds(channel)
	key := cacheKey(sources)
	c.keys[channel] = key
	return key
}

func cacheKey(sources []string) string {
	sum := md5.Sum([]byte(strings.Join(sources, "|")))
	return cacheKeyPrefix + "_" + hex.EncodeToString(sum[:])
}

func (c *CachedClient) getStore() cache.Store {
	c.storeMu.RLock()
	defer c.storeMu.RUnlock()
	return c.store
}

func (c *CachedClient) lookup(ctx context.Context, store cache.Store, key string) ([]feed.Item, bool) {
	has, err := store.Has(ctx, key)
	if err != nil {
		c.addError(metrics.FailureCache, fmt.Errorf("failed to read cache key %s: %w", key, err))
		return nil, false
	}
	if !has {
		return nil, false
	}

	items, ok, err := store.Get(ctx, key)
	if err != nil {
		c.addError(metrics.FailureCache, fmt.Errorf("failed to read cache key %s: %w", key, err))
		return nil, false
	}
	if !ok || len(items) == 0 {
		return nil, false
	}

	return items, true
}
