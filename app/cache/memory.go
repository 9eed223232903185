package cache

import (
	"context"
	"sync"
	"time"

	"github.com/lysyi3m/rss-blend/app/feed"
)

var _ Store = (*MemoryStore)(nil)

type memoryEntry struct {
	items     []feed.Item
	expiresAt time.Time // zero means no expiry
}

// MemoryStore keeps entries in process memory. A zero TTL keeps them forever.
type MemoryStore struct {
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
	mu      sync.RWMutex
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (s *MemoryStore) Has(ctx context.Context, key string) (bool, error) {
	_, ok := s.lookup(key)
	return ok, nil
}

func (s *MemoryStore) Get(ctx context.Context, key string) ([]feed.Item, bool, error) {
	entry, ok := s.lookup(key)
	if !ok {
		return nil, false, nil
	}
	return cloneItems(entry.items), true, nil
}

func (s *MemoryStore) Set(ctx context.Context, key string, items []feed.Item) error {
	entry := memoryEntry{items: cloneItems(items)}
	if s.ttl > 0 {
		entry.expiresAt = s.now().Add(s.ttl)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = entry

	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}

func (s *MemoryStore) lookup(key string) (memoryEntry, bool) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok {
		return memoryEntry{}, false
	}

	if !entry.expiresAt.IsZero() && !s.now().Before(entry.expiresAt) {
		s.mu.Lock()
		if current, ok := s.entries[key]; ok && current.expiresAt.Equal(entry.expiresAt) {
			delete(s.entries, key)
		}
		s.mu.Unlock()
		return memoryEntry{}, false
	}

	return entry, true
}
