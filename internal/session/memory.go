package session

import (
	"context"
	"time"

	"soda/internal/cache"
)

// MemoryStore keeps values in a process-local LRU cache.
type MemoryStore struct {
	cache *cache.LRUCache[[]byte]
}

// NewMemoryStore creates a store holding at most maxEntries values, each
// expiring after defaultTTL unless Set is given another TTL.
func NewMemoryStore(maxEntries int, defaultTTL time.Duration) *MemoryStore {
	return &MemoryStore{cache: cache.NewLRUCache[[]byte](maxEntries, defaultTTL)}
}

// Cache exposes the underlying cache so it can be registered for cleanup.
func (m *MemoryStore) Cache() *cache.LRUCache[[]byte] {
	return m.cache
}

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := m.cache.Get(key)
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (m *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	v := make([]byte, len(value))
	copy(v, value)
	m.cache.SetWithTTL(key, v, ttl)
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.cache.Delete(key)
	return nil
}
