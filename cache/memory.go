package cache

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/xraph/castellan/permset"
)

// Memory is an in-process LRU cache with per-entry TTL. The zero TTL keeps
// entries until evicted; the zero size is unbounded.
type Memory struct {
	lru     *lru.LRU[string, permset.KeySet]
	ttl     time.Duration
	maxSize int
}

// MemoryOption configures the memory cache.
type MemoryOption func(*Memory)

// WithTTL sets the cache entry time-to-live.
func WithTTL(ttl time.Duration) MemoryOption {
	return func(m *Memory) { m.ttl = ttl }
}

// WithMaxSize sets the maximum number of cache entries.
func WithMaxSize(n int) MemoryOption {
	return func(m *Memory) { m.maxSize = n }
}

// NewMemory creates a new in-memory cache.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		ttl:     5 * time.Minute,
		maxSize: 10000,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.lru = lru.NewLRU[string, permset.KeySet](m.maxSize, nil, m.ttl)
	return m
}

// Get returns the cached key set.
func (m *Memory) Get(_ context.Context, key string) (permset.KeySet, bool) {
	return m.lru.Get(key)
}

// Set stores a copy of keys, replacing any previous value.
func (m *Memory) Set(_ context.Context, key string, keys permset.KeySet) {
	m.lru.Add(key, cloneKeys(keys))
}

// Delete removes a single entry.
func (m *Memory) Delete(_ context.Context, key string) {
	m.lru.Remove(key)
}

// Clear removes every entry.
func (m *Memory) Clear(_ context.Context) {
	m.lru.Purge()
}

// Len returns the number of live entries.
func (m *Memory) Len() int {
	return m.lru.Len()
}
