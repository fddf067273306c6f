package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"indicatorEngine/internal/ports"
)

type memoryItem struct {
	value    []byte
	expireAt time.Time
}

var _ ports.ResultCache = (*MemoryCache)(nil)

// MemoryCache implements ports.ResultCache in process memory. It is used
// when no Redis address is configured.
type MemoryCache struct {
	mu      sync.Mutex
	items   map[string]memoryItem
	maxSize int
	now     func() time.Time
}

// NewMemoryCache creates a cache holding at most maxSize entries.
func NewMemoryCache(maxSize int) *MemoryCache {
	if maxSize <= 0 {
		maxSize = 1000
	}
	return &MemoryCache{items: make(map[string]memoryItem), maxSize: maxSize, now: time.Now}
}

// Get returns the cached value or ports.ErrNotFound.
func (m *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.items[key]
	if !ok || m.now().After(item.expireAt) {
		delete(m.items, key)
		return nil, fmt.Errorf("cache key %s: %w", key, ports.ErrNotFound)
	}
	return append([]byte(nil), item.value...), nil
}

// Set stores a copy of value for ttl. When full, expired entries are dropped
// first, then the entry closest to expiry.
func (m *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.items[key]; !exists && len(m.items) >= m.maxSize {
		m.evict()
	}
	m.items[key] = memoryItem{value: append([]byte(nil), value...), expireAt: m.now().Add(ttl)}
	return nil
}

func (m *MemoryCache) evict() {
	now := m.now()
	var oldestKey string
	var oldest time.Time
	for k, it := range m.items {
		if now.After(it.expireAt) {
			delete(m.items, k)
			continue
		}
		if oldestKey == "" || it.expireAt.Before(oldest) {
			oldestKey, oldest = k, it.expireAt
		}
	}
	if len(m.items) >= m.maxSize && oldestKey != "" {
		delete(m.items, oldestKey)
	}
}
