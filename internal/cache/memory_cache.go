package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryCache хранит значения в памяти узла с TTL. Используется, когда Redis не настроен.
// Между узлами согласуется через CacheInvalidator.
type MemoryCache struct {
	mu         sync.Mutex
	entries    map[string]memoryEntry
	defaultTTL time.Duration
	now        func() time.Time
	metrics    CacheMetrics
	closed     bool
}

// NewMemoryCache создаёт локальный кеш
func NewMemoryCache(defaultTTL time.Duration) *MemoryCache {
	if defaultTTL <= 0 {
		defaultTTL = 30 * time.Second
	}
	return &MemoryCache{
		entries:    make(map[string]memoryEntry),
		defaultTTL: defaultTTL,
		now:        time.Now,
	}
}

func (m *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, ErrInvalidKey
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrCacheClosed
	}

	m.metrics.TotalRequests++
	e, ok := m.entries[key]
	if ok && !m.now().Before(e.expiresAt) {
		delete(m.entries, key)
		ok = false
	}
	if ok {
		m.metrics.CacheHits++
	} else {
		m.metrics.CacheMisses++
	}
	m.metrics.HitRatio = hitRatio(m.metrics.CacheHits, m.metrics.TotalRequests)
	m.metrics.LastUpdate = m.now()
	if !ok {
		return nil, ErrCacheMiss
	}
	return append([]byte(nil), e.value...), nil
}

func (m *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if key == "" {
		return ErrInvalidKey
	}
	if ttl <= 0 {
		ttl = m.defaultTTL
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrCacheClosed
	}
	m.entries[key] = memoryEntry{value: append([]byte(nil), value...), expiresAt: m.now().Add(ttl)}
	return nil
}

func (m *MemoryCache) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

func (m *MemoryCache) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	e, ok := m.entries[key]
	m.mu.Unlock()
	return ok && m.now().Before(e.expiresAt), nil
}

func (m *MemoryCache) Close() error {
	m.mu.Lock()
	m.closed = true
	m.entries = nil
	m.mu.Unlock()
	return nil
}

func (m *MemoryCache) GetMetrics() CacheMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.metrics
	out.TotalKeys = int64(len(m.entries))
	return out
}
