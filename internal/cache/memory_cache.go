package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

type memoryItem struct {
	value     []byte
	expiresAt time.Time // нулевое значение — без истечения
}

// MemoryCache кеш в памяти процесса
type MemoryCache struct {
	mu    sync.RWMutex
	items map[string]memoryItem
	now   func() time.Time

	requests int64
	hits     int64
	misses   int64
}

// NewMemoryCache создаёт пустой кеш в памяти
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		items: make(map[string]memoryItem),
		now:   time.Now,
	}
}

// Get получает значение по ключу
func (m *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	atomic.AddInt64(&m.requests, 1)

	m.mu.RLock()
	item, ok := m.items[key]
	m.mu.RUnlock()

	if ok && !item.expiresAt.IsZero() && !m.now().Before(item.expiresAt) {
		m.mu.Lock()
		if cur, still := m.items[key]; still && cur.expiresAt.Equal(item.expiresAt) {
			delete(m.items, key)
		}
		m.mu.Unlock()
		ok = false
	}
	if !ok {
		atomic.AddInt64(&m.misses, 1)
		return nil, ErrCacheMiss
	}

	atomic.AddInt64(&m.hits, 1)
	out := make([]byte, len(item.value))
	copy(out, item.value)
	return out, nil
}

// Set сохраняет значение
func (m *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if key == "" {
		return ErrInvalidKey
	}
	item := memoryItem{value: make([]byte, len(value))}
	copy(item.value, value)
	if ttl > 0 {
		item.expiresAt = m.now().Add(ttl)
	}

	m.mu.Lock()
	m.items[key] = item
	m.mu.Unlock()
	return nil
}

// Delete удаляет ключ
func (m *MemoryCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.items, key)
	m.mu.Unlock()
	return nil
}

// Clear удаляет все ключи
func (m *MemoryCache) Clear(ctx context.Context) error {
	m.mu.Lock()
	m.items = make(map[string]memoryItem)
	m.mu.Unlock()
	return nil
}

// Len возвращает число хранимых ключей (включая истёкшие, но не удалённые)
func (m *MemoryCache) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

// Close ничего не делает
func (m *MemoryCache) Close() error {
	return nil
}

// GetMetrics возвращает метрики кеша
func (m *MemoryCache) GetMetrics() *CacheMetrics {
	hits := atomic.LoadInt64(&m.hits)
	misses := atomic.LoadInt64(&m.misses)
	return &CacheMetrics{
		TotalRequests: atomic.LoadInt64(&m.requests),
		CacheHits:     hits,
		CacheMisses:   misses,
		HitRatio:      hitRatio(hits, misses),
		TotalKeys:     int64(m.Len()),
		LastUpdate:    time.Now(),
	}
}
