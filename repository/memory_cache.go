package repository

import (
	"context"
	"sync"
	"time"
)

const (
	defaultMemoryCacheEntries = 10_000
	memoryCacheSweepInterval  = time.Minute
)

type memoryEntry struct {
	value     string
	expiresAt time.Time // zero means no expiry
}

// MemoryCache is a process-local CacheRepository used when no redis address
// is configured, and in tests. Expired entries are swept on writes at most
// once per sweep interval, and the cache never holds more than maxEntries.
type MemoryCache struct {
	mu         sync.Mutex
	data       map[string]memoryEntry
	maxEntries int
	lastSweep  time.Time
	now        func() time.Time
}

var _ CacheRepository = (*MemoryCache)(nil)

func NewMemoryCache() *MemoryCache {
	return NewMemoryCacheWithLimit(defaultMemoryCacheEntries)
}

func NewMemoryCacheWithLimit(maxEntries int) *MemoryCache {
	if maxEntries <= 0 {
		maxEntries = defaultMemoryCacheEntries
	}
	return &MemoryCache{
		data:       make(map[string]memoryEntry),
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

func (m *MemoryCache) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.data[key]
	if !ok {
		return "", false, nil
	}
	if entry.expired(m.now()) {
		delete(m.data, key)
		return "", false, nil
	}
	return entry.value, true, nil
}

func (m *MemoryCache) Set(_ context.Context, key string, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if now.Sub(m.lastSweep) >= memoryCacheSweepInterval {
		m.sweep(now)
	}
	if _, exists := m.data[key]; !exists && len(m.data) >= m.maxEntries {
		m.sweep(now)
		if len(m.data) >= m.maxEntries {
			m.evictOne()
		}
	}

	entry := memoryEntry{value: value}
	if ttl > 0 {
		entry.expiresAt = now.Add(ttl)
	}
	m.data[key] = entry
	return nil
}

// Len returns the number of stored entries, expired ones not yet swept included.
func (m *MemoryCache) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

func (m *MemoryCache) sweep(now time.Time) {
	for key, entry := range m.data {
		if entry.expired(now) {
			delete(m.data, key)
		}
	}
	m.lastSweep = now
}

// evictOne drops the entry closest to expiry. Entries without expiry go last.
func (m *MemoryCache) evictOne() {
	var victim string
	var victimExpiry time.Time
	found := false
	for key, entry := range m.data {
		switch {
		case !found:
		case entry.expiresAt.IsZero():
			continue
		case !victimExpiry.IsZero() && !entry.expiresAt.Before(victimExpiry):
			continue
		}
		victim, victimExpiry, found = key, entry.expiresAt, true
	}
	if found {
		delete(m.data, victim)
	}
}
