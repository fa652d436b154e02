package cache

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	value     []byte
	expiresAt time.Time
}

// Memory is a concurrency-safe in-process Store with per-entry TTL. It backs
// the fast tier when no Redis is configured, and the tests.
type Memory struct {
	mu      sync.Mutex
	entries map[string]entry

	// now is swappable for tests.
	now func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	if m.now().After(e.expiresAt) {
		delete(m.entries, key)
		return nil, false
	}
	return e.value, true
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Opportunistically drop expired entries so the map does not grow without
	// bound between requests for distinct keys.
	cutoff := m.now()
	for k, e := range m.entries {
		if cutoff.After(e.expiresAt) {
			delete(m.entries, k)
		}
	}

	m.entries[key] = entry{value: value, expiresAt: cutoff.Add(ttl)}
}

func (m *Memory) Close() error { return nil }
