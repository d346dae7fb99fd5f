// Package cache provides the read-through history caches: a TTL-bounded
// in-memory tier and an optional SQLite-backed persistent tier.
package cache

import (
	"sync"
	"time"

	"github.com/kyuwon/tradewind/internal/core"
)

// Key identifies a cached history fetch.
type Key struct {
	Ticker   string
	Period   string
	Interval string
}

type entry struct {
	at   time.Time
	bars []core.PriceBar
}

// Memory is a TTL read-through cache for price histories. Reads and writes
// for different keys do not block each other beyond the shared RWMutex hold.
type Memory struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[Key]entry
	now     func() time.Time
}

// NewMemory creates a memory cache with the given TTL.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		ttl:     ttl,
		entries: make(map[Key]entry),
		now:     time.Now,
	}
}

// Get returns the cached series for key if it is still fresh.
func (m *Memory) Get(key Key) ([]core.PriceBar, bool) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok || m.now().Sub(e.at) >= m.ttl {
		return nil, false
	}
	return e.bars, true
}

// Set stores a series under key with the current timestamp.
func (m *Memory) Set(key Key, bars []core.PriceBar) {
	m.mu.Lock()
	m.entries[key] = entry{at: m.now(), bars: bars}
	m.mu.Unlock()
}

// Len reports the number of entries, fresh or stale.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
