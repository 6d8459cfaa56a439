package scorecache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	entry
	expiresAt time.Time
}

// Memory is an in-process Cache used when no Redis address is configured.
type Memory struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

func NewMemory(ttl time.Duration) *Memory {
	return &Memory{entries: make(map[string]memoryEntry), ttl: ttl, now: time.Now}
}

func (m *Memory) Get(_ context.Context, a, b string, va, vb time.Time) (int, bool) {
	key, lo, hi := pairKey(a, b, va, vb)

	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return 0, false
	}
	if m.ttl > 0 && !m.now().Before(e.expiresAt) {
		delete(m.entries, key)
		return 0, false
	}
	if !e.matches(lo, hi) {
		return 0, false
	}
	return e.Score, true
}

func (m *Memory) Set(_ context.Context, a, b string, score int, va, vb time.Time) {
	key, lo, hi := pairKey(a, b, va, vb)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key] = memoryEntry{
		entry:     entry{Score: score, LoVersion: lo, HiVersion: hi},
		expiresAt: m.now().Add(m.ttl),
	}
}

func (m *Memory) Invalidate(_ context.Context, a, b string) {
	key, _, _ := pairKey(a, b, time.Time{}, time.Time{})

	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, key)
}
