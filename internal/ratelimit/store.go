package ratelimit

import (
	"context"
	"sync"
	"time"
)

// CounterStore counts events per key inside a rolling window. It is
// injected rather than kept as package state so multi-instance
// deployments can swap in a shared backing store.
type CounterStore interface {
	// Incr bumps the counter for key and returns the new count. The
	// first increment of a window starts the TTL.
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

type memoryEntry struct {
	count     int64
	expiresAt time.Time
}

// MemoryStore is the single-instance CounterStore: a mutex-guarded map
// with lazy window expiry.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
}

// NewMemoryStore creates an in-memory counter store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*memoryEntry)}
}

// Incr implements CounterStore.
func (s *MemoryStore) Incr(_ context.Context, key string, window time.Duration) (int64, error) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok || now.After(e.expiresAt) {
		e = &memoryEntry{expiresAt: now.Add(window)}
		s.entries[key] = e
	}
	e.count++

	// Opportunistically drop expired keys so the map stays bounded.
	if len(s.entries) > 1024 {
		for k, v := range s.entries {
			if now.After(v.expiresAt) {
				delete(s.entries, k)
			}
		}
	}

	return e.count, nil
}
