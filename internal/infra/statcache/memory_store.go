package statcache

import (
	"context"
	"sync"
	"time"

	"github.com/openrx/admatch/internal/domain/stats"
)

type memoryEntry struct {
	payload   []byte
	expiresAt time.Time
}

// MemoryStore is an in-process stats.Cache used for tests/dev.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

// NewMemoryStore constructs an empty cache.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry)}
}

// Get implements stats.Cache.
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		s.mu.Lock()
		delete(s.entries, key)
		s.mu.Unlock()
		return nil, false, nil
	}
	return entry.payload, true, nil
}

// Set implements stats.Cache.
func (s *MemoryStore) Set(_ context.Context, key string, payload []byte, ttl time.Duration) error {
	entry := memoryEntry{payload: payload}
	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	}
	s.mu.Lock()
	s.entries[key] = entry
	s.mu.Unlock()
	return nil
}

var _ stats.Cache = (*MemoryStore)(nil)
