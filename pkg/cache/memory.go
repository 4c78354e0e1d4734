package cache

import (
	"context"
	"sync"
)

// MemoryStore is a session-lifetime Store. It copies bodies on the way in and
// on the way out so callers can never alias a stored entry.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string][]byte)}
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, key RequestKey) ([]byte, error) {
	s.mu.RLock()
	body, ok := s.entries[key.String()]
	s.mu.RUnlock()

	if !ok {
		CacheMisses.WithLabelValues(layerMemory).Inc()
		return nil, ErrCacheMiss
	}
	CacheHits.WithLabelValues(layerMemory).Inc()
	return append([]byte(nil), body...), nil
}

// Put implements Store.
func (s *MemoryStore) Put(_ context.Context, key RequestKey, body []byte) error {
	stored := append([]byte(nil), body...)

	s.mu.Lock()
	_, existed := s.entries[key.String()]
	s.entries[key.String()] = stored
	s.mu.Unlock()

	if !existed {
		CacheEntries.WithLabelValues(layerMemory).Inc()
	}
	return nil
}

// Len returns the number of entries.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
