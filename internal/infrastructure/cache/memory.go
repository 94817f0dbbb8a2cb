package cache

import (
	"context"
	"sync"
	"time"

	"github.com/glutenvergelijker/backend/internal/domain"
)

// entry is a stored value with an optional expiry; a zero expiresAt never expires
type entry struct {
	value     []byte
	expiresAt time.Time
}

func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// MemoryStore is a thread-safe in-memory key-value store with TTL support.
// Expired entries are evicted lazily on access.
type MemoryStore struct {
	data  map[string]entry
	mutex sync.RWMutex
	now   func() time.Time
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]entry),
		now:  time.Now,
	}
}

// Get retrieves a copy of the value stored under key
func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mutex.RLock()
	item, exists := s.data[key]
	s.mutex.RUnlock()

	if !exists {
		return nil, domain.ErrCacheMiss
	}
	if item.expired(s.now()) {
		s.evict(key)
		return nil, domain.ErrCacheMiss
	}

	out := make([]byte, len(item.value))
	copy(out, item.value)
	return out, nil
}

// Set stores value under key. A non-positive ttl keeps the entry until it is deleted.
func (s *MemoryStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	item := entry{value: make([]byte, len(value))}
	copy(item.value, value)
	if ttl > 0 {
		item.expiresAt = s.now().Add(ttl)
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.data[key] = item
	return nil
}

// Delete removes a key; deleting an absent key is not an error
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	delete(s.data, key)
	return nil
}

// Exists checks if a key exists in the store and is not expired
func (s *MemoryStore) Exists(ctx context.Context, key string) (bool, error) {
	s.mutex.RLock()
	item, exists := s.data[key]
	s.mutex.RUnlock()

	if !exists {
		return false, nil
	}
	if item.expired(s.now()) {
		s.evict(key)
		return false, nil
	}
	return true, nil
}

// Len returns the number of stored entries, expired ones included until they are touched
func (s *MemoryStore) Len() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.data)
}

func (s *MemoryStore) evict(key string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if item, ok := s.data[key]; ok && item.expired(s.now()) {
		delete(s.data, key)
	}
}
