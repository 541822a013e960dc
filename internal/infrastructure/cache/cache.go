package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Store is a typed view over an expiring in-memory cache
type Store[V any] struct {
	cache *gocache.Cache
	ttl   time.Duration
}

// New creates a store whose entries expire after ttl.
// A zero ttl disables caching: Set stores nothing.
func New[V any](ttl, cleanupInterval time.Duration) *Store[V] {
	return &Store[V]{
		cache: gocache.New(ttl, cleanupInterval),
		ttl:   ttl,
	}
}

// Get retrieves a value by key
func (s *Store[V]) Get(key string) (V, bool) {
	var zero V

	value, found := s.cache.Get(key)
	if !found {
		return zero, false
	}
	v, ok := value.(V)
	if !ok {
		return zero, false
	}
	return v, true
}

// Set stores a value under key with the store's ttl
func (s *Store[V]) Set(key string, value V) {
	if s.ttl == 0 {
		return
	}
	s.cache.Set(key, value, s.ttl)
}

// Delete removes keys
func (s *Store[V]) Delete(keys ...string) {
	for _, key := range keys {
		s.cache.Delete(key)
	}
}

// Flush removes every entry
func (s *Store[V]) Flush() {
	s.cache.Flush()
}

// Len returns the number of entries, expired ones included until cleanup
func (s *Store[V]) Len() int {
	return s.cache.ItemCount()
}
