// pkg/memcache/idempotency_keys.go
package mem

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const DefaultMaxKeys = 10000

type IdempotencyStore interface {
	// Reserve stores value under key unless a live entry exists. It returns the
	// value held for key and whether this call created it.
	Reserve(key, value string) (string, bool)

	// Release drops key so the request can be retried.
	Release(key string)
}

// IdempotencyKeys holds at most size keys; the least recently used one is
// evicted first and every entry expires after ttl.
type IdempotencyKeys struct {
	mu    sync.Mutex
	cache *expirable.LRU[string, string]
}

func NewIdempotencyKeys(size int, ttl time.Duration) *IdempotencyKeys {
	if size <= 0 {
		size = DefaultMaxKeys
	}
	return &IdempotencyKeys{
		cache: expirable.NewLRU[string, string](size, nil, ttl),
	}
}

func (s *IdempotencyKeys) Reserve(key, value string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if held, ok := s.cache.Get(key); ok {
		return held, false
	}
	s.cache.Add(key, value)
	return value, true
}

func (s *IdempotencyKeys) Release(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Remove(key)
}
