package verdictcache

import (
	"context"
	"sync"
	"time"

	"github.com/yanqian/dupcheck/internal/domain/dedup"
)

type entry struct {
	verdict   dedup.CachedVerdict
	expiresAt time.Time
}

// MemoryStore is an in-memory verdict cache for tests/dev.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time
}

// NewMemoryStore constructs a cache backed by process memory.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Get implements dedup.VerdictCache.
func (s *MemoryStore) Get(_ context.Context, key string) (dedup.CachedVerdict, bool, error) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return dedup.CachedVerdict{}, false, nil
	}
	if s.hasExpired(e.expiresAt) {
		s.mu.Lock()
		delete(s.entries, key)
		s.mu.Unlock()
		return dedup.CachedVerdict{}, false, nil
	}
	return e.verdict, true, nil
}

// Save caches the verdict with optional TTL.
func (s *MemoryStore) Save(_ context.Context, key string, verdict dedup.CachedVerdict, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	exp := time.Time{}
	if ttl > 0 {
		exp = s.now().Add(ttl)
	}
	s.entries[key] = entry{verdict: verdict, expiresAt: exp}
	return nil
}

// Len reports how many entries are held, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *MemoryStore) hasExpired(ts time.Time) bool {
	if ts.IsZero() {
		return false
	}
	return ts.Before(s.now())
}

var _ dedup.VerdictCache = (*MemoryStore)(nil)
