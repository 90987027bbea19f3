// ABOUTME: In-memory Store with per-entry TTL and periodic cleanup
// ABOUTME: State is lost on restart; suitable for single-instance deployments

package kvstore

import (
	"context"
	"sync"
	"time"
)

const cleanupInterval = time.Minute

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// MemoryStore keeps entries in a map guarded by a mutex. A background
// goroutine drops expired entries until Close is called.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]map[string]memoryEntry
	now     func() time.Time
	done    chan struct{}
	closed  bool
}

// NewMemoryStore starts an empty store.
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		entries: make(map[string]map[string]memoryEntry),
		now:     time.Now,
		done:    make(chan struct{}),
	}
	go s.cleanup()
	return s
}

func (s *MemoryStore) Get(_ context.Context, collection, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[collection][key]
	if !ok || entry.expired(s.now()) {
		return nil, ErrNotFound
	}
	return append([]byte(nil), entry.value...), nil
}

func (s *MemoryStore) Put(_ context.Context, collection, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.entries[collection]
	if !ok {
		c = make(map[string]memoryEntry)
		s.entries[collection] = c
	}
	c[key] = memoryEntry{
		value:     append([]byte(nil), value...),
		expiresAt: expiry(s.now(), ttl),
	}
	return nil
}

func (s *MemoryStore) Take(_ context.Context, collection, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[collection][key]
	if !ok {
		return nil, ErrNotFound
	}
	delete(s.entries[collection], key)
	if entry.expired(s.now()) {
		return nil, ErrNotFound
	}
	return entry.value, nil
}

func (s *MemoryStore) Delete(_ context.Context, collection, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries[collection], key)
	return nil
}

// Close stops the cleanup goroutine. Safe to call more than once.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		s.closed = true
		close(s.done)
	}
	return nil
}

func (s *MemoryStore) cleanup() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.removeExpired()
		}
	}
}

func (s *MemoryStore) removeExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for _, c := range s.entries {
		for key, entry := range c {
			if entry.expired(now) {
				delete(c, key)
			}
		}
	}
}
