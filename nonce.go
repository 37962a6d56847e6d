package idsite

import (
	"context"
	"sync"
	"time"
)

// NonceStore remembers consumed token identifiers so each callback token is
// accepted at most once. CheckAndSet must be a single atomic primitive:
// it returns true only if the key was newly written, and false when the key
// already existed. A separate read followed by a write would let two
// concurrent verifications of the same token both succeed.
type NonceStore interface {
	CheckAndSet(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
}

// MemoryStore is an in-process NonceStore. It is only suitable when a single
// process verifies all callbacks for a deployment; otherwise use a shared
// store such as redisnonce.Store.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// NewMemoryStore returns an empty in-process nonce store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry)}
}

// CheckAndSet implements NonceStore. The check and the write happen under
// one lock acquisition.
func (s *MemoryStore) CheckAndSet(_ context.Context, key, value string, ttl time.Duration) (bool, error) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweep(now)

	if entry, ok := s.entries[key]; ok && entry.expiresAt.After(now) {
		return false, nil
	}
	s.entries[key] = memoryEntry{value: value, expiresAt: now.Add(ttl)}
	return true, nil
}

// Len reports how many unexpired nonces are held.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep(time.Now())
	return len(s.entries)
}

// sweep drops expired entries. Callers must hold s.mu.
func (s *MemoryStore) sweep(now time.Time) {
	for key, entry := range s.entries {
		if !entry.expiresAt.After(now) {
			delete(s.entries, key)
		}
	}
}
