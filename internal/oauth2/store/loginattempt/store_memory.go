// Package loginattempt exposes lockout state maintained elsewhere in the
// platform. The authentication pipeline only reads it; counters are
// incremented by the login-failure tracking service that owns them.
package loginattempt

import (
	"context"
	"sync"
)

// InMemoryStore backs unit tests and dependency-free boot.
type InMemoryStore struct {
	mu     sync.RWMutex
	locked map[string]bool
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{locked: make(map[string]bool)}
}

func key(provider, username string) string {
	return provider + "\x00" + username
}

func (s *InMemoryStore) IsLocked(_ context.Context, provider, username string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.locked[key(provider, username)], nil
}

// SetLocked flips lockout state; test hook mirroring what the failure
// tracking service does in production.
func (s *InMemoryStore) SetLocked(provider, username string, locked bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locked[key(provider, username)] = locked
}
