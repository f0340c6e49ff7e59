// Package user persists local user identities. The in-memory store backs
// unit tests and dependency-free boot; PostgresStore is the production
// implementation.
package user

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"authgate/internal/oauth2/models"
)

// InMemoryStore implements the user store with a mutex-guarded map. The
// lock makes GetOrCreate an atomic check-and-insert, mirroring the unique
// constraint the postgres store relies on.
type InMemoryStore struct {
	mu    sync.RWMutex
	byKey map[string]*models.User
	byID  map[string]*models.User
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		byKey: make(map[string]*models.User),
		byID:  make(map[string]*models.User),
	}
}

func key(provider, username string) string {
	return provider + "\x00" + username
}

func (s *InMemoryStore) ByProviderAndUsername(_ context.Context, provider, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if u, ok := s.byKey[key(provider, username)]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, nil
}

func (s *InMemoryStore) ByResourceUserID(_ context.Context, resourceUserID string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if u, ok := s.byID[resourceUserID]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, nil
}

func (s *InMemoryStore) GetOrCreate(_ context.Context, provider, username, name, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u, ok := s.byKey[key(provider, username)]; ok {
		copied := *u
		return &copied, nil
	}

	u := &models.User{
		ResourceUserID: uuid.NewString(),
		Provider:       provider,
		Username:       username,
		Name:           name,
		Email:          email,
		CreatedAt:      time.Now(),
	}
	s.byKey[key(provider, username)] = u
	s.byID[u.ResourceUserID] = u

	copied := *u
	return &copied, nil
}
