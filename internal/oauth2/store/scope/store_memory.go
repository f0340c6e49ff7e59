// Package scope persists role grants per consumer. Role synchronization
// reconciles these via explicit add/delete, never wholesale replacement.
package scope

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"authgate/internal/oauth2/models"
)

// InMemoryStore implements the scope store with a mutex-guarded map.
type InMemoryStore struct {
	mu         sync.RWMutex
	byConsumer map[string][]models.Scope
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{byConsumer: make(map[string][]models.Scope)}
}

func (s *InMemoryStore) ByConsumerID(_ context.Context, consumerID string) ([]models.Scope, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	scopes := s.byConsumer[consumerID]
	out := make([]models.Scope, len(scopes))
	copy(out, scopes)
	return out, nil
}

func (s *InMemoryStore) Add(_ context.Context, scope models.Scope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.byConsumer[scope.ConsumerID] {
		if existing.Role == scope.Role && existing.BankID == scope.BankID {
			return nil
		}
	}
	if scope.ID == "" {
		scope.ID = uuid.NewString()
	}
	s.byConsumer[scope.ConsumerID] = append(s.byConsumer[scope.ConsumerID], scope)
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, scope models.Scope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	scopes := s.byConsumer[scope.ConsumerID]
	kept := scopes[:0]
	for _, existing := range scopes {
		if existing.Role == scope.Role && existing.BankID == scope.BankID {
			continue
		}
		kept = append(kept, existing)
	}
	s.byConsumer[scope.ConsumerID] = kept
	return nil
}
