// Package consumer persists local OAuth2 client records. Uniqueness is
// effectively by (subject, authorized party); both implementations reject
// duplicate creates with ports.ErrDuplicate so callers can re-read.
package consumer

import (
	"context"
	"sync"
	"time"

	"authgate/internal/oauth2/models"
	"authgate/internal/oauth2/ports"
)

// InMemoryStore implements the consumer store with mutex-guarded maps.
type InMemoryStore struct {
	mu        sync.RWMutex
	byID      map[string]*models.Consumer
	byKey     map[string]*models.Consumer
	byPairKey map[string]*models.Consumer
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		byID:      make(map[string]*models.Consumer),
		byKey:     make(map[string]*models.Consumer),
		byPairKey: make(map[string]*models.Consumer),
	}
}

func pairKey(subject, azp string) string {
	return subject + "\x00" + azp
}

func (s *InMemoryStore) ByKey(_ context.Context, key string) (*models.Consumer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.byKey[key]; ok {
		copied := *c
		return &copied, nil
	}
	return nil, nil
}

func (s *InMemoryStore) BySubjectAndAzp(_ context.Context, subject, authorizedParty string) (*models.Consumer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.byPairKey[pairKey(subject, authorizedParty)]; ok {
		copied := *c
		return &copied, nil
	}
	return nil, nil
}

func (s *InMemoryStore) Create(_ context.Context, consumer *models.Consumer) (*models.Consumer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pk := pairKey(consumer.Subject, consumer.AuthorizedParty)
	if _, exists := s.byPairKey[pk]; exists {
		return nil, ports.ErrDuplicate
	}
	if _, exists := s.byID[consumer.ID]; exists {
		return nil, ports.ErrDuplicate
	}

	stored := *consumer
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now()
	}
	s.byID[stored.ID] = &stored
	s.byKey[stored.Key] = &stored
	s.byPairKey[pk] = &stored

	copied := stored
	return &copied, nil
}

func (s *InMemoryStore) UpdateCertificate(_ context.Context, consumerID, certificatePEM string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.byID[consumerID]
	if !ok {
		return ports.ErrNotFound
	}
	c.CertificatePEM = certificatePEM
	return nil
}
