// Package ports defines the collaborator interfaces the OAuth2 pipeline
// consumes. Interfaces live here when more than one service needs them;
// the store layer, not this module, owns atomicity of resolve-or-create
// under concurrent identical keys.
package ports

import (
	"context"
	"errors"

	"authgate/internal/oauth2/models"
)

// ErrDuplicate is returned by ConsumerStore.Create when a record with the
// same uniqueness key already exists, letting callers re-read instead of
// failing the request.
var ErrDuplicate = errors.New("record already exists")

// ErrNotFound is returned by updates addressing a record that does not
// exist. Lookups signal absence with a nil record instead.
var ErrNotFound = errors.New("record not found")

// UserStore persists local user identities keyed by (provider, username).
type UserStore interface {
	// ByProviderAndUsername returns the user for the key, or nil when absent.
	ByProviderAndUsername(ctx context.Context, provider, username string) (*models.User, error)

	// ByResourceUserID returns the user with the given internal id, or nil.
	// Used for federated subject references, which are never created here.
	ByResourceUserID(ctx context.Context, resourceUserID string) (*models.User, error)

	// GetOrCreate resolves the user for (provider, username), creating it
	// with name and email on first sight. Must be idempotent under
	// concurrent calls with the same key.
	GetOrCreate(ctx context.Context, provider, username, name, email string) (*models.User, error)
}

// ConsumerStore persists local OAuth2 client records. Effective uniqueness
// is by (subject, authorized party).
type ConsumerStore interface {
	// ByKey returns the consumer with the given consumer key, or nil.
	ByKey(ctx context.Context, key string) (*models.Consumer, error)

	// BySubjectAndAzp returns the consumer for the pair, or nil.
	BySubjectAndAzp(ctx context.Context, subject, authorizedParty string) (*models.Consumer, error)

	// Create inserts a new consumer. A duplicate (subject, azp) insert
	// must fail in a way GetOrCreate callers can detect and re-read.
	Create(ctx context.Context, consumer *models.Consumer) (*models.Consumer, error)

	// UpdateCertificate binds a client certificate to the consumer. Stores
	// only persist; first-use-only semantics are enforced by the caller.
	// Returns ErrNotFound when no consumer has the given id.
	UpdateCertificate(ctx context.Context, consumerID, certificatePEM string) error
}

// ScopeStore persists role grants per consumer. Mutation is add/remove
// reconciliation, never wholesale replacement.
type ScopeStore interface {
	ByConsumerID(ctx context.Context, consumerID string) ([]models.Scope, error)
	Add(ctx context.Context, scope models.Scope) error
	Delete(ctx context.Context, scope models.Scope) error
}

// LoginAttemptStore exposes lockout state. This module only ever reads it.
type LoginAttemptStore interface {
	IsLocked(ctx context.Context, provider, username string) (bool, error)
}

// IntrospectionClient talks to the remote authorization server for the
// opaque-token integration.
type IntrospectionClient interface {
	IntrospectToken(ctx context.Context, token string) (*models.Introspection, error)
	GetClient(ctx context.Context, clientID string) (*models.OAuth2Client, error)
	UpdateClientCertificate(ctx context.Context, clientID, certificatePEM string) error
}

// TokenValidator is the trusted crypto boundary: verify-and-parse for the
// two self-contained token shapes, plus address probing for the fallback.
type TokenValidator interface {
	ValidateIDToken(ctx context.Context, token, providerKey string) (models.Claims, error)
	ValidateAccessToken(ctx context.Context, token, providerKey string) (models.Claims, error)
	ValidateAccessTokenAt(ctx context.Context, token, jwksAddress string) (models.Claims, error)
	Addresses() []string
}
