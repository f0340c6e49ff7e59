// Package providers implements per-identity-provider authentication
// strategies and the ordered registry that dispatches a bearer token to
// the first provider claiming it.
package providers

import (
	"context"
	"log/slog"

	"authgate/internal/oauth2/failures"
	"authgate/internal/oauth2/identity"
	"authgate/internal/oauth2/models"
)

// Provider is one authentication strategy. Matches must be cheap and
// side-effect free; Authenticate performs validation, identity
// resolution, and any provider-specific policy.
type Provider interface {
	Name() string
	Matches(ctx context.Context, tokenString string) bool
	Authenticate(ctx context.Context, tokenString string, cc models.CallContext) (*models.User, models.CallContext, error)
}

// Registry dispatches tokens across providers in declaration order.
// Order is part of the contract: specific issuer predicates come before
// the JWT fallback, which comes before introspection.
type Registry struct {
	providers []Provider
	logger    *slog.Logger
}

func NewRegistry(logger *slog.Logger, providers ...Provider) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{providers: providers, logger: logger}
}

// Authenticate routes tokenString to the first matching provider and
// runs it. The returned provider name identifies the strategy for
// logging and metrics even when authentication fails.
func (r *Registry) Authenticate(ctx context.Context, tokenString string, cc models.CallContext) (string, *models.User, models.CallContext, error) {
	for _, p := range r.providers {
		if !p.Matches(ctx, tokenString) {
			continue
		}
		r.logger.DebugContext(ctx, "token dispatched", "provider", p.Name())
		user, out, err := p.Authenticate(ctx, tokenString, cc)
		return p.Name(), user, out, err
	}

	err := failures.New(failures.CodeIssuerNotRecognized, "no provider recognizes this token")
	return "", nil, cc.WithConsumerFailure(err), err
}

// base carries the collaborators every JWT-backed provider shares and
// the post-validation steps common to all of them. Certificate binding
// is not here: it belongs to the introspection path alone.
type base struct {
	name     string
	resolver *identity.Resolver
}

func (b base) Name() string { return b.name }

// finish resolves the user and consumer for validated claims and
// threads the consumer into the call context. userProvider is the
// identity namespace the local user is keyed under.
func (b base) finish(ctx context.Context, userProvider string, claims models.Claims, cc models.CallContext) (*models.User, models.CallContext, error) {
	user, err := b.resolver.ResolveUser(ctx, userProvider, claims)
	if err != nil {
		return nil, cc.WithConsumerFailure(err), err
	}

	consumer, err := b.resolver.ResolveConsumer(ctx, claims, user)
	if err != nil {
		return nil, cc.WithConsumerFailure(err), err
	}

	return user, cc.WithConsumer(consumer), nil
}
