package providers

import (
	"context"
	"log/slog"
	"slices"

	"authgate/internal/oauth2/failures"
	"authgate/internal/oauth2/identity"
	"authgate/internal/oauth2/models"
	"authgate/internal/oauth2/ports"
)

// Hydra authenticates opaque reference tokens by introspecting them at
// the remote authorization server. Clients are pre-registered there, so
// this path looks consumers up by client id and never provisions them.
type Hydra struct {
	name               string
	introspection      ports.IntrospectionClient
	consumers          ports.ConsumerStore
	resolver           *identity.Resolver
	allowedAuthMethods []string
	certHeader         string
	usersAreLocal      bool
	localProvider      string
	logger             *slog.Logger
}

func NewHydra(name string, introspection ports.IntrospectionClient, consumers ports.ConsumerStore, resolver *identity.Resolver,
	allowedAuthMethods []string, certHeader string, usersAreLocal bool, localProvider string, logger *slog.Logger) *Hydra {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hydra{
		name:               name,
		introspection:      introspection,
		consumers:          consumers,
		resolver:           resolver,
		allowedAuthMethods: allowedAuthMethods,
		certHeader:         certHeader,
		usersAreLocal:      usersAreLocal,
		localProvider:      localProvider,
		logger:             logger,
	}
}

func (p *Hydra) Name() string { return p.name }

// Matches claims every token that reaches it: opaque reference tokens
// carry no issuer to inspect. The registry orders this provider last.
func (p *Hydra) Matches(context.Context, string) bool { return true }

func (p *Hydra) Authenticate(ctx context.Context, tokenString string, cc models.CallContext) (*models.User, models.CallContext, error) {
	fail := func(err error) (*models.User, models.CallContext, error) {
		return nil, cc.WithConsumerFailure(err), err
	}

	intro, err := p.introspection.IntrospectToken(ctx, tokenString)
	if err != nil {
		return fail(failures.Wrap(err, failures.CodeInternal, "token introspection failed"))
	}
	if !intro.Active {
		return fail(failures.New(failures.CodeTokenInactive, "token is not active"))
	}

	client, err := p.introspection.GetClient(ctx, intro.ClientID)
	if err != nil {
		return fail(failures.Wrap(err, failures.CodeInternal, "oauth2 client lookup failed"))
	}
	if len(p.allowedAuthMethods) > 0 && !slices.Contains(p.allowedAuthMethods, client.TokenEndpointAuthMethod) {
		return fail(failures.New(failures.CodeClientAuthMethodForbidden, "client token endpoint auth method is not allowed").
			WithDiagnostic("token_endpoint_auth_method", client.TokenEndpointAuthMethod))
	}

	consumer, err := p.consumers.ByKey(ctx, intro.ClientID)
	if err != nil {
		return fail(failures.Wrap(err, failures.CodeInternal, "consumer lookup failed"))
	}
	if consumer == nil {
		return fail(failures.New(failures.CodeConsumerMissing, "no consumer registered for client").
			WithDiagnostic("client_id", intro.ClientID))
	}

	if pem := cc.Header(p.certHeader); pem != "" {
		bound, err := p.resolver.EnsureCertificate(ctx, consumer, pem)
		if err != nil {
			return fail(err)
		}
		if bound {
			// Mirror the first-use binding into the authorization
			// server's client metadata. A failed remote call fails the
			// whole attempt; the local binding stays for the retry.
			if err := p.introspection.UpdateClientCertificate(ctx, intro.ClientID, pem); err != nil {
				return fail(failures.Wrap(err, failures.CodeInternal, "certificate update at authorization server failed").
					WithDiagnostic("client_id", intro.ClientID))
			}
			p.logger.DebugContext(ctx, "certificate bound and mirrored", "client_id", intro.ClientID)
		}
	}

	userProvider := intro.Issuer
	if p.usersAreLocal {
		userProvider = p.localProvider
	}
	claims := models.Claims{
		Issuer:    intro.Issuer,
		Subject:   intro.Subject,
		Username:  intro.Username,
		GivenName: intro.Username,
	}
	user, err := p.resolver.ResolveUser(ctx, userProvider, claims)
	if err != nil {
		return fail(err)
	}

	return user, cc.WithConsumer(consumer), nil
}
