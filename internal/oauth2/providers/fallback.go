package providers

import (
	"context"
	"log/slog"

	"authgate/internal/oauth2/failures"
	"authgate/internal/oauth2/identity"
	"authgate/internal/oauth2/models"
	"authgate/internal/oauth2/ports"
	"authgate/internal/oauth2/token"
)

// Fallback handles JWTs whose issuer matched no configured provider by
// probing every configured JWKS endpoint until one verifies the
// signature. Registered after the issuer-specific providers, so it only
// ever sees unrecognized issuers.
type Fallback struct {
	base
	validator ports.TokenValidator
	logger    *slog.Logger
}

func NewFallback(name string, validator ports.TokenValidator, resolver *identity.Resolver, logger *slog.Logger) *Fallback {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fallback{
		base:      base{name: name, resolver: resolver},
		validator: validator,
		logger:    logger,
	}
}

func (p *Fallback) Matches(_ context.Context, tokenString string) bool {
	_, ok := token.PeekIssuer(tokenString)
	return ok
}

func (p *Fallback) Authenticate(ctx context.Context, tokenString string, cc models.CallContext) (*models.User, models.CallContext, error) {
	addresses := p.validator.Addresses()
	if len(addresses) == 0 {
		err := failures.New(failures.CodeJwksAddressNotFound, "no jwks addresses configured for fallback verification")
		return nil, cc.WithConsumerFailure(err), err
	}

	var (
		claims models.Claims
		err    error
	)
	for _, address := range addresses {
		claims, err = p.validator.ValidateAccessTokenAt(ctx, tokenString, address)
		if err == nil {
			p.logger.DebugContext(ctx, "fallback verification succeeded", "jwks_address", address)
			break
		}
	}
	if err != nil {
		// Every configured key set rejected the token: the issuer is not
		// one we serve. The last validation error rides along for logs.
		rejected := failures.Wrap(err, failures.CodeIssuerNotRecognized, "no configured jwks address verified the token")
		return nil, cc.WithConsumerFailure(rejected), rejected
	}

	return p.finish(ctx, claims.Issuer, claims, cc)
}
