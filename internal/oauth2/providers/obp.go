package providers

import (
	"context"

	"authgate/internal/oauth2/identity"
	"authgate/internal/oauth2/models"
	"authgate/internal/oauth2/ports"
	"authgate/internal/oauth2/token"
)

// OBP authenticates access tokens minted by the platform's own
// authorization endpoint. When usersAreLocal is set, subjects are keyed
// under the canonical local provider namespace instead of the token
// issuer, unifying identities with password-based logins.
type OBP struct {
	base
	issuer        string
	validator     ports.TokenValidator
	usersAreLocal bool
	localProvider string
}

func NewOBP(name, issuer string, validator ports.TokenValidator, resolver *identity.Resolver, usersAreLocal bool, localProvider string) *OBP {
	return &OBP{
		base:          base{name: name, resolver: resolver},
		issuer:        issuer,
		validator:     validator,
		usersAreLocal: usersAreLocal,
		localProvider: localProvider,
	}
}

func (p *OBP) Matches(_ context.Context, tokenString string) bool {
	iss, ok := token.PeekIssuer(tokenString)
	return ok && token.IssuerMatches(iss, p.issuer)
}

func (p *OBP) Authenticate(ctx context.Context, tokenString string, cc models.CallContext) (*models.User, models.CallContext, error) {
	claims, err := p.validator.ValidateAccessToken(ctx, tokenString, p.name)
	if err != nil {
		return nil, cc.WithConsumerFailure(err), err
	}

	userProvider := claims.Issuer
	if p.usersAreLocal {
		userProvider = p.localProvider
	}
	return p.finish(ctx, userProvider, claims, cc)
}
