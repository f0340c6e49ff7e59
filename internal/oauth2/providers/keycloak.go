package providers

import (
	"context"

	"authgate/internal/oauth2/identity"
	"authgate/internal/oauth2/models"
	"authgate/internal/oauth2/policy"
	"authgate/internal/oauth2/ports"
	"authgate/internal/oauth2/token"
)

// Keycloak authenticates both token shapes Keycloak hands out: ID
// tokens (`typ` claim "ID") and access tokens ("Bearer" or absent).
// Access tokens additionally drive role synchronization, since only
// they carry the realm role tree.
type Keycloak struct {
	base
	issuer    string
	validator ports.TokenValidator
	roleSync  *policy.RoleSync
}

func NewKeycloak(name, issuer string, validator ports.TokenValidator, resolver *identity.Resolver, roleSync *policy.RoleSync) *Keycloak {
	return &Keycloak{
		base:      base{name: name, resolver: resolver},
		issuer:    issuer,
		validator: validator,
		roleSync:  roleSync,
	}
}

func (p *Keycloak) Matches(_ context.Context, tokenString string) bool {
	iss, ok := token.PeekIssuer(tokenString)
	return ok && token.IssuerMatches(iss, p.issuer)
}

func (p *Keycloak) Authenticate(ctx context.Context, tokenString string, cc models.CallContext) (*models.User, models.CallContext, error) {
	var (
		claims models.Claims
		err    error
	)

	typ, _ := token.PeekClaim("typ", tokenString)
	isIDToken := typ == "ID"
	if isIDToken {
		claims, err = p.validator.ValidateIDToken(ctx, tokenString, p.name)
	} else {
		claims, err = p.validator.ValidateAccessToken(ctx, tokenString, p.name)
	}
	if err != nil {
		return nil, cc.WithConsumerFailure(err), err
	}

	user, out, err := p.finish(ctx, claims.Issuer, claims, cc)
	if err != nil {
		return nil, out, err
	}

	if !isIDToken && p.roleSync != nil {
		if err := p.roleSync.Sync(ctx, out.Consumer, tokenString); err != nil {
			return nil, out.WithConsumerFailure(err), err
		}
	}
	return user, out, nil
}
