package providers

import (
	"context"

	"authgate/internal/oauth2/identity"
	"authgate/internal/oauth2/models"
	"authgate/internal/oauth2/ports"
	"authgate/internal/oauth2/token"
)

// OIDC authenticates standard OpenID Connect ID tokens from one
// configured issuer. Instantiated once per external provider (Google,
// Azure AD); the user is keyed under the issuer's identity namespace.
type OIDC struct {
	base
	descriptor models.ProviderDescriptor
	validator  ports.TokenValidator
}

func NewOIDC(descriptor models.ProviderDescriptor, validator ports.TokenValidator, resolver *identity.Resolver) *OIDC {
	return &OIDC{
		base:       base{name: descriptor.Name, resolver: resolver},
		descriptor: descriptor,
		validator:  validator,
	}
}

func (p *OIDC) Matches(_ context.Context, tokenString string) bool {
	iss, ok := token.PeekIssuer(tokenString)
	return ok && token.IssuerMatches(iss, p.descriptor.Issuer)
}

func (p *OIDC) Authenticate(ctx context.Context, tokenString string, cc models.CallContext) (*models.User, models.CallContext, error) {
	claims, err := p.validator.ValidateIDToken(ctx, tokenString, p.descriptor.Name)
	if err != nil {
		return nil, cc.WithConsumerFailure(err), err
	}
	return p.finish(ctx, p.descriptor.Issuer, claims, cc)
}
