// Package token wraps the trusted JWT/JWKS crypto stack behind the two
// validation entry points the providers need, plus the JWKS address
// resolver and unverified claim peeking used for dispatch.
package token

import (
	"context"
	"fmt"
	"sync"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	"authgate/internal/oauth2/failures"
	"authgate/internal/oauth2/models"
)

// validMethods restricts verification to asymmetric algorithms; none of
// the integrated providers issue HMAC-signed tokens.
var validMethods = []string{
	"RS256", "RS384", "RS512",
	"ES256", "ES384", "ES512",
	"PS256", "PS384", "PS512",
}

// Validator verifies self-contained tokens against per-provider JWKS
// endpoints. Keyfuncs are cached per address; the cache holds no token or
// identity state.
type Validator struct {
	jwksAddresses []string

	mu       sync.RWMutex
	keyfuncs map[string]keyfunc.Keyfunc
}

// NewValidator builds a validator over the configured JWKS address list.
// Entries may carry multiple comma-separated addresses.
func NewValidator(jwksAddresses []string) *Validator {
	return &Validator{
		jwksAddresses: jwksAddresses,
		keyfuncs:      make(map[string]keyfunc.Keyfunc),
	}
}

// Addresses returns the configured JWKS address entries in declared order.
func (v *Validator) Addresses() []string {
	return v.jwksAddresses
}

// ValidateIDToken verifies the signature and standard temporal claims of a
// self-contained ID token issued by the given provider. Resolution of the
// provider's JWKS address happens first and short-circuits with a
// JwksAddressNotFound failure before any cryptographic work.
func (v *Validator) ValidateIDToken(ctx context.Context, tokenString, providerKey string) (models.Claims, error) {
	addr, err := ResolveJWKSAddress(providerKey, v.jwksAddresses)
	if err != nil {
		return models.Claims{}, err
	}
	return v.verify(ctx, tokenString, addr)
}

// ValidateAccessToken verifies a self-contained access token the same way;
// the split entry point exists so provider adapters can branch per token
// shape without duplicating resolution.
func (v *Validator) ValidateAccessToken(ctx context.Context, tokenString, providerKey string) (models.Claims, error) {
	addr, err := ResolveJWKSAddress(providerKey, v.jwksAddresses)
	if err != nil {
		return models.Claims{}, err
	}
	return v.verify(ctx, tokenString, addr)
}

// ValidateAccessTokenAt verifies an access token against one explicit JWKS
// address, bypassing provider-key resolution. The unknown-provider
// fallback uses it to probe every configured address.
func (v *Validator) ValidateAccessTokenAt(ctx context.Context, tokenString, jwksAddress string) (models.Claims, error) {
	return v.verify(ctx, tokenString, jwksAddress)
}

func (v *Validator) verify(ctx context.Context, tokenString, jwksAddress string) (models.Claims, error) {
	kf, err := v.keyfuncFor(ctx, jwksAddress)
	if err != nil {
		return models.Claims{}, failures.Wrap(err, failures.CodeTokenInvalid, "jwks fetch failed").
			WithDiagnostic("jwks_address", jwksAddress)
	}

	parsed, err := jwt.Parse(tokenString, kf.Keyfunc, jwt.WithValidMethods(validMethods))
	if err != nil {
		// The crypto error is passed through unmodified so issuer
		// attribution in it is preserved for diagnostics.
		return models.Claims{}, failures.Wrap(err, failures.CodeTokenInvalid, "token verification failed").
			WithDiagnostic("jwks_address", jwksAddress)
	}
	if !parsed.Valid {
		return models.Claims{}, failures.New(failures.CodeTokenInvalid, "token verification failed").
			WithDiagnostic("jwks_address", jwksAddress)
	}

	mapClaims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return models.Claims{}, failures.New(failures.CodeTokenInvalid, "unexpected claims shape")
	}
	return claimsFromMap(mapClaims), nil
}

func (v *Validator) keyfuncFor(ctx context.Context, jwksAddress string) (keyfunc.Keyfunc, error) {
	v.mu.RLock()
	kf, ok := v.keyfuncs[jwksAddress]
	v.mu.RUnlock()
	if ok {
		return kf, nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if kf, ok := v.keyfuncs[jwksAddress]; ok {
		return kf, nil
	}
	kf, err := keyfunc.NewDefaultCtx(ctx, []string{jwksAddress})
	if err != nil {
		return nil, fmt.Errorf("initialize jwks keyfunc for %s: %w", jwksAddress, err)
	}
	v.keyfuncs[jwksAddress] = kf
	return kf, nil
}

// claimsFromMap lifts the raw claim map into the domain Claims value.
func claimsFromMap(mc jwt.MapClaims) models.Claims {
	claims := models.Claims{Custom: map[string]any{}}

	claims.Issuer, _ = mc["iss"].(string)
	claims.Subject, _ = mc["sub"].(string)
	claims.AuthorizedParty, _ = mc["azp"].(string)
	claims.Email, _ = mc["email"].(string)
	claims.GivenName, _ = mc["given_name"].(string)
	claims.TokenType, _ = mc["typ"].(string)

	if username, ok := mc["preferred_username"].(string); ok {
		claims.Username = username
	} else if username, ok := mc["username"].(string); ok {
		claims.Username = username
	}

	switch aud := mc["aud"].(type) {
	case string:
		claims.Audience = []string{aud}
	case []any:
		for _, a := range aud {
			if s, ok := a.(string); ok {
				claims.Audience = append(claims.Audience, s)
			}
		}
	}

	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		claims.ExpiresAt = exp.Time
	}
	if nbf, err := mc.GetNotBefore(); err == nil && nbf != nil {
		claims.NotBefore = nbf.Time
	}

	for name, value := range mc {
		switch name {
		case "iss", "sub", "aud", "azp", "email", "given_name", "typ", "exp", "nbf", "iat":
		default:
			claims.Custom[name] = value
		}
	}
	return claims
}
