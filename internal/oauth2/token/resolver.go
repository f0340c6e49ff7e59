package token

import (
	"strings"

	"authgate/internal/oauth2/failures"
)

// ResolveJWKSAddress maps a logical provider key to a configured JWKS
// endpoint. Each configured entry may itself carry multiple comma-separated
// addresses. Matching is case-insensitive substring containment, tolerant
// of a trailing slash on the key; ties are broken by declared order, first
// match wins. Distinct provider entries must not collide by construction.
func ResolveJWKSAddress(providerKey string, configured []string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(providerKey))
	key = strings.TrimSuffix(key, "/")

	if key != "" {
		for _, entry := range configured {
			for addr := range strings.SplitSeq(entry, ",") {
				addr = strings.TrimSpace(addr)
				if addr == "" {
					continue
				}
				if strings.Contains(strings.ToLower(addr), key) {
					return addr, nil
				}
			}
		}
	}

	return "", failures.New(failures.CodeJwksAddressNotFound, "no matching jwks address for provider").
		WithDiagnostic("provider_key", providerKey).
		WithDiagnostic("configured_jwks_addresses", strings.Join(configured, ";"))
}

// IssuerMatches implements the lenient issuer-equality policy shared by all
// provider predicates: two issuers match when equal, when one contains the
// other as a substring, or when equal after stripping one trailing slash
// from either side.
//
// The substring rule accommodates inconsistent trailing-slash and path
// conventions across providers, but it can produce false positives when a
// provider key is a substring of another provider's issuer. Provider
// identity tokens must be chosen to avoid such collisions; the rule itself
// is kept as is because tightening it would break working configurations.
func IssuerMatches(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	if a == b {
		return true
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return true
	}
	return strings.TrimSuffix(a, "/") == strings.TrimSuffix(b, "/")
}
