package token

import (
	"encoding/base64"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// peekClaims parses a JWT without verifying its signature, solely to read
// claims for dispatch decisions. Callers must never trust these values for
// anything security relevant.
func peekClaims(tokenString string) (jwt.MapClaims, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(tokenString, claims); err != nil {
		return nil, false
	}
	return claims, true
}

// PeekIssuer reads the unverified issuer claim from a token. ok is false
// when the token is not a parseable JWT (e.g. an opaque reference token).
func PeekIssuer(tokenString string) (string, bool) {
	claims, ok := peekClaims(tokenString)
	if !ok {
		return "", false
	}
	iss, _ := claims["iss"].(string)
	return iss, iss != ""
}

// PeekClaim reads an unverified string claim by name.
func PeekClaim(name, tokenString string) (string, bool) {
	claims, ok := peekClaims(tokenString)
	if !ok {
		return "", false
	}
	v, _ := claims[name].(string)
	return v, v != ""
}

// SignedPayloadJSON returns the raw JSON of the token's signed payload
// segment. Only meaningful after the token has been validated; role
// synchronization reads nested claim trees from it.
func SignedPayloadJSON(tokenString string) (string, bool) {
	parts := strings.Split(tokenString, ".")
	if len(parts) != 3 {
		return "", false
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return "", false
	}
	return string(payload), true
}
