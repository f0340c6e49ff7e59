package token

import "strings"

// ExtractBearer strips transport framing from a raw Authorization header
// value, removing the literal "Authorization:" and "Bearer" prefixes
// (first occurrence each) and surrounding whitespace. The remainder is
// not validated here; downstream validation rejects non-tokens.
func ExtractBearer(raw string) string {
	s := strings.Replace(raw, "Authorization:", "", 1)
	s = strings.Replace(s, "Bearer", "", 1)
	return strings.TrimSpace(s)
}
