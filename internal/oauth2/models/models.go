// Package models holds the domain records threaded through the OAuth2
// authentication pipeline. Claims are transient (one request); users,
// consumers, and scopes are persistent and owned by the stores.
package models

import (
	"net/http"
	"strings"
	"time"
)

// Claims is the decoded payload of a validated bearer token. It is never
// persisted verbatim; resolution picks the fields it needs.
type Claims struct {
	Issuer          string
	Subject         string
	Audience        []string
	AuthorizedParty string
	Email           string
	GivenName       string
	Username        string
	TokenType       string // the `typ` claim when present (e.g. "ID", "Bearer")
	ExpiresAt       time.Time
	NotBefore       time.Time

	// Custom carries non-standard claims (e.g. resource role trees) keyed
	// by claim name, decoded from the signed payload.
	Custom map[string]any
}

// FederatedSubjectPrefix marks subject claims that reference an existing
// local user by resource user id instead of a provider-assigned identity.
// Federated users are only ever looked up, never created.
const FederatedSubjectPrefix = "resource-user-id:"

// ParseFederatedSubject extracts the resource user id from a federated
// subject claim. ok is false for ordinary provider subjects.
func ParseFederatedSubject(subject string) (string, bool) {
	rest, found := strings.CutPrefix(subject, FederatedSubjectPrefix)
	if !found || rest == "" {
		return "", false
	}
	return rest, true
}

// User is a local identity keyed by (provider, provider-assigned subject).
// At most one user exists per key; email and name are set at creation only.
type User struct {
	ResourceUserID string
	Provider       string
	Username       string // the provider-assigned subject id
	Name           string
	Email          string
	CreatedAt      time.Time
}

// Consumer is a local OAuth2 client record. Uniqueness is by
// (Subject, AuthorizedParty); the certificate is bound once and immutable
// afterwards.
type Consumer struct {
	ID              string
	Key             string
	Secret          string
	Name            string
	AppType         string
	Description     string
	Audience        string
	AuthorizedParty string
	Issuer          string
	Subject         string
	Email           string
	RedirectURL     string
	CertificatePEM  string
	Enabled         bool
	CreatedByUserID string
	CreatedAt       time.Time
}

// Scope grants a role to a consumer, optionally restricted to one bank.
type Scope struct {
	ID         string
	BankID     string
	ConsumerID string
	Role       string
}

// Introspection is the response of the remote authorization server for an
// opaque access token.
type Introspection struct {
	Active    bool
	Issuer    string
	ClientID  string
	Subject   string
	Audience  string
	Username  string
	Scope     string
	Expiry    int64
	NotBefore int64
}

// OAuth2Client is the authorization server's registered client record, used
// to check the token-endpoint auth method and mirror certificate bindings.
type OAuth2Client struct {
	ClientID                string
	TokenEndpointAuthMethod string
	Metadata                map[string]any
}

// CallContext is the per-request carrier crossing the pipeline boundary in
// both directions. It is treated as an immutable value: every update
// returns a copy, so individual steps stay testable in isolation.
type CallContext struct {
	RequestHeaders http.Header
	Consumer       *Consumer
	ConsumerErr    error
}

// NewCallContext builds a context from inbound request headers.
func NewCallContext(headers http.Header) CallContext {
	return CallContext{RequestHeaders: headers}
}

// Header returns the named request header, or "" when absent.
func (c CallContext) Header(name string) string {
	if c.RequestHeaders == nil {
		return ""
	}
	return c.RequestHeaders.Get(name)
}

// WithConsumer returns a copy of the context carrying the resolved consumer.
func (c CallContext) WithConsumer(consumer *Consumer) CallContext {
	c.Consumer = consumer
	c.ConsumerErr = nil
	return c
}

// WithConsumerFailure returns a copy of the context carrying the failure
// that prevented consumer resolution.
func (c CallContext) WithConsumerFailure(err error) CallContext {
	c.Consumer = nil
	c.ConsumerErr = err
	return c
}

// ProviderDescriptor is the static per-provider configuration, created at
// startup and immutable afterwards.
type ProviderDescriptor struct {
	Name         string // logical provider key, also used for JWKS matching
	Issuer       string // canonical issuer token
	WellKnownURI string
}
