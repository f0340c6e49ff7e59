// Package failures defines the coded error taxonomy for the OAuth2
// authentication pipeline. Every outcome that is not a fully authenticated
// user is represented by one of these codes; failures are returned as
// values, never panicked, and carry optional structured diagnostics for
// logging that must not leak to external callers.
package failures

import (
	"errors"
	"fmt"
	"strings"
)

// Code identifies a failure class. The set is closed: the transport
// layer maps codes to statuses, and only observability sees diagnostics.
type Code string

const (
	// CodeDisabled: the OAuth2 login feature flag is off.
	CodeDisabled Code = "oauth2_disabled"
	// CodeIssuerNotRecognized: no provider predicate matched the token.
	CodeIssuerNotRecognized Code = "issuer_not_recognized"
	// CodeJwksAddressNotFound: no configured JWKS address matched the provider key.
	CodeJwksAddressNotFound Code = "jwks_address_not_found"
	// CodeTokenInvalid: signature or standard-claims verification failed.
	CodeTokenInvalid Code = "token_invalid"
	// CodeTokenInactive: introspection reported the token revoked or expired.
	CodeTokenInactive Code = "token_inactive"
	// CodeClientAuthMethodForbidden: the introspected client's registered
	// token-endpoint auth method is not on the allow-list.
	CodeClientAuthMethodForbidden Code = "client_auth_method_forbidden"
	// CodeConsumerMissing: introspection succeeded but no local consumer
	// record could be associated with the client.
	CodeConsumerMissing Code = "consumer_missing"
	// CodeCertificateMismatch: the inbound client certificate does not match
	// the certificate previously bound to the consumer.
	CodeCertificateMismatch Code = "certificate_mismatch"
	// CodeAccountLocked: the resolved user is currently locked out.
	CodeAccountLocked Code = "account_locked"
	// CodeConsumerCreationFailed: the consumer store rejected creation or update.
	CodeConsumerCreationFailed Code = "consumer_creation_failed"
	// CodeInternal: an unexpected collaborator error (store, network).
	CodeInternal Code = "internal"
)

// Failure is a coded authentication error. Diagnostics hold operator-facing
// context (issuer seen, configured JWKS list, provider key tried) and are
// only ever written to logs and audit events.
type Failure struct {
	Code        Code
	Message     string
	Diagnostics map[string]string

	cause error
}

// New creates a Failure with the given code and message.
func New(code Code, message string) *Failure {
	return &Failure{Code: code, Message: message}
}

// Newf creates a Failure with a formatted message.
func Newf(code Code, format string, args ...any) *Failure {
	return &Failure{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap annotates an underlying error with a failure code. The cause is
// preserved unmodified so provider attribution in crypto errors survives.
func Wrap(err error, code Code, message string) *Failure {
	return &Failure{Code: code, Message: message, cause: err}
}

// WithDiagnostic attaches a structured diagnostic field and returns the
// failure for chaining.
func (f *Failure) WithDiagnostic(key, value string) *Failure {
	if f.Diagnostics == nil {
		f.Diagnostics = make(map[string]string)
	}
	f.Diagnostics[key] = value
	return f
}

func (f *Failure) Error() string {
	var b strings.Builder
	b.WriteString(string(f.Code))
	b.WriteString(": ")
	b.WriteString(f.Message)
	if f.cause != nil {
		b.WriteString(": ")
		b.WriteString(f.cause.Error())
	}
	return b.String()
}

func (f *Failure) Unwrap() error {
	return f.cause
}

// Is reports whether err carries the given failure code anywhere in its chain.
func Is(err error, code Code) bool {
	var f *Failure
	if errors.As(err, &f) {
		return f.Code == code
	}
	return false
}

// CodeOf extracts the failure code from err, or CodeInternal when err is
// not a coded failure.
func CodeOf(err error) Code {
	var f *Failure
	if errors.As(err, &f) {
		return f.Code
	}
	return CodeInternal
}

// LogAttrs flattens the failure into slog-style key-value pairs, including
// diagnostics. Intended for internal logging only.
func (f *Failure) LogAttrs() []any {
	attrs := []any{"code", string(f.Code), "message", f.Message}
	for k, v := range f.Diagnostics {
		attrs = append(attrs, k, v)
	}
	if f.cause != nil {
		attrs = append(attrs, "cause", f.cause.Error())
	}
	return attrs
}
