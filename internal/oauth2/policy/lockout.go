// Package policy enforces post-validation account policies: lockout
// checks and role synchronization between token claims and stored
// consumer scopes.
package policy

import (
	"context"
	"log/slog"

	"authgate/internal/oauth2/failures"
	"authgate/internal/oauth2/ports"
	"authgate/pkg/audit"
)

// Lockout rejects authentication for accounts the login-attempt tracker
// has marked locked. Token validity does not override a lock.
type Lockout struct {
	attempts  ports.LoginAttemptStore
	logger    *slog.Logger
	publisher audit.Publisher
}

type LockoutOption func(*Lockout)

func WithLockoutLogger(logger *slog.Logger) LockoutOption {
	return func(l *Lockout) { l.logger = logger }
}

func WithLockoutAuditPublisher(p audit.Publisher) LockoutOption {
	return func(l *Lockout) { l.publisher = p }
}

// NewLockout builds the lockout check. A nil attempts store disables
// the check entirely.
func NewLockout(attempts ports.LoginAttemptStore, opts ...LockoutOption) *Lockout {
	l := &Lockout{attempts: attempts}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Check fails with an account-locked failure when (provider, username)
// is currently locked. Tracker errors fail closed as internal errors
// rather than letting a locked account through.
func (l *Lockout) Check(ctx context.Context, provider, username string) error {
	if l.attempts == nil {
		return nil
	}

	locked, err := l.attempts.IsLocked(ctx, provider, username)
	if err != nil {
		return failures.Wrap(err, failures.CodeInternal, "lockout state lookup failed")
	}
	if !locked {
		return nil
	}

	if l.publisher != nil {
		_ = l.publisher.Emit(ctx, audit.Event{
			Action:   audit.ActionAccountLocked,
			Provider: provider,
			Subject:  username,
		})
	}
	if l.logger != nil {
		l.logger.WarnContext(ctx, "authentication rejected for locked account",
			"provider", provider,
			"username", username,
		)
	}
	return failures.New(failures.CodeAccountLocked, "account is locked").
		WithDiagnostic("provider", provider)
}
