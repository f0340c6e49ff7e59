// Package audit defines security audit events emitted by the
// authentication pipeline and the publisher interface they travel through.
// Events complement structured logs: they are the durable, queryable trail
// for security-relevant side effects (lockouts, certificate pinning, role
// reconciliation, consumer provisioning).
package audit

import (
	"context"
	"sync"
	"time"
)

// Action names a security-relevant occurrence.
type Action string

const (
	ActionAuthenticationFailed Action = "authentication_failed"
	ActionAccountLocked        Action = "account_locked"
	ActionConsumerProvisioned  Action = "consumer_provisioned"
	ActionCertificateBound     Action = "certificate_bound"
	ActionCertificateMismatch  Action = "certificate_mismatch"
	ActionRoleGranted          Action = "role_granted"
	ActionRoleRevoked          Action = "role_revoked"
)

// Event is one audit record. Attrs hold event-specific context; tokens and
// certificates never go in, only derived identifiers.
type Event struct {
	Time       time.Time         `json:"time"`
	Action     Action            `json:"action"`
	Provider   string            `json:"provider,omitempty"`
	Subject    string            `json:"subject,omitempty"`
	ConsumerID string            `json:"consumer_id,omitempty"`
	Attrs      map[string]string `json:"attrs,omitempty"`
}

// Publisher delivers audit events. Implementations must be safe for
// concurrent use; delivery failures must not fail the authentication that
// triggered the event.
type Publisher interface {
	Emit(ctx context.Context, event Event) error
}

// MemoryPublisher records events in memory for tests and dependency-free boot.
type MemoryPublisher struct {
	mu     sync.Mutex
	events []Event
}

func NewMemoryPublisher() *MemoryPublisher {
	return &MemoryPublisher{}
}

func (p *MemoryPublisher) Emit(_ context.Context, event Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if event.Time.IsZero() {
		event.Time = time.Now()
	}
	p.events = append(p.events, event)
	return nil
}

// Events returns a snapshot of everything emitted so far.
func (p *MemoryPublisher) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Event, len(p.events))
	copy(out, p.events)
	return out
}
