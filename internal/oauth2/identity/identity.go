// Package identity resolves or provisions local users and consumers from
// validated token claims, and enforces certificate binding.
package identity

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"authgate/internal/oauth2/failures"
	"authgate/internal/oauth2/metrics"
	"authgate/internal/oauth2/models"
	"authgate/internal/oauth2/ports"
	"authgate/pkg/audit"
)

// Resolver performs the two idempotent resolve-or-create operations every
// successful authentication needs, plus certificate pinning. It never
// caches: the stores own atomicity under concurrent identical keys.
type Resolver struct {
	users     ports.UserStore
	consumers ports.ConsumerStore
	logger    *slog.Logger
	metrics   *metrics.Metrics
	publisher audit.Publisher
}

type Option func(*Resolver)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) { r.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Resolver) { r.metrics = m }
}

func WithAuditPublisher(p audit.Publisher) Option {
	return func(r *Resolver) { r.publisher = p }
}

func New(users ports.UserStore, consumers ports.ConsumerStore, opts ...Option) (*Resolver, error) {
	if users == nil {
		return nil, errors.New("user store is required")
	}
	if consumers == nil {
		return nil, errors.New("consumer store is required")
	}
	r := &Resolver{users: users, consumers: consumers}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// ResolveUser finds or creates the local user for the resolved provider
// identity and the token's subject. Federated subject references are only
// looked up by resource user id, never created.
func (r *Resolver) ResolveUser(ctx context.Context, provider string, claims models.Claims) (*models.User, error) {
	if refID, ok := models.ParseFederatedSubject(claims.Subject); ok {
		u, err := r.users.ByResourceUserID(ctx, refID)
		if err != nil {
			return nil, failures.Wrap(err, failures.CodeInternal, "federated user lookup failed")
		}
		if u == nil {
			return nil, failures.New(failures.CodeInternal, "federated subject references no known user").
				WithDiagnostic("resource_user_id", refID)
		}
		return u, nil
	}

	name := claims.GivenName
	if name == "" {
		name = claims.Subject
	}
	u, err := r.users.GetOrCreate(ctx, provider, claims.Subject, name, claims.Email)
	if err != nil {
		return nil, failures.Wrap(err, failures.CodeInternal, "user resolution failed")
	}
	return u, nil
}

// ConsumerIDFor derives the consumer id from the authorized-party claim:
// the claim itself when it is UUID-shaped (id stability for compliant
// providers), otherwise the claim plus a fresh random suffix so non-UUID
// values from different providers cannot collide.
func ConsumerIDFor(authorizedParty string) string {
	if _, err := uuid.Parse(authorizedParty); err == nil {
		return authorizedParty
	}
	return authorizedParty + "-" + uuid.NewString()
}

// ResolveConsumer finds the consumer for (subject, authorized party) or
// creates it with a fresh key/secret pair. Idempotent: a concurrent
// duplicate insert is detected via the store and re-read.
func (r *Resolver) ResolveConsumer(ctx context.Context, claims models.Claims, creator *models.User) (*models.Consumer, error) {
	existing, err := r.consumers.BySubjectAndAzp(ctx, claims.Subject, claims.AuthorizedParty)
	if err != nil {
		return nil, failures.Wrap(err, failures.CodeInternal, "consumer lookup failed")
	}
	if existing != nil {
		return existing, nil
	}

	consumer := &models.Consumer{
		ID:              ConsumerIDFor(claims.AuthorizedParty),
		Key:             uuid.NewString(),
		Secret:          uuid.NewString(),
		Name:            claims.AuthorizedParty,
		AppType:         "confidential",
		Audience:        strings.Join(claims.Audience, " "),
		AuthorizedParty: claims.AuthorizedParty,
		Issuer:          claims.Issuer,
		Subject:         claims.Subject,
		Email:           claims.Email,
		Enabled:         true,
	}
	if creator != nil {
		consumer.CreatedByUserID = creator.ResourceUserID
	}

	created, err := r.consumers.Create(ctx, consumer)
	if errors.Is(err, ports.ErrDuplicate) {
		// Lost the race; the winner's record is authoritative.
		created, err = r.consumers.BySubjectAndAzp(ctx, claims.Subject, claims.AuthorizedParty)
		if err == nil && created == nil {
			err = errors.New("duplicate insert but no row found")
		}
	}
	if err != nil {
		return nil, failures.Wrap(err, failures.CodeConsumerCreationFailed, "consumer creation failed")
	}

	r.metrics.IncConsumersProvisioned()
	r.emit(ctx, audit.Event{
		Action:     audit.ActionConsumerProvisioned,
		Provider:   claims.Issuer,
		Subject:    claims.Subject,
		ConsumerID: created.ID,
	})
	return created, nil
}

// EnsureCertificate enforces first-use pinning: an unbound consumer gets
// the inbound certificate bound (bound=true tells the caller to mirror it
// remotely); a bound consumer must present the identical PEM, and a
// mismatch is a hard failure that mutates nothing.
func (r *Resolver) EnsureCertificate(ctx context.Context, consumer *models.Consumer, certificatePEM string) (bound bool, err error) {
	if certificatePEM == "" {
		return false, nil
	}

	if consumer.CertificatePEM == "" {
		if err := r.consumers.UpdateCertificate(ctx, consumer.ID, certificatePEM); err != nil {
			return false, failures.Wrap(err, failures.CodeConsumerCreationFailed, "certificate binding failed")
		}
		consumer.CertificatePEM = certificatePEM
		r.emit(ctx, audit.Event{
			Action:     audit.ActionCertificateBound,
			Subject:    consumer.Subject,
			ConsumerID: consumer.ID,
		})
		return true, nil
	}

	if !pemEqual(consumer.CertificatePEM, certificatePEM) {
		r.emit(ctx, audit.Event{
			Action:     audit.ActionCertificateMismatch,
			Subject:    consumer.Subject,
			ConsumerID: consumer.ID,
		})
		return false, failures.New(failures.CodeCertificateMismatch, "token and client certificate do not match").
			WithDiagnostic("consumer_id", consumer.ID)
	}
	return false, nil
}

// pemEqual compares certificates byte for byte modulo surrounding
// whitespace and line-ending differences introduced by header transport.
func pemEqual(a, b string) bool {
	normalize := func(s string) string {
		s = strings.ReplaceAll(s, "\r\n", "\n")
		return strings.TrimSpace(s)
	}
	return normalize(a) == normalize(b)
}

func (r *Resolver) emit(ctx context.Context, event audit.Event) {
	if r.publisher == nil {
		return
	}
	if err := r.publisher.Emit(ctx, event); err != nil && r.logger != nil {
		r.logger.WarnContext(ctx, "audit emit failed",
			"action", string(event.Action),
			"error", err.Error(),
		)
	}
}
