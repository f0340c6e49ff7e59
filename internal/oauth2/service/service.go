// Package service is the entry point of the bearer-token authentication
// pipeline: credential extraction, provider dispatch, and post-dispatch
// policy, exposed as a blocking call and a deferred twin.
package service

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"authgate/internal/oauth2/failures"
	"authgate/internal/oauth2/metrics"
	"authgate/internal/oauth2/models"
	"authgate/internal/oauth2/policy"
	"authgate/internal/oauth2/providers"
	"authgate/internal/oauth2/token"
	"authgate/pkg/async"
	"authgate/pkg/audit"
)

// Result is the outcome of one authentication attempt, used as the
// payload of the deferred call surface.
type Result struct {
	User        *models.User
	CallContext models.CallContext
	Provider    string
	Err         error
}

// Service authenticates inbound calls. All provider strategies, policy
// checks, and stores are injected; the service itself is stateless and
// safe for concurrent use.
type Service struct {
	enabled   bool
	registry  *providers.Registry
	lockout   *policy.Lockout
	pool      *async.Pool
	logger    *slog.Logger
	metrics   *metrics.Metrics
	publisher audit.Publisher
	tracer    trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithAuditPublisher(p audit.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithPool supplies the worker pool backing AuthenticateAsync. Without
// one, the deferred surface falls back to one goroutine per call.
func WithPool(pool *async.Pool) Option {
	return func(s *Service) { s.pool = pool }
}

func New(enabled bool, registry *providers.Registry, lockout *policy.Lockout, opts ...Option) *Service {
	s := &Service{
		enabled:  enabled,
		registry: registry,
		lockout:  lockout,
		logger:   slog.Default(),
		tracer:   otel.Tracer("authgate/oauth2"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Authenticate resolves the caller identity for the request captured in
// cc. On success the returned context carries the resolved consumer; on
// failure it carries the typed failure, and the error mirrors it.
// The disabled flag short-circuits before any token inspection.
func (s *Service) Authenticate(ctx context.Context, cc models.CallContext) (*models.User, models.CallContext, error) {
	if !s.enabled {
		err := failures.New(failures.CodeDisabled, "oauth2 authentication is disabled")
		return nil, cc.WithConsumerFailure(err), err
	}

	ctx, span := s.tracer.Start(ctx, "oauth2.authenticate")
	defer span.End()

	tokenString := token.ExtractBearer(cc.Header("Authorization"))
	if tokenString == "" {
		err := failures.New(failures.CodeTokenInvalid, "no bearer token in request")
		return nil, s.conclude(ctx, span, "", cc.WithConsumerFailure(err), err), err
	}

	provider, user, out, err := s.registry.Authenticate(ctx, tokenString, cc)
	if err != nil {
		return nil, s.conclude(ctx, span, provider, out, err), err
	}

	if s.lockout != nil {
		if err := s.lockout.Check(ctx, user.Provider, user.Username); err != nil {
			out = out.WithConsumerFailure(err)
			return nil, s.conclude(ctx, span, provider, out, err), err
		}
	}

	s.metrics.ObserveAuthentication(provider, "success")
	span.SetAttributes(
		attribute.String("oauth2.provider", provider),
		attribute.String("oauth2.outcome", "success"),
	)
	s.logger.InfoContext(ctx, "authentication succeeded",
		"provider", provider,
		"consumer_id", out.Consumer.ID,
	)
	return user, out, nil
}

// AuthenticateAsync runs the identical computation off the caller's
// goroutine and returns a future for its result. No extra semantics:
// same inputs, same outcome, caller-imposed deadline on Wait.
func (s *Service) AuthenticateAsync(ctx context.Context, cc models.CallContext) *async.Future[Result] {
	run := func() Result {
		user, out, err := s.Authenticate(ctx, cc)
		provider := ""
		if user != nil {
			provider = user.Provider
		}
		return Result{User: user, CallContext: out, Provider: provider, Err: err}
	}
	if s.pool != nil {
		return async.Submit(s.pool, run)
	}
	return async.Go(run)
}

// conclude records the failure outcome on every telemetry surface and
// returns the context unchanged for the caller.
func (s *Service) conclude(ctx context.Context, span trace.Span, provider string, out models.CallContext, err error) models.CallContext {
	code := string(failures.CodeOf(err))
	if provider == "" {
		provider = "none"
	}

	s.metrics.ObserveAuthentication(provider, code)
	span.SetAttributes(
		attribute.String("oauth2.provider", provider),
		attribute.String("oauth2.outcome", code),
	)
	s.logger.WarnContext(ctx, "authentication failed",
		"provider", provider,
		"code", code,
		"error", err.Error(),
	)
	if s.publisher != nil {
		_ = s.publisher.Emit(ctx, audit.Event{
			Action:   audit.ActionAuthenticationFailed,
			Provider: provider,
			Attrs:    map[string]string{"code": code},
		})
	}
	return out
}
