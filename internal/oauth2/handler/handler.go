// Package handler exposes the authentication pipeline over HTTP: a
// middleware gating protected routes plus the endpoints main mounts.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"authgate/internal/oauth2/failures"
	"authgate/internal/oauth2/models"
)

// Authenticator is the service surface the transport layer needs.
type Authenticator interface {
	Authenticate(ctx context.Context, cc models.CallContext) (*models.User, models.CallContext, error)
}

type contextKeyUser struct{}
type contextKeyCallContext struct{}

// UserFrom retrieves the authenticated user from the request context.
func UserFrom(ctx context.Context) *models.User {
	user, _ := ctx.Value(contextKeyUser{}).(*models.User)
	return user
}

// CallContextFrom retrieves the per-request call context.
func CallContextFrom(ctx context.Context) models.CallContext {
	cc, _ := ctx.Value(contextKeyCallContext{}).(models.CallContext)
	return cc
}

// Handler wires authentication endpoints to the service.
type Handler struct {
	service Authenticator
	logger  *slog.Logger
}

// New constructs a handler with its dependencies.
func New(service Authenticator, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, logger: logger}
}

// Register mounts all endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/health", h.HandleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Group(func(r chi.Router) {
		r.Use(h.RequireOAuth)
		r.Get("/users/current", h.HandleCurrentUser)
	})
}

// RequireOAuth authenticates the request and injects the resolved user
// and call context for downstream handlers. Failures end the request
// with the status mapped from the failure code.
func (h *Handler) RequireOAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		cc := models.NewCallContext(r.Header)

		user, cc, err := h.service.Authenticate(ctx, cc)
		if err != nil {
			writeFailure(w, err)
			return
		}

		ctx = context.WithValue(ctx, contextKeyUser{}, user)
		ctx = context.WithValue(ctx, contextKeyCallContext{}, cc)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// HandleHealth handles GET /health requests.
func (h *Handler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type currentUserResponse struct {
	ResourceUserID string `json:"resource_user_id"`
	Provider       string `json:"provider"`
	Username       string `json:"username"`
	Name           string `json:"name"`
	Email          string `json:"email,omitempty"`
	ConsumerID     string `json:"consumer_id,omitempty"`
}

// HandleCurrentUser handles GET /users/current requests.
func (h *Handler) HandleCurrentUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := UserFrom(ctx)
	if user == nil {
		writeFailure(w, failures.New(failures.CodeInternal, "no authenticated user in context"))
		return
	}

	resp := currentUserResponse{
		ResourceUserID: user.ResourceUserID,
		Provider:       user.Provider,
		Username:       user.Username,
		Name:           user.Name,
		Email:          user.Email,
	}
	if consumer := CallContextFrom(ctx).Consumer; consumer != nil {
		resp.ConsumerID = consumer.ID
	}
	writeJSON(w, http.StatusOK, resp)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeFailure emits only the failure code and its message. Wrapped
// causes and diagnostics stay in logs and audit events.
func writeFailure(w http.ResponseWriter, err error) {
	code := failures.CodeOf(err)
	message := "authentication failed"
	var f *failures.Failure
	if errors.As(err, &f) {
		message = f.Message
	}
	writeJSON(w, statusFor(code), errorResponse{
		Code:    string(code),
		Message: message,
	})
}

func statusFor(code failures.Code) int {
	switch code {
	case failures.CodeDisabled:
		return http.StatusServiceUnavailable
	case failures.CodeTokenInvalid,
		failures.CodeTokenInactive,
		failures.CodeIssuerNotRecognized,
		failures.CodeJwksAddressNotFound:
		return http.StatusUnauthorized
	case failures.CodeClientAuthMethodForbidden,
		failures.CodeConsumerMissing,
		failures.CodeCertificateMismatch,
		failures.CodeAccountLocked:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
