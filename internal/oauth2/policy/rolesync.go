package policy

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"authgate/internal/oauth2/failures"
	"authgate/internal/oauth2/metrics"
	"authgate/internal/oauth2/models"
	"authgate/internal/oauth2/ports"
	"authgate/internal/oauth2/token"
	"authgate/pkg/audit"
)

// RoleSync reconciles a consumer's stored role grants with the roles
// carried in the signed payload of a validated access token. Only roles
// in the recognized vocabulary participate: unknown token roles are
// ignored, and stored grants outside the vocabulary are never touched.
type RoleSync struct {
	scopes     ports.ScopeStore
	claimPath  []string
	recognized map[string]struct{}
	logger     *slog.Logger
	metrics    *metrics.Metrics
	publisher  audit.Publisher
}

type RoleSyncOption func(*RoleSync)

func WithRoleSyncLogger(logger *slog.Logger) RoleSyncOption {
	return func(r *RoleSync) { r.logger = logger }
}

func WithRoleSyncMetrics(m *metrics.Metrics) RoleSyncOption {
	return func(r *RoleSync) { r.metrics = m }
}

func WithRoleSyncAuditPublisher(p audit.Publisher) RoleSyncOption {
	return func(r *RoleSync) { r.publisher = p }
}

// NewRoleSync builds the reconciler. claimPath is a dot-separated path
// into the token payload ("realm_access.roles"); recognizedRoles is the
// vocabulary of roles this deployment manages.
func NewRoleSync(scopes ports.ScopeStore, claimPath string, recognizedRoles []string, opts ...RoleSyncOption) *RoleSync {
	recognized := make(map[string]struct{}, len(recognizedRoles))
	for _, role := range recognizedRoles {
		recognized[role] = struct{}{}
	}
	r := &RoleSync{
		scopes:     scopes,
		claimPath:  strings.Split(claimPath, "."),
		recognized: recognized,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Sync diffs the recognized roles claimed by tokenString against the
// consumer's stored grants and applies the add/remove delta. The token
// must already be signature-verified; only then is its payload a
// trustworthy role source.
func (r *RoleSync) Sync(ctx context.Context, consumer *models.Consumer, tokenString string) error {
	if r.scopes == nil || len(r.recognized) == 0 {
		return nil
	}

	claimed, err := r.claimedRoles(tokenString)
	if err != nil {
		return err
	}

	stored, err := r.scopes.ByConsumerID(ctx, consumer.ID)
	if err != nil {
		return failures.Wrap(err, failures.CodeInternal, "role grant lookup failed")
	}

	have := make(map[string]struct{}, len(stored))
	for _, scope := range stored {
		if _, recognized := r.recognized[scope.Role]; recognized {
			have[scope.Role] = struct{}{}
		}
	}

	for role := range claimed {
		if _, ok := have[role]; ok {
			continue
		}
		scope := models.Scope{ConsumerID: consumer.ID, Role: role}
		if err := r.scopes.Add(ctx, scope); err != nil {
			return failures.Wrap(err, failures.CodeInternal, "role grant failed")
		}
		r.metrics.IncRoleSyncOp("add")
		r.emit(ctx, audit.ActionRoleGranted, consumer, role)
	}

	for role := range have {
		if _, ok := claimed[role]; ok {
			continue
		}
		scope := models.Scope{ConsumerID: consumer.ID, Role: role}
		if err := r.scopes.Delete(ctx, scope); err != nil {
			return failures.Wrap(err, failures.CodeInternal, "role revocation failed")
		}
		r.metrics.IncRoleSyncOp("remove")
		r.emit(ctx, audit.ActionRoleRevoked, consumer, role)
	}
	return nil
}

// claimedRoles extracts the recognized subset of roles at the claim
// path. A missing path yields the empty set, which revokes all managed
// roles; a token that is not a JWT is a caller bug.
func (r *RoleSync) claimedRoles(tokenString string) (map[string]struct{}, error) {
	payload, ok := token.SignedPayloadJSON(tokenString)
	if !ok {
		return nil, failures.New(failures.CodeInternal, "role sync on a non-JWT token")
	}

	var tree map[string]any
	if err := json.Unmarshal([]byte(payload), &tree); err != nil {
		return nil, failures.Wrap(err, failures.CodeInternal, "token payload is not valid JSON")
	}

	var node any = tree
	for _, segment := range r.claimPath {
		m, ok := node.(map[string]any)
		if !ok {
			return map[string]struct{}{}, nil
		}
		node = m[segment]
	}

	claimed := make(map[string]struct{})
	list, _ := node.([]any)
	for _, entry := range list {
		role, ok := entry.(string)
		if !ok {
			continue
		}
		if _, recognized := r.recognized[role]; recognized {
			claimed[role] = struct{}{}
		}
	}
	return claimed, nil
}

func (r *RoleSync) emit(ctx context.Context, action audit.Action, consumer *models.Consumer, role string) {
	if r.logger != nil {
		r.logger.InfoContext(ctx, "role grant reconciled",
			"action", string(action),
			"consumer_id", consumer.ID,
			"role", role,
		)
	}
	if r.publisher == nil {
		return
	}
	_ = r.publisher.Emit(ctx, audit.Event{
		Action:     action,
		Subject:    consumer.Subject,
		ConsumerID: consumer.ID,
		Attrs:      map[string]string{"role": role},
	})
}
