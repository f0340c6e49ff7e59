package policy

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"authgate/internal/oauth2/failures"
	"authgate/internal/oauth2/models"
	loginattemptStore "authgate/internal/oauth2/store/loginattempt"
	scopeStore "authgate/internal/oauth2/store/scope"
	"authgate/pkg/audit"
)

// =============================================================================
// Lockout
// =============================================================================

func TestLockoutCheck(t *testing.T) {
	ctx := context.Background()

	t.Run("nil store disables the check", func(t *testing.T) {
		assert.NoError(t, NewLockout(nil).Check(ctx, "keycloak", "alice"))
	})

	t.Run("unlocked account passes", func(t *testing.T) {
		attempts := loginattemptStore.NewInMemory()
		assert.NoError(t, NewLockout(attempts).Check(ctx, "keycloak", "alice"))
	})

	t.Run("locked account is rejected and audited", func(t *testing.T) {
		attempts := loginattemptStore.NewInMemory()
		attempts.SetLocked("keycloak", "alice", true)
		publisher := audit.NewMemoryPublisher()

		err := NewLockout(attempts, WithLockoutAuditPublisher(publisher)).
			Check(ctx, "keycloak", "alice")
		require.Error(t, err)
		assert.True(t, failures.Is(err, failures.CodeAccountLocked))

		events := publisher.Events()
		require.Len(t, events, 1)
		assert.Equal(t, audit.ActionAccountLocked, events[0].Action)
		assert.Equal(t, "alice", events[0].Subject)
	})

	t.Run("lock scoped per provider", func(t *testing.T) {
		attempts := loginattemptStore.NewInMemory()
		attempts.SetLocked("keycloak", "alice", true)

		lockout := NewLockout(attempts)
		assert.Error(t, lockout.Check(ctx, "keycloak", "alice"))
		assert.NoError(t, lockout.Check(ctx, "google-oidc", "alice"))
	})
}

// =============================================================================
// Role Synchronization
// =============================================================================

// rolesToken builds a JWT-shaped token whose signed payload carries the
// given realm roles. The signature is not verified by role sync.
func rolesToken(t *testing.T, roles ...string) string {
	t.Helper()
	payload, err := json.Marshal(map[string]any{
		"iss":          "https://keycloak.example.com/realms/main",
		"realm_access": map[string]any{"roles": roles},
	})
	require.NoError(t, err)

	encode := base64.RawURLEncoding.EncodeToString
	return encode([]byte(`{"alg":"RS256","typ":"JWT"}`)) + "." +
		encode(payload) + "." +
		encode([]byte("sig"))
}

func storedRoles(t *testing.T, store *scopeStore.InMemoryStore, consumerID string) []string {
	t.Helper()
	scopes, err := store.ByConsumerID(context.Background(), consumerID)
	require.NoError(t, err)
	roles := make([]string, 0, len(scopes))
	for _, s := range scopes {
		roles = append(roles, s.Role)
	}
	sort.Strings(roles)
	return roles
}

func TestRoleSync(t *testing.T) {
	ctx := context.Background()
	recognized := []string{"CanGetAccounts", "CanCreatePayments", "CanManageUsers"}
	consumer := &models.Consumer{ID: "consumer-1", Subject: "sub-1"}

	t.Run("adds, removes and keeps per the claimed set", func(t *testing.T) {
		scopes := scopeStore.NewInMemory()
		require.NoError(t, scopes.Add(ctx, models.Scope{ConsumerID: "consumer-1", Role: "CanGetAccounts"}))
		require.NoError(t, scopes.Add(ctx, models.Scope{ConsumerID: "consumer-1", Role: "CanCreatePayments"}))

		sync := NewRoleSync(scopes, "realm_access.roles", recognized)
		tok := rolesToken(t, "CanCreatePayments", "CanManageUsers")
		require.NoError(t, sync.Sync(ctx, consumer, tok))

		assert.Equal(t,
			[]string{"CanCreatePayments", "CanManageUsers"},
			storedRoles(t, scopes, "consumer-1"))
	})

	t.Run("unrecognized roles are inert in both directions", func(t *testing.T) {
		scopes := scopeStore.NewInMemory()
		require.NoError(t, scopes.Add(ctx, models.Scope{ConsumerID: "consumer-1", Role: "legacy-admin"}))

		sync := NewRoleSync(scopes, "realm_access.roles", recognized)
		tok := rolesToken(t, "CanGetAccounts", "offline_access", "uma_authorization")
		require.NoError(t, sync.Sync(ctx, consumer, tok))

		assert.Equal(t,
			[]string{"CanGetAccounts", "legacy-admin"},
			storedRoles(t, scopes, "consumer-1"))
	})

	t.Run("missing claim path revokes all managed roles", func(t *testing.T) {
		scopes := scopeStore.NewInMemory()
		require.NoError(t, scopes.Add(ctx, models.Scope{ConsumerID: "consumer-1", Role: "CanGetAccounts"}))

		sync := NewRoleSync(scopes, "resource_access.portal.roles", recognized)
		require.NoError(t, sync.Sync(ctx, consumer, rolesToken(t, "CanGetAccounts")))

		assert.Empty(t, storedRoles(t, scopes, "consumer-1"))
	})

	t.Run("idempotent when the sets already match", func(t *testing.T) {
		scopes := scopeStore.NewInMemory()
		publisher := audit.NewMemoryPublisher()
		sync := NewRoleSync(scopes, "realm_access.roles", recognized,
			WithRoleSyncAuditPublisher(publisher))

		tok := rolesToken(t, "CanGetAccounts")
		require.NoError(t, sync.Sync(ctx, consumer, tok))
		require.NoError(t, sync.Sync(ctx, consumer, tok))

		assert.Equal(t, []string{"CanGetAccounts"}, storedRoles(t, scopes, "consumer-1"))
		require.Len(t, publisher.Events(), 1)
		assert.Equal(t, audit.ActionRoleGranted, publisher.Events()[0].Action)
	})

	t.Run("grant and revoke are audited with the role name", func(t *testing.T) {
		scopes := scopeStore.NewInMemory()
		require.NoError(t, scopes.Add(ctx, models.Scope{ConsumerID: "consumer-1", Role: "CanManageUsers"}))
		publisher := audit.NewMemoryPublisher()

		sync := NewRoleSync(scopes, "realm_access.roles", recognized,
			WithRoleSyncAuditPublisher(publisher))
		require.NoError(t, sync.Sync(ctx, consumer, rolesToken(t, "CanGetAccounts")))

		byAction := map[audit.Action]string{}
		for _, e := range publisher.Events() {
			byAction[e.Action] = e.Attrs["role"]
		}
		assert.Equal(t, "CanGetAccounts", byAction[audit.ActionRoleGranted])
		assert.Equal(t, "CanManageUsers", byAction[audit.ActionRoleRevoked])
	})

	t.Run("empty vocabulary disables sync", func(t *testing.T) {
		scopes := scopeStore.NewInMemory()
		require.NoError(t, scopes.Add(ctx, models.Scope{ConsumerID: "consumer-1", Role: "CanGetAccounts"}))

		sync := NewRoleSync(scopes, "realm_access.roles", nil)
		require.NoError(t, sync.Sync(ctx, consumer, "not-even-a-jwt"))
		assert.Equal(t, []string{"CanGetAccounts"}, storedRoles(t, scopes, "consumer-1"))
	})

	t.Run("non-JWT token is an internal failure", func(t *testing.T) {
		sync := NewRoleSync(scopeStore.NewInMemory(), "realm_access.roles", recognized)
		err := sync.Sync(ctx, consumer, "opaque-reference-token")
		require.Error(t, err)
		assert.True(t, failures.Is(err, failures.CodeInternal))
	})
}
