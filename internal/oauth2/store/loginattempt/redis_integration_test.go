//go:build integration

package loginattempt

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func TestRedisStoreIsLocked(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	defer func() { _ = container.Terminate(ctx) }()

	addr, err := container.ConnectionString(ctx)
	require.NoError(t, err)
	opts, err := redis.ParseURL(addr)
	require.NoError(t, err)

	client := redis.NewClient(opts)
	defer client.Close()
	require.NoError(t, client.Ping(ctx).Err())

	store := NewRedis(client)

	locked, err := store.IsLocked(ctx, "https://idp.example.com", "alice")
	require.NoError(t, err)
	assert.False(t, locked)

	// Simulate the failure tracker hard-locking the account.
	key := fmt.Sprintf("login_attempts:lock:%s:%s", "https://idp.example.com", "alice")
	require.NoError(t, client.Set(ctx, key, "1", time.Minute).Err())

	locked, err = store.IsLocked(ctx, "https://idp.example.com", "alice")
	require.NoError(t, err)
	assert.True(t, locked)
}
