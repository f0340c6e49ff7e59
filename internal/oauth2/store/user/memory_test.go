package user

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrCreateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewInMemory()

	first, err := store.GetOrCreate(ctx, "https://idp.example.com", "alice", "Alice", "alice@example.com")
	require.NoError(t, err)
	second, err := store.GetOrCreate(ctx, "https://idp.example.com", "alice", "Alice Again", "other@example.com")
	require.NoError(t, err)

	assert.Equal(t, first.ResourceUserID, second.ResourceUserID)
	// Name and email are set once, at creation.
	assert.Equal(t, "Alice", second.Name)
	assert.Equal(t, "alice@example.com", second.Email)
}

func TestGetOrCreateUnderConcurrency(t *testing.T) {
	ctx := context.Background()
	store := NewInMemory()

	ids := make(chan string, 20)
	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			u, err := store.GetOrCreate(ctx, "provider", "bob", "Bob", "bob@example.com")
			if err == nil {
				ids <- u.ResourceUserID
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[string]bool{}
	for id := range ids {
		seen[id] = true
	}
	assert.Len(t, seen, 1, "concurrent identical keys must resolve to one user")
}

func TestLookups(t *testing.T) {
	ctx := context.Background()
	store := NewInMemory()

	missing, err := store.ByProviderAndUsername(ctx, "provider", "nobody")
	require.NoError(t, err)
	assert.Nil(t, missing)

	created, err := store.GetOrCreate(ctx, "provider", "carol", "Carol", "carol@example.com")
	require.NoError(t, err)

	byID, err := store.ByResourceUserID(ctx, created.ResourceUserID)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, "carol", byID.Username)
}
