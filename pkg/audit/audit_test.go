package audit

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryPublisher(t *testing.T) {
	ctx := context.Background()
	p := NewMemoryPublisher()

	require.NoError(t, p.Emit(ctx, Event{Action: ActionAccountLocked, Provider: "keycloak", Subject: "alice"}))
	require.NoError(t, p.Emit(ctx, Event{Action: ActionRoleGranted, ConsumerID: "c-1"}))

	events := p.Events()
	require.Len(t, events, 2)
	assert.Equal(t, ActionAccountLocked, events[0].Action)
	assert.False(t, events[0].Time.IsZero(), "emit stamps missing times")
	assert.Equal(t, "c-1", events[1].ConsumerID)
}

func TestMemoryPublisherConcurrentEmit(t *testing.T) {
	ctx := context.Background()
	p := NewMemoryPublisher()

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = p.Emit(ctx, Event{Action: ActionAuthenticationFailed})
		}()
	}
	wg.Wait()

	assert.Len(t, p.Events(), 50)
}
