package async

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitReturnsTaskResult(t *testing.T) {
	p := NewPool(2, 8)
	defer p.Close()

	f := Submit(p, func() int { return 42 })

	got, err := f.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, got)
}

func TestWaitHonorsContext(t *testing.T) {
	p := NewPool(1, 0)
	defer p.Close()

	release := make(chan struct{})
	blocked := Submit(p, func() struct{} {
		<-release
		return struct{}{}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := blocked.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	_, err = blocked.Wait(context.Background())
	assert.NoError(t, err)
}

func TestPoolRunsAllTasks(t *testing.T) {
	p := NewPool(4, 16)

	var ran atomic.Int32
	futures := make([]*Future[int32], 0, 20)
	for range 20 {
		futures = append(futures, Submit(p, func() int32 {
			return ran.Add(1)
		}))
	}
	for _, f := range futures {
		_, err := f.Wait(context.Background())
		require.NoError(t, err)
	}
	p.Close()

	assert.Equal(t, int32(20), ran.Load())
}
