// Package async provides a small shared worker pool and a future type.
// The authentication service uses it to expose a non-blocking twin of its
// blocking call surface: the deferred form runs the identical synchronous
// computation and adds no ordering, timeout, or cancellation semantics of
// its own — callers impose their own deadlines on Wait.
package async

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Pool runs submitted tasks on a fixed number of workers.
type Pool struct {
	tasks chan func()
	group *errgroup.Group
}

// NewPool starts workers goroutines consuming a queue of queueDepth
// pending tasks. Submit blocks once the queue is full.
func NewPool(workers, queueDepth int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if queueDepth < 0 {
		queueDepth = 0
	}

	p := &Pool{
		tasks: make(chan func(), queueDepth),
		group: new(errgroup.Group),
	}
	for range workers {
		p.group.Go(func() error {
			for task := range p.tasks {
				task()
			}
			return nil
		})
	}
	return p
}

// Close stops accepting tasks and waits for in-flight ones to finish.
func (p *Pool) Close() {
	close(p.tasks)
	_ = p.group.Wait()
}

// Future is the pending result of a submitted task.
type Future[T any] struct {
	done  chan struct{}
	value T
}

// Wait blocks until the task completes or ctx is done.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Submit schedules fn on the pool and returns its future. The computation
// itself is the same synchronous function the blocking surface runs.
func Submit[T any](p *Pool, fn func() T) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	p.tasks <- func() {
		f.value = fn()
		close(f.done)
	}
	return f
}

// Go runs fn on a goroutine of its own and returns its future, for
// callers that have no shared pool to draw from.
func Go[T any](fn func() T) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	go func() {
		f.value = fn()
		close(f.done)
	}()
	return f
}
