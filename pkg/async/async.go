// Package async runs background work whose result may or may not be awaited.
//
// The notification manager uses it for fire-and-forget backend sync: local
// state changes immediately, the request runs in the background, and tests
// can Await the returned Future to observe the outcome.
package async

import (
	"context"
	"errors"
	"time"
)

// ErrTimeout is returned by AwaitWithTimeout when the work did not finish in time.
var ErrTimeout = errors.New("async: timed out waiting for future")

// Future holds the eventual result of a background call.
type Future[U any] struct {
	result U
	err    error
	done   chan struct{}
}

// Await blocks until the work completes.
func (f *Future[U]) Await() (U, error) {
	<-f.done
	return f.result, f.err
}

// AwaitWithTimeout blocks for at most timeout.
func (f *Future[U]) AwaitWithTimeout(timeout time.Duration) (U, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-f.done:
		return f.result, f.err
	case <-timer.C:
		var zero U
		return zero, ErrTimeout
	}
}

// Done is closed once the work has completed.
func (f *Future[U]) Done() <-chan struct{} {
	return f.done
}

// IsComplete reports whether the work has finished without blocking.
func (f *Future[U]) IsComplete() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Async runs fn(ctx, param) in a new goroutine. A context that is already
// cancelled completes the future with ctx.Err() without calling fn.
func Async[T, U any](ctx context.Context, param T, fn func(context.Context, T) (U, error)) *Future[U] {
	f := &Future[U]{done: make(chan struct{})}

	go func() {
		defer close(f.done)

		if err := ctx.Err(); err != nil {
			f.err = err
			return
		}
		f.result, f.err = fn(ctx, param)
	}()

	return f
}

// Go runs fn in the background and returns a future for its error.
func Go(ctx context.Context, fn func(context.Context) error) *Future[struct{}] {
	return Async(ctx, struct{}{}, func(ctx context.Context, _ struct{}) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
}

// Completed returns a future that is already resolved with err.
func Completed(err error) *Future[struct{}] {
	f := &Future[struct{}]{done: make(chan struct{}), err: err}
	close(f.done)
	return f
}
