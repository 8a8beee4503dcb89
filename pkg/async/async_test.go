package async_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/herraise/hubclient/pkg/async"
)

func TestAsync(t *testing.T) {
	t.Parallel()

	f := async.Async(context.Background(), 21, func(ctx context.Context, n int) (int, error) {
		return n * 2, nil
	})
	got, err := f.Await()
	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.True(t, f.IsComplete())
}

func TestAsync_CancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	f := async.Async(ctx, 1, func(ctx context.Context, n int) (int, error) {
		called = true
		return n, nil
	})
	_, err := f.Await()
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestGo(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	f := async.Go(context.Background(), func(ctx context.Context) error { return boom })
	_, err := f.Await()
	assert.ErrorIs(t, err, boom)

	<-f.Done()
}

func TestAwaitWithTimeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	defer close(release)

	f := async.Go(context.Background(), func(ctx context.Context) error {
		<-release
		return nil
	})
	_, err := f.AwaitWithTimeout(10 * time.Millisecond)
	assert.ErrorIs(t, err, async.ErrTimeout)
	assert.False(t, f.IsComplete())
}

func TestCompleted(t *testing.T) {
	t.Parallel()

	f := async.Completed(nil)
	assert.True(t, f.IsComplete())
	_, err := f.Await()
	assert.NoError(t, err)
}
