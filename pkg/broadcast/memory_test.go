package broadcast_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/herraise/hubclient/pkg/broadcast"
)

func receive[T any](t *testing.T, sub broadcast.Subscriber[T]) (T, bool) {
	t.Helper()
	select {
	case msg, ok := <-sub.Receive():
		return msg.Data, ok
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
		var zero T
		return zero, false
	}
}

func TestMemoryBroadcaster_Broadcast(t *testing.T) {
	t.Parallel()

	t.Run("delivers to every subscriber", func(t *testing.T) {
		t.Parallel()
		b := broadcast.NewMemoryBroadcaster[string](4)
		defer b.Close()

		ctx := context.Background()
		first := b.Subscribe(ctx)
		second := b.Subscribe(ctx)
		assert.Equal(t, 2, b.Len())

		require.NoError(t, b.Broadcast(ctx, broadcast.Message[string]{Data: "hello"}))

		got, ok := receive(t, first)
		assert.True(t, ok)
		assert.Equal(t, "hello", got)
		got, ok = receive(t, second)
		assert.True(t, ok)
		assert.Equal(t, "hello", got)
	})

	t.Run("slow subscriber misses messages without blocking", func(t *testing.T) {
		t.Parallel()
		b := broadcast.NewMemoryBroadcaster[int](1)
		defer b.Close()

		ctx := context.Background()
		sub := b.Subscribe(ctx)

		require.NoError(t, b.Broadcast(ctx, broadcast.Message[int]{Data: 1}))
		require.NoError(t, b.Broadcast(ctx, broadcast.Message[int]{Data: 2}))
		assert.Equal(t, uint64(1), b.Dropped())

		got, _ := receive(t, sub)
		assert.Equal(t, 1, got)
		assert.Equal(t, 1, b.Len(), "slow subscriber stays registered")
	})

	t.Run("broadcast after close", func(t *testing.T) {
		t.Parallel()
		b := broadcast.NewMemoryBroadcaster[int](1)
		require.NoError(t, b.Close())
		require.NoError(t, b.Close())
		assert.ErrorIs(t, b.Broadcast(context.Background(), broadcast.Message[int]{Data: 1}), broadcast.ErrClosed)
	})
}

func TestMemoryBroadcaster_Lifecycle(t *testing.T) {
	t.Parallel()

	t.Run("close subscriber closes channel", func(t *testing.T) {
		t.Parallel()
		b := broadcast.NewMemoryBroadcaster[int](1)
		defer b.Close()

		sub := b.Subscribe(context.Background())
		require.NoError(t, sub.Close())
		require.NoError(t, sub.Close())

		_, ok := receive(t, sub)
		assert.False(t, ok)
		assert.Equal(t, 0, b.Len())
	})

	t.Run("context cancellation unsubscribes", func(t *testing.T) {
		t.Parallel()
		b := broadcast.NewMemoryBroadcaster[int](1)
		defer b.Close()

		ctx, cancel := context.WithCancel(context.Background())
		sub := b.Subscribe(ctx)
		cancel()

		_, ok := receive(t, sub)
		assert.False(t, ok)
		assert.Eventually(t, func() bool { return b.Len() == 0 }, time.Second, 5*time.Millisecond)
	})

	t.Run("explicit close before cancellation", func(t *testing.T) {
		t.Parallel()
		b := broadcast.NewMemoryBroadcaster[int](1)
		defer b.Close()

		ctx, cancel := context.WithCancel(context.Background())
		sub := b.Subscribe(ctx)
		require.NoError(t, sub.Close())
		cancel()

		_, ok := receive(t, sub)
		assert.False(t, ok)
		assert.Equal(t, 0, b.Len())

		require.NoError(t, b.Broadcast(context.Background(), broadcast.Message[int]{Data: 1}))
	})

	t.Run("subscribe after close returns closed subscriber", func(t *testing.T) {
		t.Parallel()
		b := broadcast.NewMemoryBroadcaster[int](1)
		require.NoError(t, b.Close())

		sub := b.Subscribe(context.Background())
		_, ok := receive(t, sub)
		assert.False(t, ok)
	})

	t.Run("closing broadcaster closes subscribers", func(t *testing.T) {
		t.Parallel()
		b := broadcast.NewMemoryBroadcaster[int](1)
		sub := b.Subscribe(context.Background())
		require.NoError(t, b.Close())

		_, ok := receive(t, sub)
		assert.False(t, ok)
	})
}

func TestMemoryBroadcaster_Concurrent(t *testing.T) {
	t.Parallel()

	b := broadcast.NewMemoryBroadcaster[int](128)
	defer b.Close()

	ctx := context.Background()
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			sub := b.Subscribe(ctx)
			_ = sub.Close()
		}()
		go func() {
			defer wg.Done()
			_ = b.Broadcast(ctx, broadcast.Message[int]{Data: i})
		}()
	}
	wg.Wait()
	assert.Equal(t, 0, b.Len())
}
