// Package broadcast is a typed, in-process publish/subscribe bus.
//
// It replaces ad hoc string-keyed events between unrelated components: the
// notification manager publishes on a Broadcaster[T] and every interested
// view holds its own Subscriber[T].
//
//	bus := broadcast.NewMemoryBroadcaster[notifications.Notification](32)
//	defer bus.Close()
//
//	sub := bus.Subscribe(ctx)
//	defer sub.Close()
//
//	for msg := range sub.Receive() {
//		render(msg.Data)
//	}
//
// Delivery is best effort: a subscriber whose buffer is full misses the
// message instead of blocking the publisher.
package broadcast

import (
	"context"
	"errors"
)

// ErrClosed is returned by Broadcast after the broadcaster was closed.
var ErrClosed = errors.New("broadcast: broadcaster is closed")

// Message wraps data of type T.
type Message[T any] struct {
	Data T
}

// Subscriber receives messages from a Broadcaster.
type Subscriber[T any] interface {
	// Receive returns the channel messages arrive on. The channel is closed
	// when the subscriber or the broadcaster is closed.
	Receive() <-chan Message[T]

	// Close detaches the subscriber. It is idempotent.
	Close() error
}

// Broadcaster fans messages out to every live subscriber.
type Broadcaster[T any] interface {
	// Subscribe registers a subscriber that lives until it is closed, ctx is
	// cancelled, or the broadcaster is closed.
	Subscribe(ctx context.Context) Subscriber[T]

	// Broadcast delivers msg to every subscriber that has buffer space.
	Broadcast(ctx context.Context, msg Message[T]) error

	// Close closes all subscribers. Later calls are no-ops.
	Close() error
}
