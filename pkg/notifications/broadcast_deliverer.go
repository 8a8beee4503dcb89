package notifications

import (
	"context"

	"github.com/herraise/hubclient/pkg/broadcast"
)

// BroadcastDeliverer publishes new notifications on an in-process bus. The
// toast presenter and the terminal UI subscribe to it.
type BroadcastDeliverer struct {
	bus broadcast.Broadcaster[Notification]
}

// NewBroadcastDeliverer creates a deliverer backed by a memory broadcaster
// whose subscribers buffer bufferSize messages.
func NewBroadcastDeliverer(bufferSize int) *BroadcastDeliverer {
	return &BroadcastDeliverer{bus: broadcast.NewMemoryBroadcaster[Notification](bufferSize)}
}

// NewBroadcastDelivererWith wraps an existing broadcaster.
func NewBroadcastDelivererWith(bus broadcast.Broadcaster[Notification]) *BroadcastDeliverer {
	return &BroadcastDeliverer{bus: bus}
}

func (d *BroadcastDeliverer) Deliver(ctx context.Context, notif Notification) error {
	return d.bus.Broadcast(ctx, broadcast.Message[Notification]{Data: notif.clone()})
}

// Subscribe returns a subscriber that receives every delivered notification
// until it is closed or ctx is cancelled.
func (d *BroadcastDeliverer) Subscribe(ctx context.Context) broadcast.Subscriber[Notification] {
	return d.bus.Subscribe(ctx)
}

// Close closes the bus and all of its subscribers.
func (d *BroadcastDeliverer) Close() error {
	return d.bus.Close()
}
