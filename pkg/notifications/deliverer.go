package notifications

import (
	"context"
	"log/slog"

	"github.com/herraise/hubclient/pkg/logger"
)

// Deliverer surfaces a newly ingested notification on one channel, such as
// in-app toasts or desktop popups.
type Deliverer interface {
	Deliver(ctx context.Context, notif Notification) error
}

// DelivererFunc adapts a function to the Deliverer interface.
type DelivererFunc func(ctx context.Context, notif Notification) error

func (f DelivererFunc) Deliver(ctx context.Context, notif Notification) error {
	return f(ctx, notif)
}

// MultiDeliverer fans a notification out to several deliverers. A failing
// deliverer is logged and skipped so it never prevents the others from
// running.
type MultiDeliverer struct {
	deliverers []Deliverer
	logger     *slog.Logger
}

// MultiDelivererOption configures a MultiDeliverer.
type MultiDelivererOption func(*MultiDeliverer)

// WithMultiDelivererLogger sets the logger for failing deliverers.
func WithMultiDelivererLogger(l *slog.Logger) MultiDelivererOption {
	return func(m *MultiDeliverer) {
		if l != nil {
			m.logger = l
		}
	}
}

// NewMultiDeliverer creates a deliverer over ds. Nil entries are dropped.
func NewMultiDeliverer(ds []Deliverer, opts ...MultiDelivererOption) *MultiDeliverer {
	m := &MultiDeliverer{logger: slog.Default()}
	for _, d := range ds {
		if d != nil {
			m.deliverers = append(m.deliverers, d)
		}
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Deliver always returns nil; individual failures are logged.
func (m *MultiDeliverer) Deliver(ctx context.Context, notif Notification) error {
	for i, d := range m.deliverers {
		if err := d.Deliver(ctx, notif); err != nil {
			m.logger.LogAttrs(ctx, slog.LevelWarn, "notification delivery failed",
				logger.NotificationID(notif.ID),
				slog.Int("deliverer_index", i),
				logger.Error(err),
			)
		}
	}
	return nil
}

// NoOpDeliverer discards notifications.
type NoOpDeliverer struct{}

func (NoOpDeliverer) Deliver(context.Context, Notification) error {
	return nil
}
