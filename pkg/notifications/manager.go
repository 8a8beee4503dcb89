package notifications

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/herraise/hubclient/pkg/async"
	"github.com/herraise/hubclient/pkg/logger"
)

// Syncer mirrors read-state changes to the backend.
type Syncer interface {
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context) error
}

// HistorySource fetches paginated server history. Pages are 1-based.
type HistorySource interface {
	ListNotifications(ctx context.Context, page, limit int) (Page, error)
}

// UnreadCounter reports the server's idea of the unread count.
type UnreadCounter interface {
	UnreadCount(ctx context.Context) (int, error)
}

// LocalIDPrefix marks ids synthesized on the client.
const LocalIDPrefix = "local-"

// Manager is the ingestion point of the pipeline. It stores new records,
// hands them to the configured Deliverer, and mirrors read-state changes to
// the backend without waiting for it.
type Manager struct {
	store       *Store
	deliverer   Deliverer
	syncer      Syncer
	history     HistorySource
	syncTimeout time.Duration
	newID       func() string
	logger      *slog.Logger
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithManagerLogger sets the logger used for delivery and sync failures.
func WithManagerLogger(l *slog.Logger) ManagerOption {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithDeliverer sets where newly ingested notifications are surfaced.
func WithDeliverer(d Deliverer) ManagerOption {
	return func(m *Manager) {
		if d != nil {
			m.deliverer = d
		}
	}
}

// WithSyncer enables backend sync of read state.
func WithSyncer(s Syncer) ManagerOption {
	return func(m *Manager) { m.syncer = s }
}

// WithHistorySource enables LoadHistory.
func WithHistorySource(h HistorySource) ManagerOption {
	return func(m *Manager) { m.history = h }
}

// WithSyncTimeout bounds each background sync request. Default 10s.
func WithSyncTimeout(d time.Duration) ManagerOption {
	return func(m *Manager) {
		if d > 0 {
			m.syncTimeout = d
		}
	}
}

// WithIDGenerator overrides how ids are synthesized for records without one.
func WithIDGenerator(fn func() string) ManagerOption {
	return func(m *Manager) {
		if fn != nil {
			m.newID = fn
		}
	}
}

// NewManager creates a manager over store.
func NewManager(store *Store, opts ...ManagerOption) *Manager {
	m := &Manager{
		store:       store,
		deliverer:   NoOpDeliverer{},
		syncTimeout: 10 * time.Second,
		newID:       func() string { return LocalIDPrefix + uuid.NewString() },
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Ingest stores notif and, when it was not a duplicate, delivers it. Records
// without an id get a synthesized local id. Delivery failures are logged and
// never undo the stored record.
func (m *Manager) Ingest(ctx context.Context, notif Notification) (bool, error) {
	if notif.ID == "" {
		notif.ID = m.newID()
		notif.Local = true
	}

	added, err := m.store.Ingest(ctx, notif)
	if err != nil {
		return false, err
	}
	if !added {
		m.logger.LogAttrs(ctx, slog.LevelDebug, "duplicate notification ignored",
			logger.NotificationID(notif.ID),
		)
		return false, nil
	}

	stored, ok := m.store.Get(notif.ID)
	if !ok {
		// Evicted already; only possible with a zero-capacity window.
		stored = notif
	}
	if err := m.deliverer.Deliver(ctx, stored); err != nil {
		m.logger.LogAttrs(ctx, slog.LevelWarn, "notification stored but not delivered",
			logger.NotificationID(notif.ID),
			logger.Error(err),
		)
	}
	return true, nil
}

// MarkAsRead updates local state immediately and syncs the change in the
// background. The returned future resolves when the sync finishes; callers
// are free to ignore it.
func (m *Manager) MarkAsRead(ctx context.Context, id string) *async.Future[struct{}] {
	n, ok := m.store.Get(id)
	if !m.store.MarkAsRead(ctx, id) {
		return async.Completed(nil)
	}
	if m.syncer == nil || !ok || n.Local || strings.HasPrefix(id, LocalIDPrefix) {
		return async.Completed(nil)
	}

	return m.sync(ctx, "mark notification read", id, func(ctx context.Context) error {
		return m.syncer.MarkRead(ctx, id)
	})
}

// MarkAllAsRead marks every record read locally and syncs in the background.
func (m *Manager) MarkAllAsRead(ctx context.Context) *async.Future[struct{}] {
	changed := m.store.MarkAllAsRead(ctx)
	if changed == 0 || m.syncer == nil {
		return async.Completed(nil)
	}

	return m.sync(ctx, "mark all notifications read", "", func(ctx context.Context) error {
		return m.syncer.MarkAllRead(ctx)
	})
}

// LoadHistory fetches the first page of server history and merges it into
// the store. On failure the store keeps whatever it already holds.
func (m *Manager) LoadHistory(ctx context.Context, limit int) (Page, error) {
	if m.history == nil {
		return Page{}, nil
	}

	page, err := m.history.ListNotifications(ctx, 1, limit)
	if err != nil {
		m.logger.LogAttrs(ctx, slog.LevelWarn, "failed to load notification history",
			logger.Error(err),
		)
		return Page{}, errors.Join(ErrHistoryUnavailable, err)
	}

	added := m.store.Merge(ctx, page.Notifications)
	m.logger.LogAttrs(ctx, slog.LevelDebug, "notification history merged",
		logger.Count(len(page.Notifications)),
		slog.Int("added", added),
	)
	return page, nil
}

// CheckUnreadCount compares the server's unread count with the locally
// derived one and returns the local value, which is authoritative.
func (m *Manager) CheckUnreadCount(ctx context.Context, counter UnreadCounter) int {
	local := m.store.UnreadCount()
	if counter == nil {
		return local
	}

	remote, err := counter.UnreadCount(ctx)
	if err != nil {
		m.logger.LogAttrs(ctx, slog.LevelDebug, "server unread count unavailable", logger.Error(err))
		return local
	}
	if remote != local {
		m.logger.LogAttrs(ctx, slog.LevelDebug, "server unread count differs from local list",
			slog.Int("server", remote),
			slog.Int("local", local),
		)
	}
	return local
}

// Store returns the underlying store.
func (m *Manager) Store() *Store {
	return m.store
}

func (m *Manager) sync(ctx context.Context, op, id string, fn func(context.Context) error) *async.Future[struct{}] {
	// The request outlives the caller's context; the timeout bounds it.
	base := context.WithoutCancel(ctx)
	return async.Go(base, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, m.syncTimeout)
		defer cancel()

		if err := fn(ctx); err != nil {
			attrs := []slog.Attr{logger.Error(err)}
			if id != "" {
				attrs = append(attrs, logger.NotificationID(id))
			}
			m.logger.LogAttrs(ctx, slog.LevelWarn, "failed to "+op+" on server", attrs...)
			return fmt.Errorf("%s: %w", op, err)
		}
		return nil
	})
}
