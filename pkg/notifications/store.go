package notifications

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/herraise/hubclient/pkg/localstore"
	"github.com/herraise/hubclient/pkg/logger"
)

// DefaultCapacity is the number of records the store keeps.
const DefaultCapacity = 50

// Store is the single source of truth for the notification list. Records
// are kept newest first and capped at the configured capacity; the oldest
// records are evicted from the tail. The list is persisted after every
// mutation and rehydrated by NewStore.
//
// Subscribers are called synchronously after each mutation with their own
// copy of the list. They must not mutate the store from inside the callback.
type Store struct {
	mu          sync.RWMutex
	items       []Notification
	subscribers map[uint64]func([]Notification)
	nextSubID   uint64

	// emitMu serializes mutate-persist-notify so subscribers and storage see
	// mutations in the order they were applied.
	emitMu sync.Mutex

	capacity   int
	storage    localstore.Storage
	storageKey string
	persistOff bool
	now        func() time.Time
	logger     *slog.Logger
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithCapacity overrides DefaultCapacity. Non-positive values are ignored.
func WithCapacity(n int) StoreOption {
	return func(s *Store) {
		if n > 0 {
			s.capacity = n
		}
	}
}

// WithStorageKey overrides localstore.KeyNotifications.
func WithStorageKey(key string) StoreOption {
	return func(s *Store) {
		if key != "" {
			s.storageKey = key
		}
	}
}

// WithStoreLogger sets the logger for persistence failures. Nil keeps slog.Default.
func WithStoreLogger(l *slog.Logger) StoreOption {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock replaces time.Now, used for CreatedAt defaults and ReadAt.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore creates a store and hydrates it from storage. A nil storage
// keeps the list in memory only. Read failures are logged and leave the
// store empty; a corrupted value is deleted.
func NewStore(ctx context.Context, storage localstore.Storage, opts ...StoreOption) *Store {
	s := &Store{
		subscribers: make(map[uint64]func([]Notification)),
		capacity:    DefaultCapacity,
		storage:     storage,
		storageKey:  localstore.KeyNotifications,
		now:         time.Now,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.hydrate(ctx)
	return s
}

func (s *Store) hydrate(ctx context.Context) {
	if s.storage == nil {
		return
	}

	var stored []Notification
	err := localstore.GetJSON(ctx, s.storage, s.storageKey, &stored)
	switch {
	case err == nil:
	case errors.Is(err, localstore.ErrNotFound):
		return
	case errors.Is(err, localstore.ErrCorrupted):
		s.logger.LogAttrs(ctx, slog.LevelWarn, "discarding corrupted notification history",
			logger.Key(s.storageKey),
			logger.Error(err),
		)
		if derr := s.storage.Delete(ctx, s.storageKey); derr != nil {
			s.logger.LogAttrs(ctx, slog.LevelWarn, "failed to delete corrupted notification history",
				logger.Key(s.storageKey),
				logger.Error(derr),
			)
		}
		return
	default:
		s.logger.LogAttrs(ctx, slog.LevelError, "failed to read notification history, continuing in memory",
			logger.Key(s.storageKey),
			logger.Error(err),
		)
		s.persistOff = true
		return
	}

	seen := make(map[string]struct{}, len(stored))
	items := make([]Notification, 0, min(len(stored), s.capacity))
	for _, n := range stored {
		if n.ID == "" {
			continue
		}
		if _, dup := seen[n.ID]; dup {
			continue
		}
		seen[n.ID] = struct{}{}
		items = append(items, n)
		if len(items) == s.capacity {
			break
		}
	}
	s.items = items
}

// Ingest inserts n at the head of the list. A record whose ID is already
// present is ignored and Ingest returns false; the existing record, including
// its read state, is left untouched.
func (s *Store) Ingest(ctx context.Context, n Notification) (bool, error) {
	if n.ID == "" {
		return false, ErrMissingID
	}
	n = n.clone()
	n.Type = ParseType(string(n.Type))
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.now()
	}

	added := s.mutate(ctx, func() bool {
		if s.indexOf(n.ID) >= 0 {
			return false
		}
		s.items = slices.Insert(s.items, 0, n)
		if len(s.items) > s.capacity {
			clear(s.items[s.capacity:])
			s.items = s.items[:s.capacity]
		}
		return true
	})
	return added, nil
}

// MarkAsRead marks the record with id as read. It returns false when the
// record is absent or already read.
func (s *Store) MarkAsRead(ctx context.Context, id string) bool {
	return s.mutate(ctx, func() bool {
		i := s.indexOf(id)
		if i < 0 || s.items[i].Read {
			return false
		}
		s.items[i].markRead(s.now())
		return true
	})
}

// MarkAllAsRead marks every record as read and returns how many changed.
func (s *Store) MarkAllAsRead(ctx context.Context) int {
	changed := 0
	s.mutate(ctx, func() bool {
		at := s.now()
		for i := range s.items {
			if !s.items[i].Read {
				s.items[i].markRead(at)
				changed++
			}
		}
		return changed > 0
	})
	return changed
}

// Merge folds server history into the list. For ids present on both sides
// the server copy replaces the local one, except that a record already read
// locally stays read. The result is ordered newest first by CreatedAt and
// capped. Merge returns the number of records that were not present before.
func (s *Store) Merge(ctx context.Context, history []Notification) int {
	added := 0
	s.mutate(ctx, func() bool {
		merged := make([]Notification, 0, len(s.items)+len(history))
		merged = append(merged, s.items...)

		changed := false
		for _, h := range history {
			if h.ID == "" {
				continue
			}
			h = h.clone()
			h.Type = ParseType(string(h.Type))
			if h.CreatedAt.IsZero() {
				h.CreatedAt = s.now()
			}

			i := slices.IndexFunc(merged, func(n Notification) bool { return n.ID == h.ID })
			if i < 0 {
				merged = append(merged, h)
				added++
				changed = true
				continue
			}
			if merged[i].Read && !h.Read {
				h.Read = true
				h.ReadAt = merged[i].ReadAt
			}
			merged[i] = h
			changed = true
		}
		if !changed {
			return false
		}

		slices.SortStableFunc(merged, func(a, b Notification) int {
			return b.CreatedAt.Compare(a.CreatedAt)
		})
		if len(merged) > s.capacity {
			merged = merged[:s.capacity]
		}
		s.items = merged
		return true
	})
	return added
}

// Reset drops every record and the persisted copy. Used on logout.
func (s *Store) Reset(ctx context.Context) {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	s.mu.Lock()
	s.items = nil
	subs := s.subscriberList()
	s.mu.Unlock()

	if s.storage != nil && !s.persistOff {
		if err := s.storage.Delete(ctx, s.storageKey); err != nil {
			s.logger.LogAttrs(ctx, slog.LevelWarn, "failed to clear persisted notifications",
				logger.Key(s.storageKey),
				logger.Error(err),
			)
		}
	}
	for _, fn := range subs {
		fn([]Notification{})
	}
}

// Subscribe registers fn to receive the full list after every mutation and
// returns the function that removes it. Calling the returned function more
// than once is safe.
func (s *Store) Subscribe(fn func([]Notification)) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}

	s.mu.Lock()
	s.nextSubID++
	id := s.nextSubID
	s.subscribers[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subscribers, id)
			s.mu.Unlock()
		})
	}
}

// Notifications returns a copy of the list, newest first.
func (s *Store) Notifications() []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot()
}

// UnreadCount derives the unread count from the list.
func (s *Store) UnreadCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return countUnread(s.items)
}

// Get returns the record with id.
func (s *Store) Get(id string) (Notification, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.indexOf(id); i >= 0 {
		return s.items[i].clone(), true
	}
	return Notification{}, false
}

// Len returns the number of records held in memory.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Subscribers returns the number of registered subscribers.
func (s *Store) Subscribers() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subscribers)
}

func (s *Store) mutate(ctx context.Context, fn func() bool) bool {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	s.mu.Lock()
	if !fn() {
		s.mu.Unlock()
		return false
	}
	snapshot := s.snapshot()
	subs := s.subscriberList()
	s.mu.Unlock()

	s.persist(ctx, snapshot)
	for _, cb := range subs {
		cb(cloneList(snapshot))
	}
	return true
}

func (s *Store) persist(ctx context.Context, items []Notification) {
	if s.storage == nil || s.persistOff {
		return
	}
	if err := localstore.SetJSON(ctx, s.storage, s.storageKey, items); err != nil {
		s.logger.LogAttrs(ctx, slog.LevelError, "failed to persist notifications, continuing in memory",
			logger.Key(s.storageKey),
			logger.Count(len(items)),
			logger.Error(err),
		)
		s.persistOff = true
	}
}

// Must be called with mu held.
func (s *Store) indexOf(id string) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

// Must be called with mu held.
func (s *Store) snapshot() []Notification {
	return cloneList(s.items)
}

// Must be called with mu held.
func (s *Store) subscriberList() []func([]Notification) {
	subs := make([]func([]Notification), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	return subs
}

func cloneList(items []Notification) []Notification {
	out := make([]Notification, len(items))
	for i, n := range items {
		out[i] = n.clone()
	}
	return out
}

func countUnread(items []Notification) int {
	count := 0
	for _, n := range items {
		if !n.Read {
			count++
		}
	}
	return count
}
