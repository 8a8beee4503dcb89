package bell

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"sync"

	"github.com/herraise/hubclient/pkg/async"
	"github.com/herraise/hubclient/pkg/cache"
	"github.com/herraise/hubclient/pkg/logger"
	"github.com/herraise/hubclient/pkg/notifications"
)

// Badge renders an unread count for the bell icon: "" for zero and "99+"
// above 99.
func Badge(unread int) string {
	switch {
	case unread <= 0:
		return ""
	case unread > 99:
		return "99+"
	default:
		return strconv.Itoa(unread)
	}
}

// Panel is the state behind the bell icon and its dropdown history list.
//
// Page 1 is merged into the notification store so live and historical
// records share read state. Later pages are kept in an LRU and listed after
// the store's records, because merging them would push recent records out
// of the capped store.
type Panel struct {
	manager  *notifications.Manager
	source   notifications.HistorySource
	pageSize int
	pages    *cache.LRU[int, notifications.Page]
	maxPages int
	navigate func(target string)
	syncer   notifications.Syncer
	logger   *slog.Logger

	fetchMu sync.Mutex

	mu        sync.Mutex
	open      bool
	loaded    bool
	lastPage  int
	total     int
	read      map[string]struct{}
	listeners map[int]func()
	nextID    int
	unsub     func()
}

type Option func(*Panel)

// WithPageSize sets the history page size. Default 20.
func WithPageSize(n int) Option {
	return func(p *Panel) {
		if n > 0 {
			p.pageSize = n
		}
	}
}

// WithPageCache bounds how many history pages the panel holds. Default 10.
// Once that many pages are loaded HasMore reports false, so no loaded page
// is ever evicted from the list.
func WithPageCache(pages int) Option {
	return func(p *Panel) {
		if c, err := cache.New[int, notifications.Page](pages); err == nil {
			p.pages, p.maxPages = c, pages
		}
	}
}

// WithNavigator sets where clicked notifications with a target navigate.
func WithNavigator(fn func(target string)) Option {
	return func(p *Panel) { p.navigate = fn }
}

// WithSyncer mirrors read state of older history, which the store does not
// hold, to the backend.
func WithSyncer(s notifications.Syncer) Option {
	return func(p *Panel) { p.syncer = s }
}

// WithLogger sets the panel logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Panel) {
		if l != nil {
			p.logger = l
		}
	}
}

// New creates a panel and subscribes it to the manager's store. Call Close
// to release the subscription.
func New(manager *notifications.Manager, source notifications.HistorySource, opts ...Option) (*Panel, error) {
	if manager == nil || source == nil {
		return nil, ErrMissingDependency
	}

	p := &Panel{
		manager:   manager,
		source:    source,
		pageSize:  20,
		pages:     cache.MustNew[int, notifications.Page](10),
		maxPages:  10,
		logger:    slog.Default(),
		read:      make(map[string]struct{}),
		listeners: make(map[int]func()),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.unsub = manager.Store().Subscribe(func([]notifications.Notification) { p.changed() })
	return p, nil
}

// UnreadCount is the badge value, derived from the store.
func (p *Panel) UnreadCount() int {
	return p.manager.Store().UnreadCount()
}

// Badge is Badge(p.UnreadCount()).
func (p *Panel) Badge() string {
	return Badge(p.UnreadCount())
}

// Open shows the panel. The first open fetches page 1; later opens
// re-display what is already loaded. A failed fetch leaves the panel open
// with the store's records and is retried on the next Open.
func (p *Panel) Open(ctx context.Context) error {
	p.mu.Lock()
	p.open = true
	loaded := p.loaded
	p.mu.Unlock()
	defer p.changed()

	if loaded {
		return nil
	}
	return p.fetch(ctx, 1)
}

// Hide closes the dropdown. Loaded pages stay cached.
func (p *Panel) Hide() {
	p.mu.Lock()
	p.open = false
	p.mu.Unlock()
	p.changed()
}

// Toggle opens a hidden panel or hides an open one.
func (p *Panel) Toggle(ctx context.Context) error {
	if p.IsOpen() {
		p.Hide()
		return nil
	}
	return p.Open(ctx)
}

func (p *Panel) IsOpen() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.open
}

// HasMore reports whether LoadMore would fetch another page.
func (p *Panel) HasMore() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hasMore()
}

func (p *Panel) hasMore() bool {
	return p.loaded && p.lastPage < p.total && p.lastPage < p.maxPages
}

// LoadMore fetches the page after the last loaded one and appends it. It is
// a no-op when the backend has no more pages or the page cache is full.
func (p *Panel) LoadMore(ctx context.Context) error {
	p.mu.Lock()
	loaded, next, more := p.loaded, p.lastPage+1, p.hasMore()
	p.mu.Unlock()

	if !loaded {
		return ErrNotLoaded
	}
	if !more {
		return nil
	}
	defer p.changed()
	return p.fetch(ctx, next)
}

func (p *Panel) fetch(ctx context.Context, page int) error {
	p.fetchMu.Lock()
	defer p.fetchMu.Unlock()

	// Another caller may have loaded this page while we waited.
	p.mu.Lock()
	done := p.loaded && p.lastPage >= page
	p.mu.Unlock()
	if done {
		return nil
	}

	result, err := p.source.ListNotifications(ctx, page, p.pageSize)
	if err != nil {
		p.logger.LogAttrs(ctx, slog.LevelWarn, "failed to load notification page",
			slog.Int("page", page),
			logger.Error(err),
		)
		return errors.Join(notifications.ErrHistoryUnavailable, err)
	}

	if page == 1 {
		p.manager.Store().Merge(ctx, result.Notifications)
	}
	p.pages.Put(page, result)

	p.mu.Lock()
	p.loaded = true
	p.lastPage = page
	p.total = max(result.TotalPages, page)
	p.mu.Unlock()
	return nil
}

// Items lists the store's records followed by older loaded history, newest
// first, without duplicates.
func (p *Panel) Items() []notifications.Notification {
	items := p.manager.Store().Notifications()
	seen := make(map[string]struct{}, len(items))
	for _, n := range items {
		seen[n.ID] = struct{}{}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	for page := 1; page <= p.lastPage; page++ {
		cached, ok := p.pages.Peek(page)
		if !ok {
			continue
		}
		for _, n := range cached.Notifications {
			if _, dup := seen[n.ID]; dup {
				continue
			}
			seen[n.ID] = struct{}{}
			if _, ok := p.read[n.ID]; ok {
				n.Read = true
			}
			items = append(items, n)
		}
	}
	return items
}

// Click marks the notification read and navigates to its target, if any.
// It returns the clicked record.
func (p *Panel) Click(ctx context.Context, id string) (notifications.Notification, error) {
	var (
		item  notifications.Notification
		found bool
	)
	for _, n := range p.Items() {
		if n.ID == id {
			item, found = n, true
			break
		}
	}
	if !found {
		return notifications.Notification{}, ErrNotFound
	}

	if !item.Read {
		p.mu.Lock()
		p.read[id] = struct{}{}
		p.mu.Unlock()
		if _, inStore := p.manager.Store().Get(id); inStore {
			p.manager.MarkAsRead(ctx, id)
		} else {
			p.syncInBackground(ctx, "mark notification read", func(ctx context.Context) error {
				return p.syncer.MarkRead(ctx, id)
			})
		}
		item.Read = true
	}
	if target := item.Target(); target != "" && p.navigate != nil {
		p.navigate(target)
	}
	p.changed()
	return item, nil
}

// MarkAllRead marks every record read, including older loaded history.
func (p *Panel) MarkAllRead(ctx context.Context) {
	olderUnread := 0
	for _, n := range p.Items() {
		if _, inStore := p.manager.Store().Get(n.ID); !inStore && !n.Read {
			olderUnread++
		}
	}

	p.mu.Lock()
	for page := 1; page <= p.lastPage; page++ {
		if cached, ok := p.pages.Peek(page); ok {
			for _, n := range cached.Notifications {
				p.read[n.ID] = struct{}{}
			}
		}
	}
	p.mu.Unlock()

	storeUnread := p.manager.Store().UnreadCount()
	p.manager.MarkAllAsRead(ctx)
	if storeUnread == 0 && olderUnread > 0 {
		// The manager only syncs when its own records changed.
		p.syncInBackground(ctx, "mark all notifications read", p.syncerMarkAll)
	}
	p.changed()
}

func (p *Panel) syncerMarkAll(ctx context.Context) error {
	return p.syncer.MarkAllRead(ctx)
}

func (p *Panel) syncInBackground(ctx context.Context, op string, fn func(context.Context) error) {
	if p.syncer == nil {
		return
	}
	async.Go(context.WithoutCancel(ctx), func(ctx context.Context) error {
		if err := fn(ctx); err != nil {
			p.logger.LogAttrs(ctx, slog.LevelWarn, "failed to "+op+" on server", logger.Error(err))
			return err
		}
		return nil
	})
}

// OnChange registers fn to run after any change to the badge or the list.
func (p *Panel) OnChange(fn func()) (unsubscribe func()) {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = fn
	p.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.listeners, id)
			p.mu.Unlock()
		})
	}
}

// Close releases the store subscription and drops cached pages.
func (p *Panel) Close() {
	p.mu.Lock()
	unsub := p.unsub
	p.unsub = nil
	clear(p.listeners)
	p.open, p.loaded, p.lastPage, p.total = false, false, 0, 0
	clear(p.read)
	p.mu.Unlock()

	if unsub != nil {
		unsub()
	}
	p.pages.Purge()
}

func (p *Panel) changed() {
	p.mu.Lock()
	fns := make([]func(), 0, len(p.listeners))
	for _, fn := range p.listeners {
		fns = append(fns, fn)
	}
	p.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}
