package hub

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/herraise/hubclient/pkg/auth"
	"github.com/herraise/hubclient/pkg/bell"
	"github.com/herraise/hubclient/pkg/likes"
	"github.com/herraise/hubclient/pkg/localstore"
	"github.com/herraise/hubclient/pkg/logger"
	"github.com/herraise/hubclient/pkg/notifications"
	"github.com/herraise/hubclient/pkg/osnotify"
	"github.com/herraise/hubclient/pkg/reminders"
	"github.com/herraise/hubclient/pkg/socket"
	"github.com/herraise/hubclient/pkg/toast"
)

// Backend is the REST surface a session needs. *api.Client implements it.
type Backend interface {
	notifications.HistorySource
	notifications.Syncer
	notifications.UnreadCounter
	likes.Liker
}

// Session wires the notification pipeline for one signed-in user: store,
// manager, push socket, toasts, bell panel and reminders. Init builds it on
// login and Teardown dismantles it on logout.
type Session struct {
	backend  Backend
	storage  localstore.Storage
	holder   *auth.Holder
	notifier *osnotify.Notifier
	navigate func(target string)
	logger   *slog.Logger

	socketBase string
	socketPath string
	socketOpts []socket.Option

	pageSize         int
	reminderInterval time.Duration
	busBuffer        int

	mu        sync.Mutex
	active    bool
	cancel    context.CancelFunc
	store     *notifications.Store
	manager   *notifications.Manager
	bus       *notifications.BroadcastDeliverer
	socket    *socket.Client
	toasts    *toast.Presenter
	panel     *bell.Panel
	reminders *reminders.Scheduler
}

type Option func(*Session)

// WithSocket enables the push connection at baseURL+path.
func WithSocket(baseURL, path string, opts ...socket.Option) Option {
	return func(s *Session) {
		s.socketBase, s.socketPath, s.socketOpts = baseURL, path, opts
	}
}

// WithNotifier adds desktop popups next to in-app toasts.
func WithNotifier(n *osnotify.Notifier) Option {
	return func(s *Session) { s.notifier = n }
}

// WithHolder shares the identity holder, typically with the API client's
// token source.
func WithHolder(h *auth.Holder) Option {
	return func(s *Session) {
		if h != nil {
			s.holder = h
		}
	}
}

// WithNavigator is used by toasts and the panel for click-through.
func WithNavigator(fn func(target string)) Option {
	return func(s *Session) { s.navigate = fn }
}

// WithHistoryPageSize sets the page size of history requests. Default 20.
func WithHistoryPageSize(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// WithReminderInterval sets how often reminders are checked. Zero disables
// reminders. Default one hour.
func WithReminderInterval(d time.Duration) Option {
	return func(s *Session) {
		if d >= 0 {
			s.reminderInterval = d
		}
	}
}

// WithLogger sets the logger handed to every component of the session.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates an inactive session over backend and storage. Components
// are built by Init once a user is signed in.
func New(backend Backend, storage localstore.Storage, opts ...Option) (*Session, error) {
	if backend == nil || storage == nil {
		return nil, ErrMissingDependency
	}
	s := &Session{
		backend:          backend,
		storage:          storage,
		holder:           auth.NewHolder(),
		logger:           slog.Default(),
		pageSize:         20,
		reminderInterval: time.Hour,
		busBuffer:        32,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Init starts the session for token. Calling Init on an active session is a
// no-op. Only an invalid or expired token fails Init: a socket or history
// failure is logged and the session runs without it.
func (s *Session) Init(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		return nil
	}

	id, err := auth.Parse(token)
	if err != nil {
		return err
	}
	if id.Expired(time.Now()) {
		return auth.ErrExpiredToken
	}
	s.holder.Set(id)

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	log := s.logger.With(logger.UserID(id.UserID))

	store := notifications.NewStore(ctx, s.storage, notifications.WithStoreLogger(log))
	bus := notifications.NewBroadcastDeliverer(s.busBuffer)

	deliverers := []notifications.Deliverer{bus}
	if s.notifier != nil && s.notifier.RequestPermission(ctx) {
		deliverers = append(deliverers, s.notifier)
	}
	manager := notifications.NewManager(store,
		notifications.WithDeliverer(notifications.NewMultiDeliverer(deliverers,
			notifications.WithMultiDelivererLogger(log))),
		notifications.WithSyncer(s.backend),
		notifications.WithHistorySource(s.backend),
		notifications.WithManagerLogger(log),
	)

	toasts := toast.New(toast.WithNavigator(s.navigate), toast.WithLogger(log))
	toasts.Listen(runCtx, bus.Subscribe(runCtx))

	panel, err := bell.New(manager, s.backend,
		bell.WithPageSize(s.pageSize),
		bell.WithSyncer(s.backend),
		bell.WithNavigator(s.navigate),
		bell.WithLogger(log),
	)
	if err != nil {
		cancel()
		return fmt.Errorf("hub: build panel: %w", err)
	}

	s.cancel = cancel
	s.store, s.manager, s.bus = store, manager, bus
	s.toasts, s.panel = toasts, panel
	s.active = true

	if s.socketBase != "" {
		s.socket = s.connect(ctx, manager, id.Token, log)
	}

	if _, err := manager.LoadHistory(ctx, s.pageSize); err == nil {
		manager.CheckUnreadCount(ctx, s.backend)
	}

	if s.reminderInterval > 0 {
		s.reminders = s.startReminders(runCtx, store, manager, log)
	}

	log.LogAttrs(ctx, slog.LevelInfo, "session started",
		logger.Count(store.Len()),
		slog.Bool("live", s.socket != nil && s.socket.Connected()),
	)
	return nil
}

func (s *Session) connect(ctx context.Context, manager *notifications.Manager, token string, log *slog.Logger) *socket.Client {
	opts := append([]socket.Option{socket.WithLogger(log)}, s.socketOpts...)
	client, err := socket.New(s.socketBase, s.socketPath, manager, opts...)
	if err != nil {
		log.LogAttrs(ctx, slog.LevelError, "invalid socket configuration", logger.Error(err))
		return nil
	}
	if err := client.Connect(ctx, token); err != nil {
		log.LogAttrs(ctx, slog.LevelWarn, "live updates unavailable", logger.Error(err))
	}
	return client
}

func (s *Session) startReminders(ctx context.Context, store *notifications.Store, manager *notifications.Manager, log *slog.Logger) *reminders.Scheduler {
	sched, err := reminders.New(store, manager,
		reminders.WithInterval(s.reminderInterval),
		reminders.WithLogger(log),
	)
	if err == nil {
		err = sched.Start(ctx)
	}
	if err != nil {
		log.LogAttrs(ctx, slog.LevelWarn, "reminders disabled", logger.Error(err))
		return nil
	}
	return sched
}

// Teardown ends the session on logout: the socket is closed, reminders and
// toasts are stopped, and the notification list is cleared locally and from
// storage. It is safe to call without an active session.
func (s *Session) Teardown(ctx context.Context) {
	s.shutdown(ctx, true)
}

// Close stops the session like Teardown but keeps the persisted list, so the
// next Init on this device starts from it. Used when the application exits
// without logging out.
func (s *Session) Close(ctx context.Context) {
	s.shutdown(ctx, false)
}

func (s *Session) shutdown(ctx context.Context, logout bool) {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	sock, sched, panel, toasts, bus, store, cancel := s.socket, s.reminders, s.panel, s.toasts, s.bus, s.store, s.cancel
	s.socket, s.reminders, s.panel, s.toasts, s.bus, s.store, s.manager, s.cancel = nil, nil, nil, nil, nil, nil, nil, nil
	s.active = false
	s.mu.Unlock()

	if sock != nil {
		_ = sock.Disconnect()
	}
	if sched != nil {
		sched.Stop()
	}
	panel.Close()
	_ = toasts.Close()
	_ = bus.Close()
	cancel()
	if logout {
		store.Reset(ctx)
	}
	s.holder.Clear()

	s.logger.LogAttrs(ctx, slog.LevelInfo, "session ended", slog.Bool("logout", logout))
}

// Active reports whether Init succeeded and Teardown has not run since.
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Identity returns the signed-in user, anonymous outside a session.
func (s *Session) Identity() auth.Identity {
	return s.holder.Current()
}

// Manager returns the active notification manager, or nil outside a session.
func (s *Session) Manager() *notifications.Manager {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.manager
}

// Store returns the active notification store, or nil outside a session.
func (s *Session) Store() *notifications.Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store
}

// Toasts returns the active toast presenter, or nil outside a session.
func (s *Session) Toasts() *toast.Presenter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.toasts
}

// Panel returns the active bell panel, or nil outside a session.
func (s *Session) Panel() *bell.Panel {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.panel
}

// Socket returns the push client, nil when push is not configured.
func (s *Session) Socket() *socket.Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.socket
}

// LikeControl creates a like button bound to the session's identity. It
// works for anonymous viewers too; Toggle then refuses with
// likes.ErrLoginRequired.
func (s *Session) LikeControl(target likes.Target, id string, initial likes.State, opts ...likes.Option) (*likes.Control, error) {
	opts = append([]likes.Option{likes.WithLogger(s.logger)}, opts...)
	return likes.NewControl(target, id, initial, s.backend, s.holder.Current, opts...)
}
