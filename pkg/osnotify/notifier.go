package osnotify

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/herraise/hubclient/pkg/localstore"
	"github.com/herraise/hubclient/pkg/logger"
	"github.com/herraise/hubclient/pkg/notifications"
)

// DefaultAutoClose is how long a popup stays up when not clicked.
const DefaultAutoClose = 5 * time.Second

// Focuser brings the application window to the front.
type Focuser interface {
	Focus()
}

// FocuserFunc adapts a function to Focuser.
type FocuserFunc func()

func (f FocuserFunc) Focus() { f() }

// Navigator performs in-app navigation to a route such as
// "/opportunities/42".
type Navigator interface {
	Navigate(target string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(target string)

func (f NavigatorFunc) Navigate(target string) { f(target) }

// Prompter asks the user whether desktop notifications may be shown. It is
// called at most once per device.
type Prompter func(ctx context.Context) bool

// decision is the persisted answer to the permission prompt.
type decision struct {
	Prompted bool `json:"prompted"`
	Granted  bool `json:"granted"`
}

// Notifier shows desktop popups for new notifications. It implements
// notifications.Deliverer and never reports a denied permission as an error,
// so in-app delivery is unaffected.
type Notifier struct {
	backend   Backend
	storage   localstore.Storage
	prompt    Prompter
	focuser   Focuser
	navigator Navigator
	autoClose time.Duration
	logger    *slog.Logger

	mu      sync.Mutex
	granted *bool
	closed  bool
	stop    chan struct{}
	wg      sync.WaitGroup
}

type Option func(*Notifier)

// WithStorage persists the permission decision. Without it the prompt runs
// once per process.
func WithStorage(s localstore.Storage) Option {
	return func(n *Notifier) { n.storage = s }
}

// WithPrompter overrides the default prompt, which grants permission.
func WithPrompter(p Prompter) Option {
	return func(n *Notifier) {
		if p != nil {
			n.prompt = p
		}
	}
}

// WithFocuser sets what brings the app window forward on click.
func WithFocuser(f Focuser) Option {
	return func(n *Notifier) { n.focuser = f }
}

// WithNavigator sets where a clicked popup navigates.
func WithNavigator(nav Navigator) Option {
	return func(n *Notifier) { n.navigator = nav }
}

// WithAutoClose sets how long an unclicked popup stays open.
func WithAutoClose(d time.Duration) Option {
	return func(n *Notifier) {
		if d > 0 {
			n.autoClose = d
		}
	}
}

// WithLogger sets the notifier logger.
func WithLogger(l *slog.Logger) Option {
	return func(n *Notifier) {
		if l != nil {
			n.logger = l
		}
	}
}

// New creates a notifier over backend. A nil backend behaves as an
// unsupported platform.
func New(backend Backend, opts ...Option) *Notifier {
	n := &Notifier{
		backend:   backend,
		prompt:    func(context.Context) bool { return true },
		autoClose: DefaultAutoClose,
		logger:    slog.Default(),
		stop:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Supported reports whether popups can be shown at all.
func (n *Notifier) Supported() bool {
	return n.backend != nil && n.backend.Supported()
}

// RequestPermission returns whether popups may be shown. An unsupported
// platform counts as denied. The user is prompted only if no decision was
// recorded on this device before.
func (n *Notifier) RequestPermission(ctx context.Context) bool {
	if !n.Supported() {
		return false
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.granted != nil {
		return *n.granted
	}

	if d, ok := n.loadDecision(ctx); ok {
		n.granted = &d.Granted
		return d.Granted
	}

	granted := n.prompt(ctx)
	n.granted = &granted
	n.saveDecision(ctx, decision{Prompted: true, Granted: granted})
	return granted
}

// Permission reports the current decision without prompting.
func (n *Notifier) Permission() (granted, decided bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.granted == nil {
		return false, false
	}
	return *n.granted, true
}

// Deliver shows a popup for notif when permission was granted. Without
// permission it does nothing and returns nil.
func (n *Notifier) Deliver(ctx context.Context, notif notifications.Notification) error {
	if granted, _ := n.Permission(); !granted || !n.Supported() {
		return nil
	}

	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return nil
	}
	n.wg.Add(1)
	n.mu.Unlock()

	h, err := n.backend.Show(ctx, Popup{
		Title: notif.Title,
		Body:  notif.Message,
		Icon:  notif.Avatar,
		Tag:   notif.ID,
	})
	if err != nil {
		n.wg.Done()
		return err
	}

	go n.watch(h, notif.Target())
	return nil
}

// Notify is Deliver under the name callers of a notifier expect.
func (n *Notifier) Notify(ctx context.Context, notif notifications.Notification) error {
	return n.Deliver(ctx, notif)
}

func (n *Notifier) watch(h Handle, target string) {
	defer n.wg.Done()

	timer := time.NewTimer(n.autoClose)
	defer timer.Stop()

	select {
	case <-h.Clicked():
		if n.focuser != nil {
			n.focuser.Focus()
		}
		if target != "" && n.navigator != nil {
			n.navigator.Navigate(target)
		}
	case <-timer.C:
	case <-n.stop:
	}
	if err := h.Close(); err != nil {
		n.logger.Debug("failed to close popup", logger.Error(err))
	}
}

// Close dismisses every open popup and waits for their watchers.
func (n *Notifier) Close() error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return nil
	}
	n.closed = true
	close(n.stop)
	n.mu.Unlock()

	n.wg.Wait()
	return nil
}

func (n *Notifier) loadDecision(ctx context.Context) (decision, bool) {
	if n.storage == nil {
		return decision{}, false
	}
	var d decision
	err := localstore.GetJSON(ctx, n.storage, localstore.KeyPermissionPrompted, &d)
	switch {
	case err == nil:
		return d, d.Prompted
	case errors.Is(err, localstore.ErrNotFound):
	default:
		n.logger.LogAttrs(ctx, slog.LevelWarn, "failed to read notification permission",
			logger.Key(localstore.KeyPermissionPrompted),
			logger.Error(err),
		)
	}
	return decision{}, false
}

func (n *Notifier) saveDecision(ctx context.Context, d decision) {
	if n.storage == nil {
		return
	}
	if err := localstore.SetJSON(ctx, n.storage, localstore.KeyPermissionPrompted, d); err != nil {
		n.logger.LogAttrs(ctx, slog.LevelWarn, "failed to store notification permission",
			logger.Key(localstore.KeyPermissionPrompted),
			logger.Error(err),
		)
	}
}
