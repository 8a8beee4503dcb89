package toast

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/herraise/hubclient/pkg/broadcast"
	"github.com/herraise/hubclient/pkg/logger"
	"github.com/herraise/hubclient/pkg/notifications"
)

// Timer is a pending auto-dismiss.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d. time.AfterFunc satisfies it through
// StdAfterFunc.
type AfterFunc func(d time.Duration, f func()) Timer

// StdAfterFunc wraps time.AfterFunc.
func StdAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Presenter holds the stack of visible toasts. It is independent of the
// notification store: toasts are transient and never persisted.
type Presenter struct {
	afterFunc AfterFunc
	now       func() time.Time
	newID     func() string
	navigate  func(target string)
	logger    *slog.Logger

	mu     sync.Mutex
	toasts []Toast
	timers map[string]Timer
	subs   map[int]func([]Toast)
	nextID int
	closed bool

	stop chan struct{}
	wg   sync.WaitGroup
}

type Option func(*Presenter)

// WithAfterFunc replaces the timer factory, mainly for tests. f may be run
// before fn returns.
func WithAfterFunc(fn AfterFunc) Option {
	return func(p *Presenter) {
		if fn != nil {
			p.afterFunc = fn
		}
	}
}

// WithClock replaces time.Now for toast creation times.
func WithClock(now func() time.Time) Option {
	return func(p *Presenter) {
		if now != nil {
			p.now = now
		}
	}
}

// WithIDGenerator replaces the toast id source.
func WithIDGenerator(fn func() string) Option {
	return func(p *Presenter) {
		if fn != nil {
			p.newID = fn
		}
	}
}

// WithNavigator is used as the click action of toasts created by Listen.
func WithNavigator(fn func(target string)) Option {
	return func(p *Presenter) { p.navigate = fn }
}

// WithLogger sets the presenter logger. Nil keeps slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(p *Presenter) {
		if l != nil {
			p.logger = l
		}
	}
}

// New creates an empty presenter. Timers default to time.AfterFunc and ids
// to random UUIDs.
func New(opts ...Option) *Presenter {
	p := &Presenter{
		afterFunc: StdAfterFunc,
		now:       time.Now,
		newID:     uuid.NewString,
		logger:    slog.Default(),
		timers:    make(map[string]Timer),
		subs:      make(map[int]func([]Toast)),
		stop:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Push shows a toast for e and schedules its dismissal.
func (p *Presenter) Push(e Event) Toast {
	t := Toast{ID: p.newID(), CreatedAt: p.now(), Event: e}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return t
	}
	p.toasts = slices.Insert(p.toasts, 0, t)
	list, subs := p.snapshot(), p.subscriberList()
	p.mu.Unlock()

	notify(subs, list)

	// The timer is created unlocked: an AfterFunc may fire f synchronously.
	timer := p.afterFunc(Timeout(e.Priority), func() { p.Dismiss(t.ID) })

	p.mu.Lock()
	visible := !p.closed && slices.ContainsFunc(p.toasts, func(x Toast) bool { return x.ID == t.ID })
	if visible {
		p.timers[t.ID] = timer
	}
	p.mu.Unlock()
	if !visible {
		timer.Stop()
	}
	return t
}

// Dismiss removes the toast without running its action. Dismissing an
// unknown or already removed toast returns false.
func (p *Presenter) Dismiss(id string) bool {
	_, ok := p.remove(id)
	return ok
}

// Click removes the toast and runs its action.
func (p *Presenter) Click(id string) bool {
	t, ok := p.remove(id)
	if ok && t.Action != nil {
		t.Action()
	}
	return ok
}

// Toasts returns the visible toasts, newest first.
func (p *Presenter) Toasts() []Toast {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshot()
}

// Subscribe registers fn to be called with the visible toasts after every
// change.
func (p *Presenter) Subscribe(fn func([]Toast)) (unsubscribe func()) {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.subs[id] = fn
	p.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.subs, id)
			p.mu.Unlock()
		})
	}
}

// Listen shows a toast for every notification received on sub until ctx is
// done, sub is closed or the presenter is closed. It returns immediately.
func (p *Presenter) Listen(ctx context.Context, sub broadcast.Subscriber[notifications.Notification]) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer func() { _ = sub.Close() }()

		for {
			select {
			case msg, ok := <-sub.Receive():
				if !ok {
					return
				}
				t := p.Push(FromNotification(msg.Data, p.navigate))
				p.logger.LogAttrs(ctx, slog.LevelDebug, "toast shown",
					logger.NotificationID(msg.Data.ID),
					slog.String("toast_id", t.ID),
				)
			case <-ctx.Done():
				return
			case <-p.stop:
				return
			}
		}
	}()
}

// Close stops all timers and listeners and drops the visible toasts.
func (p *Presenter) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.stop)
	for id, timer := range p.timers {
		timer.Stop()
		delete(p.timers, id)
	}
	p.toasts = nil
	clear(p.subs)
	p.mu.Unlock()

	p.wg.Wait()
	return nil
}

func (p *Presenter) remove(id string) (Toast, bool) {
	p.mu.Lock()
	idx := slices.IndexFunc(p.toasts, func(t Toast) bool { return t.ID == id })
	if idx < 0 {
		p.mu.Unlock()
		return Toast{}, false
	}
	t := p.toasts[idx]
	p.toasts = slices.Delete(p.toasts, idx, idx+1)
	if timer, ok := p.timers[id]; ok {
		timer.Stop()
		delete(p.timers, id)
	}
	list, subs := p.snapshot(), p.subscriberList()
	p.mu.Unlock()

	notify(subs, list)
	return t, true
}

func (p *Presenter) snapshot() []Toast {
	return slices.Clone(p.toasts)
}

func (p *Presenter) subscriberList() []func([]Toast) {
	subs := make([]func([]Toast), 0, len(p.subs))
	for _, fn := range p.subs {
		subs = append(subs, fn)
	}
	return subs
}

func notify(subs []func([]Toast), list []Toast) {
	for _, fn := range subs {
		fn(slices.Clone(list))
	}
}
