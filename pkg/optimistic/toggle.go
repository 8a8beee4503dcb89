package optimistic

import (
	"context"
	"log/slog"
	"sync"

	"github.com/herraise/hubclient/pkg/logger"
	"github.com/herraise/hubclient/pkg/statemachine"
)

// Phase is the lifecycle position of a Toggle.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhasePending Phase = "pending"
)

type trigger string

const (
	triggerFire     trigger = "fire"
	triggerConfirm  trigger = "confirm"
	triggerRollback trigger = "rollback"
)

// Confirm sends the optimistic value to the server. When authoritative is
// true, server replaces the optimistic value; otherwise the optimistic value
// is kept.
type Confirm[S any] func(ctx context.Context, optimistic S) (server S, authoritative bool, err error)

// Toggle applies Flip immediately, then asks Confirm to make it stick. A
// failed confirmation restores the value held before Fire.
type Toggle[S any] struct {
	mu       sync.RWMutex
	state    S
	flip     func(S) S
	confirm  Confirm[S]
	machine  *statemachine.Machine[Phase, trigger]
	onChange []func(S, Phase)
	logger   *slog.Logger
}

// Option configures a Toggle.
type Option[S any] func(*Toggle[S])

func WithLogger[S any](l *slog.Logger) Option[S] {
	return func(t *Toggle[S]) {
		if l != nil {
			t.logger = l
		}
	}
}

// WithOnChange registers fn to be called with the value and phase after
// every change, including the optimistic flip and the rollback.
func WithOnChange[S any](fn func(S, Phase)) Option[S] {
	return func(t *Toggle[S]) {
		if fn != nil {
			t.onChange = append(t.onChange, fn)
		}
	}
}

// New creates a toggle holding initial.
func New[S any](initial S, flip func(S) S, confirm Confirm[S], opts ...Option[S]) *Toggle[S] {
	t := &Toggle[S]{
		state:   initial,
		flip:    flip,
		confirm: confirm,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}

	t.machine = statemachine.MustNew(PhaseIdle,
		statemachine.WithTransition[Phase, trigger](PhaseIdle, PhasePending, triggerFire),
		statemachine.WithTransition[Phase, trigger](PhasePending, PhaseIdle, triggerConfirm),
		statemachine.WithTransition[Phase, trigger](PhasePending, PhaseIdle, triggerRollback),
		statemachine.WithObserver(func(ctx context.Context, from, to Phase, via trigger) {
			t.logger.LogAttrs(ctx, slog.LevelDebug, "optimistic toggle transition",
				slog.String("from", string(from)),
				slog.String("to", string(to)),
				slog.String("via", string(via)),
			)
		}),
	)
	return t
}

// State returns the current value, optimistic while Pending.
func (t *Toggle[S]) State() S {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}

func (t *Toggle[S]) Phase() Phase {
	return t.machine.Current()
}

// Pending reports whether a confirmation is in flight.
func (t *Toggle[S]) Pending() bool {
	return t.machine.Is(PhasePending)
}

// Fire flips the value and blocks until the server confirms or rejects it.
// While a previous Fire is still pending it returns ErrPending and leaves
// the value untouched. On failure the pre-flip value is restored and the
// confirmation error is returned.
func (t *Toggle[S]) Fire(ctx context.Context) (S, error) {
	if err := t.machine.Fire(ctx, triggerFire, nil); err != nil {
		return t.State(), ErrPending
	}

	t.mu.Lock()
	before := t.state
	optimistic := t.flip(before)
	t.state = optimistic
	t.mu.Unlock()
	t.notify(optimistic, PhasePending)

	server, authoritative, err := t.confirm(ctx, optimistic)
	if err != nil {
		t.mu.Lock()
		t.state = before
		t.mu.Unlock()
		t.settle(ctx, triggerRollback)
		t.notify(before, PhaseIdle)

		t.logger.LogAttrs(ctx, slog.LevelWarn, "optimistic update rolled back", logger.Error(err))
		return before, err
	}

	final := optimistic
	if authoritative {
		final = server
	}
	t.mu.Lock()
	t.state = final
	t.mu.Unlock()
	t.settle(ctx, triggerConfirm)
	t.notify(final, PhaseIdle)

	return final, nil
}

func (t *Toggle[S]) settle(ctx context.Context, via trigger) {
	if err := t.machine.Fire(ctx, via, nil); err != nil {
		// Only Fire moves the machine into Pending, so this cannot happen.
		t.logger.LogAttrs(ctx, slog.LevelError, "optimistic toggle out of sync", logger.Error(err))
	}
}

func (t *Toggle[S]) notify(s S, p Phase) {
	for _, fn := range t.onChange {
		fn(s, p)
	}
}
