package likes

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/herraise/hubclient/pkg/api"
	"github.com/herraise/hubclient/pkg/auth"
	"github.com/herraise/hubclient/pkg/logger"
	"github.com/herraise/hubclient/pkg/optimistic"
)

// Target is the kind of object being liked.
type Target string

const (
	TargetPost    Target = "post"
	TargetComment Target = "comment"
)

// State is the like state of one post or comment for the viewing user.
type State struct {
	Liked bool
	Count int
}

// Flip returns the optimistic state after a click. The count never goes
// below zero.
func (s State) Flip() State {
	if s.Liked {
		return State{Liked: false, Count: max(s.Count-1, 0)}
	}
	return State{Liked: true, Count: s.Count + 1}
}

var timeNow = time.Now

// Liker is the backend side of a like toggle.
type Liker interface {
	TogglePostLike(ctx context.Context, postID string) (api.LikeResult, error)
	ToggleCommentLike(ctx context.Context, commentID string) (api.LikeResult, error)
}

// Control is the like button of one post or comment. It lives as long as
// the view showing it and is never persisted.
type Control struct {
	target   Target
	id       string
	liker    Liker
	identity func() auth.Identity
	toggle   *optimistic.Toggle[State]
	logger   *slog.Logger
	onChange func(State, bool)
}

// Option configures a Control.
type Option func(*Control)

func WithLogger(l *slog.Logger) Option {
	return func(c *Control) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithOnChange registers fn to receive the state and the pending flag after
// every change, for redrawing.
func WithOnChange(fn func(state State, pending bool)) Option {
	return func(c *Control) { c.onChange = fn }
}

// NewControl creates a control for target/id starting from the
// server-provided initial state. identity reports the signed-in user at
// click time.
func NewControl(target Target, id string, initial State, liker Liker, identity func() auth.Identity, opts ...Option) (*Control, error) {
	if target != TargetPost && target != TargetComment {
		return nil, ErrUnknownTarget
	}
	if id == "" {
		return nil, ErrMissingID
	}
	if liker == nil || identity == nil {
		return nil, ErrMissingDependency
	}

	c := &Control{
		target:   target,
		id:       id,
		liker:    liker,
		identity: identity,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if initial.Count < 0 {
		initial.Count = 0
	}

	c.toggle = optimistic.New(initial, State.Flip, c.confirm,
		optimistic.WithLogger[State](c.logger),
		optimistic.WithOnChange(func(s State, p optimistic.Phase) {
			if c.onChange != nil {
				c.onChange(s, p == optimistic.PhasePending)
			}
		}),
	)
	return c, nil
}

// Toggle likes or unlikes the target. Anonymous users get ErrLoginRequired
// without any request being sent. A click while the previous one is pending
// returns optimistic.ErrPending and changes nothing.
func (c *Control) Toggle(ctx context.Context) (State, error) {
	if !c.identity().Authenticated(timeNow()) {
		return c.toggle.State(), ErrLoginRequired
	}

	state, err := c.toggle.Fire(ctx)
	if err != nil && !errors.Is(err, optimistic.ErrPending) {
		c.logger.LogAttrs(ctx, slog.LevelWarn, "like toggle failed",
			slog.String("target", string(c.target)),
			slog.String("target_id", c.id),
			logger.Error(err),
		)
	}
	return state, err
}

func (c *Control) State() State {
	return c.toggle.State()
}

// Pending reports whether a toggle is waiting for the server. Views disable
// the button while it is true.
func (c *Control) Pending() bool {
	return c.toggle.Pending()
}

func (c *Control) Target() (Target, string) {
	return c.target, c.id
}

func (c *Control) confirm(ctx context.Context, _ State) (State, bool, error) {
	var (
		res api.LikeResult
		err error
	)
	switch c.target {
	case TargetComment:
		res, err = c.liker.ToggleCommentLike(ctx, c.id)
	default:
		res, err = c.liker.TogglePostLike(ctx, c.id)
	}
	if err != nil {
		return State{}, false, err
	}
	if !res.Authoritative() {
		return State{}, false, nil
	}
	return State{Liked: *res.Liked, Count: max(*res.LikesCount, 0)}, true, nil
}
