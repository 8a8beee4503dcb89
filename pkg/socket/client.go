package socket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/herraise/hubclient/pkg/logger"
	"github.com/herraise/hubclient/pkg/notifications"
)

// State is the connection lifecycle position.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateReconnecting State = "reconnecting"
)

// Ingester receives decoded notifications. *notifications.Manager
// implements it.
type Ingester interface {
	Ingest(ctx context.Context, n notifications.Notification) (bool, error)
}

const maxFrameSize = 1 << 20

// Client owns the single live push connection of a session.
type Client struct {
	url      *url.URL
	dialer   *websocket.Dialer
	ingester Ingester
	attempts int
	backoff  Backoff
	logger   *slog.Logger

	mu     sync.Mutex
	state  State
	conn   *websocket.Conn
	token  string
	cancel context.CancelFunc
	done   chan struct{}

	dials atomic.Int64
}

// Option configures a Client.
type Option func(*Client)

// WithDialer replaces websocket.DefaultDialer.
func WithDialer(d *websocket.Dialer) Option {
	return func(c *Client) {
		if d != nil {
			c.dialer = d
		}
	}
}

// WithReconnectAttempts bounds automatic reconnection after a drop. Zero
// disables it. Default 5.
func WithReconnectAttempts(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.attempts = n
		}
	}
}

// WithBackoff sets the delay policy between reconnect attempts.
func WithBackoff(b Backoff) Option {
	return func(c *Client) {
		if b != nil {
			c.backoff = b
		}
	}
}

// WithReconnectDelay is shorthand for WithBackoff(FixedBackoff{Interval: d}).
func WithReconnectDelay(d time.Duration) Option {
	return WithBackoff(FixedBackoff{Interval: d})
}

// WithLogger sets the client logger. Nil keeps slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a client for baseURL (http, https, ws or wss) and path, e.g.
// New("http://localhost:5000", "/ws", manager). Nothing is dialed until
// Connect.
func New(baseURL, path string, ingester Ingester, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, errors.Join(ErrInvalidURL, err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: host is required", ErrInvalidURL)
	}
	if path != "" {
		u = u.JoinPath(path)
	}
	if ingester == nil {
		return nil, errors.New("socket: ingester is required")
	}

	c := &Client{
		url:      u,
		dialer:   websocket.DefaultDialer,
		ingester: ingester,
		attempts: 5,
		backoff:  DefaultBackoff(),
		logger:   slog.Default(),
		state:    StateDisconnected,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Connect opens the connection authenticated with token. If a connection is
// already live (or being re-established) it is kept and Connect returns nil
// without dialing again. A failed handshake is returned so the caller can log
// it; the rest of the application keeps working without push.
func (c *Client) Connect(ctx context.Context, token string) error {
	if token == "" {
		return ErrMissingToken
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StateConnected, StateReconnecting, StateConnecting:
		return nil
	}
	if c.done != nil {
		// A previous run gave up on its own; let it finish.
		<-c.done
	}

	c.state = StateConnecting
	conn, err := c.dial(ctx, token)
	if err != nil {
		c.state = StateDisconnected
		return err
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	c.conn = conn
	c.token = token
	c.cancel = cancel
	c.done = make(chan struct{})
	c.state = StateConnected

	go c.run(runCtx, conn, c.done)

	c.logger.LogAttrs(ctx, slog.LevelInfo, "socket connected", logger.Target(c.url.Redacted()))
	return nil
}

// Disconnect closes the connection and stops any reconnect loop. It is safe
// to call when not connected.
func (c *Client) Disconnect() error {
	c.mu.Lock()
	cancel, conn, done := c.cancel, c.conn, c.done
	if cancel != nil {
		// Cancel under the lock so a concurrent reconnect cannot install a
		// fresh connection after we captured the current one.
		cancel()
	}
	c.cancel, c.conn, c.done = nil, nil, nil
	c.token = ""
	c.state = StateDisconnected
	c.mu.Unlock()

	if conn != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "logout"),
			time.Now().Add(time.Second),
		)
		_ = conn.Close()
	}
	if done != nil {
		<-done
	}
	return nil
}

// Connected reports whether a connection is currently live.
func (c *Client) Connected() bool {
	return c.State() == StateConnected
}

// State returns the current connection state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Dials returns how many handshakes were attempted.
func (c *Client) Dials() int64 {
	return c.dials.Load()
}

func (c *Client) dial(ctx context.Context, token string) (*websocket.Conn, error) {
	c.dials.Add(1)

	u := *c.url
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	conn, resp, err := c.dialer.DialContext(ctx, u.String(), header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrHandshake, resp.Status, err)
		}
		return nil, errors.Join(ErrHandshake, err)
	}
	conn.SetReadLimit(maxFrameSize)
	return conn, nil
}

func (c *Client) run(ctx context.Context, conn *websocket.Conn, done chan struct{}) {
	defer close(done)

	for {
		err := c.read(ctx, conn)
		if ctx.Err() != nil {
			return
		}
		c.logger.LogAttrs(ctx, slog.LevelWarn, "socket dropped", logger.Error(err))

		conn = c.reconnect(ctx)
		if conn == nil {
			return
		}
	}
}

func (c *Client) read(ctx context.Context, conn *websocket.Conn) error {
	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		n, ok, err := Decode(frame)
		if err != nil {
			c.logger.LogAttrs(ctx, slog.LevelWarn, "ignoring malformed socket frame", logger.Error(err))
			continue
		}
		if !ok {
			c.logger.LogAttrs(ctx, slog.LevelDebug, "ignoring unknown socket event", logger.EventKind(peekKind(frame)))
			continue
		}
		if _, err := c.ingester.Ingest(ctx, n); err != nil {
			c.logger.LogAttrs(ctx, slog.LevelWarn, "failed to ingest pushed notification",
				logger.NotificationID(n.ID),
				logger.Error(err),
			)
		}
	}
}

// reconnect returns a new live connection, or nil when the attempts are
// exhausted or the client was disconnected.
func (c *Client) reconnect(ctx context.Context) *websocket.Conn {
	c.mu.Lock()
	token := c.token
	c.conn = nil
	c.state = StateReconnecting
	c.mu.Unlock()

	for attempt := 1; attempt <= c.attempts; attempt++ {
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(c.backoff.NextInterval(attempt)):
		}

		conn, err := c.dial(ctx, token)
		if err != nil {
			c.logger.LogAttrs(ctx, slog.LevelWarn, "socket reconnect failed",
				logger.Attempt(attempt),
				logger.Error(err),
			)
			continue
		}

		c.mu.Lock()
		if ctx.Err() != nil {
			c.mu.Unlock()
			_ = conn.Close()
			return nil
		}
		c.conn = conn
		c.state = StateConnected
		c.mu.Unlock()

		c.logger.LogAttrs(ctx, slog.LevelInfo, "socket reconnected", logger.Attempt(attempt))
		return conn
	}

	c.mu.Lock()
	if ctx.Err() == nil {
		c.state = StateDisconnected
		c.cancel()
		c.cancel = nil
	}
	c.mu.Unlock()

	c.logger.LogAttrs(ctx, slog.LevelError, "socket reconnect attempts exhausted, live updates stopped",
		logger.Attempt(c.attempts),
	)
	return nil
}

func peekKind(frame []byte) string {
	var env struct {
		Event string `json:"event"`
	}
	_ = json.Unmarshal(frame, &env)
	return env.Event
}
