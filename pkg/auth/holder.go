package auth

import (
	"context"
	"sync"
)

// TokenSource supplies the bearer token for outgoing requests. An empty
// token means the request is sent unauthenticated.
type TokenSource interface {
	Token() string
}

// StaticToken is a fixed TokenSource.
type StaticToken string

func (t StaticToken) Token() string { return string(t) }

// Holder keeps the identity of the current session. It is set on login and
// cleared on logout, and is safe for concurrent use.
type Holder struct {
	mu       sync.RWMutex
	identity Identity
}

func NewHolder() *Holder {
	return &Holder{}
}

func (h *Holder) Set(id Identity) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.identity = id
}

func (h *Holder) Clear() {
	h.Set(Identity{})
}

// Current returns the identity, anonymous when nothing was set.
func (h *Holder) Current() Identity {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.identity
}

// Token implements TokenSource.
func (h *Holder) Token() string {
	return h.Current().Token
}

type contextKey struct{ name string }

var identityContextKey = &contextKey{name: "identity"}

// WithIdentity stores id in ctx.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, id)
}

// FromContext returns the identity stored by WithIdentity.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityContextKey).(Identity)
	return id, ok
}
