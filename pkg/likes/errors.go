package likes

import (
	"errors"

	"github.com/herraise/hubclient/pkg/api"
	"github.com/herraise/hubclient/pkg/optimistic"
)

var (
	ErrLoginRequired     = errors.New("likes: login required")
	ErrUnknownTarget     = errors.New("likes: unknown target")
	ErrMissingID         = errors.New("likes: missing target id")
	ErrMissingDependency = errors.New("likes: liker and identity are required")
)

// User-facing messages.
const (
	MsgLoginRequired = "Please log in to like posts."
	MsgLoginAgain    = "Please log in again to like posts."
	MsgRetry         = "Could not update like. Please try again."
)

// Message turns a Toggle error into the short text shown next to the
// button. It returns "" for nil and for ignored double clicks.
func Message(err error) string {
	switch {
	case err == nil, errors.Is(err, optimistic.ErrPending):
		return ""
	case errors.Is(err, ErrLoginRequired):
		return MsgLoginRequired
	case api.IsUnauthorized(err):
		return MsgLoginAgain
	default:
		return MsgRetry
	}
}
