package requestid

import (
	"context"
	"regexp"

	"github.com/google/uuid"
)

// Header carries the id on outgoing requests.
const Header = "X-Request-ID"

const maxIDLength = 128

var validID = regexp.MustCompile("^[a-zA-Z0-9_-]+$")

// New returns a fresh random id.
func New() string {
	return uuid.New().String()
}

// Valid reports whether id is safe to send as a header value.
func Valid(id string) bool {
	if id == "" || len(id) > maxIDLength {
		return false
	}
	return validID.MatchString(id)
}

// Ensure returns ctx with a valid id attached, reusing the one already
// there when possible.
func Ensure(ctx context.Context) (context.Context, string) {
	if id := FromContext(ctx); Valid(id) {
		return ctx, id
	}
	id := New()
	return WithContext(ctx, id), id
}
