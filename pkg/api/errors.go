package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrInvalidURL   = errors.New("api: invalid base url")
	ErrTransport    = errors.New("api: request failed")
	ErrTimeout      = errors.New("api: request timeout")
	ErrDecode       = errors.New("api: invalid response body")
	ErrUnsuccessful = errors.New("api: server reported failure")
	ErrUnauthorized = errors.New("api: unauthorized")
	ErrMissingID    = errors.New("api: missing id")
)

// Error is a non-2xx response.
type Error struct {
	StatusCode int
	Message    string
}

func newError(status int, body []byte) *Error {
	e := &Error{StatusCode: status}

	var env envelope
	if err := json.Unmarshal(body, &env); err == nil {
		e.Message = env.Message
		if e.Message == "" {
			e.Message = env.Error
		}
	}
	if e.Message == "" {
		msg := strings.ReplaceAll(strings.TrimSpace(string(body)), "\n", " ")
		e.Message = truncate(msg, maxMessageRunes)
	}
	if e.Message == "" {
		e.Message = http.StatusText(status)
	}
	return e
}

const maxMessageRunes = 200

// truncate cuts s to at most n runes without splitting a multi-byte rune.
func truncate(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos] + "..."
		}
		i++
	}
	return s
}

func (e *Error) Error() string {
	return fmt.Sprintf("api: status %d: %s", e.StatusCode, e.Message)
}

// Is makes errors.Is(err, ErrUnauthorized) true for 401 and 403 responses.
func (e *Error) Is(target error) bool {
	return target == ErrUnauthorized &&
		(e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden)
}

// IsUnauthorized reports whether err means the token was missing, expired,
// or rejected.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.StatusCode
	}
	return 0
}
