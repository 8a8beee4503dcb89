package socket

import "errors"

var (
	ErrInvalidURL     = errors.New("socket: invalid url")
	ErrMissingToken   = errors.New("socket: missing token")
	ErrHandshake      = errors.New("socket: handshake failed")
	ErrMalformedFrame = errors.New("socket: malformed frame")
	ErrNotConnected   = errors.New("socket: not connected")
)
