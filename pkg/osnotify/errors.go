package osnotify

import "errors"

var (
	ErrUnsupported = errors.New("osnotify: desktop notifications are not supported")
	ErrShow        = errors.New("osnotify: failed to show notification")
)
