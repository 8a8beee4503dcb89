package notifications

import "errors"

var (
	// ErrMissingID is returned when a record without an id reaches the store.
	ErrMissingID = errors.New("notifications: notification id is required")

	// ErrHistoryUnavailable wraps failures to load server history.
	ErrHistoryUnavailable = errors.New("notifications: history unavailable")

	ErrInvalidTimestamp = errors.New("notifications: invalid timestamp")
)
