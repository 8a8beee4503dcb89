package reminders

import "errors"

var (
	ErrMissingDependency = errors.New("reminders: source and ingester are required")
	ErrAlreadyStarted    = errors.New("reminders: scheduler already started")
)
