package hub

import "errors"

var (
	ErrMissingDependency = errors.New("hub: backend and storage are required")
	ErrNotActive         = errors.New("hub: no active session")
)
