package bell

import "errors"

var (
	ErrMissingDependency = errors.New("bell: manager and history source are required")
	ErrNotLoaded         = errors.New("bell: panel has not loaded its first page")
	ErrNotFound          = errors.New("bell: notification not in panel")
)
