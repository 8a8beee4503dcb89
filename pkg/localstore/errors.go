package localstore

import "errors"

var (
	ErrNotFound   = errors.New("localstore: key not found")
	ErrEmptyKey   = errors.New("localstore: empty key")
	ErrCorrupted  = errors.New("localstore: stored value is corrupted")
	ErrInvalidDir = errors.New("localstore: invalid storage directory")
)
