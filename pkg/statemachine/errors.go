package statemachine

import (
	"errors"
	"fmt"
)

var (
	ErrNoTransition = errors.New("statemachine: no transition defined")
	ErrRejected     = errors.New("statemachine: transition rejected by guards")
)

// TransitionError says which state and event Fire failed on. It unwraps to
// ErrNoTransition or ErrRejected.
type TransitionError struct {
	From  string
	Event string
	Err   error
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%v: state %q, event %q", e.Err, e.From, e.Event)
}

func (e *TransitionError) Unwrap() error { return e.Err }

func transitionError(err error, from, event any) error {
	return &TransitionError{From: fmt.Sprint(from), Event: fmt.Sprint(event), Err: err}
}
