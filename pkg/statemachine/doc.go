// Package statemachine provides a small, generic finite state machine.
//
// States and events are any comparable types, typically string-backed
// constants declared by the caller:
//
//	type phase string
//	type trigger string
//
//	const (
//	    Idle    phase   = "idle"
//	    Pending phase   = "pending"
//	    Click   trigger = "click"
//	    Settle  trigger = "settle"
//	)
//
//	machine := statemachine.MustNew[phase, trigger](Idle,
//	    statemachine.WithTransition[phase, trigger](Idle, Pending, Click),
//	    statemachine.WithTransition[phase, trigger](Pending, Idle, Settle),
//	)
//
//	_ = machine.Fire(ctx, Click, nil)
//
// # Guards and Actions
//
// Guards veto a transition based on runtime data. Actions run after all
// guards pass and before the state changes; an action error aborts the
// transition. Observers run after the state changed and outside the lock, so
// they may read the machine.
//
// # Errors
//
// Fire returns a *TransitionError wrapping ErrNoTransition when nothing is
// defined for the current state and event, or ErrRejected when guards
// blocked every candidate. Match them with errors.Is.
//
// # Concurrency
//
// Machine guards its state with a RWMutex. Fire is atomic with respect to
// other Fire calls, which is what makes it usable as a re-entrancy guard:
// of two concurrent Click events from Idle only one succeeds.
package statemachine
