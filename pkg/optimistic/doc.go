// Package optimistic implements mutate-then-confirm updates with rollback.
//
// A Toggle holds a value of any type S. Fire applies a local Flip right away
// so the UI can show the new value, then calls Confirm. A successful
// confirmation may replace the value with the server's authoritative copy;
// a failed one restores exactly the value held before Fire. While Pending,
// further Fire calls return ErrPending without touching the value.
//
//	toggle := optimistic.New(initial, flip, confirm)
//	state, err := toggle.Fire(ctx)
//	if errors.Is(err, optimistic.ErrPending) {
//	    return // double click, ignore
//	}
//
// The Idle/Pending lifecycle is driven by a statemachine.Machine, whose
// atomic Fire is the re-entrancy guard.
package optimistic
