package optimistic

import "errors"

// ErrPending is returned by Fire while an earlier Fire is still waiting for
// confirmation. The call is dropped, not queued.
var ErrPending = errors.New("optimistic: confirmation already in flight")
