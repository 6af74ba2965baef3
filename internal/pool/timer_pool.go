// Package pool recycles timers across the session's timed waits, so a
// busy command pipeline does not allocate a fresh timer per request.
package pool

import (
	"sync"
	"time"
)

// idle holds stopped, drained timers ready to be rearmed.
var idle sync.Pool

// GetTimer returns a timer armed for d. Pooled timers are stored stopped
// with their channel drained, so the returned timer never carries a stale
// expiry.
//
// Hand the timer back with PutTimer once its wait is over.
func GetTimer(d time.Duration) *time.Timer {
	t, ok := idle.Get().(*time.Timer)
	if !ok {
		return time.NewTimer(d)
	}

	t.Reset(d)

	return t
}

// PutTimer stops t, discards an expiry the caller left unconsumed, and
// pools the timer for reuse. The caller must not touch t afterwards.
func PutTimer(t *time.Timer) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}

	idle.Put(t)
}
