// Package pool recycles timers across the worker's backoff waits so a
// long-running bridge does not allocate a fresh timer per retry.
package pool

import (
	"sync"
	"time"
)

var timers sync.Pool

// AcquireTimer returns a timer armed with duration d, reusing a pooled
// timer when one is available. Release it with ReleaseTimer.
func AcquireTimer(d time.Duration) *time.Timer {
	v := timers.Get()
	if v == nil {
		return time.NewTimer(d)
	}

	t := v.(*time.Timer)
	if t.Reset(d) {
		// the timer was still active, drop any pending fire
		select {
		case <-t.C:
		default:
		}
	}

	return t
}

// ReleaseTimer stops t and returns it to the pool. The caller must not
// touch t afterwards.
func ReleaseTimer(t *time.Timer) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	timers.Put(t)
}
