package model

import (
	"sync/atomic"
	"time"
)

// Clock returns the current time.
type Clock func() time.Time

var clock atomic.Pointer[Clock]

func now() time.Time {
	if c := clock.Load(); c != nil {
		return (*c)()
	}
	return time.Now()
}

// SetClock replaces the package clock and returns a function restoring the
// previous one. It is meant for tests that need a fixed "now"; production
// code never calls it. Swapping is atomic, but readers running concurrently
// may see either clock.
func SetClock(c Clock) (restore func()) {
	prev := clock.Swap(&c)
	return func() { clock.Store(prev) }
}

// Now returns the current time according to the package clock.
func Now() time.Time {
	return now()
}
