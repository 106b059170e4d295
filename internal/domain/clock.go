package domain

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// clock is a package-level time source so tests can freeze "today" via SetClock.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source used for default cutoffs. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}

// Today returns the current calendar date in the display offset.
func Today(offset time.Duration) Date {
	return DateOf(clock.Now().UTC().Add(offset))
}

// DefaultCutoff returns the calendar date lookback before now, in the display offset.
func DefaultCutoff(offset, lookback time.Duration) Date {
	return DateOf(clock.Now().UTC().Add(offset).Add(-lookback))
}

// Now returns the current time from the package clock.
func Now() time.Time {
	return clock.Now()
}
