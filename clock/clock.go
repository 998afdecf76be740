// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package clock abstracts wall-clock time so the placement engine and the
// lock sweeper can be driven deterministically in tests.
package clock

import "time"

// DayLayout is the calendar-day format used for quota buckets.
const DayLayout = "2006-01-02"

// Clock abstracts time-related functions for easier testing.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

// Today returns the UTC calendar day of c.Now() as YYYY-MM-DD.
func Today(c Clock) string {
	return c.Now().UTC().Format(DayLayout)
}

// Real implements Clock using the standard library.
type Real struct{}

// Now returns the current UTC time.
func (Real) Now() time.Time {
	return time.Now().UTC()
}

// After mirrors time.After while satisfying the Clock interface.
func (Real) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}
