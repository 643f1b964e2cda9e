package core

import "time"

// Clock abstracts wall-clock time so period windows can be tested without
// depending on the real time.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a plain function to the Clock interface.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock returns a Clock backed by time.Now in UTC.
func SystemClock() Clock {
	return ClockFunc(func() time.Time { return time.Now().UTC() })
}

// FixedClock returns a Clock frozen at t, for tests.
func FixedClock(t time.Time) Clock {
	return ClockFunc(func() time.Time { return t })
}
