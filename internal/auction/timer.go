package auction

import "time"

// Remaining is the time left before end, never negative. It is computed from
// the persisted deadline, so every observer that calls it agrees.
func Remaining(end, now time.Time) time.Duration {
	if d := end.Sub(now); d > 0 {
		return d
	}
	return 0
}

// RemainingSeconds is Remaining rounded up to whole seconds, for display.
func RemainingSeconds(end, now time.Time) int {
	d := Remaining(end, now)
	secs := int(d / time.Second)
	if d%time.Second != 0 {
		secs++
	}
	return secs
}

// Expired reports whether the deadline has been reached.
func Expired(end, now time.Time) bool {
	return !now.Before(end)
}
