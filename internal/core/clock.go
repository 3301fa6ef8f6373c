package core

import "time"

// Clock is a monotonic millisecond counter.
// Wrap-around is not handled; a session is assumed to end long before it.
type Clock interface {
	NowMillis() uint32
}

// SystemClock counts milliseconds since it was created.
type SystemClock struct {
	start time.Time
}

// NewSystemClock starts a clock at zero.
func NewSystemClock() *SystemClock {
	return &SystemClock{start: time.Now()}
}

// NowMillis returns the milliseconds elapsed since NewSystemClock.
func (c *SystemClock) NowMillis() uint32 {
	return uint32(time.Since(c.start).Milliseconds()) //nolint:gosec // wrap is out of scope
}
