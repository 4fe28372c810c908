package joystick

import "time"

// Clock supplies a monotonic millisecond counter.
// Elapsed time is computed with unsigned subtraction, so a single
// wraparound of the counter is tolerated.
type Clock interface {
	Millis() uint32
}

// SystemClock counts milliseconds since it was created.
type SystemClock struct {
	start time.Time
}

// NewSystemClock returns a clock starting at zero now.
func NewSystemClock() *SystemClock {
	return &SystemClock{start: time.Now()}
}

func (c *SystemClock) Millis() uint32 {
	// time.Since uses the monotonic reading
	return uint32(time.Since(c.start).Milliseconds())
}
