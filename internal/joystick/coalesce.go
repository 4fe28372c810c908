package joystick

// coalescer collapses axis transitions that arrive within the event delay
// into a single dispatch carrying whatever state is current when it fires.
type coalescer struct {
	delay   uint32 // milliseconds, 0 dispatches immediately
	armed   bool
	armedAt uint32
}

// evaluate is called once per tick with whether any axis changed and
// reports whether an event should be dispatched now.
func (c *coalescer) evaluate(changed bool, now uint32) bool {
	if changed {
		if c.delay == 0 {
			c.armed = false
			return true
		}
		// Restart the window on every transition
		c.armed = true
		c.armedAt = now
	}

	if c.armed && now-c.armedAt > c.delay {
		c.armed = false
		return true
	}
	return false
}

// pending reports whether a dispatch is waiting on the delay.
func (c *coalescer) pending() bool {
	return c.armed
}
