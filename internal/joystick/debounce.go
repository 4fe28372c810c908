package joystick

// debouncer commits a digital level once it has been stable for the
// interval and remembers whether the last update committed a change.
type debouncer struct {
	pin      int
	interval uint32 // milliseconds

	stable    bool
	unstable  bool
	changedAt uint32
	changed   bool
}

func newDebouncer() debouncer {
	return debouncer{pin: PinUnset, stable: true, unstable: true}
}

// attach binds the debouncer to a pin whose current level is level.
func (d *debouncer) attach(pin int, interval uint32, level bool, now uint32) {
	d.pin = pin
	d.interval = interval
	d.stable = level
	d.unstable = level
	d.changedAt = now
	d.changed = false
}

func (d *debouncer) attached() bool {
	return d.pin >= 0
}

// update feeds one raw sample and reports whether the stable level changed.
func (d *debouncer) update(level bool, now uint32) bool {
	d.changed = false

	if level != d.unstable {
		d.unstable = level
		d.changedAt = now
	} else if now-d.changedAt >= d.interval && level != d.stable {
		d.stable = level
		d.changedAt = now
		d.changed = true
	}
	return d.changed
}

// fell reports a committed high to low transition on the last update.
func (d *debouncer) fell() bool {
	return d.changed && !d.stable
}
