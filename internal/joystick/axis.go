package joystick

import "fmt"

// Level is the discrete speed/direction of an axis.
// Negative levels move left, down or wide.
type Level int

// Discrete axis levels
const (
	Off  Level = 0
	Low  Level = 1
	Med  Level = 2
	High Level = 3
)

func (l Level) String() string {
	var name string
	switch abs(int(l)) {
	case int(Off):
		return "OFF"
	case int(Low):
		name = "LOW"
	case int(Med):
		name = "MED"
	case int(High):
		name = "HIGH"
	default:
		return fmt.Sprintf("Level(%d)", int(l))
	}
	if l < 0 {
		return "-" + name
	}
	return name
}

// PinUnset marks an axis or button that has not been configured
const PinUnset = -1

// Defaults
const (
	DefaultBuffer        = 100
	DefaultLowThreshold  = 1000
	DefaultPTZEventDelay = 100 // milliseconds
)

// Thresholds holds the absolute normalized values above which an axis
// reports LOW, MED and HIGH. Zero disables a level.
type Thresholds struct {
	Low  int
	Med  int
	High int
}

// Monotonic reports whether the enabled levels are strictly ascending.
func (t Thresholds) Monotonic() bool {
	prev := 0
	for _, v := range []int{t.Low, t.Med, t.High} {
		if v == 0 {
			continue
		}
		if v <= prev {
			return false
		}
		prev = v
	}
	return true
}

// Axis is the configuration and sampling state of one analog channel.
type Axis struct {
	pin        int
	resolution int
	rng        int
	midpoint   int
	inverted   bool
	buffer     int
	thresholds Thresholds

	value int
	state Level
}

// NewAxis returns an unconfigured axis with the default buffer and low threshold.
func NewAxis() Axis {
	return Axis{
		pin:        PinUnset,
		buffer:     DefaultBuffer,
		thresholds: Thresholds{Low: DefaultLowThreshold},
	}
}

// Configure sets the input pin and ADC resolution, recomputing range and midpoint.
func (a *Axis) Configure(pin, resolutionBits int) {
	a.pin = pin
	a.resolution = resolutionBits
	a.rng = 1 << resolutionBits
	a.midpoint = a.rng / 2
}

// SetThresholds stores all three thresholds as absolute values.
// No ordering is enforced between them.
func (a *Axis) SetThresholds(low, med, high int) {
	a.thresholds = Thresholds{Low: abs(low), Med: abs(med), High: abs(high)}
}

// SetThresholdLow stores the LOW threshold as an absolute value.
func (a *Axis) SetThresholdLow(v int) { a.thresholds.Low = abs(v) }

// SetThresholdMed stores the MED threshold as an absolute value.
func (a *Axis) SetThresholdMed(v int) { a.thresholds.Med = abs(v) }

// SetThresholdHigh stores the HIGH threshold as an absolute value.
func (a *Axis) SetThresholdHigh(v int) { a.thresholds.High = abs(v) }

// SetBuffer sets the minimum delta required to accept a new sample.
func (a *Axis) SetBuffer(n int) { a.buffer = n }

// SetInverted negates normalized readings when set.
func (a *Axis) SetInverted(inverted bool) { a.inverted = inverted }

// Pin, Resolution, Range, Midpoint, Inverted, Buffer and Thresholds report
// the axis configuration. Pin is PinUnset until configured.
func (a *Axis) Pin() int               { return a.pin }
func (a *Axis) Resolution() int        { return a.resolution }
func (a *Axis) Range() int             { return a.rng }
func (a *Axis) Midpoint() int          { return a.midpoint }
func (a *Axis) Inverted() bool         { return a.inverted }
func (a *Axis) Buffer() int            { return a.buffer }
func (a *Axis) Thresholds() Thresholds { return a.thresholds }

// Configured reports whether the axis has an input pin.
func (a *Axis) Configured() bool { return a.pin >= 0 }

// Value returns the last accepted normalized value.
func (a *Axis) Value() int { return a.value }

// State returns the last classified level.
func (a *Axis) State() Level { return a.state }

// DetectChange normalizes a raw sample and accepts it when it moved more
// than the buffer away from the last accepted value.
func (a *Axis) DetectChange(raw int) bool {
	if !a.Configured() {
		return false
	}

	normalized := raw - a.midpoint
	if a.inverted {
		normalized = -normalized
	}

	if abs(normalized-a.value) > a.buffer {
		a.value = normalized
		return true
	}
	return false
}

// Classify maps the current value onto a level and reports whether the
// level changed. With multistate disabled only LOW and OFF are reachable.
//
// Levels are tested HIGH, MED, LOW in that order and the first match wins,
// so thresholds configured out of order mask each other as evaluated.
func (a *Axis) Classify(multistateDisabled bool) bool {
	return a.setState(a.level(multistateDisabled))
}

func (a *Axis) level(multistateDisabled bool) Level {
	t := a.thresholds
	v := a.value

	if !multistateDisabled {
		if t.High > 0 {
			if v > t.High {
				return High
			}
			if v < -t.High {
				return -High
			}
		}
		if t.Med > 0 {
			if v > t.Med {
				return Med
			}
			if v < -t.Med {
				return -Med
			}
		}
	}

	if t.Low > 0 {
		if v > t.Low {
			return Low
		}
		if v < -t.Low {
			return -Low
		}
	}

	return Off
}

func (a *Axis) setState(l Level) bool {
	if a.state == l {
		return false
	}
	a.state = l
	return true
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
