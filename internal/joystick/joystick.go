// Package joystick turns a three-axis analog joystick and its push button
// into debounced pan/tilt/zoom speed events.
//
// A Controller is driven by calling Tick from a single host loop. It has no
// internal goroutines and is not safe for concurrent use; callbacks run
// synchronously inside Tick and must not block.
package joystick

import (
	"fmt"
	"log/slog"
	"time"
)

// AxisID selects one of the joystick axes
type AxisID int

const (
	Pan AxisID = iota
	Tilt
	Zoom
)

// Axes lists every axis in evaluation order
var Axes = [...]AxisID{Pan, Tilt, Zoom}

func (id AxisID) String() string {
	switch id {
	case Pan:
		return "pan"
	case Tilt:
		return "tilt"
	case Zoom:
		return "zoom"
	default:
		return fmt.Sprintf("AxisID(%d)", int(id))
	}
}

// Event is a snapshot of all three axis levels at dispatch time.
type Event struct {
	Pan  Level
	Tilt Level
	Zoom Level
}

func (e Event) String() string {
	return fmt.Sprintf("pan=%s tilt=%s zoom=%s", e.Pan, e.Tilt, e.Zoom)
}

// Input is the pull-based source of raw readings, polled once per tick.
type Input interface {
	// ReadRaw returns the raw ADC count of an analog pin
	ReadRaw(pin int) int
	// ReadDigital returns the level of a digital pin, true for high
	ReadDigital(pin int) bool
}

// Option configures a Controller
type Option func(*Controller)

// WithClock replaces the system clock, mostly for tests.
func WithClock(clock Clock) Option {
	return func(c *Controller) {
		c.clock = clock
	}
}

// WithLogger sets the logger used for configuration warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// Controller samples the joystick and dispatches PTZ and button events
type Controller struct {
	input  Input
	clock  Clock
	logger *slog.Logger

	axes               [len(Axes)]Axis
	multistateDisabled bool
	events             coalescer
	button             debouncer

	onPTZ    func(Event)
	onButton func()
}

// New creates a controller reading from input. All axes and the button
// start unconfigured; the PTZ event delay defaults to 100ms.
func New(input Input, opts ...Option) *Controller {
	c := &Controller{
		input:  input,
		events: coalescer{delay: DefaultPTZEventDelay},
		button: newDebouncer(),
	}
	for i := range c.axes {
		c.axes[i] = NewAxis()
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.clock == nil {
		c.clock = NewSystemClock()
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

func (c *Controller) axis(id AxisID) *Axis {
	if id < Pan || id > Zoom {
		return nil
	}
	return &c.axes[id]
}

// SetupAxis configures the analog pin and ADC resolution of an axis.
func (c *Controller) SetupAxis(id AxisID, pin, resolutionBits int) {
	if a := c.axis(id); a != nil {
		a.Configure(pin, resolutionBits)
	}
}

// SetupButton configures the digital button pin and its debounce interval.
func (c *Controller) SetupButton(pin int, debounce time.Duration) {
	if pin < 0 {
		c.button = newDebouncer()
		return
	}
	c.button.attach(pin, millis(debounce), c.input.ReadDigital(pin), c.clock.Millis())
}

// SetThresholdLow sets the LOW threshold of an axis; 0 disables the level.
func (c *Controller) SetThresholdLow(id AxisID, v int) {
	c.updateThresholds(id, func(a *Axis) { a.SetThresholdLow(v) })
}

// SetThresholdMed sets the MED threshold of an axis; 0 disables the level.
func (c *Controller) SetThresholdMed(id AxisID, v int) {
	c.updateThresholds(id, func(a *Axis) { a.SetThresholdMed(v) })
}

// SetThresholdHigh sets the HIGH threshold of an axis; 0 disables the level.
func (c *Controller) SetThresholdHigh(id AxisID, v int) {
	c.updateThresholds(id, func(a *Axis) { a.SetThresholdHigh(v) })
}

// SetThresholds sets all three thresholds of an axis.
func (c *Controller) SetThresholds(id AxisID, low, med, high int) {
	c.updateThresholds(id, func(a *Axis) { a.SetThresholds(low, med, high) })
}

// SetAllThresholdLow sets the LOW threshold on every axis.
func (c *Controller) SetAllThresholdLow(v int) {
	for _, id := range Axes {
		c.SetThresholdLow(id, v)
	}
}

// SetAllThresholdMed sets the MED threshold on every axis.
func (c *Controller) SetAllThresholdMed(v int) {
	for _, id := range Axes {
		c.SetThresholdMed(id, v)
	}
}

// SetAllThresholdHigh sets the HIGH threshold on every axis.
func (c *Controller) SetAllThresholdHigh(v int) {
	for _, id := range Axes {
		c.SetThresholdHigh(id, v)
	}
}

// SetAllThresholds sets the same three thresholds on every axis.
func (c *Controller) SetAllThresholds(low, med, high int) {
	for _, id := range Axes {
		c.SetThresholds(id, low, med, high)
	}
}

// updateThresholds applies fn and warns when the result is out of order.
// Out of order thresholds are kept as given.
func (c *Controller) updateThresholds(id AxisID, fn func(*Axis)) {
	a := c.axis(id)
	if a == nil {
		return
	}
	fn(a)

	if t := a.Thresholds(); !t.Monotonic() {
		c.logger.Warn("joystick thresholds are not ascending, higher levels may mask lower ones",
			"axis", id, "low", t.Low, "med", t.Med, "high", t.High)
	}
}

// SetBuffer sets the change buffer of an axis.
func (c *Controller) SetBuffer(id AxisID, n int) {
	if a := c.axis(id); a != nil {
		a.SetBuffer(n)
	}
}

// SetInverted flips the direction of an axis.
func (c *Controller) SetInverted(id AxisID, inverted bool) {
	if a := c.axis(id); a != nil {
		a.SetInverted(inverted)
	}
}

// SetPTZEventDelay sets how long PTZ transitions are coalesced before
// dispatch. Zero dispatches every transition in the tick it happens.
func (c *Controller) SetPTZEventDelay(d time.Duration) {
	c.events.delay = millis(d)
}

// DisableMultistate restricts every axis to LOW/OFF/-LOW.
func (c *Controller) DisableMultistate(disabled bool) {
	c.multistateDisabled = disabled
}

// OnPTZ registers the axis state handler, replacing any previous one.
func (c *Controller) OnPTZ(fn func(Event)) {
	c.onPTZ = fn
}

// OnButtonPress registers the button handler, replacing any previous one.
func (c *Controller) OnButtonPress(fn func()) {
	c.onButton = fn
}

// Value returns the last accepted normalized value of an axis.
func (c *Controller) Value(id AxisID) int {
	if a := c.axis(id); a != nil {
		return a.Value()
	}
	return 0
}

// State returns the last classified level of an axis.
func (c *Controller) State(id AxisID) Level {
	if a := c.axis(id); a != nil {
		return a.State()
	}
	return Off
}

// Event returns the current levels of all axes.
func (c *Controller) Event() Event {
	return Event{
		Pan:  c.axes[Pan].State(),
		Tilt: c.axes[Tilt].State(),
		Zoom: c.axes[Zoom].State(),
	}
}

// Tick samples every configured axis and the button once and dispatches
// any due events.
func (c *Controller) Tick() {
	changed := false
	for i := range c.axes {
		a := &c.axes[i]
		if !a.Configured() {
			continue
		}
		if a.DetectChange(c.input.ReadRaw(a.Pin())) && a.Classify(c.multistateDisabled) {
			changed = true
		}
	}

	now := c.clock.Millis()
	if c.events.evaluate(changed, now) && c.onPTZ != nil {
		c.onPTZ(c.Event())
	}

	if !c.button.attached() {
		return
	}
	c.button.update(c.input.ReadDigital(c.button.pin), now)
	if c.button.fell() && c.onButton != nil {
		c.onButton()
	}
}

// millis converts a duration to whole milliseconds, clamping negatives to zero.
func millis(d time.Duration) uint32 {
	if d <= 0 {
		return 0
	}
	return uint32(d / time.Millisecond)
}
