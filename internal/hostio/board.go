// Package hostio reads joystick hardware through periph.io: analog axes on
// an ADS1115 over I2C and push buttons on GPIO pins.
package hostio

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"periph.io/x/conn/v3/analog"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/ads1x15"
	"periph.io/x/host/v3"
)

// singleEnded maps ADC pin numbers 0-3 to ADS1115 channels
var singleEnded = [...]ads1x15.Channel{
	ads1x15.Channel0,
	ads1x15.Channel1,
	ads1x15.Channel2,
	ads1x15.Channel3,
}

// ResolutionBits is the resolution ReadRaw reports in. Counts span 0V to
// the configured MaxVoltage.
const ResolutionBits = 15

const defaultMaxVoltage = 3300 * physic.MilliVolt

// Config describes the host wiring
type Config struct {
	I2CBus     string // "" opens the first bus
	ADCAddress uint16 // 0 means 0x48
	AxisPins   []int  // ADC pins 0-3 in use
	ButtonPins []int  // GPIO numbers of push buttons, wired to ground

	MaxVoltage physic.ElectricPotential // pot supply voltage, 0 means 3.3V
	SampleRate physic.Frequency         // 0 means 860Hz
}

type analogReader interface {
	Read() (analog.Sample, error)
}

type levelReader interface {
	Read() gpio.Level
}

// Board is a joystick.Input backed by real hardware
type Board struct {
	logger     *slog.Logger
	maxVoltage physic.ElectricPotential
	analog  map[int]analogReader
	digital map[int]levelReader
	closers []func() error

	mu   sync.Mutex
	last map[int]int
}

// Open initializes periph drivers and claims every configured pin
func Open(cfg Config, logger *slog.Logger) (*Board, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}

	b := newBoard(logger)
	if cfg.MaxVoltage > 0 {
		b.maxVoltage = cfg.MaxVoltage
	}
	if err := b.openADC(cfg); err != nil {
		b.Close()
		return nil, err
	}
	if err := b.openButtons(cfg.ButtonPins); err != nil {
		b.Close()
		return nil, err
	}
	return b, nil
}

func newBoard(logger *slog.Logger) *Board {
	if logger == nil {
		logger = slog.Default()
	}
	return &Board{
		logger:     logger.With("component", "hostio"),
		maxVoltage: defaultMaxVoltage,
		analog:     make(map[int]analogReader),
		digital:    make(map[int]levelReader),
		last:       make(map[int]int),
	}
}

func (b *Board) openADC(cfg Config) error {
	if len(cfg.AxisPins) == 0 {
		return nil
	}

	bus, err := i2creg.Open(cfg.I2CBus)
	if err != nil {
		return fmt.Errorf("failed to open I2C bus %q: %w", cfg.I2CBus, err)
	}
	b.closers = append(b.closers, bus.Close)

	opts := ads1x15.DefaultOpts
	if cfg.ADCAddress != 0 {
		opts.I2cAddress = cfg.ADCAddress
	}
	adc, err := ads1x15.NewADS1115(bus, &opts)
	if err != nil {
		return fmt.Errorf("failed to open ADS1115 at %#x: %w", opts.I2cAddress, err)
	}

	rate := cfg.SampleRate
	if rate == 0 {
		rate = 860 * physic.Hertz
	}

	for _, pin := range cfg.AxisPins {
		if pin < 0 || pin >= len(singleEnded) {
			return fmt.Errorf("ADC pin must be 0-%d, got %d", len(singleEnded)-1, pin)
		}
		p, err := adc.PinForChannel(singleEnded[pin], b.maxVoltage, rate, ads1x15.BestQuality)
		if err != nil {
			return fmt.Errorf("failed to open ADC pin %d: %w", pin, err)
		}
		b.analog[pin] = p
		b.closers = append(b.closers, p.Halt)
	}
	return nil
}

func (b *Board) openButtons(pins []int) error {
	for _, pin := range pins {
		name := fmt.Sprintf("GPIO%d", pin)
		p := gpioreg.ByName(name)
		if p == nil {
			return fmt.Errorf("no such GPIO pin %s", name)
		}
		if err := p.In(gpio.PullUp, gpio.NoEdge); err != nil {
			return fmt.Errorf("failed to configure %s as input: %w", name, err)
		}
		b.digital[pin] = p
	}
	return nil
}

// ReadRaw returns the voltage on pin as a ResolutionBits count of
// MaxVoltage, or the last good count when the read fails. Raw ADS1115 counts
// are relative to the gain full scale, not MaxVoltage.
func (b *Board) ReadRaw(pin int) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	r, ok := b.analog[pin]
	if !ok {
		return b.last[pin]
	}
	s, err := r.Read()
	if err != nil {
		b.logger.Debug("analog read failed", "pin", pin, "error", err)
		return b.last[pin]
	}
	b.last[pin] = b.counts(s.V)
	return b.last[pin]
}

func (b *Board) counts(v physic.ElectricPotential) int {
	const full = 1 << ResolutionBits
	n := int64(v) * full / int64(b.maxVoltage)
	return int(max(0, min(n, full-1)))
}

// ReadDigital returns the level of a button pin. Unknown pins read high,
// the idle level of a pulled up button.
func (b *Board) ReadDigital(pin int) bool {
	p, ok := b.digital[pin]
	if !ok {
		return bool(gpio.High)
	}
	return bool(p.Read())
}

// Close halts every claimed pin and releases the I2C bus
func (b *Board) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	b.closers = nil
	return errors.Join(errs...)
}
