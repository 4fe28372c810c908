package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"monocle-remote/internal/gateway"
	"monocle-remote/internal/hostio"
	"monocle-remote/internal/joystick"
	"monocle-remote/internal/panasonic"
	"monocle-remote/internal/ptz"
	"monocle-remote/internal/remote"
	"monocle-remote/internal/visca"
)

// CLI is the command line and config file surface
type CLI struct {
	Config   kong.ConfigFlag  `help:"Load configuration from a YAML file" short:"c"`
	LogLevel string           `help:"Log level" enum:"debug,info,warn,error" default:"info" env:"MONOCLE_LOG_LEVEL"`
	Version  kong.VersionFlag `help:"Print the version and exit"`

	Run     RunCmd     `cmd:"" default:"withargs" help:"Drive a camera from the joystick"`
	Monitor MonitorCmd `cmd:"" help:"Log joystick events without a camera"`
}

// AxisFlags configures one joystick axis
type AxisFlags struct {
	Pin    int  `help:"ADC channel 0-3, -1 disables the axis" default:"-1"`
	Bits   int  `help:"ADC resolution in bits" default:"15"`
	Low    int  `help:"LOW threshold, 0 disables the level" default:"1000"`
	Med    int  `help:"MED threshold, 0 disables the level" default:"0"`
	High   int  `help:"HIGH threshold, 0 disables the level" default:"0"`
	Buffer int  `help:"Minimum movement before a sample is accepted" default:"100"`
	Invert bool `help:"Invert the axis direction"`
}

// StickFlags configures the joystick and its host wiring
type StickFlags struct {
	Pan  AxisFlags `embed:"" prefix:"pan."`
	Tilt AxisFlags `embed:"" prefix:"tilt."`
	Zoom AxisFlags `embed:"" prefix:"zoom."`

	ButtonPin   int           `help:"GPIO number of the push button, -1 disables it" default:"-1"`
	Debounce    time.Duration `help:"Button debounce interval" default:"10ms"`
	EventDelay  time.Duration `help:"Settle time before a PTZ change is dispatched" default:"100ms"`
	SingleSpeed bool          `help:"Only report LOW and OFF levels"`
	Tick        time.Duration `help:"Joystick polling interval" default:"5ms"`

	I2CBus     string `name:"i2c-bus" help:"I2C bus of the ADC, empty for the first bus" env:"MONOCLE_I2C_BUS"`
	ADCAddress uint16 `name:"adc-address" help:"I2C address of the ADS1115" default:"72"`
}

func (s *StickFlags) axes() [3]AxisFlags {
	return [3]AxisFlags{s.Pan, s.Tilt, s.Zoom}
}

func (s *StickFlags) hostConfig() hostio.Config {
	cfg := hostio.Config{I2CBus: s.I2CBus, ADCAddress: s.ADCAddress}
	for _, a := range s.axes() {
		if a.Pin >= 0 {
			cfg.AxisPins = append(cfg.AxisPins, a.Pin)
		}
	}
	if s.ButtonPin >= 0 {
		cfg.ButtonPins = []int{s.ButtonPin}
	}
	return cfg
}

func (s *StickFlags) newJoystick(in joystick.Input, logger *slog.Logger) *joystick.Controller {
	js := joystick.New(in, joystick.WithLogger(logger))
	for i, a := range s.axes() {
		id := joystick.Axes[i]
		if a.Pin < 0 {
			continue
		}
		js.SetupAxis(id, a.Pin, a.Bits)
		js.SetThresholds(id, a.Low, a.Med, a.High)
		js.SetBuffer(id, a.Buffer)
		js.SetInverted(id, a.Invert)
	}
	js.SetupButton(s.ButtonPin, s.Debounce)
	js.SetPTZEventDelay(s.EventDelay)
	js.DisableMultistate(s.SingleSpeed)
	return js
}

// run opens the hardware and forwards joystick events to cam until a
// signal arrives
func (s *StickFlags) run(cam ptz.Controller, rcfg remote.Config, logger *slog.Logger) error {
	board, err := hostio.Open(s.hostConfig(), logger)
	if err != nil {
		return err
	}
	defer board.Close()

	rcfg.TickInterval = s.Tick
	r, err := remote.New(s.newJoystick(board, logger), cam, rcfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return r.Run(ctx)
}

// CameraFlags selects and addresses the camera
type CameraFlags struct {
	Camera string `help:"Camera backend" enum:"gateway,visca,panasonic" default:"gateway" env:"MONOCLE_CAMERA"`

	GatewayURL string `help:"Monocle gateway websocket URL" default:"ws://127.0.0.1:8080/" env:"MONOCLE_GATEWAY_URL"`

	ViscaAddress  string `help:"VISCA camera host:port" env:"MONOCLE_VISCA_ADDRESS"`
	ViscaProtocol string `help:"VISCA transport" enum:"udp,tcp" default:"udp" env:"MONOCLE_VISCA_PROTOCOL"`
	ViscaCamera   int    `help:"VISCA camera address 1-7" default:"1"`

	PanasonicAddress string `help:"Panasonic camera host" env:"MONOCLE_PANASONIC_ADDRESS"`
}

func (c *CameraFlags) open(ctx context.Context, logger *slog.Logger) (ptz.Controller, error) {
	switch c.Camera {
	case "gateway":
		client, err := gateway.NewClient(gateway.Config{URL: c.GatewayURL}, logger)
		if err != nil {
			return nil, err
		}
		if err := client.Connect(ctx); err != nil {
			logger.Warn("gateway unavailable, retrying in background", "url", c.GatewayURL, "error", err)
			client.Start()
		}
		return client, nil
	case "visca":
		return visca.NewController(visca.Config{
			Address:       c.ViscaAddress,
			Protocol:      c.ViscaProtocol,
			CameraAddress: c.ViscaCamera,
		}, logger)
	case "panasonic":
		return panasonic.NewController(panasonic.Config{Address: c.PanasonicAddress}, logger)
	default:
		return nil, fmt.Errorf("unknown camera backend %q", c.Camera)
	}
}

// RunCmd drives a camera from the joystick
type RunCmd struct {
	StickFlags  `embed:""`
	CameraFlags `embed:""`

	Button string `help:"Button action" enum:"home,stop,preset,none" default:"home"`
	Preset int    `help:"Preset recalled when the button action is preset" default:"1"`
}

func (r *RunCmd) Run(logger *slog.Logger) error {
	logger.Info("starting monocle remote", "camera", r.Camera)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	cam, err := r.open(ctx, logger)
	cancel()
	if err != nil {
		return err
	}
	defer cam.Close()

	return r.run(cam, remote.Config{
		ButtonAction: remote.Action(r.Button),
		ButtonPreset: r.Preset,
	}, logger)
}

// MonitorCmd logs joystick events, useful for tuning thresholds
type MonitorCmd struct {
	StickFlags `embed:""`
}

func (m *MonitorCmd) Run(logger *slog.Logger) error {
	logger.Info("monitoring joystick")
	return m.run(logCamera{logger: logger}, remote.Config{ButtonAction: remote.ActionHome}, logger)
}

// logCamera is a ptz.Controller that only logs
type logCamera struct {
	logger *slog.Logger
}

func (l logCamera) Drive(pan, tilt, zoom joystick.Level) error {
	l.logger.Info("ptz", "pan", pan.String(), "tilt", tilt.String(), "zoom", zoom.String())
	return nil
}

func (l logCamera) Home() error {
	l.logger.Info("button pressed")
	return nil
}

func (l logCamera) Stop() error {
	l.logger.Info("stop")
	return nil
}

func (l logCamera) RecallPreset(n int) error {
	l.logger.Info("preset", "preset", n)
	return nil
}

func (l logCamera) Close() error { return nil }
