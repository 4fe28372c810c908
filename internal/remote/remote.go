// Package remote connects a joystick to a camera controller and polls the
// joystick on a fixed interval.
package remote

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"monocle-remote/internal/joystick"
	"monocle-remote/internal/ptz"
)

// Action is what the joystick button does
type Action string

const (
	ActionHome   Action = "home"
	ActionStop   Action = "stop"
	ActionPreset Action = "preset"
	ActionNone   Action = "none"
)

// ParseAction validates a button action name
func ParseAction(s string) (Action, error) {
	switch a := Action(s); a {
	case ActionHome, ActionStop, ActionPreset, ActionNone:
		return a, nil
	case "":
		return ActionHome, nil
	default:
		return "", fmt.Errorf("unknown button action %q", s)
	}
}

// Joystick is the part of joystick.Controller the remote drives
type Joystick interface {
	Tick()
	OnPTZ(fn func(joystick.Event))
	OnButtonPress(fn func())
}

var _ Joystick = (*joystick.Controller)(nil)

// Config for the remote loop
type Config struct {
	TickInterval time.Duration // 0 means 5ms
	ButtonAction Action
	ButtonPreset int // preset recalled by ActionPreset
}

// Remote forwards joystick events to a camera
type Remote struct {
	js     Joystick
	cam    ptz.Controller
	cfg    Config
	logger *slog.Logger
}

// New registers the joystick callbacks. It does not start polling.
func New(js Joystick, cam ptz.Controller, cfg Config, logger *slog.Logger) (*Remote, error) {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = 5 * time.Millisecond
	}
	action, err := ParseAction(string(cfg.ButtonAction))
	if err != nil {
		return nil, err
	}
	cfg.ButtonAction = action
	if logger == nil {
		logger = slog.Default()
	}

	r := &Remote{
		js:     js,
		cam:    cam,
		cfg:    cfg,
		logger: logger.With("component", "remote"),
	}
	js.OnPTZ(r.handlePTZ)
	js.OnButtonPress(r.handleButton)
	return r, nil
}

func (r *Remote) handlePTZ(ev joystick.Event) {
	r.logger.Debug("ptz event", "event", ev.String())
	if err := r.cam.Drive(ev.Pan, ev.Tilt, ev.Zoom); err != nil {
		r.logger.Warn("camera drive failed", "event", ev.String(), "error", err)
	}
}

func (r *Remote) handleButton() {
	r.logger.Debug("button pressed", "action", r.cfg.ButtonAction)

	var err error
	switch r.cfg.ButtonAction {
	case ActionHome:
		err = r.cam.Home()
	case ActionStop:
		err = r.cam.Stop()
	case ActionPreset:
		err = r.cam.RecallPreset(r.cfg.ButtonPreset)
	}
	if err != nil {
		r.logger.Warn("button action failed", "action", r.cfg.ButtonAction, "error", err)
	}
}

// Run polls the joystick until ctx is done, then stops the camera
func (r *Remote) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.cfg.TickInterval)
	defer ticker.Stop()

	r.logger.Info("remote running", "tick", r.cfg.TickInterval, "button", r.cfg.ButtonAction)
	for {
		select {
		case <-ctx.Done():
			if err := r.cam.Stop(); err != nil {
				r.logger.Warn("failed to stop camera", "error", err)
			}
			return nil
		case <-ticker.C:
			r.js.Tick()
		}
	}
}
