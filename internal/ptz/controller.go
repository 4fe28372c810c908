package ptz

import "monocle-remote/internal/joystick"

// Controller defines the interface for PTZ camera control
type Controller interface {
	// Drive moves all three axes at discrete speed levels.
	// Positive pan is right, positive tilt is up, positive zoom is tele.
	// An Off level stops that axis.
	Drive(pan, tilt, zoom joystick.Level) error

	// Home returns the camera to its home position
	Home() error

	// Stop stops all PTZ movement immediately
	Stop() error

	// RecallPreset recalls a preset position
	RecallPreset(preset int) error

	// Close closes the controller connection
	Close() error
}

// SpeedFraction maps a level onto a signed fraction of full speed.
func SpeedFraction(l joystick.Level) float64 {
	switch {
	case l > joystick.High:
		l = joystick.High
	case l < -joystick.High:
		l = -joystick.High
	}
	return float64(l) / float64(joystick.High)
}
