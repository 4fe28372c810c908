package ptz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"monocle-remote/internal/joystick"
)

func TestSpeedFraction(t *testing.T) {
	assert.Equal(t, 0.0, SpeedFraction(joystick.Off))
	assert.InDelta(t, 1.0/3, SpeedFraction(joystick.Low), 1e-9)
	assert.InDelta(t, 2.0/3, SpeedFraction(joystick.Med), 1e-9)
	assert.Equal(t, 1.0, SpeedFraction(joystick.High))
	assert.Equal(t, -1.0, SpeedFraction(-joystick.High))
	assert.InDelta(t, -1.0/3, SpeedFraction(-joystick.Low), 1e-9)

	// Out of range levels clamp to full speed
	assert.Equal(t, 1.0, SpeedFraction(joystick.Level(9)))
	assert.Equal(t, -1.0, SpeedFraction(joystick.Level(-9)))
}
