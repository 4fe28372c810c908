package protocol

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandString(t *testing.T) {
	tests := []struct {
		cmd  Command
		want string
	}{
		{Home(), "HOME"},
		{Stop(), "STOP"},
		{PTZ(1, 0, 0), "PTZ:1:0:0"},
		{PTZ(-3, 2, -1), "PTZ:-3:2:-1"},
		{Pan(-2), "PAN:-2"},
		{Tilt(3), "TILT:3"},
		{Zoom(0), "ZOOM:0"},
		{Preset(7), "PRESET:7"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cmd.String())
			require.NoError(t, tt.cmd.Validate())
		})
	}
}

func TestParse(t *testing.T) {
	cmd, err := Parse("PTZ:-1:2:3")
	require.NoError(t, err)
	assert.Equal(t, PTZ(-1, 2, 3), cmd)

	cmd, err = Parse(" HOME\n")
	require.NoError(t, err)
	assert.Equal(t, Home(), cmd)

	cmd, err = Parse("PRESET:12")
	require.NoError(t, err)
	assert.Equal(t, Preset(12), cmd)
}

func TestParseErrors(t *testing.T) {
	_, err := Parse("JUMP")
	assert.ErrorIs(t, err, ErrUnknownCommand)

	_, err = Parse("home")
	assert.ErrorIs(t, err, ErrUnknownCommand)

	_, err = Parse("PTZ:1:2")
	assert.ErrorIs(t, err, ErrBadArity)

	_, err = Parse("STOP:1")
	assert.ErrorIs(t, err, ErrBadArity)

	_, err = Parse("PAN:fast")
	assert.ErrorIs(t, err, strconv.ErrSyntax)

	_, err = Parse("")
	assert.ErrorIs(t, err, ErrUnknownCommand)
}
