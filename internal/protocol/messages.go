// Package protocol defines the text commands understood by a Monocle gateway.
//
// Each command is sent as one websocket text message: a name optionally
// followed by colon separated signed integers, e.g. "PTZ:1:0:-2".
package protocol

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Command names
const (
	CmdHome   = "HOME"
	CmdStop   = "STOP"
	CmdPTZ    = "PTZ"
	CmdPan    = "PAN"
	CmdTilt   = "TILT"
	CmdZoom   = "ZOOM"
	CmdPreset = "PRESET"
)

const separator = ":"

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrBadArity       = errors.New("wrong number of arguments")
)

// arity is the number of integer arguments each command carries
var arity = map[string]int{
	CmdHome:   0,
	CmdStop:   0,
	CmdPTZ:    3,
	CmdPan:    1,
	CmdTilt:   1,
	CmdZoom:   1,
	CmdPreset: 1,
}

// Command is a single gateway instruction
type Command struct {
	Name string
	Args []int
}

// Home returns the camera to its home position
func Home() Command { return Command{Name: CmdHome} }

// Stop halts all camera movement
func Stop() Command { return Command{Name: CmdStop} }

// PTZ drives all three axes at once with signed speed levels
func PTZ(pan, tilt, zoom int) Command {
	return Command{Name: CmdPTZ, Args: []int{pan, tilt, zoom}}
}

func Pan(speed int) Command  { return Command{Name: CmdPan, Args: []int{speed}} }
func Tilt(speed int) Command { return Command{Name: CmdTilt, Args: []int{speed}} }
func Zoom(speed int) Command { return Command{Name: CmdZoom, Args: []int{speed}} }

// Preset recalls a stored camera position
func Preset(n int) Command { return Command{Name: CmdPreset, Args: []int{n}} }

// String encodes the command in wire form
func (c Command) String() string {
	var b strings.Builder
	b.WriteString(c.Name)
	for _, arg := range c.Args {
		b.WriteString(separator)
		b.WriteString(strconv.Itoa(arg))
	}
	return b.String()
}

// Validate checks the command name and argument count
func (c Command) Validate() error {
	want, ok := arity[c.Name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCommand, c.Name)
	}
	if len(c.Args) != want {
		return fmt.Errorf("%w: %s takes %d, got %d", ErrBadArity, c.Name, want, len(c.Args))
	}
	return nil
}

// Parse decodes a wire form command
func Parse(s string) (Command, error) {
	parts := strings.Split(strings.TrimSpace(s), separator)

	cmd := Command{Name: parts[0]}
	if len(parts) > 1 {
		cmd.Args = make([]int, 0, len(parts)-1)
	}
	for _, p := range parts[1:] {
		n, err := strconv.Atoi(p)
		if err != nil {
			return Command{}, fmt.Errorf("failed to parse %s argument: %w", cmd.Name, err)
		}
		cmd.Args = append(cmd.Args, n)
	}

	if err := cmd.Validate(); err != nil {
		return Command{}, err
	}
	return cmd, nil
}
