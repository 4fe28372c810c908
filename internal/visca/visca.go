package visca

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"math"
	"net"
	"sync"
	"time"

	"monocle-remote/internal/joystick"
	"monocle-remote/internal/ptz"
)

// Speed ranges of the pan/tilt and zoom drive commands
const (
	maxPanSpeed  = 0x18
	maxTiltSpeed = 0x14
	maxZoomSpeed = 0x07
)

// Direction bytes
const (
	panLeft  = 0x01
	panRight = 0x02
	tiltUp   = 0x01
	tiltDown = 0x02
	dirStop  = 0x03
)

// Controller manages VISCA communication with a PTZ camera
type Controller struct {
	conn         net.Conn
	mu           sync.Mutex
	addr         int    // Camera address (1-7), default 1
	seqNum       uint32 // Sequence number for VISCA over IP
	protocol     string
	writeTimeout time.Duration
	logger       *slog.Logger
}

var _ ptz.Controller = (*Controller)(nil)

// Config for VISCA controller
type Config struct {
	// For UDP: address like "192.168.1.100:52381"
	// For TCP: address like "192.168.1.100:5678"
	Address  string
	Protocol string // "udp" or "tcp"

	// Camera address on the VISCA bus (1-7), 0 means 1
	CameraAddress int

	// Write deadline per command, 0 means 10ms
	WriteTimeout time.Duration
}

// NewController creates a new VISCA controller
func NewController(cfg Config, logger *slog.Logger) (*Controller, error) {
	if logger == nil {
		logger = slog.Default()
	}

	protocol := cfg.Protocol
	if protocol == "" {
		protocol = "udp" // Default to UDP for VISCA over IP
	}
	if protocol != "udp" && protocol != "tcp" {
		return nil, fmt.Errorf("unsupported protocol: %s", protocol)
	}

	addr := cfg.CameraAddress
	if addr == 0 {
		addr = 1
	}
	if addr < 1 || addr > 7 {
		return nil, fmt.Errorf("camera address must be 1-7, got %d", addr)
	}

	writeTimeout := cfg.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 10 * time.Millisecond
	}

	conn, err := net.DialTimeout(protocol, cfg.Address, 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to VISCA over %s: %w", protocol, err)
	}

	return &Controller{
		conn:         conn,
		addr:         addr,
		protocol:     protocol,
		writeTimeout: writeTimeout,
		logger:       logger.With("component", "visca", "addr", cfg.Address),
	}, nil
}

// Close closes the VISCA connection
func (c *Controller) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// buildPayload constructs a raw VISCA command (address + payload + terminator)
func (c *Controller) buildPayload(payload []byte) []byte {
	// Address byte: 0x80 | address (1-7)
	cmd := make([]byte, 0, len(payload)+2)
	cmd = append(cmd, byte(0x80|c.addr))
	cmd = append(cmd, payload...)
	cmd = append(cmd, 0xFF) // Terminator
	return cmd
}

// buildOverIP wraps a VISCA payload in VISCA-over-IP framing
func (c *Controller) buildOverIP(viscaPayload []byte) []byte {
	// Bytes 0-1: Message type (0x01 0x00 for command)
	// Bytes 2-3: Payload length (big endian)
	// Bytes 4-7: Sequence number (big endian)
	packet := make([]byte, 8, 8+len(viscaPayload))
	packet[0] = 0x01
	packet[1] = 0x00
	binary.BigEndian.PutUint16(packet[2:4], uint16(len(viscaPayload)))
	binary.BigEndian.PutUint32(packet[4:8], c.seqNum)
	c.seqNum++

	return append(packet, viscaPayload...)
}

// sendCommand sends a command without waiting for the camera's ACK
func (c *Controller) sendCommand(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	packet := c.buildPayload(payload)
	if c.protocol == "udp" {
		packet = c.buildOverIP(packet)
	}

	// Short write deadline so a stalled camera never stalls the caller
	c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	if _, err := c.conn.Write(packet); err != nil {
		return fmt.Errorf("failed to send VISCA command % x: %w", payload, err)
	}
	c.logger.Debug("sent command", "payload", fmt.Sprintf("% x", payload))
	return nil
}

// Drive sends a pan/tilt drive followed by a zoom drive
func (c *Controller) Drive(pan, tilt, zoom joystick.Level) error {
	if err := c.sendCommand(panTiltPayload(pan, tilt)); err != nil {
		return err
	}
	return c.sendCommand(zoomPayload(zoom))
}

// Home moves the camera to its home position
func (c *Controller) Home() error {
	// Pan-tiltDrive Home: 01 06 04
	return c.sendCommand([]byte{0x01, 0x06, 0x04})
}

// Stop stops all PTZ movement
func (c *Controller) Stop() error {
	return c.Drive(joystick.Off, joystick.Off, joystick.Off)
}

// RecallPreset recalls a preset position
func (c *Controller) RecallPreset(preset int) error {
	if preset < 0 || preset > 255 {
		return fmt.Errorf("preset must be 0-255")
	}
	// VISCA Memory Recall: 01 04 3F 02 pp
	return c.sendCommand([]byte{0x01, 0x04, 0x3F, 0x02, byte(preset)})
}

// panTiltPayload builds Pan-tiltDrive: 01 06 01 VV WW XX YY
// VV = pan speed (01-18), WW = tilt speed (01-14)
// XX: 01=left, 02=right, 03=stop
// YY: 01=up, 02=down, 03=stop
func panTiltPayload(pan, tilt joystick.Level) []byte {
	panSpeed := scaleSpeed(pan, 1, maxPanSpeed)
	tiltSpeed := scaleSpeed(tilt, 1, maxTiltSpeed)

	var panDir, tiltDir byte
	switch {
	case pan < 0:
		panDir = panLeft
	case pan > 0:
		panDir = panRight
	default:
		panDir = dirStop
	}

	switch {
	case tilt > 0:
		tiltDir = tiltUp
	case tilt < 0:
		tiltDir = tiltDown
	default:
		tiltDir = dirStop
	}

	return []byte{0x01, 0x06, 0x01, panSpeed, tiltSpeed, panDir, tiltDir}
}

// zoomPayload builds CAM_Zoom: 01 04 07 XY
// X: 0=stop, 2=tele(in), 3=wide(out); Y: speed 0-7
func zoomPayload(zoom joystick.Level) []byte {
	var cmd byte
	switch {
	case zoom > 0:
		cmd = 0x20 | scaleSpeed(zoom, 0, maxZoomSpeed)
	case zoom < 0:
		cmd = 0x30 | scaleSpeed(zoom, 0, maxZoomSpeed)
	default:
		cmd = 0x00
	}
	return []byte{0x01, 0x04, 0x07, cmd}
}

// scaleSpeed maps a level onto [lo, hi], Off maps to lo
func scaleSpeed(l joystick.Level, lo, hi int) byte {
	v := int(math.Round(math.Abs(ptz.SpeedFraction(l)) * float64(hi)))
	return byte(clampInt(v, lo, hi))
}

func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
