package panasonic

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"monocle-remote/internal/joystick"
	"monocle-remote/internal/ptz"
)

const queueSize = 16

// Controller manages HTTP CGI communication with a Panasonic PTZ camera.
// Commands are sent in order by a single background sender so callers
// never wait on HTTP.
type Controller struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger

	queue  chan string
	stopCh chan struct{}
	done   chan struct{}

	// Guards closed and the queue send, and holds the last drive
	// commands queued, to skip repeats
	mu      sync.Mutex
	closed  bool
	panTilt string
	zoom    string
}

var _ ptz.Controller = (*Controller)(nil)

// Config for Panasonic controller
type Config struct {
	Address string        // Camera IP address or hostname (e.g., "192.168.1.100")
	Timeout time.Duration // Per request timeout, 0 means 2s
}

// NewController creates a new Panasonic controller
func NewController(cfg Config, logger *slog.Logger) (*Controller, error) {
	if cfg.Address == "" {
		return nil, fmt.Errorf("camera address is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}

	c := newController(logger.With("component", "panasonic", "addr", cfg.Address), queueSize)
	c.baseURL = fmt.Sprintf("http://%s/cgi-bin/aw_ptz", cfg.Address)
	c.client = &http.Client{Timeout: timeout}
	go c.run()

	return c, nil
}

func newController(logger *slog.Logger, size int) *Controller {
	return &Controller{
		logger: logger,
		queue:  make(chan string, size),
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Close stops the sender after it drains queued commands
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		<-c.done
		return nil
	}
	c.closed = true
	close(c.stopCh)
	c.mu.Unlock()

	<-c.done
	return nil
}

// Drive sends pan/tilt and zoom speed commands for changed axes
func (c *Controller) Drive(pan, tilt, zoom joystick.Level) error {
	panTilt := fmt.Sprintf("#PTS%02d%02d", speedToValue(pan), speedToValue(tilt))
	zoomCmd := fmt.Sprintf("#Z%02d", speedToValue(zoom))

	c.mu.Lock()
	defer c.mu.Unlock()

	// A command only counts as sent once it is queued
	if panTilt != c.panTilt {
		if err := c.enqueueLocked(panTilt); err != nil {
			return err
		}
		c.panTilt = panTilt
	}
	if zoomCmd != c.zoom {
		if err := c.enqueueLocked(zoomCmd); err != nil {
			return err
		}
		c.zoom = zoomCmd
	}
	return nil
}

// Home moves pan and tilt to their center position
func (c *Controller) Home() error {
	return c.enqueue("#APC80008000")
}

// Stop stops all PTZ movement, regardless of what was last sent
func (c *Controller) Stop() error {
	c.mu.Lock()
	c.panTilt, c.zoom = "", ""
	c.mu.Unlock()

	return c.Drive(joystick.Off, joystick.Off, joystick.Off)
}

// RecallPreset recalls a preset position (0-99 for Panasonic)
func (c *Controller) RecallPreset(preset int) error {
	if preset < 0 || preset > 99 {
		return fmt.Errorf("preset must be 0-99 for Panasonic cameras")
	}
	return c.enqueue(fmt.Sprintf("#R%02d", preset))
}

func (c *Controller) enqueue(cmd string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enqueueLocked(cmd)
}

func (c *Controller) enqueueLocked(cmd string) error {
	if c.closed {
		return fmt.Errorf("controller closed")
	}

	select {
	case c.queue <- cmd:
		return nil
	default:
		c.logger.Warn("command queue full, dropping command", "cmd", cmd)
		return fmt.Errorf("command queue full")
	}
}

func (c *Controller) run() {
	defer close(c.done)
	for {
		select {
		case cmd := <-c.queue:
			c.send(cmd)
		case <-c.stopCh:
			for {
				select {
				case cmd := <-c.queue:
					c.send(cmd)
				default:
					return
				}
			}
		}
	}
}

func (c *Controller) send(cmd string) {
	if err := c.sendCommand(cmd); err != nil {
		c.logger.Warn("command failed", "cmd", cmd, "error", err)
	}
}

// sendCommand sends a command to the camera via HTTP CGI
func (c *Controller) sendCommand(cmd string) error {
	u := fmt.Sprintf("%s?cmd=%s&res=1", c.baseURL, url.QueryEscape(cmd))

	resp, err := c.client.Get(u)
	if err != nil {
		return fmt.Errorf("failed to send command: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("camera returned %s", resp.Status)
	}
	c.logger.Debug("sent command", "cmd", cmd)
	return nil
}

// speedToValue converts a level to Panasonic's 01-99 range (50 = stop)
func speedToValue(l joystick.Level) int {
	// -1.0 -> 01, 0 -> 50, 1.0 -> 99
	return int(50 + ptz.SpeedFraction(l)*49)
}
