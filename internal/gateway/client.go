// Package gateway is a websocket client for a Monocle camera gateway.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"monocle-remote/internal/joystick"
	"monocle-remote/internal/protocol"
	"monocle-remote/internal/ptz"
)

var (
	ErrClosed       = errors.New("gateway client closed")
	ErrNotConnected = errors.New("gateway not connected")
	ErrBufferFull   = errors.New("gateway send buffer full")
)

const sendBufferSize = 64

// Config for the gateway client
type Config struct {
	URL string // e.g. "ws://192.168.1.50:8080/"

	HandshakeTimeout time.Duration // 0 means 5s
	WriteTimeout     time.Duration // 0 means 10s
	PingInterval     time.Duration // 0 means 30s
	RetryDelay       time.Duration // first reconnect delay, 0 means 1s
	MaxBackoff       time.Duration // 0 means 30s
}

func (cfg *Config) setDefaults() {
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = 5 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 30 * time.Second
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 30 * time.Second
	}
}

// Client sends camera commands to a gateway and keeps the connection up
type Client struct {
	cfg    Config
	dialer websocket.Dialer
	logger *slog.Logger
	stopCh chan struct{}
	wg     sync.WaitGroup

	mu      sync.Mutex
	session *session
	closed  bool
}

var _ ptz.Controller = (*Client)(nil)

// session is one websocket connection and its outbound queue
type session struct {
	conn      *websocket.Conn
	send      chan string
	done      chan struct{}
	closeOnce sync.Once
}

func newSession(conn *websocket.Conn) *session {
	return &session{
		conn: conn,
		send: make(chan string, sendBufferSize),
		done: make(chan struct{}),
	}
}

func (s *session) close() {
	s.closeOnce.Do(func() { close(s.done) })
}

// NewClient creates a gateway client; call Connect to dial
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid gateway URL: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return nil, fmt.Errorf("gateway URL must be ws:// or wss://, got %q", cfg.URL)
	}
	if logger == nil {
		logger = slog.Default()
	}
	cfg.setDefaults()

	return &Client{
		cfg: cfg,
		dialer: websocket.Dialer{
			HandshakeTimeout: cfg.HandshakeTimeout,
			ReadBufferSize:   1024,
			WriteBufferSize:  1024,
		},
		logger: logger.With("component", "gateway", "url", cfg.URL),
		stopCh: make(chan struct{}),
	}, nil
}

// Connect dials the gateway and starts the connection pumps
func (c *Client) Connect(ctx context.Context) error {
	if c.isClosed() {
		return ErrClosed
	}

	conn, _, err := c.dialer.DialContext(ctx, c.cfg.URL, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to gateway: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		conn.Close()
		return ErrClosed
	}
	if c.session != nil {
		c.session.close()
	}

	s := newSession(conn)
	c.session = s
	c.wg.Add(2)
	go c.writePump(s)
	go c.readPump(s)

	c.logger.Info("connected to gateway")
	return nil
}

// Start retries the connection in the background until it is up or the
// client is closed. It is a no-op while connected.
func (c *Client) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.session != nil {
		return
	}
	c.wg.Add(1)
	go c.reconnect()
}

// Connected reports whether a gateway connection is up
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session != nil
}

func (c *Client) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// drop ends a session and schedules a reconnect if it was the live one
func (c *Client) drop(s *session, err error) {
	s.close()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != s {
		return
	}
	c.session = nil
	if c.closed {
		return
	}

	c.logger.Warn("gateway connection lost", "error", err)
	c.wg.Add(1)
	go c.reconnect()
}

// reconnect retries with exponential backoff until connected or closed
func (c *Client) reconnect() {
	defer c.wg.Done()

	for attempt := 1; ; attempt++ {
		delay := min(c.cfg.RetryDelay<<uint(min(attempt-1, 16)), c.cfg.MaxBackoff)
		c.logger.Info("reconnecting to gateway", "attempt", attempt, "delay", delay)

		select {
		case <-c.stopCh:
			return
		case <-time.After(delay):
		}

		ctx, cancel := context.WithTimeout(context.Background(), c.cfg.HandshakeTimeout)
		err := c.Connect(ctx)
		cancel()
		if err == nil {
			return
		}
		if errors.Is(err, ErrClosed) {
			return
		}
		c.logger.Warn("reconnect failed", "attempt", attempt, "error", err)
	}
}

func (c *Client) readPump(s *session) {
	defer c.wg.Done()

	readWait := 2 * c.cfg.PingInterval
	s.conn.SetReadLimit(65536)
	s.conn.SetReadDeadline(time.Now().Add(readWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(readWait))
		return nil
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			c.drop(s, err)
			return
		}
		s.conn.SetReadDeadline(time.Now().Add(readWait))
		c.logger.Debug("gateway message", "data", string(data))
	}
}

func (c *Client) writePump(s *session) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case msg := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
			if err := s.conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				c.drop(s, err)
				return
			}
			c.logger.Debug("sent command", "cmd", msg)

		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.drop(s, err)
				return
			}

		case <-s.done:
			c.flush(s)
			s.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
			s.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// flush writes whatever is still queued, stopping at the first error
func (c *Client) flush(s *session) {
	for {
		select {
		case msg := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
			if err := s.conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return
			}
		default:
			return
		}
	}
}

// Send queues a command without blocking
func (c *Client) Send(cmd protocol.Command) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	s, closed := c.session, c.closed
	c.mu.Unlock()

	if closed {
		return ErrClosed
	}
	if s == nil {
		c.logger.Debug("not connected, dropping command", "cmd", cmd.String())
		return ErrNotConnected
	}

	select {
	case <-s.done:
		return ErrNotConnected
	default:
	}

	select {
	case s.send <- cmd.String():
		return nil
	default:
		c.logger.Debug("send buffer full, dropping command", "cmd", cmd.String())
		return ErrBufferFull
	}
}

// Drive sends a combined PTZ speed command
func (c *Client) Drive(pan, tilt, zoom joystick.Level) error {
	return c.Send(protocol.PTZ(int(pan), int(tilt), int(zoom)))
}

func (c *Client) Pan(speed joystick.Level) error  { return c.Send(protocol.Pan(int(speed))) }
func (c *Client) Tilt(speed joystick.Level) error { return c.Send(protocol.Tilt(int(speed))) }
func (c *Client) Zoom(speed joystick.Level) error { return c.Send(protocol.Zoom(int(speed))) }

// Home returns the camera to its home position
func (c *Client) Home() error {
	return c.Send(protocol.Home())
}

// Stop halts all camera movement
func (c *Client) Stop() error {
	return c.Send(protocol.Stop())
}

// RecallPreset recalls a stored camera position
func (c *Client) RecallPreset(preset int) error {
	return c.Send(protocol.Preset(preset))
}

// Close disconnects and stops reconnecting
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	s := c.session
	c.session = nil
	c.mu.Unlock()

	close(c.stopCh)
	if s != nil {
		s.close()
	}
	c.wg.Wait()
	return nil
}
