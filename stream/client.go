// Package stream is the client side of the backend's push channel. It keeps
// one WebSocket connection open, reconnecting with capped backoff, and turns
// incoming envelopes into typed events for a single consumer.
package stream

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/teranos/replaydash/errors"
	"github.com/teranos/replaydash/logger"
)

const (
	defaultInitialBackoff = 500 * time.Millisecond
	defaultMaxBackoff     = 30 * time.Second
	defaultRequestRate    = 20
	eventBuffer           = 256
)

// Config holds push channel configuration.
type Config struct {
	Dial           DialFunc
	InitialBackoff time.Duration      // Default: 500ms
	MaxBackoff     time.Duration      // Default: 30s
	RequestRate    float64            // request_frame messages per second; Default: 20
	Logger         *zap.SugaredLogger // nil = nop logger
}

// Client delivers push events on Events() and sends frame requests.
type Client struct {
	dial           DialFunc
	initialBackoff time.Duration
	maxBackoff     time.Duration
	limiter        *rate.Limiter
	logger         *zap.SugaredLogger
	events         chan Event

	// writeMu serializes writes and guards conn/session
	writeMu sync.Mutex
	conn    Conn
	session string
}

// NewClient creates a push channel client. Call Run to connect.
func NewClient(cfg Config) *Client {
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = defaultInitialBackoff
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = defaultMaxBackoff
	}
	if cfg.MaxBackoff < cfg.InitialBackoff {
		cfg.MaxBackoff = cfg.InitialBackoff
	}
	if cfg.RequestRate <= 0 {
		cfg.RequestRate = defaultRequestRate
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop().Sugar()
	}
	return &Client{
		dial:           cfg.Dial,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
		limiter:        rate.NewLimiter(rate.Limit(cfg.RequestRate), 1),
		logger:         cfg.Logger,
		events:         make(chan Event, eventBuffer),
	}
}

// Events is the single-consumer event stream, including Connected and
// Disconnected. It is never closed.
func (c *Client) Events() <-chan Event {
	return c.events
}

// Session returns the id of the live connection, or "" when disconnected.
func (c *Client) Session() string {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.session
}

// ThrottleInterval is the minimum spacing between sent frame requests.
func (c *Client) ThrottleInterval() time.Duration {
	return time.Duration(float64(time.Second) / float64(c.limiter.Limit()))
}

// Run connects and keeps reconnecting until ctx is cancelled.
func (c *Client) Run(ctx context.Context) error {
	if c.dial == nil {
		return errors.New("push channel has no dialer")
	}
	backoff := c.initialBackoff
	for attempt := 1; ; attempt++ {
		conn, err := c.dial(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.Warnw("Push channel connect failed",
				logger.FieldAttempt, attempt,
				logger.FieldError, err,
				"retry_in", backoff,
			)
			if !sleep(ctx, backoff) {
				return nil
			}
			backoff = min(backoff*2, c.maxBackoff)
			continue
		}

		backoff = c.initialBackoff
		attempt = 0
		session := uuid.NewString()
		c.attach(conn, session)
		c.logger.Infow("Push channel connected", logger.FieldSession, session)
		c.emit(ctx, Event{Kind: Connected, Session: session})

		err = c.readLoop(ctx, conn, session)

		c.detach()
		conn.Close()
		c.logger.Infow("Push channel disconnected", logger.FieldSession, session, logger.FieldError, err)
		c.emit(ctx, Event{Kind: Disconnected, Session: session, Err: err})

		if ctx.Err() != nil {
			return nil
		}
		if !sleep(ctx, backoff) {
			return nil
		}
	}
}

// RequestFrame asks the backend for one frame's detail. When the request
// rate is exceeded the request is dropped and sent reports false; the
// caller re-issues its latest request after ThrottleInterval.
func (c *Client) RequestFrame(frameIdx int, seq uint64) (sent bool, err error) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.conn == nil {
		return false, errors.ErrNotConnected
	}
	if !c.limiter.Allow() {
		return false, nil
	}

	data, err := json.Marshal(RequestFrame{FrameIdx: frameIdx, Seq: seq})
	if err != nil {
		return false, errors.Wrap(err, "failed to marshal request_frame")
	}
	if err := c.conn.WriteJSON(Envelope{Event: EventNameRequestFrame, Data: data}); err != nil {
		return false, errors.Wrap(err, "failed to send request_frame")
	}
	c.logger.Debugw("Requested frame",
		logger.FieldSession, c.session,
		logger.FieldFrameIdx, frameIdx,
		logger.FieldSeq, seq,
	)
	return true, nil
}

func (c *Client) attach(conn Conn, session string) {
	c.writeMu.Lock()
	c.conn = conn
	c.session = session
	c.writeMu.Unlock()
}

func (c *Client) detach() {
	c.writeMu.Lock()
	c.conn = nil
	c.session = ""
	c.writeMu.Unlock()
}

// readLoop decodes envelopes until the connection fails or ctx ends.
// Malformed messages are logged and skipped.
func (c *Client) readLoop(ctx context.Context, conn Conn, session string) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		var env Envelope
		if err := conn.ReadJSON(&env); err != nil {
			if isDecodeError(err) {
				c.logger.Warnw("Skipping malformed push message", logger.FieldSession, session, logger.FieldError, err)
				continue
			}
			return err
		}

		ev, ok, err := decodeEvent(env)
		if err != nil {
			c.logger.Warnw("Skipping push message", logger.FieldSession, session, logger.FieldEvent, env.Event, logger.FieldError, err)
			continue
		}
		if !ok {
			c.logger.Debugw("Unknown push event", logger.FieldSession, session, logger.FieldEvent, env.Event)
			continue
		}
		ev.Session = session
		if !c.emit(ctx, ev) {
			return ctx.Err()
		}
	}
}

func (c *Client) emit(ctx context.Context, ev Event) bool {
	select {
	case c.events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// isDecodeError tells a bad message apart from a broken connection.
func isDecodeError(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr)
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
