package stream

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/teranos/replaydash/errors"
	"github.com/teranos/replaydash/internal/httpclient"
	"github.com/teranos/replaydash/version"
)

const (
	// Time allowed to write a control frame
	writeWait = 10 * time.Second

	// Largest push message accepted; initial bursts carry many frames
	maxMessageSize = 16 << 20
)

// Conn abstracts the WebSocket connection for testability.
// The real implementation wraps gorilla/websocket; tests use a channel pair.
type Conn interface {
	ReadJSON(v interface{}) error
	WriteJSON(v interface{}) error
	Close() error
}

// DialFunc opens one push channel connection.
type DialFunc func(ctx context.Context) (Conn, error)

// URL derives the push channel URL from the backend's HTTP base URL.
func URL(baseURL, path string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", errors.Wrap(err, "invalid backend URL")
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", errors.Newf("unsupported backend scheme %q", u.Scheme)
	}
	if path != "" && !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u.Path = strings.TrimRight(u.Path, "/") + path
	return u.String(), nil
}

// WebSocketDialer returns a DialFunc for gorilla/websocket. netDial may be
// nil; pass httpclient.Client.DialContext to share the HTTP address policy.
// pingInterval and pongTimeout of zero disable keepalive.
func WebSocketDialer(wsURL string, netDial httpclient.DialFunc, pingInterval, pongTimeout time.Duration) DialFunc {
	dialer := &websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: 10 * time.Second,
	}
	if netDial != nil {
		dialer.NetDialContext = netDial
	}
	return func(ctx context.Context) (Conn, error) {
		header := http.Header{"User-Agent": {version.Get().UserAgent()}}
		ws, resp, err := dialer.DialContext(ctx, wsURL, header)
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
		if err != nil {
			return nil, errors.Mark(errors.Wrapf(err, "failed to dial %s", wsURL), errors.ErrServiceUnavailable)
		}
		return newWSConn(ws, pingInterval, pongTimeout), nil
	}
}

// wsConn keeps a gorilla connection alive with pings and a pong deadline.
type wsConn struct {
	ws        *websocket.Conn
	done      chan struct{}
	closeOnce sync.Once
}

func newWSConn(ws *websocket.Conn, pingInterval, pongTimeout time.Duration) *wsConn {
	c := &wsConn{ws: ws, done: make(chan struct{})}
	ws.SetReadLimit(maxMessageSize)

	if pongTimeout > 0 {
		ws.SetReadDeadline(time.Now().Add(pongTimeout))
		ws.SetPongHandler(func(string) error {
			return ws.SetReadDeadline(time.Now().Add(pongTimeout))
		})
	}
	if pingInterval > 0 {
		go c.pingLoop(pingInterval)
	}
	return c
}

func (c *wsConn) pingLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			// WriteControl may run concurrently with WriteJSON
			if err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func (c *wsConn) ReadJSON(v interface{}) error { return c.ws.ReadJSON(v) }

func (c *wsConn) WriteJSON(v interface{}) error {
	c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteJSON(v)
}

func (c *wsConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		err = c.ws.Close()
	})
	return err
}
