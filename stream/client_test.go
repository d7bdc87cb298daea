package stream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/replaydash/errors"
	"github.com/teranos/replaydash/version"
)

// chanConn implements Conn over a pair of channels for in-process testing.
// Messages are JSON-serialized through the channels to match real WebSocket behavior.
type chanConn struct {
	in        chan json.RawMessage
	out       chan json.RawMessage
	closed    chan struct{}
	closeOnce sync.Once
}

func (c *chanConn) ReadJSON(v interface{}) error {
	select {
	case raw := <-c.in:
		return json.Unmarshal(raw, v)
	case <-c.closed:
		return errors.New("connection closed")
	}
}

func (c *chanConn) WriteJSON(v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	select {
	case c.out <- raw:
		return nil
	case <-c.closed:
		return errors.New("connection closed")
	}
}

func (c *chanConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

// backend is the far end of a chanConn.
type backend struct {
	conn *chanConn
}

func (b *backend) push(t *testing.T, event string, data string) {
	t.Helper()
	raw, err := json.Marshal(Envelope{Event: event, Data: json.RawMessage(data)})
	require.NoError(t, err)
	b.conn.in <- raw
}

func (b *backend) pushRaw(raw string) {
	b.conn.in <- json.RawMessage(raw)
}

func (b *backend) next(t *testing.T) Envelope {
	t.Helper()
	select {
	case raw := <-b.conn.out:
		var env Envelope
		require.NoError(t, json.Unmarshal(raw, &env))
		return env
	case <-time.After(2 * time.Second):
		t.Fatal("no message from client")
		return Envelope{}
	}
}

func newChanConn() *chanConn {
	return &chanConn{
		in:     make(chan json.RawMessage, 32),
		out:    make(chan json.RawMessage, 32),
		closed: make(chan struct{}),
	}
}

// startClient runs a client whose dialer hands out the given connections in order.
func startClient(t *testing.T, cfg Config, conns ...*chanConn) *Client {
	t.Helper()
	var mu sync.Mutex
	cfg.Dial = func(ctx context.Context) (Conn, error) {
		mu.Lock()
		defer mu.Unlock()
		if len(conns) == 0 {
			return nil, errors.New("no backend")
		}
		c := conns[0]
		conns = conns[1:]
		return c, nil
	}
	if cfg.InitialBackoff == 0 {
		cfg.InitialBackoff = 5 * time.Millisecond
	}
	client := NewClient(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = client.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return client
}

func nextEvent(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case ev := <-c.Events():
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("no event")
		return Event{}
	}
}

func TestDecodesPushEvents(t *testing.T) {
	conn := newChanConn()
	b := &backend{conn: conn}
	client := startClient(t, Config{}, conn)

	connected := nextEvent(t, client)
	require.Equal(t, Connected, connected.Kind)
	assert.NotEmpty(t, connected.Session)

	b.push(t, EventNameReplayFrames, `{"frames":[{"frame":1,"state_hash":"a"},{"frame":2,"state_hash":"b"}]}`)
	b.push(t, EventNameValidationFrames, `[{"frame":1,"state_hash":"a"}]`)
	b.push(t, EventNameMismatches, `{"mismatches":[{"index":1,"frame":2,"types":["state_hash"]}]}`)
	b.push(t, EventNameFrameData, `{"replay_frame":{"frame":2},"has_validation":false,"frame_idx":1,"seq":7}`)

	ev := nextEvent(t, client)
	require.Equal(t, ReplayFrames, ev.Kind)
	require.Len(t, ev.ReplayFrames, 2)
	assert.Equal(t, "b", ev.ReplayFrames[1].StateHash)
	assert.Equal(t, connected.Session, ev.Session)

	ev = nextEvent(t, client)
	require.Equal(t, ValidationFrames, ev.Kind)
	assert.Len(t, ev.ValidationFrames, 1)

	ev = nextEvent(t, client)
	require.Equal(t, Mismatches, ev.Kind)
	require.Len(t, ev.Mismatches, 1)
	assert.Equal(t, 2, ev.Mismatches[0].Frame)

	ev = nextEvent(t, client)
	require.Equal(t, FrameDataReceived, ev.Kind)
	require.NotNil(t, ev.FrameData)
	require.NotNil(t, ev.FrameData.FrameIdx)
	require.NotNil(t, ev.FrameData.Seq)
	assert.Equal(t, 1, *ev.FrameData.FrameIdx)
	assert.Equal(t, uint64(7), *ev.FrameData.Seq)
	assert.Nil(t, ev.FrameData.ValidationFrame)
}

func TestSkipsMalformedAndUnknownMessages(t *testing.T) {
	conn := newChanConn()
	b := &backend{conn: conn}
	client := startClient(t, Config{}, conn)
	require.Equal(t, Connected, nextEvent(t, client).Kind)

	b.pushRaw(`{"event": 12}`)
	b.push(t, "server_banner", `{"hello":"world"}`)
	b.push(t, EventNameReplayFrames, `{"frames":"nope"}`)
	b.push(t, EventNameMismatches, `{"something_else":[]}`)
	b.push(t, EventNameReplayFrames, `{"frames":[{"frame":9}]}`)

	ev := nextEvent(t, client)
	require.Equal(t, ReplayFrames, ev.Kind)
	assert.Equal(t, 9, ev.ReplayFrames[0].Frame)
}

func TestRequestFrameWritesEnvelope(t *testing.T) {
	conn := newChanConn()
	b := &backend{conn: conn}
	client := startClient(t, Config{}, conn)
	require.Equal(t, Connected, nextEvent(t, client).Kind)

	sent, err := client.RequestFrame(42, 3)
	require.NoError(t, err)
	require.True(t, sent)

	env := b.next(t)
	assert.Equal(t, EventNameRequestFrame, env.Event)
	var req RequestFrame
	require.NoError(t, json.Unmarshal(env.Data, &req))
	assert.Equal(t, RequestFrame{FrameIdx: 42, Seq: 3}, req)
}

func TestRequestFrameThrottled(t *testing.T) {
	conn := newChanConn()
	client := startClient(t, Config{RequestRate: 1}, conn)
	require.Equal(t, Connected, nextEvent(t, client).Kind)

	sent, err := client.RequestFrame(1, 1)
	require.NoError(t, err)
	assert.True(t, sent)

	sent, err = client.RequestFrame(2, 2)
	require.NoError(t, err)
	assert.False(t, sent, "burst beyond the rate is dropped")
	assert.Equal(t, time.Second, client.ThrottleInterval())
}

func TestRequestFrameWithoutConnection(t *testing.T) {
	client := NewClient(Config{})

	_, err := client.RequestFrame(0, 1)
	assert.True(t, errors.Is(err, errors.ErrNotConnected))
	assert.Empty(t, client.Session())
}

func TestReconnectsAfterDisconnect(t *testing.T) {
	first, second := newChanConn(), newChanConn()
	client := startClient(t, Config{}, first, second)

	ev := nextEvent(t, client)
	require.Equal(t, Connected, ev.Kind)
	firstSession := ev.Session

	first.Close()
	ev = nextEvent(t, client)
	require.Equal(t, Disconnected, ev.Kind)
	assert.Equal(t, firstSession, ev.Session)
	assert.Error(t, ev.Err)

	ev = nextEvent(t, client)
	require.Equal(t, Connected, ev.Kind)
	assert.NotEqual(t, firstSession, ev.Session)
}

func TestRunRetriesFailedDial(t *testing.T) {
	attempts := 0
	var mu sync.Mutex
	conn := newChanConn()
	client := NewClient(Config{
		InitialBackoff: time.Millisecond,
		MaxBackoff:     4 * time.Millisecond,
		Dial: func(ctx context.Context) (Conn, error) {
			mu.Lock()
			defer mu.Unlock()
			attempts++
			if attempts < 3 {
				return nil, errors.Mark(errors.New("refused"), errors.ErrServiceUnavailable)
			}
			return conn, nil
		},
	})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = client.Run(ctx)
	}()

	require.Equal(t, Connected, nextEvent(t, client).Kind)
	cancel()
	<-done

	mu.Lock()
	assert.Equal(t, 3, attempts)
	mu.Unlock()
}

func TestRunWithoutDialer(t *testing.T) {
	assert.Error(t, NewClient(Config{}).Run(context.Background()))
}

func TestURL(t *testing.T) {
	for _, tc := range []struct {
		base, path, want string
	}{
		{"http://localhost:5000", "/ws", "ws://localhost:5000/ws"},
		{"https://replays.example.com/", "ws", "wss://replays.example.com/ws"},
		{"http://host/prefix", "/stream", "ws://host/prefix/stream"},
	} {
		got, err := URL(tc.base, tc.path)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got)
	}

	_, err := URL("ftp://host", "/ws")
	assert.Error(t, err)
}

// The gorilla dialer against an in-process WebSocket server.
func TestWebSocketDialer(t *testing.T) {
	upgrader := websocket.Upgrader{}
	received := make(chan Envelope, 1)
	agents := make(chan string, 1)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case agents <- r.Header.Get("User-Agent"):
		default:
		}
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()

		_ = ws.WriteJSON(Envelope{Event: EventNameReplayFrames, Data: json.RawMessage(`{"frames":[{"frame":5}]}`)})

		var env Envelope
		if err := ws.ReadJSON(&env); err == nil {
			received <- env
		}
		// Hold the connection until the client leaves
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	client := NewClient(Config{Dial: WebSocketDialer(wsURL, nil, 50*time.Millisecond, time.Second)})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = client.Run(ctx)
	}()
	defer func() {
		cancel()
		<-done
	}()

	require.Equal(t, Connected, nextEvent(t, client).Kind)
	assert.Equal(t, version.Get().UserAgent(), <-agents)
	ev := nextEvent(t, client)
	require.Equal(t, ReplayFrames, ev.Kind)
	assert.Equal(t, 5, ev.ReplayFrames[0].Frame)

	sent, err := client.RequestFrame(0, 1)
	require.NoError(t, err)
	require.True(t, sent)

	select {
	case env := <-received:
		assert.Equal(t, EventNameRequestFrame, env.Event)
	case <-time.After(2 * time.Second):
		t.Fatal("server never saw request_frame")
	}
}

func TestWebSocketDialerUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	server.Close()

	_, err := WebSocketDialer(wsURL, nil, 0, 0)(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsServiceUnavailableError(err))
}
