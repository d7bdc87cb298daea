// Package dashboard drives the Frame/Mismatch Store. A single loop goroutine
// applies push events, user commands and the continuations of backend calls,
// so the store is only ever touched from one place.
package dashboard

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/replaydash/api"
	"github.com/teranos/replaydash/frame"
	"github.com/teranos/replaydash/store"
	"github.com/teranos/replaydash/stream"
)

// Backend is the request/response half of the monitoring backend.
type Backend interface {
	Status(ctx context.Context) (*api.Status, error)
	Frames(ctx context.Context, start, end int) (*api.FrameRange, error)
	Mismatches(ctx context.Context) ([]frame.Mismatch, error)
	StartMonitoring(ctx context.Context, directory string) (*api.Ack, error)
	StopMonitoring(ctx context.Context) (*api.Ack, error)
	SetFiles(ctx context.Context, replayFile, validationFile string) (*api.Ack, error)
}

// FrameRequester sends request_frame on the push channel.
type FrameRequester interface {
	RequestFrame(frameIdx int, seq uint64) (sent bool, err error)
	ThrottleInterval() time.Duration
}

// Level is the severity of a user notification.
type Level int

const (
	LevelInfo Level = iota
	LevelWarn
	LevelError
)

// Notifier shows alerts to the user.
type Notifier interface {
	Notify(level Level, message string)
}

// Renderer draws the dashboard. It must not retain state beyond the call.
type Renderer interface {
	Render(state State)
}

// ExportFunc writes a snapshot to path in the named format.
type ExportFunc func(ctx context.Context, kind, path string, snap store.Snapshot, files Files) error

// Files is the active replay/validation file pair, as far as this client knows.
type Files struct {
	Replay     string `json:"replay_file,omitempty"`
	Validation string `json:"validation_file,omitempty"`
}

// FrameDetail is the accepted answer to the latest frame request.
type FrameDetail struct {
	Index         int // absolute backend index
	Replay        frame.ReplayFrame
	Validation    *frame.ValidationFrame
	HasValidation bool
}

// State is everything a Renderer may look at.
type State struct {
	Store      store.Reader
	Detail     *FrameDetail
	Monitoring bool
	Connected  bool
	Files      Files
	MaxPlotted int
}

// Config wires a Controller.
type Config struct {
	Backend        Backend
	Requester      FrameRequester // nil when running without a push channel
	Notifier       Notifier
	Renderer       Renderer
	Export         ExportFunc
	Logger         *zap.SugaredLogger
	RetentionLimit int
	MaxPlotted     int
}

// Controller is the single owner of the store.
type Controller struct {
	store     *store.Store
	backend   Backend
	requester FrameRequester
	notifier  Notifier
	renderer  Renderer
	export    ExportFunc
	logger    *zap.SugaredLogger

	ctx     context.Context
	inbox   chan func()
	stopped chan struct{}
	dirty   bool

	// seq is the frame request generation; only frame_data for the
	// latest generation is displayed
	seq         uint64
	pendingIdx  int
	pendingSent bool
	retryArmed  bool
	detail      *FrameDetail
	monitoring  bool
	connected   bool
	files       Files
	maxPlotted  int
	quit        bool
}

// New creates a controller and its store.
func New(cfg Config) *Controller {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop().Sugar()
	}
	if cfg.MaxPlotted <= 0 {
		cfg.MaxPlotted = store.DefaultMaxPlotted
	}
	c := &Controller{
		backend:    cfg.Backend,
		requester:  cfg.Requester,
		notifier:   cfg.Notifier,
		renderer:   cfg.Renderer,
		export:     cfg.Export,
		logger:     cfg.Logger,
		ctx:        context.Background(),
		inbox:      make(chan func(), 64),
		stopped:    make(chan struct{}),
		maxPlotted: cfg.MaxPlotted,
	}
	c.store = store.New(c.onStoreEvent, store.WithRetention(cfg.RetentionLimit))
	return c
}

// Store exposes the store for reading.
func (c *Controller) Store() store.Reader {
	return c.store
}

// State assembles the renderer view.
func (c *Controller) State() State {
	return State{
		Store:      c.store,
		Detail:     c.detail,
		Monitoring: c.monitoring,
		Connected:  c.connected,
		Files:      c.files,
		MaxPlotted: c.maxPlotted,
	}
}

// Post schedules fn on the loop goroutine. Safe from any goroutine; after
// Run has returned fn is dropped.
func (c *Controller) Post(fn func()) {
	select {
	case c.inbox <- fn:
	case <-c.stopped:
	}
}

// Run processes push events, commands and continuations until ctx ends or
// a quit command arrives. Either channel may be nil.
func (c *Controller) Run(ctx context.Context, events <-chan stream.Event, commands <-chan Command) error {
	c.ctx = ctx
	defer close(c.stopped)
	c.FetchInitialData()
	c.render()

	for !c.quit {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			c.HandleEvent(ev)
		case cmd := <-commands:
			c.Execute(cmd)
		case fn := <-c.inbox:
			fn()
		}
		if c.dirty {
			c.render()
		}
	}
	return nil
}

// SetMaxPlotted changes the chart window; used by config hot reload.
func (c *Controller) SetMaxPlotted(n int) {
	if n <= 0 {
		n = store.DefaultMaxPlotted
	}
	if n != c.maxPlotted {
		c.maxPlotted = n
		c.dirty = true
	}
}

// SetRetention changes the store's retention limit; used by config hot reload.
func (c *Controller) SetRetention(limit int) {
	c.store.SetRetention(limit)
}

func (c *Controller) render() {
	c.dirty = false
	if c.renderer != nil {
		c.renderer.Render(c.State())
	}
}

func (c *Controller) notify(level Level, message string) {
	if c.notifier != nil {
		c.notifier.Notify(level, message)
	}
}

// onStoreEvent runs synchronously inside store mutations.
func (c *Controller) onStoreEvent(ev store.Event) {
	c.dirty = true
	switch ev.Kind {
	case store.EventFrameSelected:
		c.requestFrame(ev.Index)
	case store.EventMismatchesAdded:
		c.notify(LevelWarn, fmt.Sprintf("%d new mismatches detected", ev.Count))
	case store.EventReset:
		c.detail = nil
	case store.EventCompacted:
		if c.detail != nil && c.detail.Index < c.store.Base() {
			c.detail = nil
		}
	}
}
