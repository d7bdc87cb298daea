// Package store holds the replay frames, validation frames and mismatch
// records streamed from the monitoring backend, together with the view
// cursor that decides which frame is on screen.
//
// A Store is not safe for concurrent use. It is owned by a single goroutine
// (the dashboard loop) and reports every change through its Observer, so
// renderers never poll and never mutate.
package store

import (
	"github.com/teranos/replaydash/frame"
)

// EventKind identifies a store change.
type EventKind int

const (
	// EventFramesAppended: replay or validation frames were added (Source says which)
	EventFramesAppended EventKind = iota
	// EventMismatchesAdded: Count new mismatch records were appended
	EventMismatchesAdded
	// EventMismatchesReplaced: the mismatch sequence was replaced wholesale
	EventMismatchesReplaced
	// EventMismatchesCleared: the mismatch sequence was emptied
	EventMismatchesCleared
	// EventReset: all sequences were replaced or emptied
	EventReset
	// EventFrameSelected: the cursor moved to Index; frame detail should be fetched
	EventFrameSelected
	// EventCompacted: Count leading frames were dropped by the retention limit
	EventCompacted
)

func (k EventKind) String() string {
	switch k {
	case EventFramesAppended:
		return "frames_appended"
	case EventMismatchesAdded:
		return "mismatches_added"
	case EventMismatchesReplaced:
		return "mismatches_replaced"
	case EventMismatchesCleared:
		return "mismatches_cleared"
	case EventReset:
		return "reset"
	case EventFrameSelected:
		return "frame_selected"
	case EventCompacted:
		return "compacted"
	default:
		return "unknown"
	}
}

// Source tells replay appends from validation appends.
type Source int

const (
	SourceReplay Source = iota
	SourceValidation
)

// Event describes one change. Index is relative to the current replay sequence.
type Event struct {
	Kind   EventKind
	Source Source
	Count  int
	Index  int
}

// Observer receives store changes synchronously, on the owning goroutine.
type Observer func(Event)

// ViewState is the navigation cursor. IsLive means the view follows the
// newest frame; any manual navigation clears it.
type ViewState struct {
	CurrentFrameIdx int  `json:"current_frame_idx"`
	IsLive          bool `json:"is_live"`
}

// Option configures a Store.
type Option func(*Store)

// WithRetention caps the replay sequence at limit frames; older frames are
// compacted away as new ones arrive. Zero or negative means unbounded.
func WithRetention(limit int) Option {
	return func(s *Store) {
		if limit > 0 {
			s.retention = limit
		}
	}
}

// Store is the Frame/Mismatch Store.
type Store struct {
	replay     []frame.ReplayFrame
	validation []frame.ValidationFrame
	mismatches []frame.Mismatch
	view       ViewState

	// base is the backend's absolute index of replay[0]; non-zero only after compaction
	base int
	// validationSkip counts validation frames that must be dropped on arrival
	// because their replay counterparts were already compacted away
	validationSkip int
	retention      int

	observer Observer
}

// New creates an empty store in live mode. observer may be nil.
func New(observer Observer, opts ...Option) *Store {
	s := &Store{
		view:     ViewState{IsLive: true},
		observer: observer,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetObserver replaces the change observer.
func (s *Store) SetObserver(observer Observer) {
	s.observer = observer
}

// SetRetention changes the retention limit; it applies on the next replay append.
func (s *Store) SetRetention(limit int) {
	if limit < 0 {
		limit = 0
	}
	s.retention = limit
}

func (s *Store) emit(ev Event) {
	if s.observer != nil {
		s.observer(ev)
	}
}
