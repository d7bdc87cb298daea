package store

import (
	"github.com/teranos/replaydash/frame"
)

// Reader is the read-only face of a Store, handed to renderers.
type Reader interface {
	FrameCount() int
	ValidationCount() int
	MismatchCount() int
	View() ViewState
	Base() int
	AbsoluteIndex(index int) int
	ReplayFrame(index int) (frame.ReplayFrame, bool)
	ValidationFrame(index int) *frame.ValidationFrame
	CurrentFrame() (frame.ReplayFrame, bool)
	Mismatches() []frame.Mismatch
	MismatchAt(index int) (frame.Mismatch, bool)
	SliderRange() (lo, hi int)
	TimelinePosition() float64
	MismatchMarkers() []Marker
	Series(maxPlotted int) Series
}

var _ Reader = (*Store)(nil)

// FrameCount is the number of retained replay frames.
func (s *Store) FrameCount() int { return len(s.replay) }

// ValidationCount is the number of retained validation frames.
func (s *Store) ValidationCount() int { return len(s.validation) }

// MismatchCount is the number of mismatch records.
func (s *Store) MismatchCount() int { return len(s.mismatches) }

// View returns the navigation cursor.
func (s *Store) View() ViewState { return s.view }

// Base is the absolute backend index of the first retained frame.
func (s *Store) Base() int { return s.base }

// AbsoluteIndex converts a store index into the backend's frame index space.
func (s *Store) AbsoluteIndex(index int) int { return s.base + index }

// RelativeIndex converts a backend frame index into a store index; the
// result is negative when the frame was compacted away.
func (s *Store) RelativeIndex(absolute int) int { return absolute - s.base }

// ReplayFrame returns the replay frame at index.
func (s *Store) ReplayFrame(index int) (frame.ReplayFrame, bool) {
	if index < 0 || index >= len(s.replay) {
		return frame.ReplayFrame{}, false
	}
	return s.replay[index], true
}

// ValidationFrame returns the validation frame at index, or nil when the
// validation sequence has not reached it.
func (s *Store) ValidationFrame(index int) *frame.ValidationFrame {
	if index < 0 || index >= len(s.validation) {
		return nil
	}
	v := s.validation[index]
	return &v
}

// CurrentFrame returns the replay frame under the cursor.
func (s *Store) CurrentFrame() (frame.ReplayFrame, bool) {
	return s.ReplayFrame(s.view.CurrentFrameIdx)
}

// Mismatches returns a copy of the mismatch records.
func (s *Store) Mismatches() []frame.Mismatch {
	return append([]frame.Mismatch(nil), s.mismatches...)
}

// MismatchAt returns the mismatch record for index, if the frame diverged.
func (s *Store) MismatchAt(index int) (frame.Mismatch, bool) {
	for _, m := range s.mismatches {
		if m.Index == index {
			return m, true
		}
	}
	return frame.Mismatch{}, false
}

// SliderRange is the inclusive navigation range, (0, max(0, FrameCount-1)).
func (s *Store) SliderRange() (lo, hi int) {
	return 0, max(0, len(s.replay)-1)
}

// position maps an index onto the timeline as a fraction in [0, 1].
func (s *Store) position(index int) float64 {
	p := float64(index) / float64(max(1, len(s.replay)-1))
	return min(1, max(0, p))
}

// TimelinePosition is the cursor's fraction along the timeline.
func (s *Store) TimelinePosition() float64 {
	return s.position(s.view.CurrentFrameIdx)
}

// Marker is one mismatch drawn on the timeline.
type Marker struct {
	Index    int     `json:"index"`
	Frame    int     `json:"frame"`
	Position float64 `json:"position"`
}

// MismatchMarkers places every mismatch on the timeline.
func (s *Store) MismatchMarkers() []Marker {
	markers := make([]Marker, 0, len(s.mismatches))
	for _, m := range s.mismatches {
		markers = append(markers, Marker{Index: m.Index, Frame: m.Frame, Position: s.position(m.Index)})
	}
	return markers
}

// Snapshot is a detached copy of the store contents, for export.
type Snapshot struct {
	Replay     []frame.ReplayFrame     `json:"replay_frames"`
	Validation []frame.ValidationFrame `json:"validation_frames"`
	Mismatches []frame.Mismatch        `json:"mismatches"`
	View       ViewState               `json:"view"`
	Base       int                     `json:"base"`
}

// Snapshot copies the current contents.
func (s *Store) Snapshot() Snapshot {
	return Snapshot{
		Replay:     append([]frame.ReplayFrame(nil), s.replay...),
		Validation: append([]frame.ValidationFrame(nil), s.validation...),
		Mismatches: append([]frame.Mismatch(nil), s.mismatches...),
		View:       s.view,
		Base:       s.base,
	}
}

// ReplayFrames returns a copy of the retained replay frames.
func (s *Store) ReplayFrames() []frame.ReplayFrame {
	return append([]frame.ReplayFrame(nil), s.replay...)
}
