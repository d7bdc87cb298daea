package store

import (
	"github.com/teranos/replaydash/frame"
)

// AppendReplayFrames adds frames to the end of the replay sequence.
// Empty input is a no-op and notifies nobody. In live mode the cursor
// follows the newest frame and live mode stays on.
func (s *Store) AppendReplayFrames(frames []frame.ReplayFrame) {
	if len(frames) == 0 {
		return
	}
	s.replay = append(s.replay, frames...)
	cursorDropped := s.enforceRetention()
	s.emit(Event{Kind: EventFramesAppended, Source: SourceReplay, Count: len(frames)})

	switch {
	case s.view.IsLive:
		s.selectFrame(len(s.replay) - 1)
	case cursorDropped:
		// the frame under the cursor was compacted away
		s.selectFrame(0)
	}
}

// AppendValidationFrames adds frames to the end of the validation sequence.
// Empty input is a no-op.
func (s *Store) AppendValidationFrames(frames []frame.ValidationFrame) {
	if len(frames) == 0 {
		return
	}
	if s.validationSkip > 0 {
		skip := min(s.validationSkip, len(frames))
		frames = frames[skip:]
		s.validationSkip -= skip
		if len(frames) == 0 {
			return
		}
	}
	s.validation = append(s.validation, frames...)
	s.emit(Event{Kind: EventFramesAppended, Source: SourceValidation, Count: len(frames)})
}

// AppendMismatches adds mismatch records. Record indices are absolute
// backend indices; records that point at compacted frames are dropped.
// The event's Count lets the caller announce "N new mismatches detected".
func (s *Store) AppendMismatches(records []frame.Mismatch) {
	rebased := s.rebaseMismatches(records)
	if len(rebased) == 0 {
		return
	}
	s.mismatches = append(s.mismatches, rebased...)
	s.emit(Event{Kind: EventMismatchesAdded, Count: len(rebased)})
}

// ReplaceMismatches swaps in a fresh mismatch list, as returned by the
// mismatches query.
func (s *Store) ReplaceMismatches(records []frame.Mismatch) {
	s.mismatches = s.rebaseMismatches(records)
	s.emit(Event{Kind: EventMismatchesReplaced, Count: len(s.mismatches)})
}

// ReplaceAll loads a complete snapshot fetched from the backend starting at
// absolute index 0. The cursor is clamped into the new range; live mode is
// left as it was.
func (s *Store) ReplaceAll(replay []frame.ReplayFrame, validation []frame.ValidationFrame, mismatches []frame.Mismatch) {
	s.base = 0
	s.validationSkip = 0
	s.replay = append([]frame.ReplayFrame(nil), replay...)
	s.validation = append([]frame.ValidationFrame(nil), validation...)
	s.mismatches = append([]frame.Mismatch(nil), mismatches...)
	s.enforceRetention()
	s.view.CurrentFrameIdx = s.clamp(s.view.CurrentFrameIdx)

	s.emit(Event{Kind: EventReset})
	if len(s.replay) > 0 {
		s.emit(Event{Kind: EventFramesAppended, Source: SourceReplay, Count: len(s.replay)})
	}
}

// ResetAll empties all three sequences and puts the cursor back on 0.
// Used when the backend switches to a different file set.
func (s *Store) ResetAll() {
	s.replay = nil
	s.validation = nil
	s.mismatches = nil
	s.base = 0
	s.validationSkip = 0
	s.view.CurrentFrameIdx = 0
	s.emit(Event{Kind: EventReset})
}

// ClearMismatches empties only the mismatch sequence.
func (s *Store) ClearMismatches() {
	s.mismatches = nil
	s.emit(Event{Kind: EventMismatchesCleared})
}

func (s *Store) rebaseMismatches(records []frame.Mismatch) []frame.Mismatch {
	if s.base == 0 {
		return append([]frame.Mismatch(nil), records...)
	}
	out := make([]frame.Mismatch, 0, len(records))
	for _, m := range records {
		m.Index -= s.base
		if m.Index >= 0 {
			out = append(out, m)
		}
	}
	return out
}

// enforceRetention drops the oldest frames beyond the retention limit and
// keeps every index-bearing structure aligned with what remains. It reports
// whether the frame under the cursor was among those dropped.
func (s *Store) enforceRetention() (cursorDropped bool) {
	if s.retention <= 0 || len(s.replay) <= s.retention {
		return false
	}
	n := len(s.replay) - s.retention

	s.replay = append([]frame.ReplayFrame(nil), s.replay[n:]...)
	if len(s.validation) >= n {
		s.validation = append([]frame.ValidationFrame(nil), s.validation[n:]...)
	} else {
		s.validationSkip += n - len(s.validation)
		s.validation = nil
	}

	kept := s.mismatches[:0]
	for _, m := range s.mismatches {
		m.Index -= n
		if m.Index >= 0 {
			kept = append(kept, m)
		}
	}
	s.mismatches = kept

	s.base += n
	cursorDropped = s.view.CurrentFrameIdx < n
	s.view.CurrentFrameIdx = max(0, s.view.CurrentFrameIdx-n)
	s.emit(Event{Kind: EventCompacted, Count: n})
	return cursorDropped
}

// clamp bounds index to the current replay range.
func (s *Store) clamp(index int) int {
	return min(max(index, 0), max(0, len(s.replay)-1))
}
