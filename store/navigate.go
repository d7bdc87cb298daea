package store

// NavigateTo moves the cursor to index and leaves live mode. Out-of-range
// indices are ignored without any state change. Reports whether it moved.
func (s *Store) NavigateTo(index int) bool {
	if index < 0 || index >= len(s.replay) {
		return false
	}
	s.view.IsLive = false
	s.selectFrame(index)
	return true
}

// GoLive re-enters live mode and jumps to the newest frame, if any.
// Unlike NavigateTo this keeps IsLive set.
func (s *Store) GoLive() {
	s.view.IsLive = true
	if len(s.replay) > 0 {
		s.selectFrame(len(s.replay) - 1)
	}
}

// selectFrame moves the cursor without touching live mode.
func (s *Store) selectFrame(index int) {
	s.view.CurrentFrameIdx = index
	s.emit(Event{Kind: EventFrameSelected, Index: index})
}

// Step moves the cursor by delta frames (arrow keys ±1, page keys ±10).
func (s *Store) Step(delta int) bool {
	return s.NavigateTo(s.view.CurrentFrameIdx + delta)
}

// First jumps to the oldest retained frame.
func (s *Store) First() bool {
	return s.NavigateTo(0)
}

// Last jumps to the newest frame without entering live mode.
func (s *Store) Last() bool {
	return s.NavigateTo(len(s.replay) - 1)
}

// NextMismatch jumps to the first mismatch after the cursor, wrapping to
// the first mismatch. No-op without mismatches.
func (s *Store) NextMismatch() bool {
	if len(s.mismatches) == 0 {
		return false
	}
	cur := s.view.CurrentFrameIdx
	for _, m := range s.mismatches {
		if m.Index > cur {
			return s.NavigateTo(m.Index)
		}
	}
	return s.NavigateTo(s.mismatches[0].Index)
}

// PrevMismatch jumps to the last mismatch before the cursor, wrapping to
// the last mismatch. No-op without mismatches.
func (s *Store) PrevMismatch() bool {
	if len(s.mismatches) == 0 {
		return false
	}
	cur := s.view.CurrentFrameIdx
	for i := len(s.mismatches) - 1; i >= 0; i-- {
		if s.mismatches[i].Index < cur {
			return s.NavigateTo(s.mismatches[i].Index)
		}
	}
	return s.NavigateTo(s.mismatches[len(s.mismatches)-1].Index)
}
