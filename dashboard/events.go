package dashboard

import (
	"time"

	"github.com/teranos/replaydash/errors"
	"github.com/teranos/replaydash/logger"
	"github.com/teranos/replaydash/stream"
)

// HandleEvent applies one push channel event.
func (c *Controller) HandleEvent(ev stream.Event) {
	switch ev.Kind {
	case stream.Connected:
		c.connected = true
		c.dirty = true
		c.logger.Infow("Connected to backend", logger.FieldSession, ev.Session)
		c.refreshStatus()
		if c.store.FrameCount() > 0 && !c.pendingSent {
			c.sendRequest()
		}

	case stream.Disconnected:
		c.connected = false
		c.monitoring = false
		c.pendingSent = false
		c.dirty = true
		c.logger.Warnw("Disconnected from backend", logger.FieldSession, ev.Session, logger.FieldError, ev.Err)

	case stream.ReplayFrames:
		c.logger.Debugw("Received replay frames", logger.FieldCount, len(ev.ReplayFrames))
		c.store.AppendReplayFrames(ev.ReplayFrames)

	case stream.ValidationFrames:
		c.logger.Debugw("Received validation frames", logger.FieldCount, len(ev.ValidationFrames))
		c.store.AppendValidationFrames(ev.ValidationFrames)

	case stream.Mismatches:
		c.store.AppendMismatches(ev.Mismatches)

	case stream.FrameDataReceived:
		if ev.FrameData != nil {
			c.handleFrameData(ev.FrameData)
		}
	}
}

// requestFrame starts a new request generation for the frame at a store index.
func (c *Controller) requestFrame(index int) {
	c.seq++
	c.pendingIdx = c.store.AbsoluteIndex(index)
	c.pendingSent = false
	c.detail = nil
	c.sendRequest()
}

// sendRequest sends the latest pending request. Throttled sends are retried
// once after the throttle interval; by then the pending request may have
// moved on, and the newer one is sent instead.
func (c *Controller) sendRequest() {
	if c.requester == nil || c.pendingSent {
		return
	}
	sent, err := c.requester.RequestFrame(c.pendingIdx, c.seq)
	if err != nil {
		if !errors.Is(err, errors.ErrNotConnected) {
			c.logger.Warnw("Frame request failed", logger.FieldFrameIdx, c.pendingIdx, logger.FieldError, err)
		}
		return
	}
	if sent {
		c.pendingSent = true
		return
	}
	if c.retryArmed {
		return
	}
	c.retryArmed = true
	time.AfterFunc(c.requester.ThrottleInterval(), func() {
		c.Post(func() {
			c.retryArmed = false
			c.sendRequest()
		})
	})
}

// handleFrameData accepts a frame_data answer only if it belongs to the
// latest request and still matches the frame under the cursor.
func (c *Controller) handleFrameData(fd *stream.FrameData) {
	if fd.Error != "" {
		c.logger.Warnw("Backend could not load frame", logger.FieldFrameIdx, c.pendingIdx, logger.FieldError, fd.Error)
		return
	}
	if fd.ReplayFrame == nil {
		return
	}
	if stale, why := c.isStale(fd); stale {
		c.logger.Debugw("Dropped [stale] frame data", "reason", why, logger.FieldSeq, c.seq)
		return
	}

	c.detail = &FrameDetail{
		Index:         c.store.AbsoluteIndex(c.store.View().CurrentFrameIdx),
		Replay:        *fd.ReplayFrame,
		Validation:    fd.ValidationFrame,
		HasValidation: fd.HasValidation && fd.ValidationFrame != nil,
	}
	c.dirty = true
}

func (c *Controller) isStale(fd *stream.FrameData) (bool, string) {
	if fd.Seq != nil && *fd.Seq != c.seq {
		return true, "old generation"
	}
	cursor := c.store.View().CurrentFrameIdx
	if fd.FrameIdx != nil {
		if *fd.FrameIdx != c.store.AbsoluteIndex(cursor) {
			return true, "cursor moved"
		}
		return false, ""
	}
	cur, ok := c.store.CurrentFrame()
	if !ok || cur.Frame != fd.ReplayFrame.Frame {
		return true, "frame number differs"
	}
	return false, ""
}
