package stream

import (
	"bytes"
	"encoding/json"

	"github.com/teranos/replaydash/errors"
	"github.com/teranos/replaydash/frame"
)

// Wire event names.
const (
	EventNameReplayFrames     = "new_replay_frames"
	EventNameValidationFrames = "new_validation_frames"
	EventNameMismatches       = "new_mismatches"
	EventNameFrameData        = "frame_data"
	EventNameRequestFrame     = "request_frame"
)

// Envelope is one push channel message.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// FrameData answers a request_frame. FrameIdx and Seq are only present when
// the backend echoes them.
type FrameData struct {
	ReplayFrame     *frame.ReplayFrame     `json:"replay_frame"`
	ValidationFrame *frame.ValidationFrame `json:"validation_frame"`
	HasValidation   bool                   `json:"has_validation"`
	Error           string                 `json:"error,omitempty"`
	FrameIdx        *int                   `json:"frame_idx,omitempty"`
	Seq             *uint64                `json:"seq,omitempty"`
}

// RequestFrame asks for the detail of one frame by absolute index. Seq is
// the requester's generation counter.
type RequestFrame struct {
	FrameIdx int    `json:"frame_idx"`
	Seq      uint64 `json:"seq"`
}

// EventKind identifies a delivered Event.
type EventKind int

const (
	Connected EventKind = iota
	Disconnected
	ReplayFrames
	ValidationFrames
	Mismatches
	FrameDataReceived
)

func (k EventKind) String() string {
	switch k {
	case Connected:
		return "connected"
	case Disconnected:
		return "disconnected"
	case ReplayFrames:
		return EventNameReplayFrames
	case ValidationFrames:
		return EventNameValidationFrames
	case Mismatches:
		return EventNameMismatches
	case FrameDataReceived:
		return EventNameFrameData
	default:
		return "unknown"
	}
}

// Event is what the client hands to its consumer. Only the fields matching
// Kind are set.
type Event struct {
	Kind             EventKind
	Session          string
	ReplayFrames     []frame.ReplayFrame
	ValidationFrames []frame.ValidationFrame
	Mismatches       []frame.Mismatch
	FrameData        *FrameData
	Err              error
}

// decodeEvent turns an envelope into an Event. Unknown names return ok=false
// with no error.
func decodeEvent(env Envelope) (ev Event, ok bool, err error) {
	switch env.Event {
	case EventNameReplayFrames:
		ev.Kind = ReplayFrames
		err = decodeList(env.Data, "frames", &ev.ReplayFrames)
	case EventNameValidationFrames:
		ev.Kind = ValidationFrames
		err = decodeList(env.Data, "frames", &ev.ValidationFrames)
	case EventNameMismatches:
		ev.Kind = Mismatches
		err = decodeList(env.Data, "mismatches", &ev.Mismatches)
	case EventNameFrameData:
		ev.Kind = FrameDataReceived
		var fd FrameData
		if err = json.Unmarshal(env.Data, &fd); err == nil {
			ev.FrameData = &fd
		}
	default:
		return Event{}, false, nil
	}
	if err != nil {
		return Event{}, false, errors.Wrapf(err, "malformed %s payload", env.Event)
	}
	return ev, true, nil
}

// decodeList accepts either {"<key>": [...]} or a bare array.
func decodeList(data json.RawMessage, key string, out interface{}) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if trimmed[0] == '[' {
		return json.Unmarshal(trimmed, out)
	}
	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		return err
	}
	list, ok := wrapped[key]
	if !ok {
		return errors.Newf("missing %q field", key)
	}
	return json.Unmarshal(list, out)
}
