package api

import (
	"bytes"
	"encoding/json"

	"github.com/teranos/replaydash/frame"
)

// Status is the backend's monitoring summary.
type Status struct {
	IsMonitoring      bool `json:"is_monitoring"`
	ReplayFramesCount int  `json:"replay_frames_count"`
	MismatchesCount   int  `json:"mismatches_count"`

	// Reported by backends that expose the active file set
	ReplayFile            string `json:"replay_file,omitempty"`
	ValidationFile        string `json:"validation_file,omitempty"`
	ValidationFramesCount int    `json:"validation_frames_count,omitempty"`
}

// FrameRange is the answer to a frame range query.
type FrameRange struct {
	ReplayFrames     []frame.ReplayFrame     `json:"replay_frames"`
	ValidationFrames []frame.ValidationFrame `json:"validation_frames"`
}

// Ack acknowledges a command. Backends add whatever summary they have.
type Ack struct {
	Status                string `json:"status,omitempty"`
	ReplayFile            string `json:"replay_file,omitempty"`
	ValidationFile        string `json:"validation_file,omitempty"`
	ReplayFramesCount     int    `json:"replay_frame_count,omitempty"`
	ValidationFramesCount int    `json:"validation_frame_count,omitempty"`
	MismatchesCount       int    `json:"mismatch_count,omitempty"`
}

type mismatchList struct {
	Mismatches []frame.Mismatch `json:"mismatches"`
}

// UnmarshalJSON also accepts a bare array, as older backends send.
func (l *mismatchList) UnmarshalJSON(b []byte) error {
	if trimmed := bytes.TrimSpace(b); len(trimmed) > 0 && trimmed[0] == '[' {
		return json.Unmarshal(trimmed, &l.Mismatches)
	}
	type plain mismatchList
	return json.Unmarshal(b, (*plain)(l))
}

type startMonitoringRequest struct {
	Directory *string `json:"directory"`
}

type setFilesRequest struct {
	ReplayFile     *string `json:"replay_file"`
	ValidationFile *string `json:"validation_file"`
}

// errorBody is the backend's error envelope, present on failure with any status.
type errorBody struct {
	Error string `json:"error"`
}
