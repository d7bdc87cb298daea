// Package frame defines the replay data model shared by the store, the
// push channel and the API client, plus the pure helpers that interpret a
// frame: input bitmask decoding and replay/validation comparison.
package frame

// ReplayFrame is one recorded simulation tick from the primary source.
// Frames are immutable once received.
type ReplayFrame struct {
	Frame     int     `json:"frame"`
	P1X       float64 `json:"p1_x"`
	P2X       float64 `json:"p2_x"`
	P1Health  float64 `json:"p1_health"` // [0,1]
	P2Health  float64 `json:"p2_health"` // [0,1]
	Inputs    uint16  `json:"inputs"`
	StateHash string  `json:"state_hash"`
	RNGSeed   int64   `json:"rng_seed"`
}

// ValidationFrame is the tick produced by the independent reference source.
// It is aligned with ReplayFrame by array position, not by Frame number.
type ValidationFrame = ReplayFrame

// Mismatch is a detected divergence between replay and validation.
type Mismatch struct {
	Index int      `json:"index"` // position in the replay sequence
	Frame int      `json:"frame"` // display frame number
	Types []string `json:"types"` // what differed, in backend order
}
