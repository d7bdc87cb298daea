package logger

// Standard field names for consistent structured logging.
// Use these constants instead of raw strings.
const (
	// Identity and correlation
	FieldSession   = "session"
	FieldRequestID = "request_id"
	FieldSeq       = "seq"

	// Components
	FieldComponent = "component"

	// Operations
	FieldOperation = "operation"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldURL       = "url"
	FieldEvent     = "event"

	// Timing
	FieldDurationMS = "duration_ms"

	// Errors
	FieldError = "error"

	// Counts and sizes
	FieldCount   = "count"
	FieldFrames  = "frames"
	FieldDropped = "dropped"

	// Replay domain
	FieldFrameIdx       = "frame_idx"
	FieldFrame          = "frame"
	FieldReplayFile     = "replay_file"
	FieldValidationFile = "validation_file"
	FieldDirectory      = "directory"

	// Status
	FieldStatus     = "status"
	FieldMonitoring = "monitoring"
	FieldAttempt    = "attempt"
)
