package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global logger instance
	Logger *zap.SugaredLogger
	// Flag to track if JSON output is enabled
	JSONOutput bool
)

func init() {
	// Safe no-op logger until Initialize runs, so packages can log from init paths and tests
	Logger = zap.NewNop().Sugar()
}

// Initialize sets up the global logger writing to stderr.
// Stdout is reserved for command output and the dashboard view.
func Initialize(jsonOutput bool, verbosity int) error {
	return initialize(jsonOutput, verbosity, zapcore.Lock(os.Stderr))
}

// InitializeToFile sends log output to path instead of stderr. The live
// dashboard redraws the terminal, so interleaved log lines would garble it.
func InitializeToFile(path string, jsonOutput bool, verbosity int) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	return initialize(jsonOutput, verbosity, zapcore.AddSync(f))
}

func initialize(jsonOutput bool, verbosity int, sink zapcore.WriteSyncer) error {
	JSONOutput = jsonOutput
	loadThemeFromEnv()

	level := VerbosityToLevel(verbosity)

	var encoder zapcore.Encoder
	if jsonOutput {
		// JSON structured output for machine consumption
		encoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	} else {
		// Human-readable console output with minimal, calm formatting
		encoder = newMinimalEncoder()
	}

	Logger = zap.New(zapcore.NewCore(encoder, sink, level)).Sugar()
	return nil
}

// loadThemeFromEnv picks up REPLAYDASH_LOG_THEME; the config file value is
// applied later through SetTheme once am has loaded.
func loadThemeFromEnv() {
	if theme := os.Getenv("REPLAYDASH_LOG_THEME"); theme != "" {
		SetTheme(theme)
	}
}

// Cleanup flushes any buffered log entries
func Cleanup() {
	if Logger != nil {
		_ = Logger.Sync()
	}
}

// Named returns a child of the global logger for a component.
func Named(name string) *zap.SugaredLogger {
	return Logger.Named(name)
}

// Infow logs an info message with structured fields
func Infow(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		Logger.Infow(msg, keysAndValues...)
	}
}

// Warnw logs a warning message with structured fields
func Warnw(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		Logger.Warnw(msg, keysAndValues...)
	}
}

// Errorw logs an error message with structured fields
func Errorw(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		Logger.Errorw(msg, keysAndValues...)
	}
}

// Debugw logs a debug message with structured fields
func Debugw(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		Logger.Debugw(msg, keysAndValues...)
	}
}
