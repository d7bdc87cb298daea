package logger

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

const (
	colorReset = "\x1b[0m"
	colorBold  = "\x1b[1m"
)

// palette is one color theme for console log output
type palette struct {
	fg        string
	time      string
	component [3]string
	id        string
	number    string
	bracket   string
	warn      string
	warnBg    string
	err       string
	errBg     string
}

// Gruvbox Dark (warm, muted)
var gruvbox = palette{
	fg:        "\x1b[38;5;223m",
	time:      "\x1b[38;5;108m",
	component: [3]string{"\x1b[38;5;208m", "\x1b[38;5;214m", "\x1b[38;5;175m"},
	id:        "\x1b[38;5;109m",
	number:    "\x1b[38;5;175m",
	bracket:   "\x1b[38;5;208m",
	warn:      "\x1b[38;5;214m",
	warnBg:    "\x1b[48;5;58m",
	err:       "\x1b[38;5;167m",
	errBg:     "\x1b[48;5;88m",
}

// Everforest Dark (forest greens)
var everforest = palette{
	fg:        "\x1b[38;5;223m",
	time:      "\x1b[38;5;107m",
	component: [3]string{"\x1b[38;5;108m", "\x1b[38;5;65m", "\x1b[38;5;208m"},
	id:        "\x1b[38;5;109m",
	number:    "\x1b[38;5;108m",
	bracket:   "\x1b[38;5;208m",
	warn:      "\x1b[38;5;179m",
	warnBg:    "\x1b[48;5;58m",
	err:       "\x1b[38;5;167m",
	errBg:     "\x1b[48;5;52m",
}

// Current active theme (set by SetTheme from config or env)
var currentTheme = "everforest"

// SetTheme configures the color scheme for log output. Unknown names are ignored.
func SetTheme(theme string) {
	if theme == "everforest" || theme == "gruvbox" {
		currentTheme = theme
	}
}

func colors() palette {
	if currentTheme == "gruvbox" {
		return gruvbox
	}
	return everforest
}

func colorComponent(name string) string {
	// Hash for a stable color per component
	hash := 0
	for _, c := range name {
		hash += int(c)
	}
	return colors().component[hash%3]
}

var bracketPattern = regexp.MustCompile(`\[([^\]]+)\]`)

// colorizeMessage highlights bracketed markers such as [live] or [stale]
func colorizeMessage(msg string) string {
	p := colors()
	var result strings.Builder
	last := 0
	for _, m := range bracketPattern.FindAllStringIndex(msg, -1) {
		if m[0] > last {
			result.WriteString(p.fg + msg[last:m[0]] + colorReset)
		}
		result.WriteString(p.bracket + msg[m[0]:m[1]] + colorReset)
		last = m[1]
	}
	if last < len(msg) {
		result.WriteString(p.fg + msg[last:] + colorReset)
	}
	return result.String()
}

// minimalEncoder is a calm, compact console encoder.
// Format: "13:04:35  s.client  Connected to push channel  session=4f1c… url=ws://…"
type minimalEncoder struct {
	zapcore.Encoder // base encoder satisfies the ObjectEncoder half of the interface
}

func newMinimalEncoder() *minimalEncoder {
	return &minimalEncoder{
		Encoder: zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
	}
}

func (enc *minimalEncoder) Clone() zapcore.Encoder {
	return &minimalEncoder{Encoder: enc.Encoder.Clone()}
}

var bufferPool = buffer.NewPool()

func (enc *minimalEncoder) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	p := colors()
	final := bufferPool.Get()

	final.AppendString(p.time)
	final.AppendString(ent.Time.Format("15:04:05"))
	final.AppendString(colorReset)

	// Level: only shown for WARN and above
	if lvl := levelColorString(ent.Level); lvl != "" {
		final.AppendString("  ")
		final.AppendString(lvl)
	}

	if ent.LoggerName != "" {
		final.AppendString("  ")
		final.AppendString(colorComponent(ent.LoggerName))
		final.AppendString(abbreviateName(ent.LoggerName))
		final.AppendString(colorReset)
	}

	final.AppendString("  ")
	final.AppendString(colorizeMessage(ent.Message))

	if values := formatFields(fields); values != "" {
		final.AppendString("  ")
		final.AppendString(values)
	}

	final.AppendString("\n")
	return final, nil
}

// levelColorString returns bold + colored + background for WARN/ERROR
func levelColorString(level zapcore.Level) string {
	p := colors()
	switch level {
	case zapcore.WarnLevel:
		return colorBold + p.warnBg + p.warn + "WARN" + colorReset
	case zapcore.ErrorLevel:
		return colorBold + p.errBg + p.err + "ERROR" + colorReset
	case zapcore.DPanicLevel, zapcore.PanicLevel, zapcore.FatalLevel:
		return colorBold + p.errBg + p.err + level.CapitalString() + colorReset
	default:
		return ""
	}
}

// abbreviateName shortens component names: stream -> stream, dashboard.loop -> d.loop
func abbreviateName(name string) string {
	parts := strings.Split(name, ".")
	if len(parts) > 1 {
		return string(parts[0][0]) + "." + strings.Join(parts[1:], ".")
	}
	return name
}

// fieldValue renders a zap field's value; ok is false for fields with nothing to show
func fieldValue(field zapcore.Field) (string, bool) {
	switch field.Type {
	case zapcore.StringType:
		return field.String, true
	case zapcore.Int64Type, zapcore.Int32Type, zapcore.Int16Type, zapcore.Int8Type:
		return fmt.Sprintf("%d", field.Integer), true
	case zapcore.Uint64Type, zapcore.Uint32Type, zapcore.Uint16Type, zapcore.Uint8Type, zapcore.UintptrType:
		return fmt.Sprintf("%d", uint64(field.Integer)), true
	case zapcore.Float64Type:
		return fmt.Sprintf("%g", math.Float64frombits(uint64(field.Integer))), true
	case zapcore.Float32Type:
		return fmt.Sprintf("%g", math.Float32frombits(uint32(field.Integer))), true
	case zapcore.BoolType:
		return fmt.Sprintf("%t", field.Integer == 1), true
	case zapcore.DurationType:
		return time.Duration(field.Integer).String(), true
	case zapcore.SkipType:
		return "", false
	case zapcore.ErrorType:
		if err, ok := field.Interface.(error); ok && err != nil {
			return err.Error(), true
		}
		return "", false
	}
	if field.Interface != nil {
		return fmt.Sprintf("%v", field.Interface), true
	}
	return "", false
}

// formatFields renders every field as key=value; identifiers and numbers get
// theme colors. No field is ever dropped.
func formatFields(fields []zapcore.Field) string {
	p := colors()
	values := make([]string, 0, len(fields))
	for _, field := range fields {
		val, ok := fieldValue(field)
		if !ok {
			continue
		}
		switch field.Key {
		case FieldSession, FieldRequestID:
			val = p.id + val + colorReset
		case FieldFrameIdx, FieldFrame, FieldCount, FieldFrames, FieldSeq, FieldDurationMS:
			val = p.number + val + colorReset
		}
		values = append(values, field.Key+"="+val)
	}
	return strings.Join(values, " ")
}
