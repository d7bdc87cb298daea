// Package sym defines the glyphs replaydash uses across the dashboard view,
// CLI output and log messages, so the same state always looks the same.
package sym

// Connection and monitoring state
const (
	Live       = "●" // view follows the newest frame
	Paused     = "◌" // view pinned by manual navigation
	Monitoring = "◉" // backend is watching files
	Idle       = "○" // backend is not watching files
)

// Comparison outcomes
const (
	Match    = "✓" // replay and validation hashes agree
	Mismatch = "✗" // hashes differ
	NoCheck  = "–" // no validation frame to compare against
)

// Timeline
const (
	Cursor    = "▲" // current frame
	Marker    = "│" // mismatch position
	Track     = "─"
	BarFull   = "█"
	BarEmpty  = "░"
	Separator = "·"
)

// Sparkline levels, lowest to highest
var Spark = []rune("▁▂▃▄▅▆▇█")
