// Package view draws the dashboard in the terminal with pterm. Renderers only
// read derived values from the store; they never change it.
package view

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/pterm/pterm"

	"github.com/teranos/replaydash/dashboard"
	"github.com/teranos/replaydash/frame"
	"github.com/teranos/replaydash/sym"
)

const (
	clearScreen   = "\x1b[H\x1b[2J"
	defaultWidth  = 80
	mismatchRows  = 8
	notesKept     = 3
	healthBarSize = 20
)

// Options configures a Terminal.
type Options struct {
	// ClearScreen redraws in place; off for plain scrolling output
	ClearScreen bool
	// Width of the timeline and charts; 0 uses the terminal width
	Width int
}

// Terminal renders dashboard state and notifications to a writer.
type Terminal struct {
	w     io.Writer
	opts  Options
	mu    sync.Mutex
	notes []string
}

// NewTerminal creates a renderer writing to w.
func NewTerminal(w io.Writer, opts Options) *Terminal {
	return &Terminal{w: w, opts: opts}
}

var _ dashboard.Renderer = (*Terminal)(nil)
var _ dashboard.Notifier = (*Terminal)(nil)

func (t *Terminal) width() int {
	if t.opts.Width > 0 {
		return t.opts.Width
	}
	if w := pterm.GetTerminalWidth(); w > 20 {
		return w - 2
	}
	return defaultWidth
}

// Render draws one full screen.
func (t *Terminal) Render(state dashboard.State) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var b strings.Builder
	if t.opts.ClearScreen {
		b.WriteString(clearScreen)
	}
	b.WriteString(Screen(state, t.width()))
	for _, n := range t.notes {
		b.WriteString("\n" + n)
	}
	b.WriteString("\n")
	_, _ = io.WriteString(t.w, b.String())
}

// Notify prints an alert with a level prefix and keeps the latest few so
// they survive the next redraw.
func (t *Terminal) Notify(level dashboard.Level, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var line string
	switch level {
	case dashboard.LevelError:
		line = pterm.Error.Sprint(message)
	case dashboard.LevelWarn:
		line = pterm.Warning.Sprint(message)
	default:
		line = pterm.Info.Sprint(message)
	}
	line = strings.TrimRight(line, "\n")

	t.notes = append(t.notes, line)
	if len(t.notes) > notesKept {
		t.notes = t.notes[len(t.notes)-notesKept:]
	}
	fmt.Fprintln(t.w, line)
}

// Screen composes every panel for state at the given width.
func Screen(state dashboard.State, width int) string {
	s := state.Store
	var b strings.Builder
	b.WriteString(Header(state))
	b.WriteString("\n\n")

	replay, validation, ok := currentFrames(state)
	if !ok {
		b.WriteString(pterm.Gray("Waiting for frames…"))
		b.WriteString("\n")
	} else {
		b.WriteString(FramePanel(replay, validation))
	}

	b.WriteString("\n")
	b.WriteString(pterm.Bold.Sprint(fmt.Sprintf("Mismatches (%d)", s.MismatchCount())))
	b.WriteString("\n")
	b.WriteString(MismatchList(s.Mismatches(), mismatchRows))
	b.WriteString("\n\n")

	if s.FrameCount() > 0 {
		b.WriteString(Timeline(width, s.TimelinePosition(), s.MismatchMarkers()))
		b.WriteString("\n\n")
		b.WriteString(Charts(state, width))
	}
	return strings.TrimRight(b.String(), "\n")
}

// Header is the status line: frame, live mode, monitoring, connection.
func Header(state dashboard.State) string {
	s := state.Store
	view := s.View()
	lo, hi := s.SliderRange()

	var parts []string
	if cur, ok := s.CurrentFrame(); ok {
		parts = append(parts, pterm.Bold.Sprint(fmt.Sprintf("Frame %d", cur.Frame)),
			fmt.Sprintf("index %d/%d", s.AbsoluteIndex(view.CurrentFrameIdx), s.AbsoluteIndex(hi)))
	} else {
		parts = append(parts, pterm.Bold.Sprint("No frames"), fmt.Sprintf("index %d/%d", lo, hi))
	}

	if view.IsLive {
		parts = append(parts, pterm.LightGreen(sym.Live+" LIVE"))
	} else {
		parts = append(parts, pterm.Yellow(sym.Paused+" PAUSED"))
	}
	if state.Monitoring {
		parts = append(parts, pterm.LightCyan(sym.Monitoring+" monitoring"))
	} else {
		parts = append(parts, pterm.Gray(sym.Idle+" idle"))
	}
	if state.Connected {
		parts = append(parts, pterm.Green("connected"))
	} else {
		parts = append(parts, pterm.Red("disconnected"))
	}
	if f := state.Files; f.Replay != "" || f.Validation != "" {
		parts = append(parts, pterm.Gray(strings.TrimSpace(f.Replay+" "+f.Validation)))
	}
	return strings.Join(parts, "  "+sym.Separator+"  ")
}

// FramePanel shows health, position, inputs, hash comparison and variables.
func FramePanel(replay frame.ReplayFrame, validation *frame.ValidationFrame) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s    %s\n",
		HealthBar("P1", replay.P1Health, healthBarSize),
		HealthBar("P2", replay.P2Health, healthBarSize))
	fmt.Fprintf(&b, "Position  P1 x=%s  P2 x=%s\n", fmtFloat(replay.P1X), fmtFloat(replay.P2X))
	fmt.Fprintf(&b, "Inputs    %s\n", Inputs(replay.Inputs))
	fmt.Fprintf(&b, "Hash      %s\n", replay.StateHash)
	if line := HashLine(frame.CompareHashes(replay, validation)); line != "" {
		fmt.Fprintf(&b, "          %s\n", line)
	}
	if table, err := VariablesTable(frame.CompareVariables(replay, validation)); err == nil {
		b.WriteString(table)
		b.WriteString("\n")
	}
	return b.String()
}

// Charts draws the health and position sparklines with the cursor column.
func Charts(state dashboard.State, width int) string {
	series := state.Store.Series(state.MaxPlotted)
	chartWidth := max(10, width-8)

	var b strings.Builder
	p1, col := Sparkline(series.P1Health, 0, 1, chartWidth, series.Marker)
	p2, _ := Sparkline(series.P2Health, 0, 1, chartWidth, series.Marker)
	fmt.Fprintf(&b, "%s\nP1 HP  %s\nP2 HP  %s\n", pterm.Bold.Sprint("Health"), p1, p2)

	lo, hi := bounds(series.P1X, series.P2X)
	x1, _ := Sparkline(series.P1X, lo, hi, chartWidth, series.Marker)
	x2, _ := Sparkline(series.P2X, lo, hi, chartWidth, series.Marker)
	fmt.Fprintf(&b, "%s\nP1 X   %s\nP2 X   %s", pterm.Bold.Sprint("Position"), x1, x2)

	if col >= 0 {
		fmt.Fprintf(&b, "\n       %s%s", strings.Repeat(" ", col), sym.Cursor)
	}
	return b.String()
}

// currentFrames prefers the accepted frame detail and falls back to the
// store's own copies at the cursor.
func currentFrames(state dashboard.State) (frame.ReplayFrame, *frame.ValidationFrame, bool) {
	if d := state.Detail; d != nil {
		if d.HasValidation {
			return d.Replay, d.Validation, true
		}
		return d.Replay, nil, true
	}
	replay, ok := state.Store.CurrentFrame()
	if !ok {
		return frame.ReplayFrame{}, nil, false
	}
	return replay, state.Store.ValidationFrame(state.Store.View().CurrentFrameIdx), true
}

func fmtFloat(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
