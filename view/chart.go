package view

import (
	"math"
	"strings"

	"github.com/teranos/replaydash/store"
	"github.com/teranos/replaydash/sym"
)

// Sparkline draws values as one row of block glyphs, width columns wide.
// When there are more values than columns each column shows the mean of its
// bucket. marker (an index into values, or -1) is returned as the column it
// lands in, or -1.
func Sparkline(values []float64, lo, hi float64, width, marker int) (string, int) {
	if len(values) == 0 || width <= 0 {
		return "", -1
	}
	cols := min(width, len(values))
	span := hi - lo
	var b strings.Builder
	markerCol := -1
	for col := 0; col < cols; col++ {
		start := col * len(values) / cols
		end := (col + 1) * len(values) / cols
		sum := 0.0
		for _, v := range values[start:end] {
			sum += v
		}
		mean := sum / float64(end-start)

		level := 0
		if span > 0 {
			level = int(math.Round((mean - lo) / span * float64(len(sym.Spark)-1)))
		}
		level = min(max(level, 0), len(sym.Spark)-1)
		b.WriteRune(sym.Spark[level])

		if marker >= start && marker < end {
			markerCol = col
		}
	}
	return b.String(), markerCol
}

// bounds returns the min and max across every series.
func bounds(series ...[]float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, s := range series {
		for _, v := range s {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	if math.IsInf(lo, 1) {
		return 0, 0
	}
	return lo, hi
}

// Timeline draws a track width columns wide with a mismatch marker per
// mismatch and the cursor on a second row.
func Timeline(width int, position float64, markers []store.Marker) string {
	if width < 2 {
		width = 2
	}
	track := make([]string, width)
	for i := range track {
		track[i] = sym.Track
	}
	for _, m := range markers {
		track[column(m.Position, width)] = sym.Marker
	}

	cursor := make([]string, width)
	for i := range cursor {
		cursor[i] = " "
	}
	cursor[column(position, width)] = sym.Cursor

	return strings.Join(track, "") + "\n" + strings.TrimRight(strings.Join(cursor, ""), " ")
}

func column(position float64, width int) int {
	col := int(math.Round(position * float64(width-1)))
	return min(max(col, 0), width-1)
}
