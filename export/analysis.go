package export

import (
	"sort"

	"github.com/teranos/replaydash/store"
)

// Analysis is a summary of a snapshot for offline inspection.
type Analysis struct {
	ReplayStats   ReplayStats              `json:"replay_stats"`
	MismatchStats MismatchStats            `json:"mismatch_stats"`
	TimeSeries    map[string][]SeriesPoint `json:"time_series"`
}

// ReplayStats summarises the replay sequence. Zero-valued when there are no frames.
type ReplayStats struct {
	FrameCount int      `json:"frame_count,omitempty"`
	FrameRange *Range   `json:"frame_range,omitempty"`
	P1Health   *Summary `json:"p1_health,omitempty"`
	P2Health   *Summary `json:"p2_health,omitempty"`
}

// Range is an inclusive frame-number range.
type Range struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Summary holds min/max/mean of a series.
type Summary struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Mean float64 `json:"mean"`
}

// MismatchStats summarises the mismatch list.
type MismatchStats struct {
	Count          int            `json:"count,omitempty"`
	TypeCounts     map[string]int `json:"type_counts,omitempty"`
	FrameIntervals *Intervals     `json:"frame_intervals,omitempty"`
}

// Intervals describes the gaps between consecutive mismatch frames.
type Intervals struct {
	Min    int     `json:"min"`
	Max    int     `json:"max"`
	Mean   float64 `json:"mean"`
	Median int     `json:"median"`
}

// SeriesPoint is a [frame, value] pair.
type SeriesPoint [2]float64

// Analyze computes replay, mismatch and time-series statistics.
func Analyze(snap store.Snapshot) Analysis {
	a := Analysis{TimeSeries: map[string][]SeriesPoint{}}

	if n := len(snap.Replay); n > 0 {
		first := snap.Replay[0]
		a.ReplayStats.FrameCount = n
		a.ReplayStats.FrameRange = &Range{Min: first.Frame, Max: first.Frame}
		p1 := Summary{Min: first.P1Health, Max: first.P1Health}
		p2 := Summary{Min: first.P2Health, Max: first.P2Health}

		series := map[string][]SeriesPoint{}
		for _, f := range snap.Replay {
			r := a.ReplayStats.FrameRange
			if f.Frame < r.Min {
				r.Min = f.Frame
			}
			if f.Frame > r.Max {
				r.Max = f.Frame
			}
			p1.add(f.P1Health)
			p2.add(f.P2Health)

			x := float64(f.Frame)
			series["p1_health"] = append(series["p1_health"], SeriesPoint{x, f.P1Health})
			series["p2_health"] = append(series["p2_health"], SeriesPoint{x, f.P2Health})
			series["p1_x"] = append(series["p1_x"], SeriesPoint{x, f.P1X})
			series["p2_x"] = append(series["p2_x"], SeriesPoint{x, f.P2X})
		}
		p1.Mean /= float64(n)
		p2.Mean /= float64(n)
		a.ReplayStats.P1Health = &p1
		a.ReplayStats.P2Health = &p2
		a.TimeSeries = series
	}

	if len(snap.Mismatches) > 0 {
		a.MismatchStats.Count = len(snap.Mismatches)
		a.MismatchStats.TypeCounts = map[string]int{}
		frames := make([]int, 0, len(snap.Mismatches))
		for _, m := range snap.Mismatches {
			types := m.Types
			if len(types) == 0 {
				types = []string{"unknown"}
			}
			for _, t := range types {
				a.MismatchStats.TypeCounts[t]++
			}
			frames = append(frames, m.Frame)
		}
		a.MismatchStats.FrameIntervals = intervals(frames)
	}
	return a
}

// add accumulates v; Mean holds the running sum until divided.
func (s *Summary) add(v float64) {
	if v < s.Min {
		s.Min = v
	}
	if v > s.Max {
		s.Max = v
	}
	s.Mean += v
}

// intervals needs at least two frames.
func intervals(frames []int) *Intervals {
	if len(frames) < 2 {
		return nil
	}
	sort.Ints(frames)
	gaps := make([]int, 0, len(frames)-1)
	sum := 0
	for i := 1; i < len(frames); i++ {
		g := frames[i] - frames[i-1]
		gaps = append(gaps, g)
		sum += g
	}
	sort.Ints(gaps)
	return &Intervals{
		Min:    gaps[0],
		Max:    gaps[len(gaps)-1],
		Mean:   float64(sum) / float64(len(gaps)),
		Median: gaps[len(gaps)/2],
	}
}
