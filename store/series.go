package store

// DefaultMaxPlotted is how many trailing frames the charts show by default.
const DefaultMaxPlotted = 1000

// Series is the chart data for the last plotted frames. Marker is the
// position of the cursor within the window, or -1 when it falls outside.
type Series struct {
	Labels   []int
	P1Health []float64
	P2Health []float64
	P1X      []float64
	P2X      []float64
	Marker   int
}

// Series collects health and position traces over the last maxPlotted
// replay frames. Non-positive maxPlotted uses DefaultMaxPlotted.
func (s *Store) Series(maxPlotted int) Series {
	if maxPlotted <= 0 {
		maxPlotted = DefaultMaxPlotted
	}
	start := max(0, len(s.replay)-maxPlotted)
	window := s.replay[start:]

	out := Series{
		Labels:   make([]int, len(window)),
		P1Health: make([]float64, len(window)),
		P2Health: make([]float64, len(window)),
		P1X:      make([]float64, len(window)),
		P2X:      make([]float64, len(window)),
		Marker:   -1,
	}
	for i, f := range window {
		out.Labels[i] = f.Frame
		out.P1Health[i] = f.P1Health
		out.P2Health[i] = f.P2Health
		out.P1X[i] = f.P1X
		out.P2X[i] = f.P2X
	}
	if cur := s.view.CurrentFrameIdx - start; cur >= 0 && cur < len(window) {
		out.Marker = cur
	}
	return out
}
