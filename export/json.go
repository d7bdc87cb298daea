package export

import (
	"archive/zip"
	"io"

	"github.com/teranos/replaydash/errors"
	"github.com/teranos/replaydash/frame"
	"github.com/teranos/replaydash/store"
)

type mismatchReport struct {
	Timestamp      string           `json:"timestamp"`
	ReplayFile     string           `json:"replay_file"`
	ValidationFile string           `json:"validation_file"`
	Mismatches     []frame.Mismatch `json:"mismatches"`
}

// Mismatches writes the detected mismatches as a JSON document.
func Mismatches(w io.Writer, snap store.Snapshot, meta Meta) error {
	if err := checkSnapshot(KindMismatches, snap); err != nil {
		return err
	}
	return writeJSON(w, mismatchReport{
		Timestamp:      meta.stamp(),
		ReplayFile:     meta.ReplayFile,
		ValidationFile: meta.ValidationFile,
		Mismatches:     snap.Mismatches,
	})
}

type analysisReport struct {
	Timestamp      string   `json:"timestamp"`
	ReplayFile     string   `json:"replay_file"`
	ValidationFile string   `json:"validation_file"`
	Analysis       Analysis `json:"analysis"`
}

// AnalysisReport writes Analyze(snap) wrapped with its provenance.
func AnalysisReport(w io.Writer, snap store.Snapshot, meta Meta) error {
	if err := checkSnapshot(KindAnalysis, snap); err != nil {
		return err
	}
	return writeJSON(w, analysisReport{
		Timestamp:      meta.stamp(),
		ReplayFile:     meta.ReplayFile,
		ValidationFile: meta.ValidationFile,
		Analysis:       Analyze(snap),
	})
}

type metadata struct {
	Timestamp            string `json:"timestamp"`
	ReplayFile           string `json:"replay_file"`
	ValidationFile       string `json:"validation_file"`
	Session              string `json:"session,omitempty"`
	ReplayFrameCount     int    `json:"replay_frame_count"`
	ValidationFrameCount int    `json:"validation_frame_count"`
	MismatchCount        int    `json:"mismatch_count"`
	Monitoring           bool   `json:"monitoring"`
	Base                 int    `json:"base"`
}

// FullArchive writes a zip holding every sequence as JSON, the analysis and
// a metadata document.
func FullArchive(w io.Writer, snap store.Snapshot, meta Meta) error {
	if err := checkSnapshot(KindFull, snap); err != nil {
		return err
	}
	zw := zip.NewWriter(w)

	entries := []struct {
		name  string
		value interface{}
		skip  bool
	}{
		{"replay_frames.json", snap.Replay, len(snap.Replay) == 0},
		{"validation_frames.json", snap.Validation, len(snap.Validation) == 0},
		{"mismatches.json", snap.Mismatches, len(snap.Mismatches) == 0},
		{"analysis.json", Analyze(snap), false},
		{"metadata.json", metadata{
			Timestamp:            meta.stamp(),
			ReplayFile:           meta.ReplayFile,
			ValidationFile:       meta.ValidationFile,
			Session:              meta.Session,
			ReplayFrameCount:     len(snap.Replay),
			ValidationFrameCount: len(snap.Validation),
			MismatchCount:        len(snap.Mismatches),
			Monitoring:           meta.Monitoring,
			Base:                 snap.Base,
		}, false},
	}
	for _, e := range entries {
		if e.skip {
			continue
		}
		if err := zipJSON(zw, e.name, e.value); err != nil {
			zw.Close()
			return err
		}
	}
	return errors.Wrap(zw.Close(), "failed to finish archive")
}

func zipJSON(zw *zip.Writer, name string, v interface{}) error {
	f, err := zw.Create(name)
	if err != nil {
		return errors.Wrapf(err, "failed to add %s", name)
	}
	return errors.Wrapf(writeJSON(f, v), "failed to write %s", name)
}
