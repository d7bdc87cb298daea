package export

import (
	"archive/zip"
	"encoding/csv"
	"io"
	"strconv"

	"github.com/teranos/replaydash/errors"
	"github.com/teranos/replaydash/frame"
	"github.com/teranos/replaydash/store"
)

// csvColumns are the frame fields in sorted key order.
var csvColumns = []string{"frame", "inputs", "p1_health", "p1_x", "p2_health", "p2_x", "rng_seed", "state_hash"}

func csvRow(f frame.ReplayFrame) []string {
	return []string{
		strconv.Itoa(f.Frame),
		strconv.FormatUint(uint64(f.Inputs), 10),
		strconv.FormatFloat(f.P1Health, 'g', -1, 64),
		strconv.FormatFloat(f.P1X, 'g', -1, 64),
		strconv.FormatFloat(f.P2Health, 'g', -1, 64),
		strconv.FormatFloat(f.P2X, 'g', -1, 64),
		strconv.FormatInt(f.RNGSeed, 10),
		f.StateHash,
	}
}

// WriteFramesCSV writes frames as CSV with a header row.
func WriteFramesCSV(w io.Writer, frames []frame.ReplayFrame) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvColumns); err != nil {
		return errors.Wrap(err, "failed to write csv header")
	}
	for _, f := range frames {
		if err := cw.Write(csvRow(f)); err != nil {
			return errors.Wrapf(err, "failed to write frame %d", f.Frame)
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "failed to flush csv")
}

// CSVArchive writes a zip with the replay frames as CSV, plus the validation
// frames and mismatches when there are any.
func CSVArchive(w io.Writer, snap store.Snapshot) error {
	if err := checkSnapshot(KindCSV, snap); err != nil {
		return err
	}
	zw := zip.NewWriter(w)

	if err := zipCSV(zw, "replay_frames.csv", snap.Replay); err != nil {
		zw.Close()
		return err
	}
	if len(snap.Validation) > 0 {
		if err := zipCSV(zw, "validation_frames.csv", snap.Validation); err != nil {
			zw.Close()
			return err
		}
	}
	if len(snap.Mismatches) > 0 {
		if err := zipJSON(zw, "mismatches.json", snap.Mismatches); err != nil {
			zw.Close()
			return err
		}
	}
	return errors.Wrap(zw.Close(), "failed to finish archive")
}

func zipCSV(zw *zip.Writer, name string, frames []frame.ReplayFrame) error {
	f, err := zw.Create(name)
	if err != nil {
		return errors.Wrapf(err, "failed to add %s", name)
	}
	return errors.Wrapf(WriteFramesCSV(f, frames), "failed to write %s", name)
}
