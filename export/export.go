// Package export writes store snapshots to files: mismatch reports, CSV and
// JSON archives, an analysis summary and SQLite databases.
package export

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/teranos/replaydash/db"
	"github.com/teranos/replaydash/errors"
	"github.com/teranos/replaydash/logger"
	"github.com/teranos/replaydash/store"
)

// Kind names an export format.
type Kind string

const (
	KindMismatches Kind = "mismatches"
	KindCSV        Kind = "csv"
	KindAnalysis   Kind = "analysis"
	KindFull       Kind = "full"
	KindSQLite     Kind = "sqlite"
)

// Kinds lists every supported format, in help order.
var Kinds = []Kind{KindMismatches, KindCSV, KindAnalysis, KindFull, KindSQLite}

// ParseKind resolves a user-supplied format name.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds {
		if k == known {
			return k, nil
		}
	}
	return "", errors.WithHintf(
		errors.NewInvalidRequestError("unknown export format %q", s),
		"supported formats: %s", joinKinds(),
	)
}

func joinKinds() string {
	names := make([]string, len(Kinds))
	for i, k := range Kinds {
		names[i] = string(k)
	}
	return strings.Join(names, ", ")
}

// Meta describes where a snapshot came from.
type Meta struct {
	Timestamp      time.Time
	ReplayFile     string
	ValidationFile string
	Session        string
	Monitoring     bool
}

// stamp is the timestamp format used inside exported documents.
func (m Meta) stamp() string {
	ts := m.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	return ts.Format("20060102_150405")
}

// DefaultFilename suggests a file name for kind, mirroring the backend's
// download names.
func DefaultFilename(kind Kind, at time.Time) string {
	ts := at.Format("20060102_150405")
	switch kind {
	case KindMismatches:
		return "mismatches_" + ts + ".json"
	case KindCSV:
		return "replay_data_" + ts + ".zip"
	case KindAnalysis:
		return "replay_analysis_" + ts + ".json"
	case KindSQLite:
		return "replay_data_" + ts + ".db"
	default:
		return "dashboard_export_" + ts + ".zip"
	}
}

// Write renders snap as kind into w. SQLite exports need a database and are
// not supported here; use ToFile or SQLite.
func Write(w io.Writer, kind Kind, snap store.Snapshot, meta Meta) error {
	switch kind {
	case KindMismatches:
		return Mismatches(w, snap, meta)
	case KindCSV:
		return CSVArchive(w, snap)
	case KindAnalysis:
		return AnalysisReport(w, snap, meta)
	case KindFull:
		return FullArchive(w, snap, meta)
	default:
		return errors.NewInvalidRequestError("%s export needs a file path", kind)
	}
}

// ToFile writes snap to path in the named format. The file is written to a
// temporary sibling first so a failed export never leaves a partial file.
func ToFile(ctx context.Context, kindName, path string, snap store.Snapshot, meta Meta) error {
	kind, err := ParseKind(kindName)
	if err != nil {
		return err
	}
	log := logger.Named("export")

	if kind == KindSQLite {
		if err := checkSnapshot(kind, snap); err != nil {
			return err
		}
		conn, err := db.OpenWithMigrations(path, log)
		if err != nil {
			return err
		}
		defer conn.Close()
		if err := SQLite(ctx, conn, snap, meta); err != nil {
			return err
		}
		log.Infow("Exported snapshot", logger.FieldPath, path, "kind", kind, logger.FieldFrames, len(snap.Replay))
		return nil
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".replaydash-export-*")
	if err != nil {
		return errors.Wrapf(err, "failed to create export file in %s", filepath.Dir(path))
	}
	defer os.Remove(tmp.Name())

	if err := Write(tmp, kind, snap, meta); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "failed to flush export file")
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrapf(err, "failed to move export to %s", path)
	}
	log.Infow("Exported snapshot", logger.FieldPath, path, "kind", kind, logger.FieldFrames, len(snap.Replay))
	return nil
}

// checkSnapshot enforces the per-format emptiness rules.
func checkSnapshot(kind Kind, snap store.Snapshot) error {
	empty := false
	switch kind {
	case KindMismatches:
		empty = len(snap.Mismatches) == 0
	case KindCSV, KindAnalysis:
		empty = len(snap.Replay) == 0
	default:
		empty = len(snap.Replay) == 0 && len(snap.Validation) == 0
	}
	if empty {
		return errors.Wrapf(errors.ErrNothingToExport, "%s export", kind)
	}
	return nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return errors.Wrap(err, "failed to encode export")
	}
	return nil
}
