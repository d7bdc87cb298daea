package export

import (
	"context"
	"database/sql"
	"encoding/json"
	"strconv"

	"github.com/teranos/replaydash/errors"
	"github.com/teranos/replaydash/frame"
	"github.com/teranos/replaydash/store"
)

const insertFrameColumns = "(idx, frame, p1_x, p2_x, p1_health, p2_health, inputs, state_hash, rng_seed) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)"

// SQLite writes snap into db, replacing any previous export. The schema must
// already exist (see db.OpenWithMigrations). Rows are keyed by absolute
// index so a retention-trimmed snapshot keeps its original positions.
func SQLite(ctx context.Context, conn *sql.DB, snap store.Snapshot, meta Meta) error {
	if err := checkSnapshot(KindSQLite, snap); err != nil {
		return err
	}
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin export transaction")
	}
	if err := writeSnapshot(ctx, tx, snap, meta); err != nil {
		tx.Rollback()
		return err
	}
	return errors.Wrap(tx.Commit(), "failed to commit export")
}

func writeSnapshot(ctx context.Context, tx *sql.Tx, snap store.Snapshot, meta Meta) error {
	for _, table := range []string{"replay_frames", "validation_frames", "mismatches", "export_metadata"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return errors.Wrapf(err, "failed to clear %s", table)
		}
	}

	if err := insertFrames(ctx, tx, "replay_frames", snap.Base, snap.Replay); err != nil {
		return err
	}
	// Validation frames are aligned to replay frames by position.
	if err := insertFrames(ctx, tx, "validation_frames", snap.Base, snap.Validation); err != nil {
		return err
	}

	for _, m := range snap.Mismatches {
		types, err := json.Marshal(m.Types)
		if err != nil {
			return errors.Wrapf(err, "failed to encode mismatch %d", m.Index)
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO mismatches (idx, frame, types) VALUES (?, ?, ?)",
			snap.Base+m.Index, m.Frame, string(types),
		); err != nil {
			return errors.Wrapf(err, "failed to insert mismatch %d", m.Index)
		}
	}

	md := [][2]string{
		{"timestamp", meta.stamp()},
		{"replay_file", meta.ReplayFile},
		{"validation_file", meta.ValidationFile},
		{"session", meta.Session},
		{"base", strconv.Itoa(snap.Base)},
	}
	for _, kv := range md {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO export_metadata (key, value) VALUES (?, ?)", kv[0], kv[1],
		); err != nil {
			return errors.Wrapf(err, "failed to insert metadata %s", kv[0])
		}
	}
	return nil
}

func insertFrames(ctx context.Context, tx *sql.Tx, table string, base int, frames []frame.ReplayFrame) error {
	stmt := "INSERT INTO " + table + " " + insertFrameColumns
	for i, f := range frames {
		if _, err := tx.ExecContext(ctx, stmt,
			base+i, f.Frame, f.P1X, f.P2X, f.P1Health, f.P2Health, int64(f.Inputs), f.StateHash, f.RNGSeed,
		); err != nil {
			return errors.Wrapf(err, "failed to insert %s row %d", table, i)
		}
	}
	return nil
}
