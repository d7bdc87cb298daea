package commands

import (
	"context"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/replaydash/dashboard"
	"github.com/teranos/replaydash/errors"
	"github.com/teranos/replaydash/export"
	"github.com/teranos/replaydash/store"
)

// ExportCmd snapshots the backend's data into a file
var ExportCmd = &cobra.Command{
	Use:   "export <mismatches|csv|analysis|full|sqlite> [path]",
	Short: "Export frames and mismatches to a file",
	Long: `Fetch every frame and mismatch from the backend and write them to a file.

Formats:
  mismatches  JSON document with the mismatch list
  csv         zip with replay_frames.csv, validation_frames.csv, mismatches.json
  analysis    JSON summary: frame/health stats, mismatch intervals, time series
  full        zip with all sequences as JSON, analysis.json and metadata.json
  sqlite      SQLite database with replay_frames, validation_frames, mismatches

When path is omitted a timestamped name is used.`,
	Args: cobra.RangeArgs(1, 2),
	ValidArgs: func() []string {
		names := make([]string, len(export.Kinds))
		for i, k := range export.Kinds {
			names[i] = string(k)
		}
		return names
	}(),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := export.ParseKind(args[0])
		if err != nil {
			return err
		}
		now := time.Now()
		path := export.DefaultFilename(kind, now)
		if len(args) == 2 {
			path = args[1]
		}

		client, _, err := backendFor(cmd)
		if err != nil {
			return err
		}
		snap, st, err := fetchSnapshot(cmd.Context(), client)
		if err != nil {
			return errors.Wrap(err, "failed to fetch data for export")
		}

		meta := export.Meta{
			Timestamp:      now,
			ReplayFile:     st.ReplayFile,
			ValidationFile: st.ValidationFile,
			Monitoring:     st.IsMonitoring,
		}
		if err := export.ToFile(cmd.Context(), string(kind), path, snap, meta); err != nil {
			return err
		}
		pterm.Success.Printfln("Exported %s (%d frames, %d mismatches) to %s",
			kind, len(snap.Replay), len(snap.Mismatches), path)
		return nil
	},
}

// exporter adapts export.ToFile to the dashboard, stamping each export
// with the push channel session it was taken under.
func exporter(session func() string) dashboard.ExportFunc {
	return func(ctx context.Context, kind, path string, snap store.Snapshot, files dashboard.Files) error {
		if strings.TrimSpace(path) == "" {
			k, err := export.ParseKind(kind)
			if err != nil {
				return err
			}
			path = export.DefaultFilename(k, time.Now())
		}
		meta := export.Meta{
			Timestamp:      time.Now(),
			ReplayFile:     files.Replay,
			ValidationFile: files.Validation,
		}
		if session != nil {
			meta.Session = session()
		}
		return export.ToFile(ctx, kind, path, snap, meta)
	}
}
