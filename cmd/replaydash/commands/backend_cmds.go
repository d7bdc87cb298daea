package commands

import (
	"io"
	"strconv"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/replaydash/api"
	"github.com/teranos/replaydash/display"
	"github.com/teranos/replaydash/errors"
	"github.com/teranos/replaydash/frame"
	"github.com/teranos/replaydash/sym"
)

// StatusCmd shows the backend's monitoring summary
var StatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show backend monitoring status",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := backendFor(cmd)
		if err != nil {
			return err
		}
		st, err := client.Status(cmd.Context())
		if err != nil {
			return errors.Wrap(err, "failed to query backend status")
		}
		return display.Render(cmd.OutOrStdout(), display.OutputFormat(cmd), st, func(w io.Writer) error {
			return printStatus(w, client.BaseURL(), st)
		})
	},
}

// FramesCmd lists frames in [start, end)
var FramesCmd = &cobra.Command{
	Use:   "frames",
	Short: "List replay frames in a range",
	Long: `List replay frames (and aligned validation frames) in [start, end).

Examples:
  replaydash frames --start 100 --end 120
  replaydash frames --end 10 --output yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := backendFor(cmd)
		if err != nil {
			return err
		}
		start, _ := cmd.Flags().GetInt("start")
		end, _ := cmd.Flags().GetInt("end")
		if end < 0 {
			st, err := client.Status(cmd.Context())
			if err != nil {
				return errors.Wrap(err, "failed to query frame count")
			}
			end = st.ReplayFramesCount
		}
		fr, err := client.Frames(cmd.Context(), start, end)
		if err != nil {
			return errors.Wrapf(err, "failed to fetch frames %d-%d", start, end)
		}
		return display.Render(cmd.OutOrStdout(), display.OutputFormat(cmd), fr, func(w io.Writer) error {
			return printFrames(w, start, fr)
		})
	},
}

// MismatchesCmd lists detected mismatches
var MismatchesCmd = &cobra.Command{
	Use:   "mismatches",
	Short: "List detected mismatches",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := backendFor(cmd)
		if err != nil {
			return err
		}
		ms, err := client.Mismatches(cmd.Context())
		if err != nil {
			return errors.Wrap(err, "failed to fetch mismatches")
		}
		return display.Render(cmd.OutOrStdout(), display.OutputFormat(cmd), ms, func(w io.Writer) error {
			return printMismatches(w, ms)
		})
	},
}

// MonitorCmd starts or stops directory monitoring
var MonitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Start or stop directory monitoring on the backend",
}

var monitorStartCmd = &cobra.Command{
	Use:   "start [directory]",
	Short: "Start monitoring (the backend's default directory when omitted)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := backendFor(cmd)
		if err != nil {
			return err
		}
		dir := ""
		if len(args) == 1 {
			dir = args[0]
		}
		ack, err := client.StartMonitoring(cmd.Context(), dir)
		if err != nil {
			return errors.Wrap(err, "failed to start monitoring")
		}
		return renderAck(cmd, ack, "Monitoring started")
	},
}

var monitorStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop monitoring",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := backendFor(cmd)
		if err != nil {
			return err
		}
		ack, err := client.StopMonitoring(cmd.Context())
		if err != nil {
			return errors.Wrap(err, "failed to stop monitoring")
		}
		return renderAck(cmd, ack, "Monitoring stopped")
	},
}

// FilesCmd manages the active file pair
var FilesCmd = &cobra.Command{
	Use:   "files",
	Short: "Manage the replay/validation file pair",
}

var filesSetCmd = &cobra.Command{
	Use:   "set <replay-file> [validation-file]",
	Short: "Load a replay file and optional validation file",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := backendFor(cmd)
		if err != nil {
			return err
		}
		validation := ""
		if len(args) == 2 {
			validation = args[1]
		}
		ack, err := client.SetFiles(cmd.Context(), args[0], validation)
		if err != nil {
			return errors.Wrap(err, "failed to set files")
		}
		if monitor, _ := cmd.Flags().GetBool("monitor"); monitor {
			if _, err := client.StartMonitoring(cmd.Context(), ""); err != nil {
				return errors.Wrap(err, "files loaded but monitoring did not start")
			}
		}
		return renderAck(cmd, ack, "Files loaded")
	},
}

func init() {
	FramesCmd.Flags().Int("start", 0, "First frame index (inclusive)")
	FramesCmd.Flags().Int("end", -1, "Last frame index (exclusive); default is the frame count")
	filesSetCmd.Flags().Bool("monitor", false, "Start monitoring after loading")

	for _, c := range []*cobra.Command{StatusCmd, FramesCmd, MismatchesCmd, monitorStartCmd, monitorStopCmd, filesSetCmd} {
		c.Flags().StringP("output", "o", "", "Output format: text, json, yaml")
	}

	MonitorCmd.AddCommand(monitorStartCmd, monitorStopCmd)
	FilesCmd.AddCommand(filesSetCmd)
}

func renderAck(cmd *cobra.Command, ack *api.Ack, done string) error {
	return display.Render(cmd.OutOrStdout(), display.OutputFormat(cmd), ack, func(w io.Writer) error {
		return printAck(w, ack, done)
	})
}

func onOff(b bool) string {
	if b {
		return sym.Monitoring + " on"
	}
	return sym.Idle + " off"
}

func orNone(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func printStatus(w io.Writer, backend string, st *api.Status) error {
	pairs := [][2]string{
		{"Backend", backend},
		{"Monitoring", onOff(st.IsMonitoring)},
		{"Replay frames", strconv.Itoa(st.ReplayFramesCount)},
		{"Mismatches", strconv.Itoa(st.MismatchesCount)},
	}
	if st.ReplayFile != "" || st.ValidationFile != "" {
		pairs = append(pairs,
			[2]string{"Replay file", orNone(st.ReplayFile)},
			[2]string{"Validation file", orNone(st.ValidationFile)},
		)
	}
	return display.KeyValues(w, pairs)
}

func printFrames(w io.Writer, start int, fr *api.FrameRange) error {
	if len(fr.ReplayFrames) == 0 {
		_, err := io.WriteString(w, "No frames in range\n")
		return err
	}
	rows := make([][]string, 0, len(fr.ReplayFrames))
	for i, f := range fr.ReplayFrames {
		var validation *frame.ValidationFrame
		if i < len(fr.ValidationFrames) {
			validation = &fr.ValidationFrames[i]
		}
		rows = append(rows, []string{
			strconv.Itoa(start + i),
			strconv.Itoa(f.Frame),
			strconv.FormatFloat(f.P1Health, 'f', 2, 64),
			strconv.FormatFloat(f.P2Health, 'f', 2, 64),
			strings.Join(frame.ActiveButtons(f.Inputs), " "),
			hashCell(frame.CompareHashes(f, validation)),
		})
	}
	return display.Table(w, []string{"Index", "Frame", "P1 Health", "P2 Health", "Inputs", "Hash"}, rows)
}

func hashCell(cmp frame.HashComparison) string {
	switch cmp.Status {
	case frame.HashMatch:
		return sym.Match + " " + cmp.ReplayHash
	case frame.HashMismatch:
		return sym.Mismatch + " " + cmp.ReplayHash + " / " + cmp.ValidationHash
	default:
		return sym.NoCheck + " " + cmp.ReplayHash
	}
}

func printMismatches(w io.Writer, ms []frame.Mismatch) error {
	if len(ms) == 0 {
		_, err := io.WriteString(w, "No mismatches detected\n")
		return err
	}
	rows := make([][]string, 0, len(ms))
	for _, m := range ms {
		rows = append(rows, []string{strconv.Itoa(m.Index), strconv.Itoa(m.Frame), strings.Join(m.Types, ", ")})
	}
	return display.Table(w, []string{"Index", "Frame", "Types"}, rows)
}

func printAck(w io.Writer, ack *api.Ack, done string) error {
	if _, err := io.WriteString(w, pterm.Success.Sprint(done)); err != nil {
		return err
	}
	var pairs [][2]string
	if ack.ReplayFile != "" {
		pairs = append(pairs, [2]string{"Replay file", ack.ReplayFile})
	}
	if ack.ValidationFile != "" {
		pairs = append(pairs, [2]string{"Validation file", ack.ValidationFile})
	}
	if ack.ReplayFramesCount > 0 {
		pairs = append(pairs, [2]string{"Replay frames", strconv.Itoa(ack.ReplayFramesCount)})
	}
	if ack.MismatchesCount > 0 {
		pairs = append(pairs, [2]string{"Mismatches", strconv.Itoa(ack.MismatchesCount)})
	}
	return display.KeyValues(w, pairs)
}
