package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/teranos/replaydash/am"
	"github.com/teranos/replaydash/cmd/replaydash/commands"
	"github.com/teranos/replaydash/errors"
	"github.com/teranos/replaydash/logger"
)

var rootCmd = &cobra.Command{
	Use:   "replaydash",
	Short: "replaydash - live replay/validation monitoring dashboard",
	Long: `replaydash - live replay/validation monitoring dashboard.

replaydash connects to a replay monitoring backend, follows replay and
validation frames as they are produced, and shows where the two diverge.

Available commands:
  watch      - Interactive live dashboard
  status     - Show backend monitoring status
  frames     - List frames in a range
  mismatches - List detected mismatches
  monitor    - Start or stop directory monitoring
  files      - Choose the replay/validation file pair
  export     - Export frames and mismatches to a file
  am         - Manage replaydash configuration ("I am")

Examples:
  replaydash watch                          # Follow the backend live
  replaydash watch --backend http://box:5000
  replaydash files set run.jsonl ref.jsonl  # Switch file pair
  replaydash export sqlite replay.db        # Snapshot into SQLite
  replaydash am show                        # Show current configuration`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbosity, _ := cmd.Flags().GetCount("verbose")
		jsonLogs, _ := cmd.Flags().GetBool("log-json")

		// The dashboard owns the terminal, so its logs go to a file
		if logFile, _ := cmd.Flags().GetString("log-file"); logFile != "" {
			if err := logger.InitializeToFile(logFile, jsonLogs, verbosity); err != nil {
				return errors.Wrap(err, "failed to initialize logger")
			}
		} else if err := logger.Initialize(jsonLogs, verbosity); err != nil {
			return errors.Wrap(err, "failed to initialize logger")
		}

		if cfg, err := am.Load(); err == nil {
			logger.SetTheme(cfg.GetLogTheme())
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv, -vvv)")
	rootCmd.PersistentFlags().Bool("json", false, "Output results as JSON")
	rootCmd.PersistentFlags().String("backend", "", "Backend base URL (overrides backend.url)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Write logs as JSON")
	rootCmd.PersistentFlags().String("log-file", "", "Write logs to this file instead of stderr")

	rootCmd.AddCommand(commands.WatchCmd)
	rootCmd.AddCommand(commands.StatusCmd)
	rootCmd.AddCommand(commands.FramesCmd)
	rootCmd.AddCommand(commands.MismatchesCmd)
	rootCmd.AddCommand(commands.MonitorCmd)
	rootCmd.AddCommand(commands.FilesCmd)
	rootCmd.AddCommand(commands.ExportCmd)
	rootCmd.AddCommand(commands.AmCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	logger.Cleanup()

	if err != nil {
		fmt.Fprintln(os.Stderr, commands.FormatError(err))
		os.Exit(1)
	}
}
