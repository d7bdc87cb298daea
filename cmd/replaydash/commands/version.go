package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/teranos/replaydash/display"
	"github.com/teranos/replaydash/version"
)

// VersionCmd represents the version command
var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show replaydash version information",
	Long:  `Display version, build time, commit hash, and platform information for the replaydash binary.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		info := version.Get()
		return display.Render(cmd.OutOrStdout(), display.OutputFormat(cmd), info, func(w io.Writer) error {
			_, err := fmt.Fprintf(w, "%s\nPlatform: %s\nGo: %s\n", info.String(), info.Platform, info.GoVersion)
			return err
		})
	},
}
