package commands

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/pelletier/go-toml/v2"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/replaydash/am"
	"github.com/teranos/replaydash/display"
	"github.com/teranos/replaydash/errors"
)

// AmCmd represents the am (configuration) command
var AmCmd = &cobra.Command{
	Use:   "am",
	Short: "Manage replaydash configuration",
	Long: `am - Manage replaydash configuration ("I am")

Configuration sources (in order of precedence):
1. Command line flags (--backend)
2. Environment variables (REPLAYDASH_* prefix, e.g. REPLAYDASH_BACKEND_URL)
3. Project config (./replaydash.toml, searched upwards)
4. User config (~/.replaydash/am.toml)
5. System config (/etc/replaydash/config.toml)
6. Default values

Examples:
  replaydash am show                         # Show current configuration
  replaydash am show --format yaml           # Show configuration as YAML
  replaydash am get stream.path              # Get a specific value
  replaydash am set store.max_frames 50000   # Persist to ~/.replaydash/am.toml
  replaydash am where                        # Show where each value comes from
  replaydash am validate                     # Validate current configuration`,
}

var amShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Args:  cobra.NoArgs,
	RunE:  runAmShow,
}

var amGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a specific configuration value",
	Long:  "Get a specific configuration value using dot notation (e.g., backend.url, display.max_plotted_frames)",
	Args:  cobra.ExactArgs(1),
	RunE:  runAmGet,
}

var amSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a value in the user configuration file",
	Long: `Write key = value into ~/.replaydash/am.toml. The previous file is kept
as a rotating backup (.back1, .back2, .back3). A running 'replaydash watch'
picks up display and store changes without restarting.`,
	Args: cobra.ExactArgs(2),
	RunE: runAmSet,
}

var amValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate current configuration",
	Args:  cobra.NoArgs,
	RunE:  runAmValidate,
}

var amWhereCmd = &cobra.Command{
	Use:   "where",
	Short: "Show where configuration is loaded from",
	Args:  cobra.NoArgs,
	RunE:  runAmWhere,
}

var configFormat string

func init() {
	amShowCmd.Flags().StringVar(&configFormat, "format", "toml", "Output format: toml, json, yaml")

	AmCmd.AddCommand(amShowCmd)
	AmCmd.AddCommand(amGetCmd)
	AmCmd.AddCommand(amSetCmd)
	AmCmd.AddCommand(amValidateCmd)
	AmCmd.AddCommand(amWhereCmd)
}

func runAmShow(cmd *cobra.Command, args []string) error {
	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	format := configFormat
	if display.ShouldOutputJSON(cmd) {
		format = "json"
	}
	return writeConfig(cmd.OutOrStdout(), cfg, format)
}

func writeConfig(w io.Writer, cfg *am.Config, format string) error {
	switch format {
	case "json":
		return display.Encode(w, display.FormatJSON, cfg)
	case "yaml":
		fmt.Fprintln(w, "# replaydash configuration")
		return display.Encode(w, display.FormatYAML, cfg)
	case "toml":
		data, err := toml.Marshal(cfg)
		if err != nil {
			return errors.Wrap(err, "failed to marshal config to TOML")
		}
		_, err = fmt.Fprintf(w, "# replaydash configuration\n%s", data)
		return err
	default:
		return errors.NewInvalidRequestError("unsupported format: %s (supported: toml, json, yaml)", format)
	}
}

func runAmGet(cmd *cobra.Command, args []string) error {
	key := args[0]
	v := am.GetViper()
	if !v.IsSet(key) {
		return errors.WithHint(
			errors.Newf("configuration key %q not found", key),
			"run 'replaydash am show' to list keys",
		)
	}
	fmt.Fprintln(cmd.OutOrStdout(), v.Get(key))
	return nil
}

func runAmSet(cmd *cobra.Command, args []string) error {
	path, err := am.Set(args[0], args[1])
	if err != nil {
		return err
	}
	pterm.Success.Printfln("%s = %s written to %s", args[0], args[1], path)
	return nil
}

func runAmValidate(cmd *cobra.Command, args []string) error {
	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "configuration validation failed")
	}
	pterm.Success.Println("Configuration is valid")
	return nil
}

func runAmWhere(cmd *cobra.Command, args []string) error {
	intro, err := am.GetConfigIntrospection()
	if err != nil {
		return errors.Wrap(err, "failed to get config introspection")
	}
	if display.ShouldOutputJSON(cmd) {
		return display.OutputJSON(intro)
	}
	return printWhere(cmd.OutOrStdout(), intro, am.ConfigFiles())
}

func printWhere(w io.Writer, intro *am.ConfigIntrospection, cascade []am.ConfigFile) error {
	fmt.Fprintln(w, "Configuration cascade (later overrides earlier):")
	fmt.Fprintln(w, "  1. [DEFAULT]  Built-in defaults")
	for i, f := range cascade {
		state := "missing"
		if _, err := os.Stat(f.Path); err == nil {
			state = "found"
		}
		fmt.Fprintf(w, "  %d. [%s] %s (%s)\n", i+2, f.Source, f.Path, state)
	}
	fmt.Fprintf(w, "  %d. [ENV]      %s_* environment variables\n\n", len(cascade)+2, am.EnvPrefix)

	settings := append([]am.SettingInfo(nil), intro.Settings...)
	sort.SliceStable(settings, func(i, j int) bool { return settings[i].Key < settings[j].Key })

	rows := make([][]string, 0, len(settings))
	for _, s := range settings {
		rows = append(rows, []string{s.Key, fmt.Sprint(s.Value), string(s.Source), s.SourcePath})
	}
	return display.Table(w, []string{"Key", "Value", "Source", "From"}, rows)
}
