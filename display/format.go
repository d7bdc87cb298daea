// Package display renders command results for people (pterm tables) and
// for scripts (JSON or YAML).
package display

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teranos/replaydash/errors"
)

// Format is an output encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// EnvOutput overrides the default format when no flag is given.
const EnvOutput = "REPLAYDASH_OUTPUT"

// ParseFormat accepts text, json or yaml (yml is an alias).
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "table":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", errors.WithHint(
		errors.NewInvalidRequestError("unknown output format %q", s),
		"use text, json or yaml",
	)
}

// OutputFormat determines how a command should print its result: an explicit
// --output flag wins, then --json, then $REPLAYDASH_OUTPUT.
func OutputFormat(cmd *cobra.Command) Format {
	if cmd != nil {
		if f := cmd.Flags().Lookup("output"); f != nil && f.Changed {
			if format, err := ParseFormat(f.Value.String()); err == nil {
				return format
			}
		}
		if cmd.Flags().Changed("json") {
			if jsonFlag, _ := cmd.Flags().GetBool("json"); jsonFlag {
				return FormatJSON
			}
			return FormatText
		}
		if globalFlag, _ := cmd.Root().PersistentFlags().GetBool("json"); globalFlag {
			return FormatJSON
		}
	}
	if format, err := ParseFormat(os.Getenv(EnvOutput)); err == nil {
		return format
	}
	return FormatText
}

// ShouldOutputJSON reports whether cmd should print JSON.
func ShouldOutputJSON(cmd *cobra.Command) bool {
	return OutputFormat(cmd) == FormatJSON
}
