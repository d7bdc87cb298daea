package commands

import (
	"context"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/replaydash/am"
	"github.com/teranos/replaydash/api"
	"github.com/teranos/replaydash/errors"
	"github.com/teranos/replaydash/internal/httpclient"
	"github.com/teranos/replaydash/logger"
	"github.com/teranos/replaydash/store"
)

// loadConfig loads and validates configuration, applying --backend.
func loadConfig(cmd *cobra.Command) (*am.Config, error) {
	loaded, err := am.Load()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load config")
	}
	cfg := *loaded
	if backend, _ := cmd.Flags().GetString("backend"); backend != "" {
		cfg.Backend.URL = backend
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.WithHint(
			errors.Wrap(err, "configuration validation failed"),
			"run 'replaydash am validate' for details",
		)
	}
	return &cfg, nil
}

func newHTTPClient(cfg *am.Config) *httpclient.Client {
	return httpclient.New(httpclient.Options{
		Timeout:        cfg.RequestTimeout(),
		BlockPrivateIP: cfg.Backend.BlockPrivateIP,
	})
}

func newAPIClient(cfg *am.Config, httpClient *httpclient.Client) *api.Client {
	return api.NewClient(api.Config{
		BaseURL:    cfg.BackendURL(),
		HTTPClient: httpClient,
		Logger:     logger.Named("api"),
	})
}

// backendFor is the common preamble of the one-shot commands.
func backendFor(cmd *cobra.Command) (*api.Client, *am.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	return newAPIClient(cfg, newHTTPClient(cfg)), cfg, nil
}

// fetchSnapshot pulls everything the backend holds into a store snapshot.
func fetchSnapshot(ctx context.Context, client *api.Client) (store.Snapshot, *api.Status, error) {
	st, err := client.Status(ctx)
	if err != nil {
		return store.Snapshot{}, nil, err
	}
	s := store.New(nil)
	if st.ReplayFramesCount > 0 {
		frames, err := client.Frames(ctx, 0, st.ReplayFramesCount)
		if err != nil {
			return store.Snapshot{}, nil, err
		}
		mismatches, err := client.Mismatches(ctx)
		if err != nil {
			return store.Snapshot{}, nil, err
		}
		s.ReplaceAll(frames.ReplayFrames, frames.ValidationFrames, mismatches)
	}
	return s.Snapshot(), st, nil
}

// FormatError renders a command error for the terminal: backend-reported
// messages verbatim, otherwise the message plus any hints.
func FormatError(err error) string {
	if errors.IsServerReported(err) {
		return pterm.Error.Sprint(errors.UnwrapAll(err).Error())
	}
	var b strings.Builder
	b.WriteString(pterm.Error.Sprint(err.Error()))
	for _, hint := range errors.GetAllHints(err) {
		b.WriteString("\n")
		b.WriteString(pterm.Info.Sprint(hint))
	}
	return strings.TrimRight(b.String(), "\n")
}
