package commands

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"atomicgo.dev/keyboard"
	"atomicgo.dev/keyboard/keys"
	"github.com/spf13/cobra"

	"github.com/teranos/replaydash/am"
	"github.com/teranos/replaydash/dashboard"
	"github.com/teranos/replaydash/errors"
	"github.com/teranos/replaydash/logger"
	"github.com/teranos/replaydash/stream"
	"github.com/teranos/replaydash/view"
)

// WatchCmd runs the live dashboard
var WatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Live dashboard for the replay monitoring backend",
	Long: `Connect to the backend, follow frames as they are pushed and browse them.

Keys:
  left/right   step one frame        pgup/pgdn  step ten frames
  home/end     first/last frame      l          follow live frames
  m/n          next/prev mismatch    c          clear mismatches
  r            refresh mismatches    q          quit
  :            type a command (g <idx>, s [dir], f <replay> [validation] [--monitor], x <kind> [path])

With --line-mode every line read from stdin is one command.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	WatchCmd.Flags().Bool("line-mode", false, "Read commands line by line from stdin instead of single keys")
	WatchCmd.Flags().Bool("no-clear", false, "Append each redraw instead of redrawing in place")
	WatchCmd.Flags().Int("width", 0, "Timeline and chart width (0 = terminal width)")
	WatchCmd.Flags().Bool("no-stream", false, "Do not open the push channel; only request/response calls")
	WatchCmd.Flags().Bool("no-reload", false, "Do not watch config files for changes")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	lineMode, _ := cmd.Flags().GetBool("line-mode")
	noClear, _ := cmd.Flags().GetBool("no-clear")
	width, _ := cmd.Flags().GetInt("width")
	noStream, _ := cmd.Flags().GetBool("no-stream")
	noReload, _ := cmd.Flags().GetBool("no-reload")

	log := logger.Named("watch")
	httpClient := newHTTPClient(cfg)
	backend := newAPIClient(cfg, httpClient)

	out := cmd.OutOrStdout()
	if !lineMode {
		// the key reader puts the terminal in raw mode
		out = &crlfWriter{w: out}
	}
	term := view.NewTerminal(out, view.Options{ClearScreen: !noClear, Width: width})

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	var (
		requester dashboard.FrameRequester
		events    <-chan stream.Event
		session   = func() string { return "" }
	)
	if !noStream {
		wsURL, err := stream.URL(cfg.BackendURL(), cfg.Stream.Path)
		if err != nil {
			return err
		}
		client := stream.NewClient(stream.Config{
			Dial:        stream.WebSocketDialer(wsURL, httpClient.DialContext(), cfg.PingInterval(), cfg.PongTimeout()),
			MaxBackoff:  cfg.MaxBackoff(),
			RequestRate: cfg.RequestRate(),
			Logger:      logger.Named("stream"),
		})
		requester, events, session = client, client.Events(), client.Session

		go func() {
			if err := client.Run(ctx); err != nil {
				log.Errorw("Push channel stopped", logger.FieldError, err)
			}
		}()
	}

	ctrl := dashboard.New(dashboard.Config{
		Backend:        backend,
		Requester:      requester,
		Notifier:       term,
		Renderer:       term,
		Export:         exporter(session),
		Logger:         logger.Named("dashboard"),
		RetentionLimit: cfg.Store.MaxFrames,
		MaxPlotted:     cfg.MaxPlotted(),
	})

	if !noReload {
		if w := startConfigWatcher(ctrl); w != nil {
			defer w.Stop()
		}
	}

	commands := make(chan dashboard.Command, 16)
	reportErr := func(err error) { term.Notify(dashboard.LevelError, err.Error()) }
	if lineMode {
		go readLines(ctx, cmd.InOrStdin(), commands, reportErr)
	} else {
		go readKeys(ctx, out, commands, reportErr)
	}

	log.Infow("Dashboard started", "backend", cfg.BackendURL(), "line_mode", lineMode)
	return ctrl.Run(ctx, events, commands)
}

// startConfigWatcher applies display and retention changes without a restart.
func startConfigWatcher(ctrl *dashboard.Controller) *am.ConfigWatcher {
	paths := am.ExistingConfigFiles()
	if len(paths) == 0 {
		return nil
	}
	w, err := am.NewConfigWatcher(paths...)
	if err != nil {
		logger.Warnw("Config hot reload disabled", logger.FieldError, err)
		return nil
	}
	w.OnReload(func(cfg *am.Config) error {
		logger.SetTheme(cfg.GetLogTheme())
		maxPlotted, retention := cfg.MaxPlotted(), cfg.Store.MaxFrames
		ctrl.Post(func() {
			ctrl.SetMaxPlotted(maxPlotted)
			ctrl.SetRetention(retention)
		})
		return nil
	})
	am.SetGlobalWatcher(w)
	w.Start()
	return w
}

// readLines turns each stdin line into a command until EOF.
func readLines(ctx context.Context, r io.Reader, commands chan<- dashboard.Command, reportErr func(error)) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		cmd, err := dashboard.ParseCommand(line)
		if err != nil {
			reportErr(err)
			continue
		}
		select {
		case commands <- cmd:
		case <-ctx.Done():
			return
		}
	}
	if err := scanner.Err(); err != nil {
		reportErr(errors.Wrap(err, "failed to read commands"))
	}
}

// readKeys listens for single key presses until quit or ctx ends. The
// listener only notices ctx on the next key press.
func readKeys(ctx context.Context, echo io.Writer, commands chan<- dashboard.Command, reportErr func(error)) {
	kr := &keyReader{echo: echo}
	err := keyboard.Listen(func(key keys.Key) (bool, error) {
		if ctx.Err() != nil {
			return true, nil
		}
		cmd, ok, err := kr.feed(key)
		if err != nil {
			reportErr(err)
			return false, nil
		}
		if !ok {
			return false, nil
		}
		select {
		case commands <- cmd:
		case <-ctx.Done():
			return true, nil
		}
		return cmd.Kind == dashboard.CmdQuit, nil
	})
	if err != nil {
		reportErr(errors.WithHint(
			errors.Wrap(err, "keyboard input unavailable"),
			"use --line-mode when stdin is not a terminal",
		))
	}
}

// keyReader maps key presses to commands. ':' opens a command line that is
// parsed like --line-mode input when Enter is pressed.
type keyReader struct {
	echo   io.Writer
	typing bool
	line   []rune
}

func (kr *keyReader) feed(key keys.Key) (dashboard.Command, bool, error) {
	if key.Code == keys.CtrlC {
		kr.typing, kr.line = false, nil
		return dashboard.Command{Kind: dashboard.CmdQuit}, true, nil
	}
	if kr.typing {
		return kr.feedLine(key)
	}

	name := keyName(key)
	if name == ":" {
		kr.typing, kr.line = true, nil
		kr.prompt()
		return dashboard.Command{}, false, nil
	}
	cmd, ok := dashboard.KeyCommand(name)
	return cmd, ok, nil
}

func (kr *keyReader) feedLine(key keys.Key) (dashboard.Command, bool, error) {
	switch key.Code {
	case keys.Enter:
		line := strings.TrimSpace(string(kr.line))
		kr.typing, kr.line = false, nil
		kr.prompt()
		if line == "" {
			return dashboard.Command{}, false, nil
		}
		cmd, err := dashboard.ParseCommand(line)
		if err != nil {
			return dashboard.Command{}, false, err
		}
		return cmd, true, nil
	case keys.Backspace:
		if len(kr.line) > 0 {
			kr.line = kr.line[:len(kr.line)-1]
		} else {
			kr.typing = false
		}
	case keys.Space:
		kr.line = append(kr.line, ' ')
	case keys.RuneKey:
		kr.line = append(kr.line, key.Runes...)
	}
	kr.prompt()
	return dashboard.Command{}, false, nil
}

// prompt redraws the command line on the last terminal row.
func (kr *keyReader) prompt() {
	if kr.echo == nil {
		return
	}
	if kr.typing {
		fmt.Fprintf(kr.echo, "\r\x1b[K:%s", string(kr.line))
		return
	}
	fmt.Fprint(kr.echo, "\r\x1b[K")
}

// keyName translates a key press into the names KeyCommand understands.
func keyName(key keys.Key) string {
	switch key.Code {
	case keys.Left:
		return "left"
	case keys.Right:
		return "right"
	case keys.PgUp:
		return "pgup"
	case keys.PgDown:
		return "pgdn"
	case keys.Home:
		return "home"
	case keys.End:
		return "end"
	case keys.RuneKey:
		return string(key.Runes)
	}
	return ""
}

// crlfWriter translates "\n" to "\r\n" for terminals in raw mode.
type crlfWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (c *crlfWriter) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.w.Write(bytes.ReplaceAll(p, []byte("\n"), []byte("\r\n"))); err != nil {
		return 0, err
	}
	return len(p), nil
}
