package dashboard

import (
	"context"
	"fmt"

	"github.com/teranos/replaydash/api"
	"github.com/teranos/replaydash/frame"
	"github.com/teranos/replaydash/logger"
	"github.com/teranos/replaydash/store"
)

// initialData is the result of the bulk fetch after a status query.
type initialData struct {
	frames     *api.FrameRange
	mismatches []frame.Mismatch
}

// FetchInitialData loads status, then every frame and mismatch the backend
// holds, and lands on the first mismatch (or frame 0). Frames pushed while
// the load is in flight survive it.
func (c *Controller) FetchInitialData() {
	if c.backend == nil {
		return
	}
	async(c, "status", c.backend.Status, func(st *api.Status) {
		c.applyStatus(st)
		if st.ReplayFramesCount <= 0 {
			return
		}
		count := st.ReplayFramesCount
		async(c, "initial frames", func(ctx context.Context) (initialData, error) {
			frames, err := c.backend.Frames(ctx, 0, count)
			if err != nil {
				return initialData{}, err
			}
			mismatches, err := c.backend.Mismatches(ctx)
			if err != nil {
				return initialData{}, err
			}
			return initialData{frames: frames, mismatches: mismatches}, nil
		}, func(d initialData) {
			replay, validation, mismatches := pushedBeyond(c.store.Snapshot(), d)
			c.store.ReplaceAll(d.frames.ReplayFrames, d.frames.ValidationFrames, d.mismatches)
			c.store.AppendReplayFrames(replay)
			c.store.AppendValidationFrames(validation)
			c.store.AppendMismatches(mismatches)
			c.logger.Infow("Loaded initial data",
				logger.FieldFrames, c.store.FrameCount(),
				logger.FieldCount, c.store.MismatchCount(),
			)
			if ms := c.store.Mismatches(); len(ms) > 0 && c.store.NavigateTo(ms[0].Index) {
				return
			}
			c.store.NavigateTo(0)
		})
	})
}

// pushedBeyond picks out what the push channel delivered while the bulk
// load was in flight and the load does not cover: frames numbered past the
// last loaded one and mismatches the query did not return.
func pushedBeyond(held store.Snapshot, d initialData) ([]frame.ReplayFrame, []frame.ValidationFrame, []frame.Mismatch) {
	replay := framesAfter(held.Replay, d.frames.ReplayFrames)
	validation := framesAfter(held.Validation, d.frames.ValidationFrames)

	known := make(map[int]bool, len(d.mismatches))
	for _, m := range d.mismatches {
		known[m.Index] = true
	}
	var mismatches []frame.Mismatch
	for _, m := range held.Mismatches {
		m.Index += held.Base
		if !known[m.Index] {
			mismatches = append(mismatches, m)
		}
	}
	return replay, validation, mismatches
}

func framesAfter(held, loaded []frame.ReplayFrame) []frame.ReplayFrame {
	if len(loaded) == 0 {
		return held
	}
	last := loaded[len(loaded)-1].Frame
	var out []frame.ReplayFrame
	for _, f := range held {
		if f.Frame > last {
			out = append(out, f)
		}
	}
	return out
}

func (c *Controller) refreshStatus() {
	if c.backend == nil {
		return
	}
	async(c, "status", c.backend.Status, c.applyStatus)
}

func (c *Controller) applyStatus(st *api.Status) {
	c.monitoring = st.IsMonitoring
	if st.ReplayFile != "" || st.ValidationFile != "" {
		c.files = Files{Replay: st.ReplayFile, Validation: st.ValidationFile}
	}
	c.dirty = true
}

// ToggleMonitoring stops monitoring when it runs, otherwise starts it on
// directory ("" lets the backend choose).
func (c *Controller) ToggleMonitoring(directory string) {
	if c.backend == nil {
		return
	}
	if c.monitoring {
		async(c, "stop monitoring", c.backend.StopMonitoring, func(*api.Ack) {
			c.monitoring = false
			c.dirty = true
			c.notify(LevelInfo, "Monitoring stopped")
		})
		return
	}
	c.startMonitoring(directory, nil)
}

// startMonitoring runs next after a successful start, if given.
func (c *Controller) startMonitoring(directory string, next func()) {
	async(c, "start monitoring", func(ctx context.Context) (*api.Ack, error) {
		return c.backend.StartMonitoring(ctx, directory)
	}, func(*api.Ack) {
		c.monitoring = true
		c.dirty = true
		c.logger.Infow("Monitoring started", logger.FieldDirectory, directory)
		c.notify(LevelInfo, "Monitoring started")
		if next != nil {
			next()
		}
	})
}

// SetFiles switches the backend to a new file pair. On success the store is
// reset and refilled; on failure nothing changes.
func (c *Controller) SetFiles(replayFile, validationFile string, startMonitoring bool) {
	if replayFile == "" && validationFile == "" {
		c.notify(LevelError, "Please provide at least one file path")
		return
	}
	if c.backend == nil {
		return
	}
	async(c, "set files", func(ctx context.Context) (*api.Ack, error) {
		return c.backend.SetFiles(ctx, replayFile, validationFile)
	}, func(*api.Ack) {
		c.logger.Infow("Active files changed",
			logger.FieldReplayFile, replayFile,
			logger.FieldValidationFile, validationFile,
		)
		c.store.ResetAll()
		c.files = Files{Replay: replayFile, Validation: validationFile}
		// The backend stops monitoring when the file set changes
		c.monitoring = false
		c.notify(LevelInfo, fmt.Sprintf("Loaded %s", describeFiles(c.files)))
		if startMonitoring {
			c.startMonitoring("", c.FetchInitialData)
			return
		}
		c.FetchInitialData()
	})
}

// RefreshMismatches re-reads the mismatch list from the backend.
func (c *Controller) RefreshMismatches() {
	if c.backend == nil {
		return
	}
	async(c, "refresh mismatches", c.backend.Mismatches, func(ms []frame.Mismatch) {
		c.store.ReplaceMismatches(ms)
	})
}

// ClearMismatches empties the local mismatch list.
func (c *Controller) ClearMismatches() {
	c.store.ClearMismatches()
}

// Export writes the current store contents to path; an empty path lets
// the exporter pick a default name. The snapshot is taken on the loop and
// written off it.
func (c *Controller) Export(kind, path string) {
	if c.export == nil {
		c.notify(LevelError, "export is not available")
		return
	}
	snap := c.store.Snapshot()
	files := c.files
	async(c, "export "+kind, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, c.export(ctx, kind, path, snap, files)
	}, func(struct{}) {
		if path == "" {
			c.notify(LevelInfo, fmt.Sprintf("Exported %s", kind))
			return
		}
		c.notify(LevelInfo, fmt.Sprintf("Exported %s to %s", kind, path))
	})
}

// Execute applies one user command.
func (c *Controller) Execute(cmd Command) {
	switch cmd.Kind {
	case CmdStep:
		c.store.Step(cmd.Delta)
	case CmdFirst:
		c.store.First()
	case CmdLast:
		c.store.Last()
	case CmdNextMismatch:
		c.store.NextMismatch()
	case CmdPrevMismatch:
		c.store.PrevMismatch()
	case CmdGoLive:
		c.store.GoLive()
		c.dirty = true
	case CmdGoto:
		if !c.store.NavigateTo(cmd.Index) {
			lo, hi := c.store.SliderRange()
			c.notify(LevelWarn, fmt.Sprintf("frame index %d out of range [%d, %d]", cmd.Index, lo, hi))
		}
	case CmdClearMismatches:
		c.ClearMismatches()
	case CmdRefresh:
		c.RefreshMismatches()
	case CmdToggleMonitoring:
		dir := ""
		if len(cmd.Args) > 0 {
			dir = cmd.Args[0]
		}
		c.ToggleMonitoring(dir)
	case CmdSetFiles:
		var replay, validation string
		if len(cmd.Args) > 0 {
			replay = cmd.Args[0]
		}
		if len(cmd.Args) > 1 {
			validation = cmd.Args[1]
		}
		c.SetFiles(replay, validation, cmd.Monitor)
	case CmdExport:
		switch len(cmd.Args) {
		case 1:
			c.Export(cmd.Args[0], "")
		case 2:
			c.Export(cmd.Args[0], cmd.Args[1])
		}
	case CmdQuit:
		c.quit = true
	}
}

func describeFiles(f Files) string {
	switch {
	case f.Replay != "" && f.Validation != "":
		return f.Replay + " and " + f.Validation
	case f.Replay != "":
		return f.Replay
	default:
		return f.Validation
	}
}
