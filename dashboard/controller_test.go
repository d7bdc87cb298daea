package dashboard

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/replaydash/api"
	"github.com/teranos/replaydash/errors"
	"github.com/teranos/replaydash/frame"
	"github.com/teranos/replaydash/store"
	"github.com/teranos/replaydash/stream"
)

type fakeBackend struct {
	mu         sync.Mutex
	status     api.Status
	frames     api.FrameRange
	mismatches []frame.Mismatch
	setErr     error
	startErr   error
	calls      []string
	lastDir    string
	lastFiles  [2]string
}

func (b *fakeBackend) record(call string) {
	b.mu.Lock()
	b.calls = append(b.calls, call)
	b.mu.Unlock()
}

func (b *fakeBackend) called() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.calls...)
}

func (b *fakeBackend) Status(ctx context.Context) (*api.Status, error) {
	b.record("status")
	st := b.status
	return &st, nil
}

func (b *fakeBackend) Frames(ctx context.Context, start, end int) (*api.FrameRange, error) {
	b.record("frames")
	fr := b.frames
	return &fr, nil
}

func (b *fakeBackend) Mismatches(ctx context.Context) ([]frame.Mismatch, error) {
	b.record("mismatches")
	return b.mismatches, nil
}

func (b *fakeBackend) StartMonitoring(ctx context.Context, directory string) (*api.Ack, error) {
	b.record("start")
	b.mu.Lock()
	b.lastDir = directory
	b.mu.Unlock()
	if b.startErr != nil {
		return nil, b.startErr
	}
	return &api.Ack{Status: "monitoring_started"}, nil
}

func (b *fakeBackend) StopMonitoring(ctx context.Context) (*api.Ack, error) {
	b.record("stop")
	return &api.Ack{Status: "monitoring_stopped"}, nil
}

func (b *fakeBackend) SetFiles(ctx context.Context, replayFile, validationFile string) (*api.Ack, error) {
	b.record("set_files")
	b.mu.Lock()
	b.lastFiles = [2]string{replayFile, validationFile}
	b.mu.Unlock()
	if b.setErr != nil {
		return nil, b.setErr
	}
	return &api.Ack{ReplayFile: replayFile}, nil
}

type sentRequest struct {
	idx int
	seq uint64
}

type fakeRequester struct {
	mu       sync.Mutex
	sent     []sentRequest
	throttle int // number of upcoming requests to refuse
	err      error
}

func (r *fakeRequester) RequestFrame(frameIdx int, seq uint64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return false, r.err
	}
	if r.throttle > 0 {
		r.throttle--
		return false, nil
	}
	r.sent = append(r.sent, sentRequest{frameIdx, seq})
	return true, nil
}

func (r *fakeRequester) ThrottleInterval() time.Duration { return time.Millisecond }

func (r *fakeRequester) last() sentRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.sent) == 0 {
		return sentRequest{-1, 0}
	}
	return r.sent[len(r.sent)-1]
}

type note struct {
	level   Level
	message string
}

type fakeNotifier struct {
	notes []note
}

func (n *fakeNotifier) Notify(level Level, message string) {
	n.notes = append(n.notes, note{level, message})
}

func (n *fakeNotifier) messages() []string {
	out := make([]string, len(n.notes))
	for i, nt := range n.notes {
		out[i] = nt.message
	}
	return out
}

type fakeRenderer struct {
	mu     sync.Mutex
	states []State
}

func (r *fakeRenderer) Render(state State) {
	r.mu.Lock()
	r.states = append(r.states, state)
	r.mu.Unlock()
}

func (r *fakeRenderer) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.states)
}

type harness struct {
	c         *Controller
	backend   *fakeBackend
	requester *fakeRequester
	notifier  *fakeNotifier
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		backend:   &fakeBackend{},
		requester: &fakeRequester{},
		notifier:  &fakeNotifier{},
	}
	h.c = New(Config{
		Backend:   h.backend,
		Requester: h.requester,
		Notifier:  h.notifier,
	})
	return h
}

// step runs the next posted continuation on the test goroutine, which
// plays the part of the loop.
func (h *harness) step(t *testing.T) {
	t.Helper()
	select {
	case fn := <-h.c.inbox:
		fn()
	case <-time.After(2 * time.Second):
		t.Fatal("no continuation posted")
	}
}

func replayFrames(n int) []frame.ReplayFrame {
	out := make([]frame.ReplayFrame, n)
	for i := range out {
		out[i] = frame.ReplayFrame{Frame: 100 + i, StateHash: "h"}
	}
	return out
}

func (h *harness) preload(n int) {
	h.c.HandleEvent(stream.Event{Kind: stream.ReplayFrames, ReplayFrames: replayFrames(n)})
}

func u64(v uint64) *uint64 { return &v }
func intp(v int) *int      { return &v }

func TestFetchInitialDataLandsOnFirstMismatch(t *testing.T) {
	h := newHarness(t)
	h.backend.status = api.Status{IsMonitoring: true, ReplayFramesCount: 3, MismatchesCount: 1}
	h.backend.frames = api.FrameRange{ReplayFrames: replayFrames(3), ValidationFrames: replayFrames(2)}
	h.backend.mismatches = []frame.Mismatch{{Index: 1, Frame: 101, Types: []string{"state_hash"}}}

	h.c.FetchInitialData()
	h.step(t) // status
	assert.True(t, h.c.State().Monitoring)
	h.step(t) // frames + mismatches

	s := h.c.Store()
	assert.Equal(t, 3, s.FrameCount())
	assert.Equal(t, 2, s.ValidationCount())
	assert.Equal(t, 1, s.MismatchCount())
	assert.Equal(t, store.ViewState{CurrentFrameIdx: 1, IsLive: false}, s.View())
	assert.Equal(t, []string{"status", "frames", "mismatches"}, h.backend.called())
	assert.Equal(t, 1, h.requester.last().idx)
}

func TestFetchInitialDataWithoutMismatchesLandsOnFirstFrame(t *testing.T) {
	h := newHarness(t)
	h.backend.status = api.Status{ReplayFramesCount: 4}
	h.backend.frames = api.FrameRange{ReplayFrames: replayFrames(4)}

	h.c.FetchInitialData()
	h.step(t)
	h.step(t)

	assert.Equal(t, 0, h.c.Store().View().CurrentFrameIdx)
	assert.Equal(t, 4, h.c.Store().FrameCount())
}

func TestFetchInitialDataKeepsFramesPushedDuringLoad(t *testing.T) {
	h := newHarness(t)
	h.backend.status = api.Status{ReplayFramesCount: 3}
	h.backend.frames = api.FrameRange{ReplayFrames: replayFrames(3), ValidationFrames: replayFrames(3)}
	h.backend.mismatches = []frame.Mismatch{{Index: 1, Frame: 101, Types: []string{"state_hash"}}}

	h.c.FetchInitialData()
	h.step(t) // status

	// The push channel overlaps the bulk range and runs past it
	pushed := []frame.ReplayFrame{{Frame: 102, StateHash: "h"}, {Frame: 103, StateHash: "h"}, {Frame: 104, StateHash: "h"}}
	h.c.HandleEvent(stream.Event{Kind: stream.ReplayFrames, ReplayFrames: pushed})
	h.c.HandleEvent(stream.Event{Kind: stream.ValidationFrames, ValidationFrames: pushed[:2]})
	h.c.HandleEvent(stream.Event{Kind: stream.Mismatches, Mismatches: []frame.Mismatch{
		{Index: 1, Frame: 101, Types: []string{"state_hash"}},
		{Index: 4, Frame: 104, Types: []string{"p1_x"}},
	}})

	h.step(t) // frames + mismatches

	s := h.c.Store()
	require.Equal(t, 5, s.FrameCount())
	for i := 0; i < 5; i++ {
		f, ok := s.ReplayFrame(i)
		require.True(t, ok)
		assert.Equal(t, 100+i, f.Frame)
	}
	assert.Equal(t, 4, s.ValidationCount())
	ms := s.Mismatches()
	require.Len(t, ms, 2)
	assert.Equal(t, 1, ms[0].Index)
	assert.Equal(t, 4, ms[1].Index)
	assert.Equal(t, 1, s.View().CurrentFrameIdx, "still lands on the first mismatch")
}

func TestPushedBeyondSkipsFramesInBulkRange(t *testing.T) {
	held := store.Snapshot{Replay: replayFrames(2)}
	d := initialData{frames: &api.FrameRange{ReplayFrames: replayFrames(3)}}

	replay, validation, mismatches := pushedBeyond(held, d)

	assert.Empty(t, replay, "frames already in the bulk range are not appended twice")
	assert.Empty(t, validation)
	assert.Empty(t, mismatches)
}

func TestFetchInitialDataEmptyBackend(t *testing.T) {
	h := newHarness(t)

	h.c.FetchInitialData()
	h.step(t)

	assert.Equal(t, []string{"status"}, h.backend.called())
	assert.Equal(t, 0, h.c.Store().FrameCount())
}

func TestSetFilesRejectsEmptyPaths(t *testing.T) {
	h := newHarness(t)

	h.c.SetFiles("", "", false)

	assert.Equal(t, []string{"Please provide at least one file path"}, h.notifier.messages())
	assert.Empty(t, h.backend.called())
}

func TestSetFilesFailureKeepsState(t *testing.T) {
	h := newHarness(t)
	h.preload(5)
	h.c.HandleEvent(stream.Event{Kind: stream.Mismatches, Mismatches: []frame.Mismatch{{Index: 2, Frame: 102}}})
	h.backend.setErr = errors.NewServerError("Invalid replay file")
	before := h.c.Store().View()

	h.c.SetFiles("missing.jsonl", "", true)
	h.step(t)

	assert.Equal(t, 5, h.c.Store().FrameCount())
	assert.Equal(t, 1, h.c.Store().MismatchCount())
	assert.Equal(t, before, h.c.Store().View())
	require.NotEmpty(t, h.notifier.notes)
	lastNote := h.notifier.notes[len(h.notifier.notes)-1]
	assert.Equal(t, LevelError, lastNote.level)
	assert.Equal(t, "Error: Invalid replay file", lastNote.message)
	assert.NotContains(t, h.backend.called(), "start")
}

func TestSetFilesSuccessResetsAndRefetches(t *testing.T) {
	h := newHarness(t)
	h.preload(5)
	h.backend.status = api.Status{IsMonitoring: true, ReplayFramesCount: 2}
	h.backend.frames = api.FrameRange{ReplayFrames: replayFrames(2)}

	h.c.SetFiles("r.jsonl", "v.jsonl", true)
	h.step(t) // set_files

	assert.Equal(t, 0, h.c.Store().FrameCount())
	assert.Equal(t, Files{Replay: "r.jsonl", Validation: "v.jsonl"}, h.c.State().Files)
	assert.Equal(t, [2]string{"r.jsonl", "v.jsonl"}, h.backend.lastFiles)

	h.step(t) // start monitoring
	h.step(t) // status
	h.step(t) // frames + mismatches
	assert.Equal(t, []string{"set_files", "start", "status", "frames", "mismatches"}, h.backend.called())
	assert.True(t, h.c.State().Monitoring)
	assert.Equal(t, 2, h.c.Store().FrameCount())
}

func TestSetFilesWithoutMonitoring(t *testing.T) {
	h := newHarness(t)

	h.c.Execute(Command{Kind: CmdSetFiles, Args: []string{"r.jsonl"}})
	h.step(t)
	h.step(t)

	assert.Equal(t, []string{"set_files", "status"}, h.backend.called())
	assert.False(t, h.c.State().Monitoring)
}

func TestToggleMonitoring(t *testing.T) {
	h := newHarness(t)

	h.c.ToggleMonitoring("/data/replays")
	h.step(t)
	assert.True(t, h.c.State().Monitoring)
	assert.Equal(t, "/data/replays", h.backend.lastDir)

	h.c.ToggleMonitoring("")
	h.step(t)
	assert.False(t, h.c.State().Monitoring)
	assert.Equal(t, []string{"start", "stop"}, h.backend.called())
}

func TestToggleMonitoringFailureKeepsIndicator(t *testing.T) {
	h := newHarness(t)
	h.backend.startErr = errors.Mark(errors.New("connection refused"), errors.ErrServiceUnavailable)

	h.c.ToggleMonitoring("")
	h.step(t)

	assert.False(t, h.c.State().Monitoring)
	require.Len(t, h.notifier.notes, 1)
	assert.Equal(t, LevelError, h.notifier.notes[0].level)
}

func TestLiveFollowRequestsNewestFrame(t *testing.T) {
	h := newHarness(t)

	h.preload(3)
	assert.Equal(t, sentRequest{2, 1}, h.requester.last())
	assert.True(t, h.c.Store().View().IsLive)

	h.preload(2)
	assert.Equal(t, sentRequest{4, 2}, h.requester.last())
	assert.True(t, h.c.Store().View().IsLive)
}

func TestNewMismatchesNotify(t *testing.T) {
	h := newHarness(t)
	h.preload(10)

	h.c.HandleEvent(stream.Event{Kind: stream.Mismatches, Mismatches: []frame.Mismatch{{Index: 3}, {Index: 7}}})
	h.c.HandleEvent(stream.Event{Kind: stream.Mismatches})

	assert.Equal(t, []string{"2 new mismatches detected"}, h.notifier.messages())
}

func TestFrameDataStaleGuard(t *testing.T) {
	h := newHarness(t)
	h.preload(10) // request seq 1 for index 9
	h.c.Execute(Command{Kind: CmdGoto, Index: 4}) // seq 2
	require.Equal(t, sentRequest{4, 2}, h.requester.last())

	current := frame.ReplayFrame{Frame: 104}
	other := frame.ReplayFrame{Frame: 109}

	// Answer to the superseded request
	h.c.HandleEvent(stream.Event{Kind: stream.FrameDataReceived, FrameData: &stream.FrameData{
		ReplayFrame: &other, FrameIdx: intp(9), Seq: u64(1),
	}})
	assert.Nil(t, h.c.State().Detail)

	// Right generation, wrong index
	h.c.HandleEvent(stream.Event{Kind: stream.FrameDataReceived, FrameData: &stream.FrameData{
		ReplayFrame: &other, FrameIdx: intp(9), Seq: u64(2),
	}})
	assert.Nil(t, h.c.State().Detail)

	// No echo, frame number does not match the cursor
	h.c.HandleEvent(stream.Event{Kind: stream.FrameDataReceived, FrameData: &stream.FrameData{ReplayFrame: &other}})
	assert.Nil(t, h.c.State().Detail)

	// Backend error
	h.c.HandleEvent(stream.Event{Kind: stream.FrameDataReceived, FrameData: &stream.FrameData{Error: "Frame not found"}})
	assert.Nil(t, h.c.State().Detail)

	// Matching answer without echo
	validation := frame.ValidationFrame{Frame: 104, StateHash: "h"}
	h.c.HandleEvent(stream.Event{Kind: stream.FrameDataReceived, FrameData: &stream.FrameData{
		ReplayFrame: &current, ValidationFrame: &validation, HasValidation: true,
	}})
	detail := h.c.State().Detail
	require.NotNil(t, detail)
	assert.Equal(t, 104, detail.Replay.Frame)
	assert.True(t, detail.HasValidation)
	assert.Equal(t, 4, detail.Index)

	// Moving on clears the accepted detail
	h.c.Execute(Command{Kind: CmdStep, Delta: 1})
	assert.Nil(t, h.c.State().Detail)
}

func TestFrameDataWithEchoAccepted(t *testing.T) {
	h := newHarness(t)
	h.preload(3)
	f := frame.ReplayFrame{Frame: 102}

	h.c.HandleEvent(stream.Event{Kind: stream.FrameDataReceived, FrameData: &stream.FrameData{
		ReplayFrame: &f, FrameIdx: intp(2), Seq: u64(1),
	}})

	require.NotNil(t, h.c.State().Detail)
	assert.False(t, h.c.State().Detail.HasValidation)
}

func TestCompactionDropsDetailOfRemovedFrame(t *testing.T) {
	h := newHarness(t)
	h.c.SetRetention(3)
	h.preload(3)
	h.c.Execute(Command{Kind: CmdFirst})
	first := frame.ReplayFrame{Frame: 100, StateHash: "h"}
	h.c.HandleEvent(stream.Event{Kind: stream.FrameDataReceived, FrameData: &stream.FrameData{
		ReplayFrame: &first, FrameIdx: intp(0), Seq: u64(h.c.seq),
	}})
	require.NotNil(t, h.c.State().Detail)

	h.c.HandleEvent(stream.Event{Kind: stream.ReplayFrames, ReplayFrames: []frame.ReplayFrame{{Frame: 103, StateHash: "h"}}})

	s := h.c.Store()
	assert.Equal(t, 1, s.Base())
	cur, ok := s.CurrentFrame()
	require.True(t, ok)
	assert.Equal(t, 101, cur.Frame)
	assert.False(t, s.View().IsLive)
	assert.Nil(t, h.c.State().Detail, "detail of the compacted frame must not be shown")
	assert.Equal(t, 1, h.requester.last().idx, "the frame now under the cursor is requested")
}

func TestCompactionKeepsDetailOfRetainedFrame(t *testing.T) {
	h := newHarness(t)
	h.c.SetRetention(3)
	h.preload(3)
	h.c.Execute(Command{Kind: CmdLast})
	last := frame.ReplayFrame{Frame: 102, StateHash: "h"}
	h.c.HandleEvent(stream.Event{Kind: stream.FrameDataReceived, FrameData: &stream.FrameData{
		ReplayFrame: &last, FrameIdx: intp(2), Seq: u64(h.c.seq),
	}})
	sent := len(h.requester.sent)

	h.c.HandleEvent(stream.Event{Kind: stream.ReplayFrames, ReplayFrames: []frame.ReplayFrame{{Frame: 103, StateHash: "h"}}})

	s := h.c.Store()
	assert.Equal(t, 1, s.View().CurrentFrameIdx)
	detail := h.c.State().Detail
	require.NotNil(t, detail)
	assert.Equal(t, 102, detail.Replay.Frame)
	assert.Equal(t, s.AbsoluteIndex(s.View().CurrentFrameIdx), detail.Index)
	assert.Len(t, h.requester.sent, sent, "no new request while the cursor frame survives")
}

func TestThrottledRequestIsRetriedWithLatest(t *testing.T) {
	h := newHarness(t)
	h.requester.throttle = 2
	h.preload(10) // seq 1 throttled, retry armed

	h.c.Execute(Command{Kind: CmdFirst}) // seq 2 throttled, retry already armed
	h.step(t) // retry fires

	assert.Equal(t, sentRequest{0, 2}, h.requester.last())
}

func TestConnectionEvents(t *testing.T) {
	h := newHarness(t)
	h.backend.status = api.Status{IsMonitoring: true}

	h.c.HandleEvent(stream.Event{Kind: stream.Connected, Session: "s1"})
	h.step(t)
	assert.True(t, h.c.State().Connected)
	assert.True(t, h.c.State().Monitoring)

	h.c.HandleEvent(stream.Event{Kind: stream.Disconnected, Session: "s1"})
	assert.False(t, h.c.State().Connected)
	assert.False(t, h.c.State().Monitoring)
}

func TestReconnectResendsPendingRequest(t *testing.T) {
	h := newHarness(t)
	h.requester.err = errors.ErrNotConnected
	h.preload(3)

	h.requester.mu.Lock()
	h.requester.err = nil
	h.requester.mu.Unlock()
	h.c.HandleEvent(stream.Event{Kind: stream.Connected})

	assert.Equal(t, sentRequest{2, 1}, h.requester.last())
}

func TestExecuteNavigation(t *testing.T) {
	h := newHarness(t)
	h.preload(30)
	h.c.HandleEvent(stream.Event{Kind: stream.Mismatches, Mismatches: []frame.Mismatch{{Index: 3}, {Index: 7}, {Index: 12}}})

	for _, tc := range []struct {
		cmd  Command
		want int
	}{
		{Command{Kind: CmdFirst}, 0},
		{Command{Kind: CmdStep, Delta: 10}, 10},
		{Command{Kind: CmdStep, Delta: -1}, 9},
		{Command{Kind: CmdNextMismatch}, 12},
		{Command{Kind: CmdNextMismatch}, 3},
		{Command{Kind: CmdPrevMismatch}, 12},
		{Command{Kind: CmdLast}, 29},
		{Command{Kind: CmdGoto, Index: 7}, 7},
	} {
		h.c.Execute(tc.cmd)
		assert.Equal(t, tc.want, h.c.Store().View().CurrentFrameIdx, "%+v", tc.cmd)
	}
	assert.False(t, h.c.Store().View().IsLive)

	h.c.Execute(Command{Kind: CmdGoLive})
	assert.Equal(t, store.ViewState{CurrentFrameIdx: 29, IsLive: true}, h.c.Store().View())

	h.c.Execute(Command{Kind: CmdGoto, Index: 99})
	assert.Equal(t, 29, h.c.Store().View().CurrentFrameIdx)
	assert.Contains(t, h.notifier.messages(), "frame index 99 out of range [0, 29]")

	h.c.Execute(Command{Kind: CmdClearMismatches})
	assert.Equal(t, 0, h.c.Store().MismatchCount())
}

func TestRefreshMismatches(t *testing.T) {
	h := newHarness(t)
	h.preload(10)
	h.backend.mismatches = []frame.Mismatch{{Index: 1}, {Index: 2}}

	h.c.Execute(Command{Kind: CmdRefresh})
	h.step(t)

	assert.Equal(t, 2, h.c.Store().MismatchCount())
}

func TestExport(t *testing.T) {
	h := newHarness(t)
	var gotKind, gotPath string
	var gotFrames int
	h.c.export = func(ctx context.Context, kind, path string, snap store.Snapshot, files Files) error {
		gotKind, gotPath, gotFrames = kind, path, len(snap.Replay)
		return nil
	}
	h.preload(4)

	h.c.Execute(Command{Kind: CmdExport, Args: []string{"csv", "/tmp/out.zip"}})
	h.step(t)

	assert.Equal(t, "csv", gotKind)
	assert.Equal(t, "/tmp/out.zip", gotPath)
	assert.Equal(t, 4, gotFrames)
	assert.Contains(t, h.notifier.messages(), "Exported csv to /tmp/out.zip")
}

func TestExportWithoutPathUsesDefault(t *testing.T) {
	h := newHarness(t)
	gotPath := "unset"
	h.c.export = func(ctx context.Context, kind, path string, snap store.Snapshot, files Files) error {
		gotPath = path
		return nil
	}

	cmd, err := ParseCommand("e mismatches")
	require.NoError(t, err)
	h.c.Execute(cmd)
	h.step(t)

	assert.Equal(t, "", gotPath)
	assert.Contains(t, h.notifier.messages(), "Exported mismatches")
}

func TestExportUnavailable(t *testing.T) {
	h := newHarness(t)

	h.c.Export("csv", "out.zip")

	assert.Equal(t, []string{"export is not available"}, h.notifier.messages())
}

func TestRunRendersAndQuits(t *testing.T) {
	h := newHarness(t)
	renderer := &fakeRenderer{}
	h.c.renderer = renderer

	events := make(chan stream.Event, 1)
	commands := make(chan Command, 1)
	done := make(chan error, 1)
	go func() { done <- h.c.Run(context.Background(), events, commands) }()

	events <- stream.Event{Kind: stream.ReplayFrames, ReplayFrames: replayFrames(2)}
	require.Eventually(t, func() bool { return renderer.count() >= 2 }, 2*time.Second, 5*time.Millisecond)
	commands <- Command{Kind: CmdQuit}

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after quit")
	}
	assert.GreaterOrEqual(t, renderer.count(), 2)
}

func TestRunStopsOnCancel(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.c.Run(ctx, nil, nil) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestHotReloadSettings(t *testing.T) {
	h := newHarness(t)

	h.c.SetMaxPlotted(250)
	assert.Equal(t, 250, h.c.State().MaxPlotted)
	h.c.SetMaxPlotted(0)
	assert.Equal(t, store.DefaultMaxPlotted, h.c.State().MaxPlotted)

	h.c.SetRetention(5)
	h.preload(8)
	assert.Equal(t, 5, h.c.Store().FrameCount())
	assert.Equal(t, 3, h.c.Store().Base())
}
