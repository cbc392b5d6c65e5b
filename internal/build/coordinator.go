package build

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/anchorbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/anchorbuilder/internal/logfields"
	"git.home.luguber.info/inful/anchorbuilder/internal/metrics"
	"git.home.luguber.info/inful/anchorbuilder/internal/observability"
	"git.home.luguber.info/inful/anchorbuilder/internal/toolchain"
	"git.home.luguber.info/inful/anchorbuilder/internal/workspace"
)

// Coordinator serializes builds against the shared workspace.
type Coordinator struct {
	// mu guards the workspace and invoker for the whole of a build.
	mu       sync.Mutex
	ws       *workspace.Manager
	invoker  toolchain.Invoker
	recorder metrics.Recorder
	emitter  EventEmitter
	newID    func() string
	artifact func() artifactFile

	waiting atomic.Int32
	busy    atomic.Bool
	total   atomic.Int64
	lastID  atomic.Pointer[string]
}

// artifactFile is the part of workspace.Artifact a build touches.
type artifactFile interface {
	Path() string
	ClearStale() error
	Exists() bool
	Read() ([]byte, error)
}

// NewCoordinator creates a coordinator for ws that runs builds with invoker.
func NewCoordinator(ws *workspace.Manager, invoker toolchain.Invoker) *Coordinator {
	return &Coordinator{
		ws:       ws,
		invoker:  invoker,
		recorder: metrics.NoopRecorder{},
		emitter:  NoopEmitter{},
		newID:    uuid.NewString,
		artifact: func() artifactFile { return ws.Artifact() },
	}
}

// WithRecorder sets the metrics recorder.
func (c *Coordinator) WithRecorder(r metrics.Recorder) *Coordinator {
	if r != nil {
		c.recorder = r
	}
	return c
}

// WithEventEmitter sets the lifecycle event sink.
func (c *Coordinator) WithEventEmitter(e EventEmitter) *Coordinator {
	if e != nil {
		c.emitter = e
	}
	return c
}

// SetInvoker replaces the toolchain invoker once any running build finishes.
func (c *Coordinator) SetInvoker(inv toolchain.Invoker) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invoker = inv
}

// Workspace returns the managed workspace.
func (c *Coordinator) Workspace() *workspace.Manager { return c.ws }

// State reports whether a build is running and how many are queued.
func (c *Coordinator) State() State {
	st := State{
		Busy:        c.busy.Load(),
		Waiting:     int(c.waiting.Load()),
		TotalBuilds: c.total.Load(),
	}
	if id := c.lastID.Load(); id != nil {
		st.LastBuildID = *id
	}
	return st
}

// Build stages req into the workspace, runs the toolchain and classifies the
// outcome. It never returns an error: every failure is folded into the Result.
// Cancelling ctx does not interrupt a build that already holds the lock.
func (c *Coordinator) Build(ctx context.Context, req Request) *Result {
	id := c.newID()
	ctx = observability.WithBuildID(ctx, id)
	queued := time.Now()

	c.recorder.SetBuildsWaiting(int(c.waiting.Add(1)))
	c.mu.Lock()
	c.recorder.SetBuildsWaiting(int(c.waiting.Add(-1)))
	c.busy.Store(true)
	defer func() {
		c.busy.Store(false)
		c.mu.Unlock()
	}()

	start := time.Now()
	lockWait := start.Sub(queued)
	c.recorder.ObserveLockWait(lockWait)
	c.emitter.EmitBuildStarted(ctx, Started{BuildID: id, Files: sortedPaths(req.Files), LockWait: lockWait, At: start})
	observability.InfoContext(ctx, "Build started", logfields.Files(len(req.Files)))

	res, outcome := c.run(ctx, req)
	res.ID = id
	duration := time.Since(start)

	c.total.Add(1)
	c.lastID.Store(&id)
	c.recorder.IncBuildOutcome(outcome)
	c.recorder.ObserveBuildDuration(time.Since(queued))

	summary := Summary{
		BuildID:  id,
		Status:   res.Status,
		Outcome:  outcome,
		Files:    len(req.Files),
		LogLines: len(res.Logs),
		Duration: duration,
		At:       time.Now(),

		BinaryBytes: res.size,
	}
	if res.Message != nil {
		summary.Message = *res.Message
	}
	c.emitter.EmitBuildFinished(ctx, summary)

	observability.InfoContext(ctx, "Build finished",
		logfields.Outcome(string(outcome)),
		logfields.DurationMS(float64(duration.Milliseconds())))
	return res
}

func (c *Coordinator) run(ctx context.Context, req Request) (*Result, metrics.BuildOutcomeLabel) {
	layout := c.ws.Layout()
	logs := []string{LogReceived, LogTargeting + layout.Root}

	stageStart := time.Now()
	written, err := c.ws.Writer().Stage(req.Files)
	for _, p := range written {
		logs = append(logs, LogWroteFile+path.Join(layout.SourceDir, p))
	}
	c.observeStage("stage", stageStart, err == nil)
	if err != nil {
		return c.internalError(observability.WithStage(ctx, "stage"), err)
	}

	if err := c.artifact().ClearStale(); err != nil {
		observability.WarnContext(observability.WithStage(ctx, "preclean"), "Failed to remove stale artifact",
			logfields.Error(err))
	}

	logs = append(logs, LogCompiling)
	invokeCtx := observability.WithStage(ctx, "invoke")
	invokeStart := time.Now()
	out, err := c.invoker.Run(invokeCtx, layout.Root)
	if err != nil {
		c.observeStage("invoke", invokeStart, false)
		return c.internalError(invokeCtx, err)
	}
	c.observeStage("invoke", invokeStart, out.Success())
	logs = append(logs, out.Stdout...)
	logs = append(logs, out.Stderr...)

	classifyStart := time.Now()
	defer func() { c.recorder.ObserveStageDuration("classify", time.Since(classifyStart)) }()

	if !out.Success() {
		observability.InfoContext(invokeCtx, "Build command failed", logfields.ExitCode(out.ExitCode))
		if out.TimedOut {
			logs = append(logs, fmt.Sprintf(logTimedOutFormat, out.Duration.Round(time.Second)))
		}
		logs = append(logs, LogCommandFailed)
		return succeeded(logs, ""), metrics.OutcomeCompileFailed
	}

	artifact := c.artifact()
	if !artifact.Exists() {
		observability.WarnContext(ctx, "Build succeeded without artifact", logfields.Path(artifact.Path()))
		logs = append(logs, LogBinaryNotFound)
		return succeeded(logs, ""), metrics.OutcomeArtifactMissing
	}

	data, err := artifact.Read()
	if err != nil {
		return c.internalError(observability.WithStage(ctx, "classify"), err)
	}
	c.recorder.ObserveArtifactSize(len(data))
	res := succeeded(logs, base64.StdEncoding.EncodeToString(data))
	res.size = len(data)
	return res, metrics.OutcomeSuccess
}

func (c *Coordinator) observeStage(stage string, start time.Time, ok bool) {
	c.recorder.ObserveStageDuration(stage, time.Since(start))
	result := metrics.ResultSuccess
	if !ok {
		result = metrics.ResultFailed
	}
	c.recorder.IncStageResult(stage, result)
}

// internalError discards the staged log; the caller sees only the failure.
func (c *Coordinator) internalError(ctx context.Context, err error) (*Result, metrics.BuildOutcomeLabel) {
	desc := errors.Describe(err)
	observability.ErrorContext(ctx, "Build aborted", logfields.Error(err),
		slog.String("category", string(errors.GetCategory(err))))
	return &Result{
		Status:  StatusError,
		Logs:    []string{LogInternalError + desc},
		Message: &desc,
	}, metrics.OutcomeError
}

func succeeded(logs []string, binary string) *Result {
	return &Result{Status: StatusSuccess, Logs: logs, Binary: &binary}
}

func sortedPaths(files map[string]string) []string {
	out := make([]string, 0, len(files))
	for p := range files {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
