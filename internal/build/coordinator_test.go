package build

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/anchorbuilder/internal/config"
	"git.home.luguber.info/inful/anchorbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/anchorbuilder/internal/metrics"
	"git.home.luguber.info/inful/anchorbuilder/internal/toolchain"
	"git.home.luguber.info/inful/anchorbuilder/internal/workspace"
)

// fakeInvoker simulates the toolchain: it optionally writes the artifact and
// returns a canned result.
type fakeInvoker struct {
	result   toolchain.Result
	err      error
	artifact []byte
	run      func(dir string)
	calls    atomic.Int32
	ws       *workspace.Manager
}

func (f *fakeInvoker) Run(_ context.Context, dir string) (*toolchain.Result, error) {
	f.calls.Add(1)
	if f.run != nil {
		f.run(dir)
	}
	if f.err != nil {
		return nil, f.err
	}
	if f.artifact != nil {
		path := f.ws.Artifact().Path()
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, err
		}
		if err := os.WriteFile(path, f.artifact, 0o600); err != nil {
			return nil, err
		}
	}
	res := f.result
	return &res, nil
}

type recordingEmitter struct {
	mu       sync.Mutex
	started  []Started
	finished []Summary
}

func (r *recordingEmitter) EmitBuildStarted(_ context.Context, ev Started) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = append(r.started, ev)
}

func (r *recordingEmitter) EmitBuildFinished(_ context.Context, ev Summary) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished = append(r.finished, ev)
}

type outcomeRecorder struct {
	metrics.NoopRecorder
	mu       sync.Mutex
	outcomes []metrics.BuildOutcomeLabel
}

func (o *outcomeRecorder) IncBuildOutcome(l metrics.BuildOutcomeLabel) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes = append(o.outcomes, l)
}

func newTestCoordinator(t *testing.T) (*Coordinator, *fakeInvoker) {
	t.Helper()
	layout, err := workspace.LayoutFromConfig(config.WorkspaceConfig{
		Root:         t.TempDir(),
		SourceDir:    config.DefaultSourceDir,
		ArtifactPath: config.DefaultArtifactPath,
		IDLPath:      config.DefaultIDLPath,
	})
	require.NoError(t, err)
	ws := workspace.NewManager(layout)
	inv := &fakeInvoker{ws: ws}
	c := NewCoordinator(ws, inv)
	c.newID = func() string { return "build-test" }
	return c, inv
}

func TestBuild_SuccessEncodesArtifact(t *testing.T) {
	c, inv := newTestCoordinator(t)
	binary := []byte{0x7f, 'E', 'L', 'F', 0x00, 0xff, 0x10}
	inv.artifact = binary
	inv.result = toolchain.Result{Stdout: []string{"Compiling solana_workspace"}, Stderr: []string{"warning: unused"}}

	res := c.Build(t.Context(), Request{Files: map[string]string{"lib.rs": "fn main() {}"}})

	assert.Equal(t, StatusSuccess, res.Status)
	assert.Equal(t, "build-test", res.ID)
	require.NotNil(t, res.Binary)
	decoded, err := base64.StdEncoding.DecodeString(*res.Binary)
	require.NoError(t, err)
	assert.Equal(t, binary, decoded)
	assert.Nil(t, res.Message)

	root := c.Workspace().Layout().Root
	assert.Equal(t, []string{
		"Received build request",
		"Targeting workspace: " + root,
		"Wrote file: programs/solana_workspace/src/lib.rs",
		"Starting compilation...",
		"Compiling solana_workspace",
		"warning: unused",
	}, res.Logs)
}

func TestBuild_CompilerFailureIsSuccessWithEmptyBinary(t *testing.T) {
	c, inv := newTestCoordinator(t)
	inv.result = toolchain.Result{ExitCode: 1, Stderr: []string{"error[E0308]: mismatched types"}}

	res := c.Build(t.Context(), Request{Files: map[string]string{"lib.rs": "broken"}})

	assert.Equal(t, StatusSuccess, res.Status)
	require.NotNil(t, res.Binary)
	assert.Empty(t, *res.Binary)
	assert.Nil(t, res.Message)
	n := len(res.Logs)
	require.GreaterOrEqual(t, n, 2)
	assert.Equal(t, "error[E0308]: mismatched types", res.Logs[n-2])
	assert.Equal(t, LogCommandFailed, res.Logs[n-1])
}

func TestBuild_TimeoutAddsMarker(t *testing.T) {
	c, inv := newTestCoordinator(t)
	inv.result = toolchain.Result{ExitCode: -1, TimedOut: true, Duration: 90 * time.Second}

	res := c.Build(t.Context(), Request{Files: map[string]string{}})

	n := len(res.Logs)
	assert.Equal(t, "Build command timed out after 1m30s.", res.Logs[n-2])
	assert.Equal(t, LogCommandFailed, res.Logs[n-1])
	assert.Equal(t, StatusSuccess, res.Status)
}

func TestBuild_MissingArtifact(t *testing.T) {
	c, _ := newTestCoordinator(t)

	res := c.Build(t.Context(), Request{Files: map[string]string{"lib.rs": "ok"}})

	assert.Equal(t, StatusSuccess, res.Status)
	require.NotNil(t, res.Binary)
	assert.Empty(t, *res.Binary)
	assert.Equal(t, LogBinaryNotFound, res.Logs[len(res.Logs)-1])
}

func TestBuild_ClearsStaleArtifact(t *testing.T) {
	c, inv := newTestCoordinator(t)
	inv.artifact = []byte("old")
	require.True(t, c.Build(t.Context(), Request{}).HasBinary())

	inv.artifact = nil
	inv.result = toolchain.Result{ExitCode: 2}
	res := c.Build(t.Context(), Request{})
	assert.False(t, res.HasBinary())
	assert.False(t, c.Workspace().Artifact().Exists(), "stale artifact removed before invoking")
}

func TestBuild_LaunchFailureIsInternalError(t *testing.T) {
	c, inv := newTestCoordinator(t)
	inv.err = errors.RuntimeError("failed to start build command").
		WithCause(os.ErrNotExist).Build()

	res := c.Build(t.Context(), Request{Files: map[string]string{"lib.rs": "x"}})

	assert.Equal(t, StatusError, res.Status)
	assert.Nil(t, res.Binary)
	require.NotNil(t, res.Message)
	assert.Equal(t, "failed to start build command: file does not exist", *res.Message)
	assert.Equal(t, []string{"Internal Error: " + *res.Message}, res.Logs)
}

// unreadableArtifact reports the artifact as present but fails to read it.
type unreadableArtifact struct {
	*workspace.Artifact
	err error
}

func (u unreadableArtifact) Read() ([]byte, error) { return nil, u.err }

func TestBuild_ArtifactReadFailureIsInternalError(t *testing.T) {
	c, inv := newTestCoordinator(t)
	inv.artifact = []byte("binary")
	readErr := errors.FileSystemError("failed to read artifact").
		WithCause(os.ErrPermission).Build()
	c.artifact = func() artifactFile {
		return unreadableArtifact{Artifact: c.Workspace().Artifact(), err: readErr}
	}
	rec := &recordingEmitter{}
	c.WithEventEmitter(rec)

	res := c.Build(t.Context(), Request{Files: map[string]string{"lib.rs": "ok"}})

	assert.Equal(t, StatusError, res.Status)
	assert.Nil(t, res.Binary)
	require.NotNil(t, res.Message)
	assert.Equal(t, "failed to read artifact: permission denied", *res.Message)
	assert.Equal(t, []string{"Internal Error: failed to read artifact: permission denied"}, res.Logs)
	require.Len(t, rec.finished, 1)
	assert.Equal(t, metrics.OutcomeError, rec.finished[0].Outcome)
}

func TestBuild_StagingFailureSkipsInvocation(t *testing.T) {
	c, inv := newTestCoordinator(t)

	res := c.Build(t.Context(), Request{Files: map[string]string{"../../escape.rs": "x"}})

	assert.Equal(t, StatusError, res.Status)
	require.NotNil(t, res.Message)
	assert.Contains(t, *res.Message, "escapes the source directory")
	assert.Zero(t, inv.calls.Load())
}

func TestBuild_LockReleasedAfterError(t *testing.T) {
	c, inv := newTestCoordinator(t)
	inv.err = errors.RuntimeError("boom").Build()
	c.Build(t.Context(), Request{})

	done := make(chan struct{})
	go func() {
		c.Build(t.Context(), Request{})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("lock not released after internal error")
	}
}

func TestBuild_SerializesConcurrentRequests(t *testing.T) {
	c, inv := newTestCoordinator(t)
	var active, maxActive atomic.Int32
	inv.run = func(string) {
		n := active.Add(1)
		for {
			m := maxActive.Load()
			if n <= m || maxActive.CompareAndSwap(m, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		active.Add(-1)
	}

	var wg sync.WaitGroup
	for _, content := range []string{"1", "2", "3", "4"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Build(context.Background(), Request{Files: map[string]string{"x.rs": content}})
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxActive.Load())
	assert.Equal(t, int64(4), c.State().TotalBuilds)
	assert.False(t, c.State().Busy)
}

func TestBuild_StagedContentBelongsToLastBuild(t *testing.T) {
	c, inv := newTestCoordinator(t)
	src := c.Workspace().Layout().SourceRoot()
	var mu sync.Mutex
	var seen []string
	inv.run = func(string) {
		data, err := os.ReadFile(filepath.Join(src, "x.rs"))
		assert.NoError(t, err)
		mu.Lock()
		seen = append(seen, string(data))
		mu.Unlock()
	}

	var wg sync.WaitGroup
	for _, content := range []string{"1", "2"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Build(context.Background(), Request{Files: map[string]string{"x.rs": content}})
		}()
	}
	wg.Wait()

	require.Len(t, seen, 2)
	assert.ElementsMatch(t, []string{"1", "2"}, seen, "each build saw only its own staged content")
	final, err := os.ReadFile(filepath.Join(src, "x.rs"))
	require.NoError(t, err)
	assert.Equal(t, seen[1], string(final))
}

func TestBuild_StateWhileRunning(t *testing.T) {
	c, inv := newTestCoordinator(t)
	release := make(chan struct{})
	entered := make(chan struct{})
	inv.run = func(string) {
		close(entered)
		<-release
	}

	go c.Build(context.Background(), Request{})
	<-entered
	assert.True(t, c.State().Busy)
	close(release)

	require.Eventually(t, func() bool { return !c.State().Busy }, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, "build-test", c.State().LastBuildID)
}

func TestBuild_EmitsLifecycleEventsAndMetrics(t *testing.T) {
	c, inv := newTestCoordinator(t)
	emitter := &recordingEmitter{}
	rec := &outcomeRecorder{}
	c.WithEventEmitter(emitter).WithRecorder(rec)
	inv.artifact = []byte("abcd")

	c.Build(t.Context(), Request{Files: map[string]string{"b.rs": "", "a.rs": ""}})
	inv.artifact = nil
	inv.result = toolchain.Result{ExitCode: 1}
	c.Build(t.Context(), Request{})

	require.Len(t, emitter.started, 2)
	assert.Equal(t, []string{"a.rs", "b.rs"}, emitter.started[0].Files)
	require.Len(t, emitter.finished, 2)
	assert.Equal(t, metrics.OutcomeSuccess, emitter.finished[0].Outcome)
	assert.Equal(t, 4, emitter.finished[0].BinaryBytes)
	assert.Equal(t, metrics.OutcomeCompileFailed, emitter.finished[1].Outcome)
	assert.Equal(t, []metrics.BuildOutcomeLabel{metrics.OutcomeSuccess, metrics.OutcomeCompileFailed}, rec.outcomes)
}

func TestSetInvokerSwapsToolchain(t *testing.T) {
	c, _ := newTestCoordinator(t)
	replacement := &fakeInvoker{ws: c.Workspace(), result: toolchain.Result{ExitCode: 3}}
	c.SetInvoker(replacement)

	res := c.Build(t.Context(), Request{})
	assert.Equal(t, int32(1), replacement.calls.Load())
	assert.Equal(t, LogCommandFailed, res.Logs[len(res.Logs)-1])
}

func TestReadArtifactAndIDL(t *testing.T) {
	c, inv := newTestCoordinator(t)
	_, err := c.ReadArtifact(t.Context())
	assert.True(t, errors.HasCategory(err, errors.CategoryNotFound))

	inv.artifact = []byte("so")
	c.Build(t.Context(), Request{})
	data, err := c.ReadArtifact(t.Context())
	require.NoError(t, err)
	assert.Equal(t, []byte("so"), data)

	idl := c.Workspace().IDL().Path()
	require.NoError(t, os.MkdirAll(filepath.Dir(idl), 0o750))
	require.NoError(t, os.WriteFile(idl, []byte(`{"name":"solana_workspace"}`), 0o600))
	data, err = c.ReadIDL(t.Context())
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"solana_workspace"}`, string(data))
}

func TestResultJSONShape(t *testing.T) {
	empty := ""
	msg := "boom"
	tests := []struct {
		name string
		res  Result
		want string
	}{
		{"success", Result{ID: "x", Status: StatusSuccess, Logs: []string{"a"}, Binary: &empty}, `{"status":"success","logs":["a"],"binary":"","message":null}`},
		{"error", Result{Status: StatusError, Logs: []string{"Internal Error: boom"}, Message: &msg}, `{"status":"error","logs":["Internal Error: boom"],"binary":null,"message":"boom"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := json.Marshal(tt.res)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(b))
		})
	}
}
