package toolchain

import (
	"bytes"
	"context"
	stdErrors "errors"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"git.home.luguber.info/inful/anchorbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/anchorbuilder/internal/logfields"
)

// waitDelay bounds how long Wait keeps draining pipes held open by
// grandchildren after the direct child was killed.
const waitDelay = 5 * time.Second

// ExecInvoker runs the build tool as a child process.
type ExecInvoker struct {
	cmd Command
}

// NewExecInvoker returns an invoker for cmd.
func NewExecInvoker(cmd Command) *ExecInvoker {
	return &ExecInvoker{cmd: cmd}
}

// Command returns the command this invoker runs.
func (e *ExecInvoker) Command() Command { return e.cmd }

// Run executes the command in dir and waits for it to exit.
func (e *ExecInvoker) Run(ctx context.Context, dir string) (*Result, error) {
	if e.cmd.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cmd.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, e.cmd.Name, e.cmd.Args...)
	cmd.Dir = dir
	if len(e.cmd.Env) > 0 {
		cmd.Env = append(os.Environ(), e.cmd.Env...)
	}
	if e.cmd.Timeout > 0 {
		cmd.WaitDelay = waitDelay
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	slog.Debug("Invoking build command", logfields.Command(e.cmd.String()), logfields.Path(dir))
	start := time.Now()
	err := cmd.Run()
	res := &Result{
		Stdout:   SplitLines(Decode(stdout.Bytes())),
		Stderr:   SplitLines(Decode(stderr.Bytes())),
		Duration: time.Since(start),
	}

	if err == nil {
		return res, nil
	}

	var exitErr *exec.ExitError
	if stdErrors.As(err, &exitErr) {
		// -1 when terminated by a signal
		res.ExitCode = exitErr.ExitCode()
		res.TimedOut = e.cmd.Timeout > 0 && stdErrors.Is(ctx.Err(), context.DeadlineExceeded)
		slog.Debug("Build command exited with failure",
			logfields.ExitCode(res.ExitCode),
			logfields.DurationMS(float64(res.Duration.Milliseconds())),
			slog.Bool("timed_out", res.TimedOut))
		return res, nil
	}
	if stdErrors.Is(err, exec.ErrWaitDelay) {
		// process exited cleanly but a descendant kept the output pipes open
		return res, nil
	}

	return nil, errors.RuntimeError("failed to start build command").
		WithCause(err).
		WithContext("command", e.cmd.String()).
		Build()
}
