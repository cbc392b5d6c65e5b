package toolchain

import (
	"context"
	"time"

	"git.home.luguber.info/inful/anchorbuilder/internal/config"
)

// Invoker abstracts how the build tool is executed so tests and alternative
// strategies can replace the external binary.
type Invoker interface {
	Run(ctx context.Context, dir string) (*Result, error)
}

// Command describes the external process to run.
type Command struct {
	Name    string
	Args    []string
	Env     []string
	Timeout time.Duration
}

// CommandFromConfig converts the toolchain configuration into a Command.
func CommandFromConfig(cfg config.ToolchainConfig) Command {
	return Command{
		Name:    cfg.Command,
		Args:    append([]string(nil), cfg.Args...),
		Env:     cfg.EnvList(),
		Timeout: cfg.TimeoutDuration(),
	}
}

// String renders the command line for logging.
func (c Command) String() string {
	s := c.Name
	for _, a := range c.Args {
		s += " " + a
	}
	return s
}

// Result is the outcome of a completed invocation.
type Result struct {
	ExitCode int
	Stdout   []string
	Stderr   []string
	Duration time.Duration
	// TimedOut is set when the configured timeout killed the process.
	TimedOut bool
}

// Success reports whether the tool exited zero within its time limit.
func (r *Result) Success() bool {
	return r.ExitCode == 0 && !r.TimedOut
}
