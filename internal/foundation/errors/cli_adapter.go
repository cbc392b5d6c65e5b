package errors

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// CLIErrorAdapter turns command errors into a stderr message and exit code.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
	stderr  io.Writer
	exit    func(int)
}

func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{verbose: verbose, logger: logger, stderr: os.Stderr, exit: os.Exit}
}

// ExitCodeFor returns 0 for nil, the category's code for classified errors
// and 1 otherwise.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	return traitsOf(err).exit
}

// FormatError renders err for the terminal. Without --verbose, details of
// infrastructure failures are hidden behind a hint.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}
	c, ok := AsClassified(err)
	switch {
	case !ok:
		return "Error: " + err.Error()
	case a.verbose:
		return c.Error()
	case c.category.traits().public:
		return c.Description()
	default:
		return "Internal error occurred (use -v for details)"
	}
}

// HandleError prints err and terminates the process. A nil err is a no-op.
func (a *CLIErrorAdapter) HandleError(err error) {
	if err == nil {
		return
	}
	t := traitsOf(err)
	// user-facing categories are already explained on stderr
	if a.verbose || !t.public {
		attrs := []slog.Attr{slog.Any("error", err)}
		if c, ok := AsClassified(err); ok {
			attrs = append(attrs, slog.String("category", string(c.category)))
			if c.retryable {
				attrs = append(attrs, slog.Bool("retryable", true))
			}
		}
		a.logger.LogAttrs(context.Background(), t.level, "command failed", attrs...)
	}
	_, _ = fmt.Fprintln(a.stderr, a.FormatError(err))
	a.exit(t.exit)
}
