// Package version holds build metadata injected at link time.
package version

import "fmt"

// Version is set via ldflags in release builds:
// go build -ldflags "-X git.home.luguber.info/inful/anchorbuilder/internal/version.Version=v0.3.0".
var Version = "unknown"

// BuildInfo contains additional build metadata.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String renders the full version line printed by --version.
func String() string {
	return fmt.Sprintf("anchorbuilder %s (commit %s, built %s)", Version, GitCommit, BuildTime)
}
