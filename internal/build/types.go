package build

import (
	"time"

	"git.home.luguber.info/inful/anchorbuilder/internal/metrics"
)

// Log lines emitted by the coordinator.
const (
	LogReceived       = "Received build request"
	LogTargeting      = "Targeting workspace: "
	LogWroteFile      = "Wrote file: "
	LogCompiling      = "Starting compilation..."
	LogCommandFailed  = "Build command failed."
	LogBinaryNotFound = "Binary not found after successful build."
	LogInternalError  = "Internal Error: "
	logTimedOutFormat = "Build command timed out after %s."
)

// Request is a set of files to stage, keyed by path relative to the source directory.
type Request struct {
	Files map[string]string `json:"files"`
}

// Status is the system-level outcome reported to callers.
type Status string

const (
	// StatusSuccess means the toolchain ran; check Binary for usable output.
	StatusSuccess Status = "success"

	// StatusError means the build could not be carried out.
	StatusError Status = "error"
)

// Result is the response for one build request.
type Result struct {
	// ID identifies the build in history and the X-Build-ID header.
	ID     string   `json:"-"`
	Status Status   `json:"status"`
	Logs   []string `json:"logs"`
	// Binary is the base64 artifact, "" when the toolchain produced none,
	// and nil on StatusError.
	Binary  *string `json:"binary"`
	Message *string `json:"message"`

	size int
}

// HasBinary reports whether the result carries a non-empty artifact.
func (r *Result) HasBinary() bool {
	return r.Binary != nil && *r.Binary != ""
}

// Started describes a build that acquired the workspace lock.
type Started struct {
	BuildID  string
	Files    []string
	LockWait time.Duration
	At       time.Time
}

// Summary describes a finished build.
type Summary struct {
	BuildID     string
	Status      Status
	Outcome     metrics.BuildOutcomeLabel
	Files       int
	LogLines    int
	BinaryBytes int
	Message     string
	Duration    time.Duration
	At          time.Time
}

// State is a point-in-time view of the coordinator.
type State struct {
	Busy        bool   `json:"busy"`
	Waiting     int    `json:"waiting"`
	TotalBuilds int64  `json:"total_builds"`
	LastBuildID string `json:"last_build_id,omitempty"`
}
