package metrics

import "time"

// ResultLabel enumerates stage result categories for counters.
type ResultLabel string

const (
	ResultSuccess ResultLabel = "success"
	ResultFailed  ResultLabel = "failed"
)

// BuildOutcomeLabel enumerates the terminal classification of a build.
type BuildOutcomeLabel string

const (
	OutcomeSuccess         BuildOutcomeLabel = "success"
	OutcomeCompileFailed   BuildOutcomeLabel = "compile_failed"
	OutcomeArtifactMissing BuildOutcomeLabel = "artifact_missing"
	OutcomeError           BuildOutcomeLabel = "error"
)

// Recorder defines observability hooks for builds and the HTTP surface.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObserveBuildDuration(d time.Duration)
	IncStageResult(stage string, result ResultLabel)
	IncBuildOutcome(outcome BuildOutcomeLabel)
	ObserveLockWait(d time.Duration)
	SetBuildsWaiting(n int)
	ObserveArtifactSize(bytes int)
	ObserveHTTPRequest(route string, status int, d time.Duration)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration)    {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)            {}
func (NoopRecorder) IncStageResult(string, ResultLabel)            {}
func (NoopRecorder) IncBuildOutcome(BuildOutcomeLabel)             {}
func (NoopRecorder) ObserveLockWait(time.Duration)                 {}
func (NoopRecorder) SetBuildsWaiting(int)                          {}
func (NoopRecorder) ObserveArtifactSize(int)                       {}
func (NoopRecorder) ObserveHTTPRequest(string, int, time.Duration) {}
