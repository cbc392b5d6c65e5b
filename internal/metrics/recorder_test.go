package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type testRecorder struct {
	NoopRecorder
	stageResults  map[string]map[ResultLabel]int
	buildOutcomes map[BuildOutcomeLabel]int
}

func newTestRecorder() *testRecorder {
	return &testRecorder{stageResults: map[string]map[ResultLabel]int{}, buildOutcomes: map[BuildOutcomeLabel]int{}}
}

func (t *testRecorder) IncStageResult(stage string, result ResultLabel) {
	m, ok := t.stageResults[stage]
	if !ok {
		m = map[ResultLabel]int{}
		t.stageResults[stage] = m
	}
	m[result]++
}
func (t *testRecorder) IncBuildOutcome(outcome BuildOutcomeLabel) { t.buildOutcomes[outcome]++ }

func TestRecorderInterfaceSatisfied(t *testing.T) {
	var _ Recorder = NoopRecorder{}
	var _ Recorder = (*PrometheusRecorder)(nil)
	var r Recorder = newTestRecorder()

	r.IncStageResult("stage", ResultSuccess)
	r.IncStageResult("invoke", ResultFailed)
	r.IncBuildOutcome(OutcomeCompileFailed)
	r.ObserveBuildDuration(time.Second)

	tr := r.(*testRecorder)
	assert.Equal(t, 1, tr.stageResults["invoke"][ResultFailed])
	assert.Equal(t, 1, tr.buildOutcomes[OutcomeCompileFailed])
}
