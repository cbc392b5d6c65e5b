package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.ObserveStageDuration("invoke", 150*time.Millisecond)
	pr.ObserveBuildDuration(500 * time.Millisecond)
	pr.IncStageResult("invoke", ResultSuccess)
	pr.IncBuildOutcome(OutcomeCompileFailed)
	pr.IncBuildOutcome(OutcomeCompileFailed)
	pr.ObserveLockWait(time.Millisecond)
	pr.SetBuildsWaiting(3)
	pr.ObserveArtifactSize(200 << 10)
	pr.ObserveHTTPRequest("/build", http.StatusOK, 2*time.Second)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, mfs, 8)

	assert.InDelta(t, 2, sampleValue(t, reg, "anchorbuilder_build_outcomes_total", string(OutcomeCompileFailed)), 0)
	assert.InDelta(t, 3, sampleValue(t, reg, "anchorbuilder_builds_waiting", ""), 0)
}

// sampleValue returns the counter or gauge value of the named family whose
// first label equals label ("" for unlabelled metrics).
func sampleValue(t *testing.T, reg *prom.Registry, name, label string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if label != "" && (len(m.GetLabel()) == 0 || m.GetLabel()[0].GetValue() != label) {
				continue
			}
			if c := m.GetCounter(); c != nil {
				return c.GetValue()
			}
			return m.GetGauge().GetValue()
		}
	}
	t.Fatalf("metric %s{%s} not found", name, label)
	return 0
}

func TestPrometheusRecorder_NilSafe(t *testing.T) {
	var pr *PrometheusRecorder
	assert.NotPanics(t, func() {
		pr.IncBuildOutcome(OutcomeError)
		pr.SetBuildsWaiting(1)
		pr.ObserveHTTPRequest("/health", http.StatusOK, time.Millisecond)
	})
}

func TestHTTPHandler(t *testing.T) {
	reg := prom.NewRegistry()
	NewPrometheusRecorder(reg).IncBuildOutcome(OutcomeSuccess)

	srv := httptest.NewServer(HTTPHandler(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `anchorbuilder_build_outcomes_total{outcome="success"} 1`)
}
