package metrics

import (
	"strconv"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "anchorbuilder"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once          sync.Once
	stageDuration *prom.HistogramVec
	buildDuration prom.Histogram
	stageResults  *prom.CounterVec
	buildOutcome  *prom.CounterVec
	lockWait      prom.Histogram
	waiting       prom.Gauge
	artifactSize  prom.Histogram
	httpDuration  *prom.HistogramVec
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		// compiles take minutes, not milliseconds
		buildBuckets := []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200}
		pr.stageDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual build stages",
			Buckets:   buildBuckets,
		}, []string{"stage"})
		pr.buildDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Total build duration including lock wait",
			Buckets:   buildBuckets,
		})
		pr.stageResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "stage_results_total",
			Help:      "Stage result counts by outcome",
		}, []string{"stage", "result"})
		pr.buildOutcome = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by final classification",
		}, []string{"outcome"})
		pr.lockWait = prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "build_lock_wait_seconds",
			Help:      "Time requests spent waiting for the workspace lock",
			Buckets:   append([]float64{0.001, 0.01, 0.1}, buildBuckets...),
		})
		pr.waiting = prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "builds_waiting",
			Help:      "Build requests currently queued on the workspace lock",
		})
		pr.artifactSize = prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "artifact_size_bytes",
			Help:      "Size of produced build artifacts",
			Buckets:   prom.ExponentialBuckets(16<<10, 2, 10),
		})
		pr.httpDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and status code",
			Buckets:   prom.DefBuckets,
		}, []string{"route", "code"})
		reg.MustRegister(pr.stageDuration, pr.buildDuration, pr.stageResults, pr.buildOutcome,
			pr.lockWait, pr.waiting, pr.artifactSize, pr.httpDuration)
	})
	return pr
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil || p.stageDuration == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}
func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil || p.buildDuration == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}
func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	if p == nil || p.stageResults == nil {
		return
	}
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}
func (p *PrometheusRecorder) IncBuildOutcome(outcome BuildOutcomeLabel) {
	if p == nil || p.buildOutcome == nil {
		return
	}
	p.buildOutcome.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) ObserveLockWait(d time.Duration) {
	if p == nil || p.lockWait == nil {
		return
	}
	p.lockWait.Observe(d.Seconds())
}

func (p *PrometheusRecorder) SetBuildsWaiting(n int) {
	if p == nil || p.waiting == nil {
		return
	}
	p.waiting.Set(float64(n))
}

func (p *PrometheusRecorder) ObserveArtifactSize(bytes int) {
	if p == nil || p.artifactSize == nil {
		return
	}
	p.artifactSize.Observe(float64(bytes))
}

func (p *PrometheusRecorder) ObserveHTTPRequest(route string, status int, d time.Duration) {
	if p == nil || p.httpDuration == nil {
		return
	}
	p.httpDuration.WithLabelValues(route, strconv.Itoa(status)).Observe(d.Seconds())
}
