package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "sandboxer"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	stageDuration      *prom.HistogramVec
	runDuration        prom.Histogram
	stageResults       *prom.CounterVec
	runOutcome         *prom.CounterVec
	diagnostics        *prom.CounterVec
	submissionDuration prom.Histogram
	submissionResults  *prom.CounterVec
	cacheLookups       *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers Prometheus metrics on reg.
// A nil registry gets a private one so tests never collide on the default registerer.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		stageDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual pipeline stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"}),
		runDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Total pipeline run duration",
			Buckets:   prom.DefBuckets,
		}),
		stageResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "stage_results_total",
			Help:      "Stage result counts by outcome",
		}, []string{"stage", "result"}),
		runOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "run_outcomes_total",
			Help:      "Pipeline runs by final status",
		}, []string{"outcome"}),
		diagnostics: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "diagnostics_total",
			Help:      "Diagnostics emitted by stage and severity",
		}, []string{"stage", "severity"}),
		submissionDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "submission_duration_seconds",
			Help:      "Round-trip time of sandbox submissions",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 90},
		}),
		submissionResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "submission_results_total",
			Help:      "Sandbox submission results by kind",
		}, []string{"kind"}),
		cacheLookups: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Submission cache lookups by result",
		}, []string{"result"}),
	}
	reg.MustRegister(pr.stageDuration, pr.runDuration, pr.stageResults, pr.runOutcome,
		pr.diagnostics, pr.submissionDuration, pr.submissionResults, pr.cacheLookups)
	return pr
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil || p.stageDuration == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveRunDuration(d time.Duration) {
	if p == nil || p.runDuration == nil {
		return
	}
	p.runDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	if p == nil || p.stageResults == nil {
		return
	}
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) IncRunOutcome(outcome OutcomeLabel) {
	if p == nil || p.runOutcome == nil {
		return
	}
	p.runOutcome.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) IncDiagnostics(stage, severity string, n int) {
	if p == nil || p.diagnostics == nil || n <= 0 {
		return
	}
	p.diagnostics.WithLabelValues(stage, severity).Add(float64(n))
}

func (p *PrometheusRecorder) ObserveSubmissionDuration(d time.Duration) {
	if p == nil || p.submissionDuration == nil {
		return
	}
	p.submissionDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncSubmissionResult(kind string) {
	if p == nil || p.submissionResults == nil {
		return
	}
	p.submissionResults.WithLabelValues(kind).Inc()
}

func (p *PrometheusRecorder) IncCacheLookup(hit bool) {
	if p == nil || p.cacheLookups == nil {
		return
	}
	res := "miss"
	if hit {
		res = "hit"
	}
	p.cacheLookups.WithLabelValues(res).Inc()
}
