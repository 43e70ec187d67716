package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "synthmet"

// Metrics holds the Prometheus collectors for the generation pipeline.
type Metrics struct {
	PipelineRunning prometheus.Gauge
	Runs            *prometheus.CounterVec   // labels: outcome={success,error}
	StageDuration   *prometheus.HistogramVec // labels: stage={generate,load,mask,bias,store,downsample,export,boundary,publish}

	// Region masking.
	MaskApplied  prometheus.Gauge
	RegionErrors prometheus.Counter

	ArtifactBytes *prometheus.GaugeVec // labels: kind={raw,compressed}
	PublishErrors prometheus.Counter
}

func newMetrics(help bool) *Metrics {
	h := func(s string) string {
		if help {
			return s
		}
		return ""
	}
	return &Metrics{
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      h("1 while a generation run is in progress, 0 otherwise."),
		}),
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      h("Completed generation runs by outcome."),
		}, []string{"outcome"}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      h("Duration of each pipeline stage."),
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"stage"}),
		MaskApplied: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "mask_applied",
			Help:      h("1 when the last run was masked to the region, 0 when it fell back to the full grid."),
		}),
		RegionErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "region_errors_total",
			Help:      h("Region boundary lookups that failed."),
		}),
		ArtifactBytes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "artifact_bytes",
			Help:      h("Size of the last exported artifact."),
		}, []string{"kind"}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      h("Manifest notifications that could not be delivered."),
		}),
	}
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics(true)
	prometheus.MustRegister(
		m.PipelineRunning,
		m.Runs,
		m.StageDuration,
		m.MaskApplied,
		m.RegionErrors,
		m.ArtifactBytes,
		m.PublishErrors,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics(false)
}
