package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initPipelineMetrics() {
	r.CompileRunsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "threatmodel_compile_runs_total",
			Help: "Total number of threat model compilations",
		},
		[]string{"status"},
	)

	r.CompileStageDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "threatmodel_compile_stage_duration_seconds",
			Help:    "Duration of each compilation stage in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stage"},
	)

	r.CompileThreatsTotal = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "threatmodel_compile_threats",
			Help:    "Number of threats produced per compilation",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500},
		},
		[]string{"stage"},
	)

	r.ThreatsNormalizedTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "threatmodel_threats_normalized_total",
			Help: "Total number of raw threats normalized",
		},
	)

	r.ThreatsRejectedTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "threatmodel_threats_rejected_total",
			Help: "Total number of raw threats rejected during normalization",
		},
		[]string{"source"},
	)

	r.ThreatsMergedTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "threatmodel_threats_merged_total",
			Help: "Total number of duplicate threats merged",
		},
	)

	r.CriticalPathsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "threatmodel_critical_paths_total",
			Help: "Total number of critical paths detected",
		},
	)

	r.RiskLevelThreats = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "threatmodel_risk_level_threats",
			Help: "Threat count per risk level from the most recent compilation",
		},
		[]string{"level"},
	)
}
