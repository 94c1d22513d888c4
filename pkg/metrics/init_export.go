package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initExportMetrics() {
	r.ExportsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "threatmodel_exports_total",
			Help: "Total number of threat model artifact exports",
		},
		[]string{"status"},
	)

	r.ExportSizeBytes = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "threatmodel_export_size_bytes",
			Help:    "Compressed artifact size in bytes",
			Buckets: []float64{1000, 10000, 100000, 1000000, 10000000},
		},
	)

	r.ExportDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "threatmodel_export_duration_seconds",
			Help:    "Artifact export latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	r.AuthFailuresTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "threatmodel_auth_failures_total",
			Help: "Total number of failed authentication attempts",
		},
	)
}
