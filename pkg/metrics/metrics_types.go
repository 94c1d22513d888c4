package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all metrics for the application
type Registry struct {
	// HTTP Metrics
	HTTPRequestsTotal     *prometheus.CounterVec
	HTTPRequestDuration   *prometheus.HistogramVec
	HTTPRequestsInFlight  prometheus.Gauge
	HTTPResponseSizeBytes *prometheus.HistogramVec

	// Compile pipeline metrics
	CompileRunsTotal     *prometheus.CounterVec
	CompileStageDuration *prometheus.HistogramVec
	CompileThreatsTotal  *prometheus.HistogramVec

	// Threat processing metrics
	ThreatsNormalizedTotal prometheus.Counter
	ThreatsRejectedTotal   *prometheus.CounterVec
	ThreatsMergedTotal     prometheus.Counter
	CriticalPathsTotal     prometheus.Counter
	RiskLevelThreats       *prometheus.GaugeVec

	// Export metrics
	ExportsTotal       *prometheus.CounterVec
	ExportSizeBytes    prometheus.Histogram
	ExportDuration     prometheus.Histogram

	// Auth metrics
	AuthFailuresTotal prometheus.Counter

	// System Metrics
	UptimeSeconds    prometheus.Gauge
	GoRoutines       prometheus.Gauge
	MemoryAllocBytes prometheus.Gauge

	registry *prometheus.Registry
	mu       sync.RWMutex
}

var (
	// Global registry instance
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the global metrics registry
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		registry: reg,
	}

	r.initHTTPMetrics()
	r.initPipelineMetrics()
	r.initExportMetrics()
	r.initSystemMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}
