package metrics

import (
	"runtime"
	"time"
)

// RecordHTTPRequest records an HTTP request with its duration
func (r *Registry) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	r.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// RecordCompileRun records a completed compilation with its outcome
func (r *Registry) RecordCompileRun(status string, threatCount int) {
	r.CompileRunsTotal.WithLabelValues(status).Inc()
	r.CompileThreatsTotal.WithLabelValues("final").Observe(float64(threatCount))
}

// RecordStage records the duration of a single compilation stage
func (r *Registry) RecordStage(stage string, duration time.Duration) {
	r.CompileStageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// RecordNormalization records the outcome of the normalization stage
func (r *Registry) RecordNormalization(normalized int, rejectedBySource map[string]int) {
	r.ThreatsNormalizedTotal.Add(float64(normalized))
	for source, count := range rejectedBySource {
		r.ThreatsRejectedTotal.WithLabelValues(source).Add(float64(count))
	}
}

// RecordMerges records how many duplicate threats were collapsed
func (r *Registry) RecordMerges(merged int) {
	r.ThreatsMergedTotal.Add(float64(merged))
}

// RecordCriticalPaths records how many critical paths a compilation found
func (r *Registry) RecordCriticalPaths(count int) {
	r.CriticalPathsTotal.Add(float64(count))
}

// SetRiskDistribution publishes the per-level threat counts of the latest run
func (r *Registry) SetRiskDistribution(distribution map[string]int) {
	for level, count := range distribution {
		r.RiskLevelThreats.WithLabelValues(level).Set(float64(count))
	}
}

// RecordExport records an artifact export attempt
func (r *Registry) RecordExport(status string, sizeBytes int, duration time.Duration) {
	r.ExportsTotal.WithLabelValues(status).Inc()
	if status == "success" {
		r.ExportSizeBytes.Observe(float64(sizeBytes))
		r.ExportDuration.Observe(duration.Seconds())
	}
}

// RecordAuthFailure records a failed authentication attempt
func (r *Registry) RecordAuthFailure() {
	r.AuthFailuresTotal.Inc()
}

// UpdateSystemMetrics refreshes runtime gauges
func (r *Registry) UpdateSystemMetrics(startTime time.Time) {
	r.UptimeSeconds.Set(time.Since(startTime).Seconds())
	r.GoRoutines.Set(float64(runtime.NumGoroutine()))

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	r.MemoryAllocBytes.Set(float64(m.Alloc))
}
