// Package api serves the threat model compiler over HTTP.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dd0wney/cluso-threatmodel/pkg/auth"
	"github.com/dd0wney/cluso-threatmodel/pkg/compiler"
	"github.com/dd0wney/cluso-threatmodel/pkg/logging"
	"github.com/dd0wney/cluso-threatmodel/pkg/metrics"
)

// Config holds server settings.
type Config struct {
	Port         int
	MaxBodyBytes int64

	// Auth is enforced on compile endpoints when a JWTManager or a
	// non-empty APIKeyStore is configured.
	JWTManager *auth.JWTManager
	APIKeys    *auth.APIKeyStore
}

// DefaultMaxBodyBytes bounds compile request payloads.
const DefaultMaxBodyBytes = 10 << 20 // 10 MB

// Server is the HTTP API server.
type Server struct {
	compiler  *compiler.Compiler
	logger    logging.Logger
	metrics   *metrics.Registry
	cfg       Config
	startTime time.Time
	version   string
	httpSrv   *http.Server
}

// NewServer creates an API server around a compiler.
func NewServer(c *compiler.Compiler, logger logging.Logger, reg *metrics.Registry, cfg Config) *Server {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if reg == nil {
		reg = metrics.NewRegistry()
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	return &Server{
		compiler:  c,
		logger:    logger,
		metrics:   reg,
		cfg:       cfg,
		startTime: time.Now(),
		version:   "1.0.0",
	}
}

// Handler builds the full route table with the middleware chain applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.HandlerFor(
		s.metrics.GetPrometheusRegistry(), promhttp.HandlerOpts{}))

	mux.HandleFunc("/api/v1/auth/token", s.handleToken)
	mux.HandleFunc("/api/v1/threat-model/compile", s.requireAuth(s.handleCompile))
	mux.HandleFunc("/api/v1/threat-model/export", s.requireAuth(s.handleExport))

	var handler http.Handler = mux
	handler = s.bodySizeLimitMiddleware(handler, s.cfg.MaxBodyBytes)
	handler = s.loggingMiddleware(handler)
	handler = s.metricsMiddleware(handler)
	handler = s.panicRecoveryMiddleware(handler)
	handler = s.requestIDMiddleware(handler)
	return handler
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.logger.Info("threat model API server starting",
		logging.String("addr", addr),
		logging.Bool("auth_enabled", s.authEnabled()))

	s.httpSrv = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go s.updateMetricsPeriodically()

	return s.httpSrv.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) authEnabled() bool {
	return s.cfg.JWTManager != nil || (s.cfg.APIKeys != nil && !s.cfg.APIKeys.Empty())
}

// updateMetricsPeriodically refreshes runtime gauges every 10 seconds.
func (s *Server) updateMetricsPeriodically() {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for range ticker.C {
		s.metrics.UpdateSystemMetrics(s.startTime)
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	})
}
