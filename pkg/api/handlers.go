package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/dd0wney/cluso-threatmodel/pkg/auth"
	"github.com/dd0wney/cluso-threatmodel/pkg/export"
	"github.com/dd0wney/cluso-threatmodel/pkg/logging"
	"github.com/dd0wney/cluso-threatmodel/pkg/threat"
	"github.com/dd0wney/cluso-threatmodel/pkg/validation"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	s.respondJSON(w, http.StatusOK, HealthResponse{
		Status:  "healthy",
		Version: s.version,
		Uptime:  time.Since(s.startTime).Round(time.Second).String(),
	})
}

// handleToken exchanges a valid API key for a short-lived bearer token.
func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if s.cfg.JWTManager == nil || s.cfg.APIKeys == nil || s.cfg.APIKeys.Empty() {
		s.respondError(w, http.StatusNotFound, "Token exchange is not enabled")
		return
	}

	var req TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	subject, err := s.cfg.APIKeys.ValidateKey(req.APIKey)
	if err != nil {
		s.metrics.RecordAuthFailure()
		s.respondError(w, http.StatusUnauthorized, "Invalid API key")
		return
	}

	token, err := s.cfg.JWTManager.GenerateToken(subject, auth.RoleAdmin)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "Failed to issue token")
		return
	}
	claims, err := s.cfg.JWTManager.ValidateToken(r.Context(), token)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "Failed to issue token")
		return
	}
	s.respondJSON(w, http.StatusOK, TokenResponse{
		Token:     token,
		ExpiresAt: claims.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

// decodeCompileRequest reads, decodes, and validates a compile request body.
func (s *Server) decodeCompileRequest(w http.ResponseWriter, r *http.Request) (*validation.CompileRequest, bool) {
	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return nil, false
	}

	var req validation.CompileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid JSON body")
		return nil, false
	}
	if err := validation.ValidateCompileRequest(&req); err != nil {
		s.metrics.RecordCompileRun("rejected", 0)
		s.respondError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	return &req, true
}

func requestBatches(req *validation.CompileRequest) []threat.Batch {
	batches := make([]threat.Batch, 0, len(req.Batches))
	for _, b := range req.Batches {
		batches = append(batches, threat.DecodeBatch(b.Source, b.Payload))
	}
	return batches
}

// handleCompile runs the pipeline and returns the compiled model as JSON.
func (s *Server) handleCompile(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeCompileRequest(w, r)
	if !ok {
		return
	}

	model := s.compiler.Compile(requestBatches(req), req.Architecture)
	fields := []logging.Field{
		logging.RequestID(GetRequestID(r)),
		logging.ThreatCount(len(model.Threats)),
	}
	if claims, ok := GetClaims(r); ok {
		fields = append(fields, logging.String("subject", claims.Subject))
	}
	s.logger.Info("compile request served", fields...)
	s.respondJSON(w, http.StatusOK, model)
}

// handleExport runs the pipeline and returns the compressed artifact.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeCompileRequest(w, r)
	if !ok {
		return
	}

	model := s.compiler.Compile(requestBatches(req), req.Architecture)

	start := time.Now()
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", `attachment; filename="threat-model.tma"`)
	n, err := export.WriteArtifact(w, model)
	if err != nil {
		// Headers are already on the wire; log and record, nothing else to do.
		s.logger.Error("artifact export failed", logging.Error(err))
		s.metrics.RecordExport("failure", 0, 0)
		return
	}
	s.metrics.RecordExport("success", n, time.Since(start))
	fields := []logging.Field{
		logging.RequestID(GetRequestID(r)),
		logging.String("size", fmt.Sprintf("%d bytes", n)),
	}
	if claims, ok := GetClaims(r); ok {
		fields = append(fields, logging.String("subject", claims.Subject))
	}
	s.logger.Info("artifact exported", fields...)
}
