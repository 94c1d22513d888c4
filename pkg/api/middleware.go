package api

import (
	"context"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dd0wney/cluso-threatmodel/pkg/auth"
	"github.com/dd0wney/cluso-threatmodel/pkg/logging"
)

// contextKey avoids collisions with other packages' context values.
type contextKey string

const (
	requestIDContextKey contextKey = "request_id"
	claimsContextKey    contextKey = "claims"
)

// RequestIDHeader is the header name for request IDs
const RequestIDHeader = "X-Request-ID"

// GetRequestID extracts the request ID from the request context.
func GetRequestID(r *http.Request) string {
	if id, ok := r.Context().Value(requestIDContextKey).(string); ok {
		return id
	}
	return ""
}

// sanitizeRequestID removes potentially dangerous characters from client
// supplied request IDs.
func sanitizeRequestID(id string) string {
	var result strings.Builder
	result.Grow(len(id))
	for _, c := range id {
		if (c >= 'a' && c <= 'z') ||
			(c >= 'A' && c <= 'Z') ||
			(c >= '0' && c <= '9') ||
			c == '-' || c == '_' || c == '.' {
			result.WriteRune(c)
		}
	}
	return result.String()
}

// requestIDMiddleware tags every request with an ID for log correlation.
// A client-provided X-Request-ID is kept after sanitization; otherwise a
// fresh UUID is generated.
func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID != "" {
			if len(requestID) > 64 {
				requestID = requestID[:64]
			}
			requestID = sanitizeRequestID(requestID)
		}
		if requestID == "" {
			requestID = uuid.NewString()
		}

		w.Header().Set(RequestIDHeader, requestID)
		ctx := context.WithValue(r.Context(), requestIDContextKey, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// panicRecoveryMiddleware recovers from panics in HTTP handlers so one bad
// request cannot take the server down.
func (s *Server) panicRecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				s.logger.Error("panic in HTTP handler",
					logging.String("method", r.Method),
					logging.String("path", r.URL.Path),
					logging.RequestID(GetRequestID(r)),
					logging.Any("panic", err),
					logging.String("stack", string(debug.Stack())))
				http.Error(w, "Internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Info("request handled",
			logging.RequestID(GetRequestID(r)),
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.Duration("elapsed", time.Since(start)))
	})
}

// bodySizeLimitMiddleware limits the size of incoming request bodies.
func (s *Server) bodySizeLimitMiddleware(next http.Handler, maxBytes int64) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > maxBytes {
			s.respondError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		// Safety net for chunked transfer encoding
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		next.ServeHTTP(w, r)
	})
}

// metricsMiddleware tracks HTTP request metrics
func (s *Server) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		s.metrics.HTTPRequestsInFlight.Inc()
		defer s.metrics.HTTPRequestsInFlight.Dec()

		wrapper := &metricsResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapper, r)

		statusStr := strconv.Itoa(wrapper.statusCode)
		s.metrics.RecordHTTPRequest(r.Method, r.URL.Path, statusStr, time.Since(start))
		s.metrics.HTTPResponseSizeBytes.WithLabelValues(r.Method, r.URL.Path).Observe(float64(wrapper.bytesWritten))
	})
}

// metricsResponseWriter wraps http.ResponseWriter to capture status code and
// bytes written
type metricsResponseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int
}

func (w *metricsResponseWriter) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *metricsResponseWriter) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.bytesWritten += n
	return n, err
}

// requireAuth protects an endpoint with bearer token or API key auth. When
// neither a JWT manager nor API keys are configured the endpoint is open.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.authEnabled() {
			next.ServeHTTP(w, r)
			return
		}

		// Bearer token (Authorization: Bearer <token>)
		authHeader := r.Header.Get("Authorization")
		if s.cfg.JWTManager != nil && strings.HasPrefix(authHeader, "Bearer ") {
			token := strings.TrimPrefix(authHeader, "Bearer ")
			claims, err := s.cfg.JWTManager.ValidateToken(r.Context(), token)
			if err != nil {
				s.logger.Warn("token validation failed", logging.Error(err))
				s.metrics.RecordAuthFailure()
				s.respondError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}
			ctx := context.WithValue(r.Context(), claimsContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		// API key (X-API-Key: <key>)
		apiKey := r.Header.Get("X-API-Key")
		if s.cfg.APIKeys != nil && apiKey != "" {
			subject, err := s.cfg.APIKeys.ValidateKey(apiKey)
			if err != nil {
				s.logger.Warn("API key validation failed", logging.Error(err))
				s.metrics.RecordAuthFailure()
				s.respondError(w, http.StatusUnauthorized, "Invalid API key")
				return
			}
			claims := &auth.Claims{Subject: subject, Role: auth.RoleAdmin}
			ctx := context.WithValue(r.Context(), claimsContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		s.metrics.RecordAuthFailure()
		s.respondError(w, http.StatusUnauthorized,
			"Missing authentication (Bearer token or X-API-Key header required)")
	}
}

// GetClaims extracts authenticated caller claims from the request context.
func GetClaims(r *http.Request) (*auth.Claims, bool) {
	claims, ok := r.Context().Value(claimsContextKey).(*auth.Claims)
	return claims, ok
}
