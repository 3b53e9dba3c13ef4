// Package server provides the main HTTP server for fleetdeck.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/HerbHall/fleetdeck/internal/version"
)

// ReadinessChecker verifies that the server is ready to serve traffic.
// Returns nil if ready, an error describing why not otherwise.
type ReadinessChecker func(ctx context.Context) error

// SimpleRouteRegistrar registers API routes on the server mux
// (consumer-side interface, implemented by the settings and ws handlers).
type SimpleRouteRegistrar interface {
	RegisterRoutes(mux *http.ServeMux)
}

// Options toggles optional server behaviour.
type Options struct {
	// DevMode disables rate limiting; the frontend dev proxy sends every
	// request from one address.
	DevMode bool
	// ReadOnly rejects every mutating request.
	ReadOnly bool
}

// operationalPaths are neither rate limited nor logged per request.
var operationalPaths = []string{"/healthz", "/readyz", "/metrics"}

// Server is the main fleetdeck HTTP server.
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
	mux        *http.ServeMux
	ready      ReadinessChecker
	started    time.Time
}

// New creates a new Server with middleware and routes.
// ready and dashboard are optional; pass nil to skip the readiness probe or
// the embedded dashboard.
func New(addr string, logger *zap.Logger, ready ReadinessChecker, dashboard http.Handler, opts Options, routes ...SimpleRouteRegistrar) *Server {
	mux := http.NewServeMux()
	s := &Server{
		logger:  logger,
		mux:     mux,
		ready:   ready,
		started: time.Now(),
	}

	s.registerRoutes()
	for _, r := range routes {
		r.RegisterRoutes(mux)
	}

	// Unknown API paths get a problem document instead of the SPA shell.
	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		NotFound(w, "no route for "+r.URL.Path, r.URL.Path)
	})

	// Dashboard last, as the SPA catch-all.
	if dashboard != nil {
		mux.Handle("/", dashboard)
	}

	middlewares := []Middleware{
		RecoveryMiddleware(logger),
		RequestIDMiddleware,
		LoggingMiddleware(logger, operationalPaths),
		SecurityHeadersMiddleware,
		VersionHeaderMiddleware,
	}
	if opts.DevMode {
		logger.Info("rate limiting disabled (dev_mode)")
	} else {
		middlewares = append(middlewares, RateLimitMiddleware(100, 200, operationalPaths))
	}
	if opts.ReadOnly {
		logger.Info("read-only mode enabled, settings changes are rejected")
		middlewares = append(middlewares, ReadOnlyMiddleware)
	}

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           Chain(mux, middlewares...),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) registerRoutes() {
	// Unversioned operational endpoints.
	s.mux.HandleFunc("GET /healthz", s.handleHealthz)
	s.mux.HandleFunc("GET /readyz", s.handleReadyz)
	s.mux.Handle("GET /metrics", promhttp.Handler())

	// Versioned API endpoints.
	s.mux.HandleFunc("GET /api/v1/health", s.handleHealth)
}

// Handler returns the fully wrapped handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start begins serving HTTP requests. It returns nil after Shutdown.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// readinessTimeout bounds the storage ping behind /readyz.
const readinessTimeout = 2 * time.Second

type probeStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// handleHealthz is the liveness probe. It only proves the process serves HTTP.
func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, probeStatus{Status: "alive"})
}

// handleReadyz pings the settings backend (SQLite file or Redis).
func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if s.ready == nil {
		writeJSON(w, http.StatusOK, probeStatus{Status: "ready"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()
	if err := s.ready(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, probeStatus{Status: "not ready", Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, probeStatus{Status: "ready"})
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status        string            `json:"status" example:"ok"`
	Service       string            `json:"service" example:"fleetdeck"`
	UptimeSeconds int64             `json:"uptime_seconds" example:"3600"`
	Version       map[string]string `json:"version"`
}

// handleHealth returns service status with build information.
//
//	@Summary		Health check
//	@Description	Returns service health status with version information.
//	@Tags			system
//	@Produce		json
//	@Success		200	{object}	HealthResponse
//	@Router			/health [get]
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:        "ok",
		Service:       "fleetdeck",
		UptimeSeconds: int64(time.Since(s.started).Seconds()),
		Version:       version.Map(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
