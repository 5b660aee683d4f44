// Package api provides the HTTP surface of the daemon: health, store and
// config version reporting, an on-demand sanity pass, and Prometheus
// metrics.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aerialtv/aerial/internal/health"
	"github.com/aerialtv/aerial/internal/infra/sqlite"
	"github.com/aerialtv/aerial/internal/settings"
)

// Version is the build version reported by /api/version.
const Version = "0.1.0"

// Server is the daemon's HTTP API.
type Server struct {
	db             *sqlite.DB
	checker        *health.Checker
	configVersion  int
	metricsEnabled bool
}

// NewServer creates an API server over an open, migrated store.
func NewServer(db *sqlite.DB, checker *health.Checker, configVersion int) *Server {
	return &Server{db: db, checker: checker, configVersion: configVersion}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(time.Minute))

	r.Get("/health", s.handleHealth)
	r.Get("/api/version", s.handleVersion)
	r.Get("/api/status", s.handleStatus)
	r.Post("/api/check", s.handleCheck)

	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

// handleHealth reports the cached check results. Any failing check turns
// the response into a 503 so load balancers and process supervisors see it.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	code := http.StatusOK
	if s.checker != nil && !s.checker.IsHealthy() {
		code = http.StatusServiceUnavailable
	}
	var statuses []health.Status
	if s.checker != nil {
		statuses = s.checker.Statuses()
	}
	writeJSON(w, code, map[string]any{
		"healthy": code == http.StatusOK,
		"checks":  statuses,
	})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": Version})
}

// handleStatus reports the store's schema version and the config layout
// version, plus whether the schema is current.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	v, err := s.db.Version()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"schema_version":  v.String(),
		"schema_current":  v.Compare(sqlite.MaxSchemaVersion) == 0,
		"config_version":  s.configVersion,
		"config_current":  s.configVersion == settings.ConfigVersion,
		"schema_supports": sqlite.MinSchemaVersion.String() + " to " + sqlite.MaxSchemaVersion.String(),
	})
}

// handleCheck runs the sanity pass on demand and reports per-check repairs.
func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	results := s.db.SanityCheck(sqlite.DiskFileExists)
	writeJSON(w, http.StatusOK, map[string]any{"checks": results})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{"message": msg, "type": "error"},
	})
}
