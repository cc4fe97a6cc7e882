// Package handlers holds the plain HTTP endpoints served next to the MCP
// transport.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	"go.uber.org/zap"
)

// readyTimeout bounds the database ping behind /ready.
const readyTimeout = 2 * time.Second

// Pinger reports whether the catalog database answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingResponse contains service status and version information.
type PingResponse struct {
	Status      string `json:"status"`
	Version     string `json:"version"`
	Service     string `json:"service"`
	GoVersion   string `json:"go_version"`
	Environment string `json:"environment"`
}

// ReadyResponse reports database reachability.
type ReadyResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// HealthHandler handles health, readiness and ping endpoints.
type HealthHandler struct {
	version string
	env     string
	db      Pinger
	logger  *zap.Logger
}

// NewHealthHandler creates a HealthHandler. A nil db makes /ready always ok.
func NewHealthHandler(version, env string, db Pinger, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{version: version, env: env, db: db, logger: logger}
}

// RegisterRoutes registers the handler's routes on the given mux.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", h.Health)
	mux.HandleFunc("/ready", h.Ready)
	mux.HandleFunc("/ping", h.Ping)
}

// Health handles GET /health. It only proves the process is serving.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ready handles GET /ready by pinging the catalog database.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	resp := ReadyResponse{Status: "ok", Database: "ok"}
	status := http.StatusOK

	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			h.logger.Warn("Readiness check failed", zap.Error(err))
			resp = ReadyResponse{Status: "unavailable", Database: "unreachable"}
			status = http.StatusServiceUnavailable
		}
	}

	h.writeJSON(w, status, resp)
}

// Ping handles GET /ping with version and environment details.
func (h *HealthHandler) Ping(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, PingResponse{
		Status:      "ok",
		Version:     h.version,
		Service:     "ekaya-catalog",
		GoVersion:   runtime.Version(),
		Environment: h.env,
	})
}

func (h *HealthHandler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}
