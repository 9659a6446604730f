package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"flowcli/internal/config"
	"flowcli/pkg/contracts"
)

// HealthHandler handles health-related HTTP requests
type HealthHandler struct {
	paths   *config.Paths
	started time.Time
	logger  *slog.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(paths *config.Paths, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		paths:   paths,
		started: time.Now(),
		logger:  logger.With(slog.String("handler", "health")),
	}
}

// HealthResponse is the body of GET /api/health
type HealthResponse struct {
	Status    string    `json:"status"`
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
	Uptime    string    `json:"uptime"`
	OutputDir string    `json:"output_dir"`
}

// HealthCheck handles GET /api/health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	if !config.FileExists(h.paths.ChartsDir) {
		status = "degraded"
		h.logger.WarnContext(r.Context(), "charts directory missing",
			slog.String("charts_dir", h.paths.ChartsDir))
	}

	render.JSON(w, r, HealthResponse{
		Status:    status,
		Version:   contracts.Version,
		Timestamp: time.Now().UTC(),
		Uptime:    time.Since(h.started).Round(time.Second).String(),
		OutputDir: h.paths.OutputDir,
	})
}

// Version handles GET /api/version
func (h *HealthHandler) Version(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, contracts.GetVersionInfo())
}
