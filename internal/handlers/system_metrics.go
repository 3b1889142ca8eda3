package handlers

import (
	"net/http"

	"github.com/graphscape/collab-api/internal/logging"
	"github.com/graphscape/collab-api/internal/metrics"
)

// SystemMetricsHandlers handles system metrics endpoints
type SystemMetricsHandlers struct {
	logger *logging.Logger
}

// NewSystemMetricsHandlers creates new system metrics handlers
func NewSystemMetricsHandlers(logger *logging.Logger) *SystemMetricsHandlers {
	return &SystemMetricsHandlers{logger: logger}
}

// GetSystemMetrics returns a current host and process snapshot
func (h *SystemMetricsHandlers) GetSystemMetrics(w http.ResponseWriter, r *http.Request) {
	systemMetrics, err := metrics.CollectSystemMetrics(r.Context())
	if err != nil {
		h.logger.Error("Failed to collect system metrics", err, nil)
		WriteError(w, http.StatusInternalServerError, err)
		return
	}

	WriteSuccess(w, systemMetrics, http.StatusOK)
}
