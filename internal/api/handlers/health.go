package handlers

import (
	"net/http"
	"time"

	"github.com/PxPatel/trading-system/internal/api/models"
)

var startTime = time.Now()

const version = "1.0.0"

// HealthHandler handles health check requests.
func (h *Handlers) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.HealthResponse{
		Status:        "healthy",
		Timestamp:     time.Now().UTC(),
		UptimeSeconds: int64(time.Since(startTime).Seconds()),
		Version:       version,
	})
}
