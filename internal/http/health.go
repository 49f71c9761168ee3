package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	healthHealthy   = "healthy"
	healthUnhealthy = "unhealthy"
)

type HealthResponse struct {
	Status        string            `json:"status"`
	Time          string            `json:"time"`
	Version       string            `json:"version,omitempty"`
	SchemaVersion int               `json:"schema_version,omitempty"`
	Checks        map[string]string `json:"checks"`
}

type HealthController struct {
	db      HealthChecker
	version string
}

func NewHealthController(db HealthChecker, version string) *HealthController {
	return &HealthController{
		db:      db,
		version: version,
	}
}

// Status handles GET /health. It answers 503 when the database is unreachable.
func (h *HealthController) Status(c *gin.Context) {
	health := HealthResponse{
		Status:  healthHealthy,
		Time:    time.Now().Format(time.RFC3339),
		Version: h.version,
		Checks:  map[string]string{},
	}

	if h.db == nil {
		health.Checks["database"] = "not configured"
	} else {
		h.checkDatabase(c.Request.Context(), &health)
	}

	statusCode := http.StatusOK
	if health.Status != healthHealthy {
		statusCode = http.StatusServiceUnavailable
	}
	c.IndentedJSON(statusCode, health)
}

func (h *HealthController) checkDatabase(ctx context.Context, health *HealthResponse) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		health.Checks["database"] = "error: " + err.Error()
		health.Status = healthUnhealthy
		return
	}
	health.Checks["database"] = "ok"

	version, err := h.db.SchemaVersion(ctx)
	if err != nil {
		health.Checks["schema"] = "error: " + err.Error()
		return
	}
	health.SchemaVersion = version
	health.Checks["schema"] = fmt.Sprintf("v%d", version)
}
