package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/parchmentlabs/folio"
)

// Build information, set at build time using ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// HealthHandler handles liveness and readiness probes.
type HealthHandler struct {
	folio folio.Folio
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(f folio.Folio) *HealthHandler {
	return &HealthHandler{folio: f}
}

// HealthCheck handles GET /health.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "folio",
		"version":   Version,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// LivenessCheck handles GET /live.
func (h *HealthHandler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "alive",
		"service":   "folio",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// ReadinessCheck handles GET /ready. The chunk store is exercised with a
// cheap count; a store that cannot answer within the timeout is not ready.
func (h *HealthHandler) ReadinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	response := gin.H{
		"status":    "ready",
		"service":   "folio",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    gin.H{},
	}
	checks := response["checks"].(gin.H)

	ready := true
	if h.folio == nil {
		checks["store"] = gin.H{"status": "unhealthy", "error": "client not initialized"}
		ready = false
	} else {
		started := time.Now()
		chunks, err := h.folio.Count(ctx)
		elapsed := time.Since(started)
		if err != nil {
			checks["store"] = gin.H{
				"status":   "unhealthy",
				"error":    err.Error(),
				"duration": elapsed.String(),
			}
			ready = false
		} else {
			checks["store"] = gin.H{
				"status":   "healthy",
				"chunks":   chunks,
				"duration": elapsed.String(),
			}
		}
	}

	if !ready {
		response["status"] = "not_ready"
		c.JSON(http.StatusServiceUnavailable, response)
		return
	}
	c.JSON(http.StatusOK, response)
}
