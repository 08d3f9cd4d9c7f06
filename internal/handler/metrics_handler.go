package handler

import (
	"net/http"
	"os/exec"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sigasig-engine/internal/service"
)

// MetricsHandler exposes observability endpoints.
type MetricsHandler struct {
	metrics    *service.MetricsService
	solverPath string
}

// NewMetricsHandler constructs a metrics handler.
func NewMetricsHandler(metrics *service.MetricsService, solverPath string) *MetricsHandler {
	return &MetricsHandler{metrics: metrics, solverPath: solverPath}
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Health responds with a generic OK payload for liveness probes.
func (h *MetricsHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready reports readiness plus whether the exact solver binary is reachable.
// A missing solver is not fatal; the engine degrades to the greedy heuristic.
func (h *MetricsHandler) Ready(c *gin.Context) {
	solver := "available"
	if _, err := exec.LookPath(h.solverPath); err != nil {
		solver = "unavailable"
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "solver": solver})
}
