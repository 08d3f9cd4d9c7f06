package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sigasig-engine/internal/service"
	"github.com/noah-isme/sigasig-engine/pkg/response"
)

// CacheHandler exposes the result-cache admin surface.
type CacheHandler struct {
	service *service.ScheduleService
}

// NewCacheHandler constructs the handler.
func NewCacheHandler(svc *service.ScheduleService) *CacheHandler {
	return &CacheHandler{service: svc}
}

// Status reports cache occupancy and the cached fingerprints, most recent first.
func (h *CacheHandler) Status(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.service.CacheStatus(), nil)
}

// Clear drops every cached result.
func (h *CacheHandler) Clear(c *gin.Context) {
	h.service.ClearCache(c.Request.Context())
	response.NoContent(c)
}
