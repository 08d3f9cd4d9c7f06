package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sigasig-engine/internal/dto"
	"github.com/noah-isme/sigasig-engine/internal/service"
	appErrors "github.com/noah-isme/sigasig-engine/pkg/errors"
	"github.com/noah-isme/sigasig-engine/pkg/response"
)

const maxClassesPerRequest = 512

type scheduleGenerator interface {
	Generate(ctx context.Context, req dto.ScheduleRequest) (*dto.ScheduleResponse, error)
	Progress(jobID string) (*dto.ProgressResponse, error)
}

// ScheduleHandler exposes the scheduling endpoints.
type ScheduleHandler struct {
	service scheduleGenerator
}

// NewScheduleHandler constructs the handler.
func NewScheduleHandler(svc *service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{service: svc}
}

// Generate computes (or recalls from cache) a weekly schedule for the posted
// teachers, rooms, and classes. On timeout the best-effort partial schedule
// travels beside the error payload.
func (h *ScheduleHandler) Generate(c *gin.Context) {
	var req dto.ScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid schedule payload"))
		return
	}
	if len(req.Classes) > maxClassesPerRequest {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "classes exceeds supported limit"))
		return
	}
	result, err := h.service.Generate(c.Request.Context(), req)
	if err != nil {
		if result != nil {
			response.Error(c, err, result)
			return
		}
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Progress reports pipeline progress for a previously submitted job.
func (h *ScheduleHandler) Progress(c *gin.Context) {
	progress, err := h.service.Progress(c.Param("jobId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, progress, nil)
}
