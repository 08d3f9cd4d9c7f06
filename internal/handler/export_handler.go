package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sigasig-engine/internal/service"
	"github.com/noah-isme/sigasig-engine/pkg/response"
)

type timetableExporter interface {
	Timetable(fingerprint string, format service.ExportFormat) (*service.ExportFile, error)
}

// ExportHandler serves timetable downloads for cached schedules.
type ExportHandler struct {
	service timetableExporter
}

// NewExportHandler constructs the handler.
func NewExportHandler(svc *service.ExportService) *ExportHandler {
	return &ExportHandler{service: svc}
}

// Timetable streams the cached schedule identified by fingerprint as CSV or
// PDF, selected by the "format" query parameter (default csv).
func (h *ExportHandler) Timetable(c *gin.Context) {
	format := service.ExportFormat(c.DefaultQuery("format", string(service.FormatCSV)))
	file, err := h.service.Timetable(c.Param("fingerprint"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.Data(http.StatusOK, file.ContentType, file.Data)
}
