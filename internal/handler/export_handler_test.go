package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sigasig-engine/internal/service"
	appErrors "github.com/noah-isme/sigasig-engine/pkg/errors"
)

type exporterMock struct {
	lastFingerprint string
	lastFormat      service.ExportFormat
	file            *service.ExportFile
	err             error
}

func (m *exporterMock) Timetable(fingerprint string, format service.ExportFormat) (*service.ExportFile, error) {
	m.lastFingerprint = fingerprint
	m.lastFormat = format
	return m.file, m.err
}

func performExport(handler *ExportHandler, url string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/schedule/export/:fingerprint", handler.Timetable)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, url, nil)
	router.ServeHTTP(w, req)
	return w
}

func TestExportTimetableDownload(t *testing.T) {
	mockSvc := &exporterMock{file: &service.ExportFile{
		Filename:    "timetable-abcdef12.csv",
		ContentType: "text/csv",
		Data:        []byte("Day,Period\n"),
	}}
	handler := &ExportHandler{service: mockSvc}

	w := performExport(handler, "/schedule/export/abcdef12?format=csv")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "abcdef12", mockSvc.lastFingerprint)
	assert.Equal(t, service.FormatCSV, mockSvc.lastFormat)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "timetable-abcdef12.csv")
	assert.Equal(t, "Day,Period\n", w.Body.String())
}

func TestExportTimetableDefaultFormat(t *testing.T) {
	mockSvc := &exporterMock{file: &service.ExportFile{ContentType: "text/csv"}}
	handler := &ExportHandler{service: mockSvc}

	performExport(handler, "/schedule/export/abcdef12")
	assert.Equal(t, service.FormatCSV, mockSvc.lastFormat)
}

func TestExportTimetableNotFound(t *testing.T) {
	mockSvc := &exporterMock{err: appErrors.Clone(appErrors.ErrNotFound, "no cached schedule for this fingerprint")}
	handler := &ExportHandler{service: mockSvc}

	w := performExport(handler, "/schedule/export/unknown")
	require.Equal(t, http.StatusNotFound, w.Code)
}
