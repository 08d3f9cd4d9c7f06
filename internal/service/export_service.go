package service

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/noah-isme/sigasig-engine/internal/engine"
	appErrors "github.com/noah-isme/sigasig-engine/pkg/errors"
	"github.com/noah-isme/sigasig-engine/pkg/export"
)

// ExportFormat selects the rendered output type.
type ExportFormat string

const (
	FormatCSV ExportFormat = "csv"
	FormatPDF ExportFormat = "pdf"
)

// ExportFile is a rendered timetable ready to be served.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

type cachedResultSource interface {
	CachedResult(fingerprint string) (engine.ScheduleResult, bool)
}

// ExportService renders cached schedule results into downloadable files.
type ExportService struct {
	results cachedResultSource
	csv     csvRenderer
	pdf     pdfRenderer
	logger  *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(results cachedResultSource, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ExportService {
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{results: results, csv: csv, pdf: pdf, logger: logger}
}

// Timetable renders the cached result for a fingerprint.
func (s *ExportService) Timetable(fingerprint string, format ExportFormat) (*ExportFile, error) {
	if fingerprint == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "fingerprint is required")
	}
	result, ok := s.results.CachedResult(fingerprint)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no cached schedule for this fingerprint")
	}

	dataset := timetableDataset(result)

	switch format {
	case FormatCSV, "":
		data, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv timetable")
		}
		return &ExportFile{
			Filename:    fmt.Sprintf("timetable-%s.csv", fingerprint[:8]),
			ContentType: "text/csv",
			Data:        data,
		}, nil
	case FormatPDF:
		data, err := s.pdf.Render(dataset, "Weekly Timetable")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf timetable")
		}
		return &ExportFile{
			Filename:    fmt.Sprintf("timetable-%s.pdf", fingerprint[:8]),
			ContentType: "application/pdf",
			Data:        data,
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}

func timetableDataset(result engine.ScheduleResult) export.Dataset {
	assignments := make([]engine.Assignment, len(result.Assignments))
	copy(assignments, result.Assignments)
	sort.Slice(assignments, func(i, j int) bool {
		if assignments[i].Day != assignments[j].Day {
			return assignments[i].Day < assignments[j].Day
		}
		if assignments[i].Period != assignments[j].Period {
			return assignments[i].Period < assignments[j].Period
		}
		return assignments[i].RoomID < assignments[j].RoomID
	})

	headers := []string{"Day", "Period", "Class", "Subject", "Teacher", "Room", "Occurrence"}
	rows := make([]map[string]string, 0, len(assignments))
	for _, a := range assignments {
		rows = append(rows, map[string]string{
			"Day":        engine.Days[a.Day],
			"Period":     engine.PeriodLabel(a.Period),
			"Class":      a.ClassID,
			"Subject":    a.Subject,
			"Teacher":    a.TeacherID,
			"Room":       a.RoomID,
			"Occurrence": fmt.Sprintf("%d/%d", a.Occurrence, occurrenceTotal(result, a.ClassID)),
		})
	}
	return export.Dataset{Headers: headers, Rows: rows}
}

func occurrenceTotal(result engine.ScheduleResult, classID string) int {
	total := 0
	for _, a := range result.Assignments {
		if a.ClassID == classID {
			total++
		}
	}
	for _, u := range result.Unassigned {
		if u.ClassID == classID {
			total++
		}
	}
	return total
}
