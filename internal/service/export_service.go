package service

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/siak-warlock/internal/models"
	appErrors "github.com/noah-isme/siak-warlock/pkg/errors"
	"github.com/noah-isme/siak-warlock/pkg/export"
)

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

type exportStorage interface {
	Save(filename string, data []byte) (string, error)
}

// ExportedFile is a rendered export.
type ExportedFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportService renders changesets and enrollment plans as JSON, CSV or PDF.
type ExportService struct {
	storage exportStorage
	csv     csvRenderer
	pdf     pdfRenderer
	logger  *zap.Logger
}

// NewExportService constructs an ExportService. storage may be nil when files are only streamed.
func NewExportService(storage exportStorage, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = &export.CSVExporter{WithBOM: true}
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{storage: storage, csv: csv, pdf: pdf, logger: logger}
}

// Changeset renders a tracker result.
func (s *ExportService) Changeset(result *TrackerResult, format models.ExportFormat) (*ExportedFile, error) {
	base := "changeset-" + result.CurrentAt.UTC().Format("20060102-150405")
	return s.render(base, format, result, ChangesetDataset(result.Changeset), "Perubahan Jadwal "+result.CurrentAt.UTC().Format(time.RFC3339))
}

// Plan renders an enrollment report.
func (s *ExportService) Plan(report *EnrollmentReport, format models.ExportFormat) (*ExportedFile, error) {
	base := "plan-" + report.TakenAt.UTC().Format("20060102-150405")
	payload := struct {
		*EnrollmentReport
		Decisions []models.MatchDecisionView `json:"decisions"`
	}{report, report.Views()}
	return s.render(base, format, payload, PlanDataset(report), "Rencana Pengisian IRS")
}

// Save writes a rendered file through the configured storage.
func (s *ExportService) Save(file *ExportedFile) (string, error) {
	if s.storage == nil {
		return "", appErrors.Clone(appErrors.ErrPreconditionFailed, "export storage not configured")
	}
	path, err := s.storage.Save(file.Filename, file.Data)
	if err != nil {
		return "", err
	}
	s.logger.Info("export saved", zap.String("path", path), zap.Int("bytes", len(file.Data)))
	return path, nil
}

func (s *ExportService) render(base string, format models.ExportFormat, payload any, dataset export.Dataset, title string) (*ExportedFile, error) {
	var (
		data []byte
		err  error
	)
	switch format {
	case models.ExportFormatJSON:
		data, err = json.MarshalIndent(payload, "", "  ")
	case models.ExportFormatCSV:
		data, err = s.csv.Render(dataset)
	case models.ExportFormatPDF:
		data, err = s.pdf.Render(dataset, title)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
	if err != nil {
		return nil, err
	}
	return &ExportedFile{
		Filename:    base + "." + string(format),
		ContentType: format.ContentType(),
		Data:        data,
	}, nil
}

// ChangesetDataset flattens a changeset into one row per added/removed
// section and one row per modified field.
func ChangesetDataset(cs models.Changeset) export.Dataset {
	headers := []string{"change", "code", "course", "field", "old", "new"}
	rows := make([]map[string]string, 0, cs.Size())
	for _, section := range cs.Added {
		rows = append(rows, map[string]string{
			"change": "added", "code": section.Code, "course": section.CourseName,
			"new": sectionSummary(section),
		})
	}
	for _, section := range cs.Removed {
		rows = append(rows, map[string]string{
			"change": "removed", "code": section.Code, "course": section.CourseName,
			"old": sectionSummary(section),
		})
	}
	for _, change := range cs.Modified {
		for _, diff := range change.Diffs {
			rows = append(rows, map[string]string{
				"change": "modified", "code": change.Code, "course": change.CourseName,
				"field": diff.Field, "old": diff.OldValue, "new": diff.NewValue,
			})
		}
	}
	return export.Dataset{Headers: headers, Rows: rows}
}

// PlanDataset renders one row per criterion.
func PlanDataset(report *EnrollmentReport) export.Dataset {
	headers := []string{"criterion", "reason", "candidates", "code", "course", "professor", "schedule"}
	rows := make([]map[string]string, 0, len(report.Decisions))
	for _, d := range report.Decisions {
		row := map[string]string{
			"criterion":  d.Criterion.Label(),
			"reason":     string(d.Reason),
			"candidates": strconv.Itoa(d.CandidateCount),
		}
		if d.Section != nil {
			row["code"] = d.Section.Code
			row["course"] = d.Section.CourseName
			row["professor"] = d.Section.Professor
			row["schedule"] = d.Section.ScheduleText()
		}
		rows = append(rows, row)
	}
	return export.Dataset{Headers: headers, Rows: rows}
}

func sectionSummary(section models.Section) string {
	parts := []string{}
	for _, v := range []string{section.Professor, section.ScheduleText(), section.LocationText()} {
		if v != "" {
			parts = append(parts, v)
		}
	}
	parts = append(parts, "cap "+strconv.Itoa(section.Capacity))
	return strings.Join(parts, " | ")
}
