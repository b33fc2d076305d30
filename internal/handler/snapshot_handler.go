package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/siak-warlock/internal/dto"
	"github.com/noah-isme/siak-warlock/internal/middleware"
	"github.com/noah-isme/siak-warlock/internal/models"
	"github.com/noah-isme/siak-warlock/internal/service"
	appErrors "github.com/noah-isme/siak-warlock/pkg/errors"
	"github.com/noah-isme/siak-warlock/pkg/response"
)

type trackerService interface {
	Ingest(ctx context.Context, snapshot *models.CatalogSnapshot) (*service.TrackerResult, error)
	Latest(ctx context.Context) (*models.CatalogSnapshot, error)
	Last() (*service.TrackerResult, bool)
}

type changesetExporter interface {
	Changeset(result *service.TrackerResult, format models.ExportFormat) (*service.ExportedFile, error)
}

// SnapshotHandler accepts scraped catalogs and serves tracker results.
type SnapshotHandler struct {
	tracker   trackerService
	exporter  changesetExporter
	validator *validator.Validate
	now       func() time.Time
}

// NewSnapshotHandler constructs the handler.
func NewSnapshotHandler(tracker trackerService, exporter changesetExporter, validate *validator.Validate) *SnapshotHandler {
	if validate == nil {
		validate = validator.New()
	}
	return &SnapshotHandler{tracker: tracker, exporter: exporter, validator: validate, now: time.Now}
}

// Ingest godoc
// @Summary Ingest a catalog snapshot
// @Description Diffs the snapshot against the previous one, notifies on changes and stores it.
// @Tags Snapshots
// @Accept json
// @Produce json
// @Param payload body dto.IngestSnapshotRequest true "Snapshot"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /snapshots [post]
func (h *SnapshotHandler) Ingest(c *gin.Context) {
	var req dto.IngestSnapshotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid snapshot payload"))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid snapshot payload"))
		return
	}

	takenAt := h.now().UTC()
	if raw := strings.TrimSpace(req.TakenAt); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "taken_at must be RFC3339"))
			return
		}
		takenAt = parsed
	}

	snapshot, err := models.NewCatalogSnapshot(takenAt, toSections(req.Sections))
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.tracker.Ingest(c.Request.Context(), snapshot)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetMeta(c, "section_count", snapshot.Len())
	response.JSON(c, http.StatusOK, result, middleware.ExtractMeta(c))
}

// Latest godoc
// @Summary Latest stored snapshot
// @Tags Snapshots
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /snapshots/latest [get]
func (h *SnapshotHandler) Latest(c *gin.Context) {
	snapshot, err := h.tracker.Latest(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, snapshot, map[string]interface{}{"section_count": snapshot.Len()})
}

// LatestChangeset godoc
// @Summary Changeset of the most recent tracker run
// @Tags Snapshots
// @Produce json
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "json, csv or pdf"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /changesets/latest [get]
func (h *SnapshotHandler) LatestChangeset(c *gin.Context) {
	format, ok := models.ParseExportFormat(c.Query("format"))
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format must be json, csv or pdf"))
		return
	}
	result, ok := h.tracker.Last()
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "no tracker run recorded yet"))
		return
	}
	if format == models.ExportFormatJSON || h.exporter == nil {
		response.JSON(c, http.StatusOK, result)
		return
	}
	file, err := h.exporter.Changeset(result, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Data)
}

func toSections(payload []dto.SectionPayload) []models.Section {
	sections := make([]models.Section, 0, len(payload))
	for _, p := range payload {
		meetings := make([]models.Meeting, 0, len(p.Schedule))
		for _, m := range p.Schedule {
			meetings = append(meetings, models.Meeting{
				Day:       strings.TrimSpace(m.Day),
				StartTime: strings.TrimSpace(m.StartTime),
				EndTime:   strings.TrimSpace(m.EndTime),
				Room:      strings.TrimSpace(m.Room),
			})
		}
		sections = append(sections, models.Section{
			Code:       strings.TrimSpace(p.Code),
			CourseName: strings.TrimSpace(p.CourseName),
			Professor:  strings.TrimSpace(p.Professor),
			Schedule:   meetings,
			Capacity:   p.Capacity,
			Enrolled:   p.Enrolled,
		})
	}
	return sections
}
