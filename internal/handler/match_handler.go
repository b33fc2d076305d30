package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/siak-warlock/internal/dto"
	"github.com/noah-isme/siak-warlock/internal/models"
	"github.com/noah-isme/siak-warlock/internal/service"
	appErrors "github.com/noah-isme/siak-warlock/pkg/errors"
	"github.com/noah-isme/siak-warlock/pkg/response"
)

type criteriaBuilder interface {
	Build(targets []dto.CourseTarget) (models.CriterionSet, error)
}

type matchResolver interface {
	Resolve(criteria models.CriterionSet, snapshot *models.CatalogSnapshot) *service.EnrollmentReport
}

type snapshotReader interface {
	Latest(ctx context.Context) (*models.CatalogSnapshot, error)
}

// MatchHandler resolves course targets against the latest snapshot.
type MatchHandler struct {
	criteria  criteriaBuilder
	resolver  matchResolver
	snapshots snapshotReader
	validator *validator.Validate
}

// NewMatchHandler constructs the handler.
func NewMatchHandler(criteria criteriaBuilder, resolver matchResolver, snapshots snapshotReader, validate *validator.Validate) *MatchHandler {
	if validate == nil {
		validate = validator.New()
	}
	return &MatchHandler{criteria: criteria, resolver: resolver, snapshots: snapshots, validator: validate}
}

// Match godoc
// @Summary Resolve course targets
// @Description Returns one decision per target in request order. Ambiguous matches are flagged with candidate_count.
// @Tags Match
// @Accept json
// @Produce json
// @Param payload body dto.MatchRequest true "Targets"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /match [post]
func (h *MatchHandler) Match(c *gin.Context) {
	var req dto.MatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid match payload"))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid match payload"))
		return
	}
	criteria, err := h.criteria.Build(req.Targets)
	if err != nil {
		response.Error(c, err)
		return
	}
	snapshot, err := h.snapshots.Latest(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	report := h.resolver.Resolve(criteria, snapshot)
	response.JSON(c, http.StatusOK, report.Views(), map[string]interface{}{
		"taken_at":  report.TakenAt,
		"selected":  report.Selected,
		"ambiguous": report.Ambiguous,
		"missing":   report.Missing,
	})
}
