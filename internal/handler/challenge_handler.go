package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/siak-warlock/internal/dto"
	"github.com/noah-isme/siak-warlock/internal/middleware"
	"github.com/noah-isme/siak-warlock/internal/models"
	"github.com/noah-isme/siak-warlock/internal/service"
	appErrors "github.com/noah-isme/siak-warlock/pkg/errors"
	"github.com/noah-isme/siak-warlock/pkg/response"
)

type challengeRegistry interface {
	Pending() []service.PendingChallenge
	Deliver(reply models.ChallengeReply) bool
}

// ChallengeHandler lets an out-of-process chat listener see and answer captchas.
type ChallengeHandler struct {
	registry  challengeRegistry
	validator *validator.Validate
}

// NewChallengeHandler constructs the handler.
func NewChallengeHandler(registry challengeRegistry, validate *validator.Validate) *ChallengeHandler {
	if validate == nil {
		validate = validator.New()
	}
	return &ChallengeHandler{registry: registry, validator: validate}
}

// Current godoc
// @Summary Pending captcha challenges
// @Tags Challenges
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /challenges/current [get]
func (h *ChallengeHandler) Current(c *gin.Context) {
	pending := h.registry.Pending()
	response.JSON(c, http.StatusOK, pending, map[string]interface{}{"count": len(pending)})
}

// Reply godoc
// @Summary Deliver a captcha reply
// @Description The reply is accepted only when in_reply_to names a pending challenge. Later replies are ignored.
// @Tags Challenges
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.ChallengeReplyRequest true "Reply"
// @Success 202 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /challenges/replies [post]
func (h *ChallengeHandler) Reply(c *gin.Context) {
	var req dto.ChallengeReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid reply payload"))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reply payload"))
		return
	}

	author := req.Author
	if author == "" {
		if claims := middleware.ClaimsFromContext(c); claims != nil {
			author = claims.Subject
		}
	}
	reply := models.ChallengeReply{InReplyTo: req.InReplyTo, Content: req.Content, Author: author}
	if !h.registry.Deliver(reply) {
		response.Error(c, appErrors.Clone(appErrors.ErrConflict, "no pending challenge matches this reply"))
		return
	}
	response.JSON(c, http.StatusAccepted, gin.H{"accepted": true, "challenge_id": req.InReplyTo})
}
