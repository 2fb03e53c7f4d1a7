package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/evalboard/evalboard-api/internal/models"
	appErrors "github.com/evalboard/evalboard-api/pkg/errors"
	"github.com/evalboard/evalboard-api/pkg/response"
)

type syncService interface {
	Sync(ctx context.Context, userID, accessToken string) (*models.SyncResult, error)
	History(ctx context.Context, limit int) ([]models.SyncRunDetail, error)
	LastStatus(ctx context.Context) (*models.SyncRunDetail, error)
}

// SyncHandler exposes the survey synchronisation endpoints.
type SyncHandler struct {
	service syncService
}

// NewSyncHandler constructs a sync handler.
func NewSyncHandler(svc syncService) *SyncHandler {
	return &SyncHandler{service: svc}
}

// Trigger godoc
// @Summary Trigger a survey sync
// @Description Pulls survey rows from the configured source and upserts them
// @Tags Sync
// @Accept json
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /sync [post]
func (h *SyncHandler) Trigger(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var payload struct {
		AccessToken string `json:"access_token"`
	}
	// the body is optional: file-backed sources need no token
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&payload); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid sync payload"))
			return
		}
	}

	result, err := h.service.Sync(c.Request.Context(), claims.UserID, payload.AccessToken)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, result, nil)
}

// History godoc
// @Summary List sync runs
// @Description Returns the most recent sync runs, newest first
// @Tags Sync
// @Produce json
// @Param limit query int false "Maximum runs to return"
// @Success 200 {object} response.Envelope
// @Router /sync/history [get]
func (h *SyncHandler) History(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "limit must be a non-negative integer"))
			return
		}
		limit = parsed
	}

	runs, err := h.service.History(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, runs, nil)
}

// Status godoc
// @Summary Latest sync status
// @Description Returns the most recent sync run, or null when none exist
// @Tags Sync
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /sync/status [get]
func (h *SyncHandler) Status(c *gin.Context) {
	run, err := h.service.LastStatus(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, run, nil)
}
