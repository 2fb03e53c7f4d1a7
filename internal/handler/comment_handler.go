package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/evalboard/evalboard-api/internal/service"
	appErrors "github.com/evalboard/evalboard-api/pkg/errors"
	"github.com/evalboard/evalboard-api/pkg/response"
)

// CommentHandler exposes the comment curation endpoint.
type CommentHandler struct {
	service *service.CommentService
}

// NewCommentHandler constructs a comment handler.
func NewCommentHandler(svc *service.CommentService) *CommentHandler {
	return &CommentHandler{service: svc}
}

// Delete godoc
// @Summary Delete a comment
// @Description Tombstones every active comment matching the email and text; later syncs never restore it
// @Tags Comments
// @Accept json
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /comments/delete [post]
func (h *CommentHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var payload struct {
		Email       string `json:"email" binding:"required"`
		CommentText string `json:"comment_text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "email and comment_text are required"))
		return
	}

	deleted, err := h.service.Delete(c.Request.Context(), claims.UserID, payload.Email, payload.CommentText)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{"deleted": deleted}, nil)
}
