package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/conduit-api/internal/apperror"
	"github.com/conduit-api/internal/models"
	"github.com/conduit-api/internal/service"
)

const msgCommentDeleted = "Comment successfully deleted"

type addCommentRequest struct {
	Comment models.CommentInput `json:"comment"`
}

// CommentHandler handles article comment endpoints
type CommentHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(services *service.Services, log zerolog.Logger) *CommentHandler {
	return &CommentHandler{
		services: services,
		log:      log.With().Str("handler", "comment").Logger(),
	}
}

// List handles GET /api/articles/:slug/comments
func (h *CommentHandler) List(c *gin.Context) {
	comments, err := h.services.Comment.List(c.Request.Context(), c.Param("slug"), currentUserID(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, models.CommentsResponse{Comments: comments})
}

// Add handles POST /api/articles/:slug/comments
func (h *CommentHandler) Add(c *gin.Context) {
	var req addCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadBody(c, err)
		return
	}

	view, err := h.services.Comment.Add(c.Request.Context(), currentUserID(c), c.Param("slug"), req.Comment)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, models.CommentResponse{Comment: *view})
}

// Delete handles DELETE /api/articles/:slug/comments/:id
func (h *CommentHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(c, h.log, apperror.BadRequest("invalid comment id %q", c.Param("id")))
		return
	}

	view, err := h.services.Comment.Delete(c.Request.Context(), currentUserID(c), c.Param("slug"), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, models.CommentResponse{Message: msgCommentDeleted, Comment: *view})
}
