package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"fictures-server/internal/middleware"
	"fictures-server/internal/models"
	"fictures-server/internal/service"
)

// CommentHandler serves comment threads and votes.
type CommentHandler struct {
	comments service.CommentService
	logger   *zap.Logger
}

func NewCommentHandler(comments service.CommentService, logger *zap.Logger) *CommentHandler {
	return &CommentHandler{
		comments: comments,
		logger:   logger.Named("CommentHandler"),
	}
}

func (h *CommentHandler) RegisterRoutes(api *gin.RouterGroup) {
	api.POST("/stories/:story_id/comments", h.createComment)
	api.GET("/stories/:story_id/comments", h.listThreads)
	api.DELETE("/comments/:comment_id", h.deleteComment)
	api.PUT("/comments/:comment_id/vote", h.voteComment)
}

func (h *CommentHandler) createComment(c *gin.Context) {
	principal := middleware.CurrentPrincipal(c)
	storyID, ok := parseUUIDParam(c, "story_id")
	if !ok {
		return
	}

	var req createCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	comment := &models.Comment{
		StoryID:   storyID,
		ChapterID: req.ChapterID,
		ParentID:  req.ParentID,
		Body:      req.Body,
	}
	created, err := h.comments.CreateComment(c.Request.Context(), principal.UserID, comment)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	kind := "comment"
	if created.ParentID != nil {
		kind = "reply"
	}
	commentsCreatedTotal.WithLabelValues(kind).Inc()

	c.JSON(http.StatusCreated, created)
}

func (h *CommentHandler) listThreads(c *gin.Context) {
	storyID, ok := parseUUIDParam(c, "story_id")
	if !ok {
		return
	}
	limit, offset := parsePagination(c)

	var chapterID *uuid.UUID
	if raw := c.Query("chapter_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			badRequest(c, "Invalid chapter_id format")
			return
		}
		chapterID = &id
	}

	threads, err := h.comments.ListThreads(c.Request.Context(), storyID, chapterID, limit, offset)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, listResponse{Data: threads, Limit: limit, Offset: offset})
}

func (h *CommentHandler) deleteComment(c *gin.Context) {
	principal := middleware.CurrentPrincipal(c)
	commentID, ok := parseUUIDParam(c, "comment_id")
	if !ok {
		return
	}

	if err := h.comments.DeleteComment(c.Request.Context(), principal.UserID, commentID); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *CommentHandler) voteComment(c *gin.Context) {
	principal := middleware.CurrentPrincipal(c)
	commentID, ok := parseUUIDParam(c, "comment_id")
	if !ok {
		return
	}

	var req voteCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Vote must be -1, 0 or 1: "+err.Error())
		return
	}

	if err := h.comments.VoteComment(c.Request.Context(), principal.UserID, commentID, req.Vote); err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.StatusResponse{Status: "voted"})
}
