package handler

import (
	"errors"
	"net/http"
	"strconv"

	"reviewhub/internal/http-api/dto"
	"reviewhub/internal/http-api/middleware"
	"reviewhub/internal/http-api/service"

	"github.com/gin-gonic/gin"
)

type CommentHandler struct {
	commentService service.CommentService
	reviewService  service.ReviewService
}

func NewCommentHandler(commentService service.CommentService, reviewService service.ReviewService) *CommentHandler {
	return &CommentHandler{
		commentService: commentService,
		reviewService:  reviewService,
	}
}

// RegisterRoutes nests comment routes under a review under a title.
func (h *CommentHandler) RegisterRoutes(rg *gin.RouterGroup, authGuard ...gin.HandlerFunc) {
	comments := rg.Group("/:title_id/reviews/:review_id/comments")
	comments.GET("", h.List)
	comments.GET("/:comment_id", h.Get)

	protected := comments.Group("", authGuard...)
	protected.POST("", h.Create)
	protected.PATCH("/:comment_id", h.Update)
	protected.DELETE("/:comment_id", h.Delete)
}

// GET /api/v1/titles/:title_id/reviews/:review_id/comments
func (h *CommentHandler) List(c *gin.Context) {
	reviewID, ok := h.resolveReview(c)
	if !ok {
		return
	}

	page, pageSize := pagination(c)

	comments, err := h.commentService.ListByReview(c.Request.Context(), reviewID, page, pageSize)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, comments)
}

// GET /api/v1/titles/:title_id/reviews/:review_id/comments/:comment_id
func (h *CommentHandler) Get(c *gin.Context) {
	reviewID, ok := h.resolveReview(c)
	if !ok {
		return
	}
	commentID, ok := commentParam(c)
	if !ok {
		return
	}

	comment, err := h.commentService.GetByID(c.Request.Context(), reviewID, commentID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

// POST /api/v1/titles/:title_id/reviews/:review_id/comments
func (h *CommentHandler) Create(c *gin.Context) {
	reviewID, ok := h.resolveReview(c)
	if !ok {
		return
	}

	var req dto.CreateCommentDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	caller := middleware.CallerFromContext(c)
	comment, err := h.commentService.Create(c.Request.Context(), reviewID, caller, req.Text)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

// PATCH /api/v1/titles/:title_id/reviews/:review_id/comments/:comment_id
func (h *CommentHandler) Update(c *gin.Context) {
	reviewID, ok := h.resolveReview(c)
	if !ok {
		return
	}
	commentID, ok := commentParam(c)
	if !ok {
		return
	}

	var req dto.UpdateCommentDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	caller := middleware.CallerFromContext(c)
	comment, err := h.commentService.Update(c.Request.Context(), reviewID, commentID, caller, req.Text)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

// DELETE /api/v1/titles/:title_id/reviews/:review_id/comments/:comment_id
func (h *CommentHandler) Delete(c *gin.Context) {
	reviewID, ok := h.resolveReview(c)
	if !ok {
		return
	}
	commentID, ok := commentParam(c)
	if !ok {
		return
	}

	caller := middleware.CallerFromContext(c)
	if err := h.commentService.Delete(c.Request.Context(), reviewID, commentID, caller); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// resolveReview parses both path ids and checks the review actually
// belongs to the title from the route.
func (h *CommentHandler) resolveReview(c *gin.Context) (int64, bool) {
	titleID, reviewID, ok := reviewPath(c)
	if !ok {
		return 0, false
	}

	if _, err := h.reviewService.GetByID(c.Request.Context(), titleID, reviewID); err != nil {
		if errors.Is(err, service.ErrTitleNotFound) || errors.Is(err, service.ErrReviewNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		}
		return 0, false
	}

	return reviewID, true
}

func (h *CommentHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrReviewNotFound), errors.Is(err, service.ErrCommentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotAuthor):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func commentParam(c *gin.Context) (int64, bool) {
	commentID, err := strconv.ParseInt(c.Param("comment_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid comment ID"})
		return 0, false
	}
	return commentID, true
}
