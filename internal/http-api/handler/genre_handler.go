package handler

import (
	"errors"
	"net/http"

	"reviewhub/internal/http-api/dto"
	"reviewhub/internal/http-api/service"

	"github.com/gin-gonic/gin"
)

type GenreHandler struct {
	catalogService service.CatalogService
}

func NewGenreHandler(catalogService service.CatalogService) *GenreHandler {
	return &GenreHandler{catalogService: catalogService}
}

func (h *GenreHandler) RegisterRoutes(rg *gin.RouterGroup, writeGuard ...gin.HandlerFunc) {
	genres := rg.Group("/genres")
	genres.GET("", h.List)

	protected := genres.Group("", writeGuard...)
	protected.POST("", h.Create)
	protected.DELETE("/:slug", h.Delete)
}

// GET /api/v1/genres
func (h *GenreHandler) List(c *gin.Context) {
	page, pageSize := pagination(c)
	genres, err := h.catalogService.Genres(c.Request.Context(), page, pageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, genres)
}

// POST /api/v1/genres
func (h *GenreHandler) Create(c *gin.Context) {
	var req dto.CreateCategoryDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	genre, err := h.catalogService.CreateGenre(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidSlug):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrSlugTaken):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		}
		return
	}

	c.JSON(http.StatusCreated, genre)
}

// DELETE /api/v1/genres/:slug
func (h *GenreHandler) Delete(c *gin.Context) {
	if err := h.catalogService.DeleteGenre(c.Request.Context(), c.Param("slug")); err != nil {
		if errors.Is(err, service.ErrGenreNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.Status(http.StatusNoContent)
}
