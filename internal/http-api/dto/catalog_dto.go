package dto

import "reviewhub/internal/http-api/models"

// CreateCategoryDTO doubles for genres; both are name+slug pairs
type CreateCategoryDTO struct {
	Name string `json:"name" binding:"required,max=256"`
	Slug string `json:"slug" binding:"required,max=50"`
}

type CategoryResponse struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type GenreResponse struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type PaginatedCategoryResponse struct {
	Categories []CategoryResponse `json:"categories"`
	Total      int                `json:"total"`
	Page       int                `json:"page"`
	PageSize   int                `json:"page_size"`
}

type PaginatedGenreResponse struct {
	Genres   []GenreResponse `json:"genres"`
	Total    int             `json:"total"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
}

func CategoryFromModel(c models.Category) CategoryResponse {
	return CategoryResponse{Name: c.Name, Slug: c.Slug}
}

func GenreFromModel(g models.Genre) GenreResponse {
	return GenreResponse{Name: g.Name, Slug: g.Slug}
}

func NewPaginatedCategoryResponse(categories []CategoryResponse, total, page, pageSize int) *PaginatedCategoryResponse {
	return &PaginatedCategoryResponse{
		Categories: categories,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
	}
}

func NewPaginatedGenreResponse(genres []GenreResponse, total, page, pageSize int) *PaginatedGenreResponse {
	return &PaginatedGenreResponse{
		Genres:   genres,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}
}
