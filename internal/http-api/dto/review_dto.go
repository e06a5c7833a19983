package dto

import (
	"time"

	"reviewhub/internal/http-api/models"
)

// CreateReviewDTO: score is a pointer so a legitimate 0 survives the
// required check
type CreateReviewDTO struct {
	Text  string `json:"text"`
	Score *int   `json:"score" binding:"required,min=0,max=10"`
}

// UpdateReviewDTO: partial update of the caller's review
type UpdateReviewDTO struct {
	Text  *string `json:"text"`
	Score *int    `json:"score" binding:"omitempty,min=0,max=10"`
}

type ReviewResponse struct {
	ID      int64     `json:"id"`
	Text    string    `json:"text"`
	Author  string    `json:"author"`
	Score   int       `json:"score"`
	PubDate time.Time `json:"pub_date"`
}

type PaginatedReviewResponse struct {
	Reviews  []ReviewResponse `json:"reviews"`
	Total    int              `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
}

func FromModelToReviewResponse(r *models.Review) *ReviewResponse {
	return &ReviewResponse{
		ID:      r.ID,
		Text:    r.Text,
		Author:  r.Author.Username,
		Score:   r.Score,
		PubDate: r.PubDate,
	}
}

func NewPaginatedReviewResponse(reviews []ReviewResponse, total, page, pageSize int) *PaginatedReviewResponse {
	return &PaginatedReviewResponse{
		Reviews:  reviews,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}
}
