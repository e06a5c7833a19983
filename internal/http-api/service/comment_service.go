package service

import (
	"context"
	"errors"

	"reviewhub/internal/http-api/dto"
	"reviewhub/internal/http-api/models"
	"reviewhub/internal/http-api/permissions"
	"reviewhub/internal/http-api/repository"

	"gorm.io/gorm"
)

var ErrCommentNotFound = errors.New("comment not found")

type CommentService interface {
	Create(ctx context.Context, reviewID int64, caller permissions.Caller, text string) (*dto.CommentResponse, error)
	Update(ctx context.Context, reviewID, commentID int64, caller permissions.Caller, text string) (*dto.CommentResponse, error)
	Delete(ctx context.Context, reviewID, commentID int64, caller permissions.Caller) error
	GetByID(ctx context.Context, reviewID, commentID int64) (*dto.CommentResponse, error)
	ListByReview(ctx context.Context, reviewID int64, page, pageSize int) (*dto.PaginatedCommentResponse, error)
}

type commentService struct {
	commentRepo repository.CommentRepository
	reviewRepo  repository.ReviewRepository
	policy      permissions.Policy
}

func NewCommentService(commentRepo repository.CommentRepository, reviewRepo repository.ReviewRepository, policy permissions.Policy) CommentService {
	return &commentService{
		commentRepo: commentRepo,
		reviewRepo:  reviewRepo,
		policy:      policy,
	}
}

func (s *commentService) Create(ctx context.Context, reviewID int64, caller permissions.Caller, text string) (*dto.CommentResponse, error) {
	if _, err := s.reviewRepo.GetByID(ctx, reviewID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, err
	}

	comment := &models.Comment{
		ReviewID: reviewID,
		AuthorID: caller.ID,
		Text:     text,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}

	// Reload with author data
	comment, err := s.commentRepo.GetByID(ctx, comment.ID)
	if err != nil {
		return nil, err
	}

	return dto.FromModelToCommentResponse(comment), nil
}

func (s *commentService) Update(ctx context.Context, reviewID, commentID int64, caller permissions.Caller, text string) (*dto.CommentResponse, error) {
	comment, err := s.loadForReview(ctx, reviewID, commentID)
	if err != nil {
		return nil, err
	}

	if d := s.policy.Decide(caller, permissions.VerbWrite, permissions.ResourceAuthored, comment.AuthorID); !d.Allowed {
		return nil, ErrNotAuthor
	}

	comment.Text = text
	if err := s.commentRepo.Update(ctx, comment); err != nil {
		return nil, err
	}

	comment, err = s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return nil, err
	}

	return dto.FromModelToCommentResponse(comment), nil
}

func (s *commentService) Delete(ctx context.Context, reviewID, commentID int64, caller permissions.Caller) error {
	comment, err := s.loadForReview(ctx, reviewID, commentID)
	if err != nil {
		return err
	}

	if d := s.policy.Decide(caller, permissions.VerbWrite, permissions.ResourceAuthored, comment.AuthorID); !d.Allowed {
		return ErrNotAuthor
	}

	return s.commentRepo.Delete(ctx, commentID)
}

func (s *commentService) GetByID(ctx context.Context, reviewID, commentID int64) (*dto.CommentResponse, error) {
	comment, err := s.loadForReview(ctx, reviewID, commentID)
	if err != nil {
		return nil, err
	}
	return dto.FromModelToCommentResponse(comment), nil
}

func (s *commentService) ListByReview(ctx context.Context, reviewID int64, page, pageSize int) (*dto.PaginatedCommentResponse, error) {
	if _, err := s.reviewRepo.GetByID(ctx, reviewID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, err
	}

	comments, total, err := s.commentRepo.GetByReview(ctx, reviewID, page, pageSize)
	if err != nil {
		return nil, err
	}

	commentResponses := make([]dto.CommentResponse, 0, len(comments))
	for _, comment := range comments {
		commentResponses = append(commentResponses, *dto.FromModelToCommentResponse(&comment))
	}

	return dto.NewPaginatedCommentResponse(commentResponses, int(total), page, pageSize), nil
}

func (s *commentService) loadForReview(ctx context.Context, reviewID, commentID int64) (*models.Comment, error) {
	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, err
	}
	if comment.ReviewID != reviewID {
		return nil, ErrCommentNotFound
	}
	return comment, nil
}
