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

var (
	ErrReviewNotFound = errors.New("review not found")
	// ErrDuplicateReview is a conflict, not a validation failure: the
	// fix is editing the existing review, not changing a field
	ErrDuplicateReview = errors.New("you have already reviewed this title")
	ErrNotAuthor       = errors.New("available to the author only")
)

type ReviewService interface {
	Create(ctx context.Context, titleID int64, caller permissions.Caller, text string, score int) (*dto.ReviewResponse, error)
	Update(ctx context.Context, titleID, reviewID int64, caller permissions.Caller, req dto.UpdateReviewDTO) (*dto.ReviewResponse, error)
	Delete(ctx context.Context, titleID, reviewID int64, caller permissions.Caller) error
	GetByID(ctx context.Context, titleID, reviewID int64) (*dto.ReviewResponse, error)
	ListByTitle(ctx context.Context, titleID int64, page, pageSize int) (*dto.PaginatedReviewResponse, error)
}

// TitleGetter is the narrow read surface reviews need from titles.
type TitleGetter interface {
	GetByID(ctx context.Context, id int64) (*models.Title, error)
}

type reviewService struct {
	reviewRepo repository.ReviewRepository
	titleRepo  TitleGetter
	policy     permissions.Policy
}

func NewReviewService(reviewRepo repository.ReviewRepository, titleRepo TitleGetter, policy permissions.Policy) ReviewService {
	return &reviewService{
		reviewRepo: reviewRepo,
		titleRepo:  titleRepo,
		policy:     policy,
	}
}

// Create adds the caller's review for a title. One review per
// (title, author): the pre-check gives a friendly error on the common
// path and the unique index settles concurrent creates.
func (s *reviewService) Create(ctx context.Context, titleID int64, caller permissions.Caller, text string, score int) (*dto.ReviewResponse, error) {
	if _, err := s.titleRepo.GetByID(ctx, titleID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTitleNotFound
		}
		return nil, err
	}

	exists, err := s.reviewRepo.ExistsByTitleAndAuthor(ctx, titleID, caller.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateReview
	}

	review := &models.Review{
		TitleID:  titleID,
		AuthorID: caller.ID,
		Text:     text,
		Score:    score,
	}
	if err := s.reviewRepo.Create(ctx, review); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, ErrDuplicateReview
		}
		return nil, err
	}

	// Reload with author data
	review, err = s.reviewRepo.GetByID(ctx, review.ID)
	if err != nil {
		return nil, err
	}

	return dto.FromModelToReviewResponse(review), nil
}

// Update edits an existing review. The duplicate guard is deliberately
// skipped: an author editing their sole review must not trip it.
func (s *reviewService) Update(ctx context.Context, titleID, reviewID int64, caller permissions.Caller, req dto.UpdateReviewDTO) (*dto.ReviewResponse, error) {
	review, err := s.loadForTitle(ctx, titleID, reviewID)
	if err != nil {
		return nil, err
	}

	if d := s.policy.Decide(caller, permissions.VerbWrite, permissions.ResourceAuthored, review.AuthorID); !d.Allowed {
		return nil, ErrNotAuthor
	}

	if req.Text != nil {
		review.Text = *req.Text
	}
	if req.Score != nil {
		review.Score = *req.Score
	}
	if err := s.reviewRepo.Update(ctx, review); err != nil {
		return nil, err
	}

	review, err = s.reviewRepo.GetByID(ctx, reviewID)
	if err != nil {
		return nil, err
	}

	return dto.FromModelToReviewResponse(review), nil
}

func (s *reviewService) Delete(ctx context.Context, titleID, reviewID int64, caller permissions.Caller) error {
	review, err := s.loadForTitle(ctx, titleID, reviewID)
	if err != nil {
		return err
	}

	if d := s.policy.Decide(caller, permissions.VerbWrite, permissions.ResourceAuthored, review.AuthorID); !d.Allowed {
		return ErrNotAuthor
	}

	return s.reviewRepo.Delete(ctx, reviewID)
}

func (s *reviewService) GetByID(ctx context.Context, titleID, reviewID int64) (*dto.ReviewResponse, error) {
	review, err := s.loadForTitle(ctx, titleID, reviewID)
	if err != nil {
		return nil, err
	}
	return dto.FromModelToReviewResponse(review), nil
}

func (s *reviewService) ListByTitle(ctx context.Context, titleID int64, page, pageSize int) (*dto.PaginatedReviewResponse, error) {
	if _, err := s.titleRepo.GetByID(ctx, titleID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTitleNotFound
		}
		return nil, err
	}

	reviews, total, err := s.reviewRepo.GetByTitle(ctx, titleID, page, pageSize)
	if err != nil {
		return nil, err
	}

	reviewResponses := make([]dto.ReviewResponse, 0, len(reviews))
	for _, review := range reviews {
		reviewResponses = append(reviewResponses, *dto.FromModelToReviewResponse(&review))
	}

	return dto.NewPaginatedReviewResponse(reviewResponses, int(total), page, pageSize), nil
}

// loadForTitle fetches a review and checks it belongs to the title from
// the route, so review ids cannot be addressed through a foreign title.
func (s *reviewService) loadForTitle(ctx context.Context, titleID, reviewID int64) (*models.Review, error) {
	review, err := s.reviewRepo.GetByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, err
	}
	if review.TitleID != titleID {
		return nil, ErrReviewNotFound
	}
	return review, nil
}
