package service

import (
	"context"
	"errors"
	"time"

	"reviewhub/internal/http-api/dto"
	"reviewhub/internal/http-api/models"
	"reviewhub/internal/http-api/repository"

	"gorm.io/gorm"
)

var (
	ErrTitleNotFound   = errors.New("title not found")
	ErrYearInFuture    = errors.New("year cannot be greater than the current year")
	ErrUnknownCategory = errors.New("unknown category slug")
	ErrUnknownGenre    = errors.New("unknown genre slug")
)

type TitleService interface {
	List(ctx context.Context, filter repository.TitleFilter, page, pageSize int) (*dto.PaginatedTitleResponse, error)
	Get(ctx context.Context, id int64) (*dto.TitleResponse, error)
	Create(ctx context.Context, req dto.CreateTitleDTO) (*dto.TitleResponse, error)
	Update(ctx context.Context, id int64, req dto.UpdateTitleDTO) (*dto.TitleResponse, error)
	Delete(ctx context.Context, id int64) error
}

type titleService struct {
	titleRepo    *repository.TitleRepo
	categoryRepo *repository.CategoryRepo
	genreRepo    *repository.GenreRepo
}

func NewTitleService(titleRepo *repository.TitleRepo, categoryRepo *repository.CategoryRepo, genreRepo *repository.GenreRepo) TitleService {
	return &titleService{
		titleRepo:    titleRepo,
		categoryRepo: categoryRepo,
		genreRepo:    genreRepo,
	}
}

func (s *titleService) List(ctx context.Context, filter repository.TitleFilter, page, pageSize int) (*dto.PaginatedTitleResponse, error) {
	titles, total, err := s.titleRepo.List(ctx, filter, page, pageSize)
	if err != nil {
		return nil, err
	}

	titleResponses := make([]dto.TitleResponse, 0, len(titles))
	for _, title := range titles {
		titleResponses = append(titleResponses, *dto.FromModelToTitleResponse(&title))
	}

	return dto.NewPaginatedTitleResponse(titleResponses, int(total), page, pageSize), nil
}

func (s *titleService) Get(ctx context.Context, id int64) (*dto.TitleResponse, error) {
	title, err := s.titleRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTitleNotFound
		}
		return nil, err
	}
	return dto.FromModelToTitleResponse(title), nil
}

func (s *titleService) Create(ctx context.Context, req dto.CreateTitleDTO) (*dto.TitleResponse, error) {
	// checked against wall-clock now, not a stored constant
	if req.Year > time.Now().Year() {
		return nil, ErrYearInFuture
	}

	title := &models.Title{
		Name:        req.Name,
		Year:        req.Year,
		Description: req.Description,
	}

	if req.Category != "" {
		category, err := s.resolveCategory(ctx, req.Category)
		if err != nil {
			return nil, err
		}
		title.CategoryID = &category.ID
	}
	if len(req.Genre) > 0 {
		genres, err := s.resolveGenres(ctx, req.Genre)
		if err != nil {
			return nil, err
		}
		title.Genres = genres
	}

	if err := s.titleRepo.Create(ctx, title); err != nil {
		return nil, err
	}

	return s.Get(ctx, title.ID)
}

func (s *titleService) Update(ctx context.Context, id int64, req dto.UpdateTitleDTO) (*dto.TitleResponse, error) {
	title, err := s.titleRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTitleNotFound
		}
		return nil, err
	}

	if req.Year != nil {
		if *req.Year > time.Now().Year() {
			return nil, ErrYearInFuture
		}
		title.Year = *req.Year
	}
	if req.Name != nil {
		title.Name = *req.Name
	}
	if req.Description != nil {
		title.Description = *req.Description
	}
	if req.Category != nil {
		if *req.Category == "" {
			title.CategoryID = nil
			title.Category = nil
		} else {
			category, err := s.resolveCategory(ctx, *req.Category)
			if err != nil {
				return nil, err
			}
			title.CategoryID = &category.ID
			title.Category = nil
		}
	}
	if req.Genre != nil {
		genres, err := s.resolveGenres(ctx, *req.Genre)
		if err != nil {
			return nil, err
		}
		title.Genres = genres
	}

	if err := s.titleRepo.Update(ctx, title); err != nil {
		return nil, err
	}

	return s.Get(ctx, id)
}

func (s *titleService) Delete(ctx context.Context, id int64) error {
	err := s.titleRepo.Delete(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrTitleNotFound
	}
	return err
}

func (s *titleService) resolveCategory(ctx context.Context, slug string) (*models.Category, error) {
	category, err := s.categoryRepo.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnknownCategory
		}
		return nil, err
	}
	return category, nil
}

func (s *titleService) resolveGenres(ctx context.Context, slugs []string) ([]models.Genre, error) {
	genres, err := s.genreRepo.GetBySlugs(ctx, slugs)
	if err != nil {
		return nil, err
	}
	if len(genres) != len(slugs) {
		return nil, ErrUnknownGenre
	}
	return genres, nil
}
