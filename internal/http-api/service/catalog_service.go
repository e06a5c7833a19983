package service

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"time"

	"reviewhub/internal/cache"
	"reviewhub/internal/http-api/dto"
	"reviewhub/internal/http-api/models"
	"reviewhub/internal/http-api/repository"

	"gorm.io/gorm"
)

var (
	ErrCategoryNotFound = errors.New("category not found")
	ErrGenreNotFound    = errors.New("genre not found")
	ErrInvalidSlug      = errors.New("slug may contain letters, digits, hyphens and underscores only")
	ErrSlugTaken        = errors.New("slug already in use")
)

var slugRE = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)

const (
	categoriesCacheKey = "catalog:categories"
	genresCacheKey     = "catalog:genres"
)

// CategoryStore is the storage surface the catalog needs for categories.
type CategoryStore interface {
	GetAll(ctx context.Context) ([]models.Category, error)
	Create(ctx context.Context, c *models.Category) error
	DeleteBySlug(ctx context.Context, slug string) error
}

// GenreStore is the storage surface the catalog needs for genres.
type GenreStore interface {
	GetAll(ctx context.Context) ([]models.Genre, error)
	Create(ctx context.Context, g *models.Genre) error
	DeleteBySlug(ctx context.Context, slug string) error
}

// CatalogService manages the two flat lookup lists, categories and
// genres. Lists are read far more often than written, so the full list
// is cached and pages are cut from it; the cache is dropped on every
// write.
type CatalogService interface {
	Categories(ctx context.Context, page, pageSize int) (*dto.PaginatedCategoryResponse, error)
	CreateCategory(ctx context.Context, req dto.CreateCategoryDTO) (*dto.CategoryResponse, error)
	DeleteCategory(ctx context.Context, slug string) error
	Genres(ctx context.Context, page, pageSize int) (*dto.PaginatedGenreResponse, error)
	CreateGenre(ctx context.Context, req dto.CreateCategoryDTO) (*dto.GenreResponse, error)
	DeleteGenre(ctx context.Context, slug string) error
}

type catalogService struct {
	categoryRepo CategoryStore
	genreRepo    GenreStore
	cache        *cache.Client
	cacheTTL     time.Duration
}

func NewCatalogService(categoryRepo CategoryStore, genreRepo GenreStore, cacheClient *cache.Client, cacheTTL time.Duration) CatalogService {
	return &catalogService{
		categoryRepo: categoryRepo,
		genreRepo:    genreRepo,
		cache:        cacheClient,
		cacheTTL:     cacheTTL,
	}
}

func (s *catalogService) Categories(ctx context.Context, page, pageSize int) (*dto.PaginatedCategoryResponse, error) {
	full, err := s.allCategories(ctx)
	if err != nil {
		return nil, err
	}
	pageItems := pageOf(full, page, pageSize)
	return dto.NewPaginatedCategoryResponse(pageItems, len(full), page, pageSize), nil
}

func (s *catalogService) allCategories(ctx context.Context) ([]dto.CategoryResponse, error) {
	if data, _ := s.cache.Get(ctx, categoriesCacheKey); data != nil {
		var cached []dto.CategoryResponse
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached, nil
		}
	}

	list, err := s.categoryRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.CategoryResponse, 0, len(list))
	for _, c := range list {
		resp = append(resp, dto.CategoryFromModel(c))
	}

	if data, err := json.Marshal(resp); err == nil {
		s.cache.Set(ctx, categoriesCacheKey, data, s.cacheTTL)
	}
	return resp, nil
}

func (s *catalogService) CreateCategory(ctx context.Context, req dto.CreateCategoryDTO) (*dto.CategoryResponse, error) {
	name, slug, err := normalizeCatalogEntry(req)
	if err != nil {
		return nil, err
	}

	category := &models.Category{Name: name, Slug: slug}
	if err := s.categoryRepo.Create(ctx, category); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, ErrSlugTaken
		}
		return nil, err
	}

	s.cache.Delete(ctx, categoriesCacheKey)
	resp := dto.CategoryFromModel(*category)
	return &resp, nil
}

func (s *catalogService) DeleteCategory(ctx context.Context, slug string) error {
	if err := s.categoryRepo.DeleteBySlug(ctx, slug); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCategoryNotFound
		}
		return err
	}
	s.cache.Delete(ctx, categoriesCacheKey)
	return nil
}

func (s *catalogService) Genres(ctx context.Context, page, pageSize int) (*dto.PaginatedGenreResponse, error) {
	full, err := s.allGenres(ctx)
	if err != nil {
		return nil, err
	}
	pageItems := pageOf(full, page, pageSize)
	return dto.NewPaginatedGenreResponse(pageItems, len(full), page, pageSize), nil
}

func (s *catalogService) allGenres(ctx context.Context) ([]dto.GenreResponse, error) {
	if data, _ := s.cache.Get(ctx, genresCacheKey); data != nil {
		var cached []dto.GenreResponse
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached, nil
		}
	}

	list, err := s.genreRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.GenreResponse, 0, len(list))
	for _, g := range list {
		resp = append(resp, dto.GenreFromModel(g))
	}

	if data, err := json.Marshal(resp); err == nil {
		s.cache.Set(ctx, genresCacheKey, data, s.cacheTTL)
	}
	return resp, nil
}

func (s *catalogService) CreateGenre(ctx context.Context, req dto.CreateCategoryDTO) (*dto.GenreResponse, error) {
	name, slug, err := normalizeCatalogEntry(req)
	if err != nil {
		return nil, err
	}

	genre := &models.Genre{Name: name, Slug: slug}
	if err := s.genreRepo.Create(ctx, genre); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, ErrSlugTaken
		}
		return nil, err
	}

	s.cache.Delete(ctx, genresCacheKey)
	resp := dto.GenreFromModel(*genre)
	return &resp, nil
}

func (s *catalogService) DeleteGenre(ctx context.Context, slug string) error {
	if err := s.genreRepo.DeleteBySlug(ctx, slug); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrGenreNotFound
		}
		return err
	}
	s.cache.Delete(ctx, genresCacheKey)
	return nil
}

func normalizeCatalogEntry(req dto.CreateCategoryDTO) (name, slug string, err error) {
	name = strings.TrimSpace(req.Name)
	slug = strings.TrimSpace(req.Slug)
	if name == "" || !slugRE.MatchString(slug) {
		return "", "", ErrInvalidSlug
	}
	return name, slug, nil
}

// pageOf cuts one page out of the full cached list. Out-of-range pages
// come back empty, not as an error.
func pageOf[T any](items []T, page, pageSize int) []T {
	start := (page - 1) * pageSize
	if start >= len(items) {
		return []T{}
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
