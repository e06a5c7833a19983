package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"reviewhub/internal/http-api/dto"
	"reviewhub/internal/http-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockCategoryStore struct {
	mock.Mock
}

func (m *MockCategoryStore) GetAll(ctx context.Context) ([]models.Category, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Category), args.Error(1)
}

func (m *MockCategoryStore) Create(ctx context.Context, c *models.Category) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockCategoryStore) DeleteBySlug(ctx context.Context, slug string) error {
	args := m.Called(ctx, slug)
	return args.Error(0)
}

type MockGenreStore struct {
	mock.Mock
}

func (m *MockGenreStore) GetAll(ctx context.Context) ([]models.Genre, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Genre), args.Error(1)
}

func (m *MockGenreStore) Create(ctx context.Context, g *models.Genre) error {
	args := m.Called(ctx, g)
	return args.Error(0)
}

func (m *MockGenreStore) DeleteBySlug(ctx context.Context, slug string) error {
	args := m.Called(ctx, slug)
	return args.Error(0)
}

func TestCreateCategory_InvalidSlug(t *testing.T) {
	// slug validation fires before storage or cache access
	svc := NewCatalogService(nil, nil, nil, time.Minute)

	for _, slug := range []string{"", "with space", "slash/y", "dotted.slug"} {
		category, err := svc.CreateCategory(context.Background(), dto.CreateCategoryDTO{
			Name: "Books",
			Slug: slug,
		})
		assert.ErrorIs(t, err, ErrInvalidSlug, "slug %q", slug)
		assert.Nil(t, category)
	}
}

func TestCreateGenre_EmptyName(t *testing.T) {
	svc := NewCatalogService(nil, nil, nil, time.Minute)

	genre, err := svc.CreateGenre(context.Background(), dto.CreateCategoryDTO{
		Name: "   ",
		Slug: "valid-slug",
	})

	assert.ErrorIs(t, err, ErrInvalidSlug)
	assert.Nil(t, genre)
}

func TestCategories_SecondPage(t *testing.T) {
	categoryStore := new(MockCategoryStore)
	all := make([]models.Category, 0, 5)
	for i := 1; i <= 5; i++ {
		all = append(all, models.Category{
			ID:   int64(i),
			Name: fmt.Sprintf("Category %d", i),
			Slug: fmt.Sprintf("cat-%d", i),
		})
	}
	categoryStore.On("GetAll", mock.Anything).Return(all, nil)

	svc := NewCatalogService(categoryStore, nil, nil, time.Minute)

	resp, err := svc.Categories(context.Background(), 2, 2)

	assert.NoError(t, err)
	assert.Equal(t, 5, resp.Total)
	assert.Equal(t, 2, resp.Page)
	assert.Len(t, resp.Categories, 2)
	assert.Equal(t, "cat-3", resp.Categories[0].Slug)
	assert.Equal(t, "cat-4", resp.Categories[1].Slug)
}

func TestCategories_PageBeyondEnd(t *testing.T) {
	categoryStore := new(MockCategoryStore)
	categoryStore.On("GetAll", mock.Anything).Return([]models.Category{
		{ID: 1, Name: "Books", Slug: "books"},
	}, nil)

	svc := NewCatalogService(categoryStore, nil, nil, time.Minute)

	resp, err := svc.Categories(context.Background(), 4, 20)

	assert.NoError(t, err)
	assert.Equal(t, 1, resp.Total)
	assert.Empty(t, resp.Categories)
}

func TestGenres_LastPartialPage(t *testing.T) {
	genreStore := new(MockGenreStore)
	genreStore.On("GetAll", mock.Anything).Return([]models.Genre{
		{ID: 1, Name: "Drama", Slug: "drama"},
		{ID: 2, Name: "Comedy", Slug: "comedy"},
		{ID: 3, Name: "Western", Slug: "western"},
	}, nil)

	svc := NewCatalogService(nil, genreStore, nil, time.Minute)

	resp, err := svc.Genres(context.Background(), 2, 2)

	assert.NoError(t, err)
	assert.Equal(t, 3, resp.Total)
	assert.Len(t, resp.Genres, 1)
	assert.Equal(t, "western", resp.Genres[0].Slug)
}
