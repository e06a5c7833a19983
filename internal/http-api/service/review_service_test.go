package service

import (
	"context"
	"testing"

	"reviewhub/internal/http-api/dto"
	"reviewhub/internal/http-api/models"
	"reviewhub/internal/http-api/permissions"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

// MockReviewRepository mocks the ReviewRepository interface
type MockReviewRepository struct {
	mock.Mock
}

func (m *MockReviewRepository) Create(ctx context.Context, review *models.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *MockReviewRepository) Update(ctx context.Context, review *models.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *MockReviewRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockReviewRepository) GetByID(ctx context.Context, id int64) (*models.Review, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Review), args.Error(1)
}

func (m *MockReviewRepository) GetByTitle(ctx context.Context, titleID int64, page, pageSize int) ([]models.Review, int64, error) {
	args := m.Called(ctx, titleID, page, pageSize)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]models.Review), args.Get(1).(int64), args.Error(2)
}

func (m *MockReviewRepository) ExistsByTitleAndAuthor(ctx context.Context, titleID int64, authorID string) (bool, error) {
	args := m.Called(ctx, titleID, authorID)
	return args.Bool(0), args.Error(1)
}

// MockTitleGetter mocks the TitleGetter interface
type MockTitleGetter struct {
	mock.Mock
}

func (m *MockTitleGetter) GetByID(ctx context.Context, id int64) (*models.Title, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Title), args.Error(1)
}

func userCaller(id string) permissions.Caller {
	return permissions.Caller{ID: id, Role: models.RoleUser, Authenticated: true}
}

func moderatorCaller(id string) permissions.Caller {
	return permissions.Caller{ID: id, Role: models.RoleModerator, Authenticated: true}
}

func newTestReviewService(reviewRepo *MockReviewRepository, titles *MockTitleGetter) ReviewService {
	return NewReviewService(reviewRepo, titles, permissions.DefaultPolicy())
}

func TestCreateReview_Success(t *testing.T) {
	mockReviews := new(MockReviewRepository)
	mockTitles := new(MockTitleGetter)
	svc := newTestReviewService(mockReviews, mockTitles)

	mockTitles.On("GetByID", mock.Anything, int64(7)).Return(&models.Title{ID: 7}, nil)
	mockReviews.On("ExistsByTitleAndAuthor", mock.Anything, int64(7), "u1").Return(false, nil)
	mockReviews.On("Create", mock.Anything, mock.AnythingOfType("*models.Review")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*models.Review).ID = 100
		}).Return(nil)
	mockReviews.On("GetByID", mock.Anything, int64(100)).Return(&models.Review{
		ID:       100,
		TitleID:  7,
		AuthorID: "u1",
		Text:     "great",
		Score:    8,
		Author:   models.User{Username: "john_doe"},
	}, nil)

	review, err := svc.Create(context.Background(), 7, userCaller("u1"), "great", 8)

	assert.NoError(t, err)
	assert.Equal(t, int64(100), review.ID)
	assert.Equal(t, "john_doe", review.Author)
	assert.Equal(t, 8, review.Score)
	mockReviews.AssertExpectations(t)
}

func TestCreateReview_SecondReviewRejected(t *testing.T) {
	mockReviews := new(MockReviewRepository)
	mockTitles := new(MockTitleGetter)
	svc := newTestReviewService(mockReviews, mockTitles)

	mockTitles.On("GetByID", mock.Anything, int64(7)).Return(&models.Title{ID: 7}, nil)
	mockReviews.On("ExistsByTitleAndAuthor", mock.Anything, int64(7), "u1").Return(true, nil)

	review, err := svc.Create(context.Background(), 7, userCaller("u1"), "again", 3)

	assert.ErrorIs(t, err, ErrDuplicateReview)
	assert.Nil(t, review)
	mockReviews.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateReview_ConcurrentDuplicate(t *testing.T) {
	mockReviews := new(MockReviewRepository)
	mockTitles := new(MockTitleGetter)
	svc := newTestReviewService(mockReviews, mockTitles)

	// the pre-check saw nothing, but a concurrent insert won the race
	mockTitles.On("GetByID", mock.Anything, int64(7)).Return(&models.Title{ID: 7}, nil)
	mockReviews.On("ExistsByTitleAndAuthor", mock.Anything, int64(7), "u1").Return(false, nil)
	mockReviews.On("Create", mock.Anything, mock.AnythingOfType("*models.Review")).
		Return(&pgconn.PgError{Code: "23505"})

	review, err := svc.Create(context.Background(), 7, userCaller("u1"), "racing", 5)

	assert.ErrorIs(t, err, ErrDuplicateReview)
	assert.Nil(t, review)
}

func TestCreateReview_TitleNotFound(t *testing.T) {
	mockReviews := new(MockReviewRepository)
	mockTitles := new(MockTitleGetter)
	svc := newTestReviewService(mockReviews, mockTitles)

	mockTitles.On("GetByID", mock.Anything, int64(404)).Return(nil, gorm.ErrRecordNotFound)

	review, err := svc.Create(context.Background(), 404, userCaller("u1"), "text", 5)

	assert.ErrorIs(t, err, ErrTitleNotFound)
	assert.Nil(t, review)
}

func TestUpdateReview_OwnerCanEdit(t *testing.T) {
	mockReviews := new(MockReviewRepository)
	svc := newTestReviewService(mockReviews, new(MockTitleGetter))

	stored := &models.Review{ID: 100, TitleID: 7, AuthorID: "u1", Text: "old", Score: 4}
	mockReviews.On("GetByID", mock.Anything, int64(100)).Return(stored, nil)
	mockReviews.On("Update", mock.Anything, mock.AnythingOfType("*models.Review")).Return(nil)

	newScore := 9
	review, err := svc.Update(context.Background(), 7, 100, userCaller("u1"), dto.UpdateReviewDTO{Score: &newScore})

	assert.NoError(t, err)
	assert.Equal(t, 9, review.Score)
	mockReviews.AssertExpectations(t)
}

func TestUpdateReview_NonAuthorForbidden(t *testing.T) {
	mockReviews := new(MockReviewRepository)
	svc := newTestReviewService(mockReviews, new(MockTitleGetter))

	stored := &models.Review{ID: 100, TitleID: 7, AuthorID: "u1"}
	mockReviews.On("GetByID", mock.Anything, int64(100)).Return(stored, nil)

	newScore := 1
	review, err := svc.Update(context.Background(), 7, 100, userCaller("u2"), dto.UpdateReviewDTO{Score: &newScore})

	assert.ErrorIs(t, err, ErrNotAuthor)
	assert.Nil(t, review)
	mockReviews.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestUpdateReview_ModeratorBypassesOwnership(t *testing.T) {
	mockReviews := new(MockReviewRepository)
	svc := newTestReviewService(mockReviews, new(MockTitleGetter))

	stored := &models.Review{ID: 100, TitleID: 7, AuthorID: "u1", Text: "spam"}
	mockReviews.On("GetByID", mock.Anything, int64(100)).Return(stored, nil)
	mockReviews.On("Update", mock.Anything, mock.AnythingOfType("*models.Review")).Return(nil)

	cleaned := "moderated"
	review, err := svc.Update(context.Background(), 7, 100, moderatorCaller("mod1"), dto.UpdateReviewDTO{Text: &cleaned})

	assert.NoError(t, err)
	assert.Equal(t, "moderated", review.Text)
}

func TestUpdateReview_WrongTitle(t *testing.T) {
	mockReviews := new(MockReviewRepository)
	svc := newTestReviewService(mockReviews, new(MockTitleGetter))

	stored := &models.Review{ID: 100, TitleID: 7, AuthorID: "u1"}
	mockReviews.On("GetByID", mock.Anything, int64(100)).Return(stored, nil)

	newScore := 5
	review, err := svc.Update(context.Background(), 8, 100, userCaller("u1"), dto.UpdateReviewDTO{Score: &newScore})

	assert.ErrorIs(t, err, ErrReviewNotFound)
	assert.Nil(t, review)
}

func TestDeleteReview_Owner(t *testing.T) {
	mockReviews := new(MockReviewRepository)
	svc := newTestReviewService(mockReviews, new(MockTitleGetter))

	stored := &models.Review{ID: 100, TitleID: 7, AuthorID: "u1"}
	mockReviews.On("GetByID", mock.Anything, int64(100)).Return(stored, nil)
	mockReviews.On("Delete", mock.Anything, int64(100)).Return(nil)

	err := svc.Delete(context.Background(), 7, 100, userCaller("u1"))

	assert.NoError(t, err)
	mockReviews.AssertExpectations(t)
}

func TestDeleteReview_NonAuthorForbidden(t *testing.T) {
	mockReviews := new(MockReviewRepository)
	svc := newTestReviewService(mockReviews, new(MockTitleGetter))

	stored := &models.Review{ID: 100, TitleID: 7, AuthorID: "u1"}
	mockReviews.On("GetByID", mock.Anything, int64(100)).Return(stored, nil)

	err := svc.Delete(context.Background(), 7, 100, userCaller("u2"))

	assert.ErrorIs(t, err, ErrNotAuthor)
	mockReviews.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}
