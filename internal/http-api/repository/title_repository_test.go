package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"reviewhub/internal/http-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// setupTestDB starts a throwaway postgres container and migrates the
// schema into it. Skipped in short mode and when docker is unavailable.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container-backed test in short mode")
	}

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "reviewhub",
				"POSTGRES_PASSWORD": "reviewhub",
				"POSTGRES_DB":       "reviewhub_test",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	if err != nil {
		t.Skipf("could not start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf(
		"host=%s port=%s user=reviewhub password=reviewhub dbname=reviewhub_test sslmode=disable",
		host, port.Port(),
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Genre{},
		&models.Title{},
		&models.Review{},
	))

	return db
}

func createTestUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Role:     models.RoleUser,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func TestTitleRepo_RatingDerivation(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	titles := NewTitleRepo(db)
	reviews := NewReviewRepository(db)

	title := &models.Title{Name: "The Stand", Year: 1978}
	require.NoError(t, titles.Create(ctx, title))

	// no reviews yet, so there is nothing to average
	got, err := titles.GetByID(ctx, title.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Rating)

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	require.NoError(t, reviews.Create(ctx, &models.Review{
		TitleID: title.ID, AuthorID: alice.ID, Text: "solid", Score: 7,
	}))
	require.NoError(t, reviews.Create(ctx, &models.Review{
		TitleID: title.ID, AuthorID: bob.ID, Text: "great", Score: 9,
	}))

	got, err = titles.GetByID(ctx, title.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Rating)
	assert.InDelta(t, 8.0, *got.Rating, 0.001)

	carol := createTestUser(t, db, "carol")
	require.NoError(t, reviews.Create(ctx, &models.Review{
		TitleID: title.ID, AuthorID: carol.ID, Text: "meh", Score: 5,
	}))

	got, err = titles.GetByID(ctx, title.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Rating)
	assert.InDelta(t, 7.0, *got.Rating, 0.001)
}

func TestTitleRepo_RatingNotStoredAndListAgrees(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	titles := NewTitleRepo(db)
	reviews := NewReviewRepository(db)

	rated := &models.Title{Name: "Dune", Year: 1965}
	require.NoError(t, titles.Create(ctx, rated))
	bare := &models.Title{Name: "Arrival", Year: 2016}
	require.NoError(t, titles.Create(ctx, bare))

	dave := createTestUser(t, db, "dave")
	require.NoError(t, reviews.Create(ctx, &models.Review{
		TitleID: rated.ID, AuthorID: dave.ID, Text: "epic", Score: 10,
	}))

	// the titles table itself must not grow a rating column
	assert.False(t, db.Migrator().HasColumn(&models.Title{}, "rating"))

	list, total, err := titles.List(ctx, TitleFilter{}, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)

	byName := make(map[string]*float64, len(list))
	for i := range list {
		byName[list[i].Name] = list[i].Rating
	}
	require.NotNil(t, byName["Dune"])
	assert.InDelta(t, 10.0, *byName["Dune"], 0.001)
	assert.Nil(t, byName["Arrival"])
}

func TestReviewRepository_DuplicateHitsUniqueIndex(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	titles := NewTitleRepo(db)
	reviews := NewReviewRepository(db)

	title := &models.Title{Name: "Solaris", Year: 1961}
	require.NoError(t, titles.Create(ctx, title))
	eve := createTestUser(t, db, "eve")

	require.NoError(t, reviews.Create(ctx, &models.Review{
		TitleID: title.ID, AuthorID: eve.ID, Text: "first", Score: 6,
	}))

	err := reviews.Create(ctx, &models.Review{
		TitleID: title.ID, AuthorID: eve.ID, Text: "second", Score: 9,
	})
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))
	assert.Equal(t, "idx_reviews_title_author", UniqueViolationConstraint(err))
}
