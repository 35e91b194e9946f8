package repository

import (
	"testing"
	"time"

	"inkwell/internal/database"
	"inkwell/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupMockDB returns gorm over sqlmock for asserting SQL shape.
func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	return gormDB, mock
}

// setupTestDB returns a migrated in-memory sqlite database for behavior tests.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))
	return db
}

func seedProfile(t *testing.T, db *gorm.DB, id, username string) *models.Profile {
	t.Helper()
	p := &models.Profile{ID: id, Username: username}
	require.NoError(t, db.Create(p).Error)
	return p
}

func seedBlog(t *testing.T, db *gorm.DB, userID, title string, published bool, createdAt time.Time) *models.Blog {
	t.Helper()
	b := &models.Blog{
		UserID:    userID,
		Title:     title,
		Content:   "Body of " + title + " with enough text",
		Category:  "Tech",
		Published: published,
		CreatedAt: createdAt,
	}
	require.NoError(t, db.Create(b).Error)
	return b
}
