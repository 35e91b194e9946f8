package service

import (
	"context"
	"testing"
	"time"

	"inkwell/internal/cache"
	"inkwell/internal/config"
	"inkwell/internal/database"
	"inkwell/internal/models"
	"inkwell/internal/repository"
	"inkwell/internal/storage"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var pngData = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type fixture struct {
	db       *gorm.DB
	store    *storage.MemoryStore
	auth     *AuthService
	profiles *ProfileService
	blogs    *BlogService
	images   *ImageService
	comments *CommentService
	reacts   *ReactionService
}

// newFixture wires every service over a migrated in-memory sqlite database
// and an in-memory object store. c may be nil.
func newFixture(t *testing.T, c *cache.Cache) *fixture {
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

	if c == nil {
		c = cache.New(nil)
	}
	cfg := &config.Config{JWTSecret: "test-secret-with-at-least-32-characters!", ImageMaxUploadSizeMB: 1}

	profileRepo := repository.NewProfileRepository(db, c)
	blogRepo := repository.NewBlogRepository(db)
	store := storage.NewMemoryStore("test", "")

	images := NewImageService(repository.NewImageRepository(db), blogRepo, store, cfg)
	blogs := NewBlogService(blogRepo, images)
	auth := NewAuthService(repository.NewUserRepository(db), profileRepo, c, cfg)
	auth.hashCost = bcrypt.MinCost

	return &fixture{
		db:       db,
		store:    store,
		auth:     auth,
		profiles: NewProfileService(profileRepo, images),
		blogs:    blogs,
		images:   images,
		comments: NewCommentService(repository.NewCommentRepository(db), blogs),
		reacts:   NewReactionService(repository.NewReactionRepository(db), blogs),
	}
}

func (f *fixture) seedProfile(t *testing.T, id, username string) {
	t.Helper()
	require.NoError(t, f.db.Create(&models.Profile{ID: id, Username: username}).Error)
}

func (f *fixture) seedBlog(t *testing.T, userID, title string, published bool) *models.Blog {
	t.Helper()
	b := &models.Blog{
		UserID:    userID,
		Title:     title,
		Content:   "Body of " + title,
		Category:  "Other",
		Published: published,
		CreatedAt: time.Now(),
	}
	require.NoError(t, f.db.Create(b).Error)
	return b
}

func as(userID string) context.Context {
	return WithActor(context.Background(), userID)
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	appErr, ok := models.AsAppError(err)
	require.True(t, ok, "expected AppError, got %T: %v", err, err)
	require.Equal(t, code, appErr.Code, appErr.Message)
}
