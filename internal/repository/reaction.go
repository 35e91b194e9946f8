package repository

import (
	"context"
	"time"

	"inkwell/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReactionRepository defines the interface for reaction data operations
type ReactionRepository interface {
	// Upsert writes the user's reaction on the blog, replacing any previous one.
	Upsert(ctx context.Context, blogID uint, userID, value string) error
	Remove(ctx context.Context, blogID uint, userID string) error
	Get(ctx context.Context, blogID uint, userID string) (*models.Reaction, error)
	ListByBlog(ctx context.Context, blogID uint) ([]models.Reaction, error)
}

type reactionRepository struct {
	db *gorm.DB
}

// NewReactionRepository creates a new reaction repository
func NewReactionRepository(db *gorm.DB) ReactionRepository {
	return &reactionRepository{db: db}
}

func (r *reactionRepository) Upsert(ctx context.Context, blogID uint, userID, value string) error {
	if !models.ValidReaction(value) {
		return models.NewValidationError("reaction must be like or dislike")
	}
	now := time.Now()
	row := &models.Reaction{
		BlogID:    blogID,
		UserID:    userID,
		Reaction:  value,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "blog_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"reaction", "updated_at"}),
	}).Create(row).Error
	return translate(err, "Reaction", blogID)
}

func (r *reactionRepository) Remove(ctx context.Context, blogID uint, userID string) error {
	return r.db.WithContext(ctx).
		Where("blog_id = ? AND user_id = ?", blogID, userID).
		Delete(&models.Reaction{}).Error
}

func (r *reactionRepository) Get(ctx context.Context, blogID uint, userID string) (*models.Reaction, error) {
	var reaction models.Reaction
	err := r.db.WithContext(ctx).Where("blog_id = ? AND user_id = ?", blogID, userID).First(&reaction).Error
	if err != nil {
		return nil, translate(err, "Reaction", blogID)
	}
	return &reaction, nil
}

func (r *reactionRepository) ListByBlog(ctx context.Context, blogID uint) ([]models.Reaction, error) {
	var reactions []models.Reaction
	err := r.db.WithContext(ctx).Where("blog_id = ?", blogID).Order("id ASC").Find(&reactions).Error
	return reactions, err
}
