package repository

import (
	"context"

	"inkwell/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BlogRepository defines the interface for blog data operations
type BlogRepository interface {
	Create(ctx context.Context, blog *models.Blog) error
	GetByID(ctx context.Context, id uint) (*models.Blog, error)
	ListPublished(ctx context.Context, limit, offset int) ([]*models.Blog, int64, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Blog, error)
	Update(ctx context.Context, id uint, patch models.BlogPatch) (*models.Blog, error)
	// Delete removes the blog with its images, comments and reactions and
	// returns the storage keys of the deleted images.
	Delete(ctx context.Context, id uint) ([]string, error)
}

type blogRepository struct {
	db *gorm.DB
}

// NewBlogRepository creates a new blog repository
func NewBlogRepository(db *gorm.DB) BlogRepository {
	return &blogRepository{db: db}
}

func withImages(db *gorm.DB) *gorm.DB {
	return db.Preload("Images", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("blog_images.id ASC")
	})
}

func (r *blogRepository) Create(ctx context.Context, blog *models.Blog) error {
	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(blog).Error
	return translate(err, "Blog", blog.Title)
}

func (r *blogRepository) GetByID(ctx context.Context, id uint) (*models.Blog, error) {
	var blog models.Blog
	if err := withImages(r.db.WithContext(ctx)).First(&blog, id).Error; err != nil {
		return nil, translate(err, "Blog", id)
	}
	return &blog, nil
}

func (r *blogRepository) ListPublished(ctx context.Context, limit, offset int) ([]*models.Blog, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Blog{}).Where("published = ?", true).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var blogs []*models.Blog
	err := withImages(r.db.WithContext(ctx)).
		Where("published = ?", true).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&blogs).Error
	if err != nil {
		return nil, 0, err
	}
	return blogs, total, nil
}

func (r *blogRepository) ListByUser(ctx context.Context, userID string) ([]*models.Blog, error) {
	var blogs []*models.Blog
	err := withImages(r.db.WithContext(ctx)).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&blogs).Error
	return blogs, err
}

func (r *blogRepository) Update(ctx context.Context, id uint, patch models.BlogPatch) (*models.Blog, error) {
	if !patch.Empty() {
		res := r.db.WithContext(ctx).Model(&models.Blog{}).Where("id = ?", id).Updates(patch.Fields())
		if res.Error != nil {
			return nil, translate(res.Error, "Blog", id)
		}
		if res.RowsAffected == 0 {
			return nil, models.NewNotFoundError("Blog", id)
		}
	}
	return r.GetByID(ctx, id)
}

func (r *blogRepository) Delete(ctx context.Context, id uint) ([]string, error) {
	var keys []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var blog models.Blog
		if err := tx.Select("id").First(&blog, id).Error; err != nil {
			return translate(err, "Blog", id)
		}
		if err := tx.Model(&models.BlogImage{}).
			Where("blog_id = ? AND storage_key <> ''", id).
			Pluck("storage_key", &keys).Error; err != nil {
			return err
		}
		// children first so the delete also works without ON DELETE CASCADE
		for _, child := range []interface{}{&models.Reaction{}, &models.Comment{}, &models.BlogImage{}} {
			if err := tx.Where("blog_id = ?", id).Delete(child).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&models.Blog{}, id).Error
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}
