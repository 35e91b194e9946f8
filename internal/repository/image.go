package repository

import (
	"context"

	"inkwell/internal/models"

	"gorm.io/gorm"
)

// ImageRepository defines storage operations for blog image rows.
type ImageRepository interface {
	Create(ctx context.Context, image *models.BlogImage) error
	GetByID(ctx context.Context, id uint) (*models.BlogImage, error)
	ListByBlog(ctx context.Context, blogID uint) ([]models.BlogImage, error)
	Delete(ctx context.Context, id uint) (*models.BlogImage, error)
	// SetFeatured marks featuredID as the only featured image of the blog.
	// featuredID 0 clears the flag on every image.
	SetFeatured(ctx context.Context, blogID, featuredID uint) error
}

type imageRepository struct {
	db *gorm.DB
}

// NewImageRepository returns a repository implementation for blog images.
func NewImageRepository(db *gorm.DB) ImageRepository {
	return &imageRepository{db: db}
}

func (r *imageRepository) Create(ctx context.Context, image *models.BlogImage) error {
	return translate(r.db.WithContext(ctx).Create(image).Error, "BlogImage", image.ImageURL)
}

func (r *imageRepository) GetByID(ctx context.Context, id uint) (*models.BlogImage, error) {
	var image models.BlogImage
	if err := r.db.WithContext(ctx).First(&image, id).Error; err != nil {
		return nil, translate(err, "BlogImage", id)
	}
	return &image, nil
}

func (r *imageRepository) ListByBlog(ctx context.Context, blogID uint) ([]models.BlogImage, error) {
	var images []models.BlogImage
	err := r.db.WithContext(ctx).Where("blog_id = ?", blogID).Order("id ASC").Find(&images).Error
	return images, err
}

func (r *imageRepository) Delete(ctx context.Context, id uint) (*models.BlogImage, error) {
	var image models.BlogImage
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&image, id).Error; err != nil {
			return translate(err, "BlogImage", id)
		}
		return tx.Delete(&models.BlogImage{}, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &image, nil
}

func (r *imageRepository) SetFeatured(ctx context.Context, blogID, featuredID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.BlogImage{}).
			Where("blog_id = ? AND id <> ?", blogID, featuredID).
			Update("is_featured", false).Error; err != nil {
			return err
		}
		if featuredID == 0 {
			return nil
		}
		res := tx.Model(&models.BlogImage{}).
			Where("blog_id = ? AND id = ?", blogID, featuredID).
			Update("is_featured", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("BlogImage", featuredID)
		}
		return nil
	})
}
