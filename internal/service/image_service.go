package service

import (
	"context"
	"time"

	"inkwell/internal/config"
	"inkwell/internal/models"
	"inkwell/internal/observability"
	"inkwell/internal/repository"
	"inkwell/internal/storage"
)

const DefaultImageMaxUploadSizeMB = 10

type ImageService struct {
	images             repository.ImageRepository
	blogs              repository.BlogRepository
	store              storage.ObjectStore
	maxUploadSizeBytes int64
	now                func() time.Time
}

func NewImageService(
	images repository.ImageRepository,
	blogs repository.BlogRepository,
	store storage.ObjectStore,
	cfg *config.Config,
) *ImageService {
	maxUploadSizeMB := DefaultImageMaxUploadSizeMB
	if cfg != nil && cfg.ImageMaxUploadSizeMB > 0 {
		maxUploadSizeMB = cfg.ImageMaxUploadSizeMB
	}
	return &ImageService{
		images:             images,
		blogs:              blogs,
		store:              store,
		maxUploadSizeBytes: int64(maxUploadSizeMB) * 1024 * 1024,
		now:                time.Now,
	}
}

// put validates and stores one object and returns its public URL.
func (s *ImageService) put(ctx context.Context, kind, key string, upload models.Upload) (string, error) {
	contentType, err := storage.ValidateImage(upload, s.maxUploadSizeBytes)
	if err != nil {
		observability.ImageUploads.WithLabelValues(kind, "rejected").Inc()
		return "", err
	}
	upload.ContentType = contentType
	if err := s.store.Put(ctx, key, upload); err != nil {
		observability.ImageUploads.WithLabelValues(kind, "failed").Inc()
		return "", err
	}
	observability.ImageUploads.WithLabelValues(kind, "stored").Inc()
	return s.store.PublicURL(key), nil
}

func (s *ImageService) ownedBlog(ctx context.Context, blogID uint) (*models.Blog, error) {
	actor, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}
	blog, err := s.blogs.GetByID(ctx, blogID)
	if err != nil {
		return nil, err
	}
	if blog.UserID != actor {
		return nil, models.NewForbiddenError("You can only change images of your own posts")
	}
	return blog, nil
}

// UploadBlogImage stores the object and inserts its row. A failed insert
// removes the object again.
func (s *ImageService) UploadBlogImage(
	ctx context.Context, upload models.Upload, blogID uint, userID, altText string, featured bool,
) (*models.BlogImage, error) {
	if err := requireSelf(ctx, userID, "You can only upload images as yourself"); err != nil {
		return nil, err
	}
	if _, err := s.ownedBlog(ctx, blogID); err != nil {
		return nil, err
	}

	key := storage.BlogImageKey(blogID, userID, upload.Filename, upload.ContentType, s.now())
	url, err := s.put(ctx, "blog", key, upload)
	if err != nil {
		return nil, err
	}

	image := &models.BlogImage{
		BlogID:     blogID,
		ImageURL:   url,
		StorageKey: key,
		AltText:    altText,
		IsFeatured: featured,
	}
	if err := s.images.Create(ctx, image); err != nil {
		s.removeObject(ctx, key)
		return nil, err
	}
	return image, nil
}

// DeleteImage removes the row, then the object on a best-effort basis. It
// returns the deleted row.
func (s *ImageService) DeleteImage(ctx context.Context, imageID uint) (*models.BlogImage, error) {
	image, err := s.images.GetByID(ctx, imageID)
	if err != nil {
		return nil, err
	}
	if _, err := s.ownedBlog(ctx, image.BlogID); err != nil {
		return nil, err
	}
	if _, err := s.images.Delete(ctx, imageID); err != nil {
		return nil, err
	}
	s.removeObject(ctx, image.StorageKey)
	return image, nil
}

// SetFeatured makes imageID the only featured image of the blog.
func (s *ImageService) SetFeatured(ctx context.Context, blogID, imageID uint) error {
	if _, err := s.ownedBlog(ctx, blogID); err != nil {
		return err
	}
	return s.images.SetFeatured(ctx, blogID, imageID)
}

func (s *ImageService) UploadCommentImage(ctx context.Context, upload models.Upload, userID string) (string, error) {
	if err := requireSelf(ctx, userID, "You can only upload images as yourself"); err != nil {
		return "", err
	}
	key := storage.CommentImageKey(userID, upload.Filename, upload.ContentType, s.now())
	return s.put(ctx, "comment", key, upload)
}

func (s *ImageService) removeObject(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.store.Delete(ctx, key); err != nil {
		observability.LogAsyncOperationError(ctx, "storage.delete", err, map[string]interface{}{"key": key})
	}
}
