// Package storage puts uploaded images into an object store and builds the
// keys and public URLs they are served from.
package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"inkwell/internal/config"
	"inkwell/internal/models"
)

// ErrObjectNotFound is returned by Get for an unknown key.
var ErrObjectNotFound = errors.New("object not found")

// ObjectStore is the bucket images are written to.
type ObjectStore interface {
	Put(ctx context.Context, key string, upload models.Upload) error
	Delete(ctx context.Context, key string) error
	PublicURL(key string) string
}

// Reader is implemented by stores that can serve their own objects.
type Reader interface {
	Get(ctx context.Context, key string) ([]byte, string, error)
}

// New builds the store selected by STORAGE_DRIVER.
func New(ctx context.Context, cfg *config.Config) (ObjectStore, error) {
	switch cfg.StorageDriver {
	case "", "memory":
		return NewMemoryStore(cfg.StorageBucket, cfg.StoragePublicURL), nil
	case "s3":
		return NewS3Store(ctx, S3Options{
			Endpoint:  cfg.StorageEndpoint,
			Region:    cfg.StorageRegion,
			Bucket:    cfg.StorageBucket,
			AccessKey: cfg.StorageAccessKey,
			SecretKey: cfg.StorageSecretKey,
			PublicURL: cfg.StoragePublicURL,
		})
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}

var allowedImageTypes = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// ValidateImage checks size and sniffed content type and returns the
// canonical content type to store the object with.
func ValidateImage(upload models.Upload, maxBytes int64) (string, error) {
	if len(upload.Data) == 0 {
		return "", models.NewValidationError("No file uploaded")
	}
	if maxBytes > 0 && int64(len(upload.Data)) > maxBytes {
		return "", models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", maxBytes/(1024*1024)))
	}
	detected := http.DetectContentType(upload.Data)
	if _, ok := allowedImageTypes[detected]; !ok {
		return "", models.NewValidationError("Invalid image type")
	}
	return detected, nil
}

// Ext returns the lowercase extension of filename without the dot, falling
// back to the extension of contentType.
func Ext(filename, contentType string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	if ext != "" {
		return ext
	}
	if e, ok := allowedImageTypes[strings.ToLower(contentType)]; ok {
		return e
	}
	return "bin"
}

// BlogImageKey is blog_images/{blogID}_{userID}_{unixMillis}.{ext}.
func BlogImageKey(blogID uint, userID, filename, contentType string, now time.Time) string {
	return fmt.Sprintf("blog_images/%d_%s_%d.%s", blogID, userID, now.UnixMilli(), Ext(filename, contentType))
}

// AvatarKey is avatars/{userID}_{unixMillis}.{ext}.
func AvatarKey(userID, filename, contentType string, now time.Time) string {
	return fmt.Sprintf("avatars/%s_%d.%s", userID, now.UnixMilli(), Ext(filename, contentType))
}

// CommentImageKey is comment_images/{userID}_{unixMillis}.{ext}.
func CommentImageKey(userID, filename, contentType string, now time.Time) string {
	return fmt.Sprintf("comment_images/%s_%d.%s", userID, now.UnixMilli(), Ext(filename, contentType))
}

func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(key, "/")
}
