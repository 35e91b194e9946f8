package repository

import (
	"context"
	"testing"
	"time"

	"inkwell/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageRepository_SetFeaturedIsExclusive(t *testing.T) {
	db := setupTestDB(t)
	repo := NewImageRepository(db)
	ctx := context.Background()

	seedProfile(t, db, "u1", "alice")
	blog := seedBlog(t, db, "u1", "Gallery", true, time.Now())

	var images []*models.BlogImage
	for i, url := range []string{"a.png", "b.png", "c.png"} {
		img := &models.BlogImage{BlogID: blog.ID, ImageURL: url, IsFeatured: i == 0}
		require.NoError(t, repo.Create(ctx, img))
		images = append(images, img)
	}

	require.NoError(t, repo.SetFeatured(ctx, blog.ID, images[2].ID))

	list, err := repo.ListByBlog(ctx, blog.ID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	featured := 0
	for _, img := range list {
		if img.IsFeatured {
			featured++
			assert.Equal(t, images[2].ID, img.ID)
		}
	}
	assert.Equal(t, 1, featured)

	err = repo.SetFeatured(ctx, blog.ID, 9999)
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}

func TestImageRepository_Delete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewImageRepository(db)
	ctx := context.Background()

	seedProfile(t, db, "u1", "alice")
	blog := seedBlog(t, db, "u1", "Gallery", true, time.Now())
	img := &models.BlogImage{BlogID: blog.ID, ImageURL: "https://cdn/x.png", StorageKey: "blog_images/x.png"}
	require.NoError(t, repo.Create(ctx, img))

	deleted, err := repo.Delete(ctx, img.ID)
	require.NoError(t, err)
	assert.Equal(t, "blog_images/x.png", deleted.StorageKey)

	_, err = repo.GetByID(ctx, img.ID)
	assert.True(t, models.IsCode(err, models.CodeNotFound))

	_, err = repo.Delete(ctx, img.ID)
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}
