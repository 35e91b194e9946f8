package backend

import (
	"context"

	"inkwell/internal/models"
	"inkwell/internal/notifications"
	"inkwell/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

// FetchBlogs returns one page of published blogs, newest first, with images
// and authors attached. page is 1-based.
func (c *Client) FetchBlogs(ctx context.Context, page, pageSize int) models.BlogPage {
	span, ctx := observability.StartBackendSpan(ctx, "FetchBlogs",
		attribute.Int("page", page), attribute.Int("page_size", pageSize))
	defer span.End()

	result, err := c.blogs.ListPublished(ctx, page, pageSize)
	if err != nil {
		c.fail(ctx, span, "FetchBlogs", err, map[string]interface{}{"page": page})
		return models.BlogPage{Blogs: []*models.Blog{}}
	}
	c.attachProfiles(ctx, "FetchBlogs", result.Blogs)
	return *result
}

// GetBlogByID returns the blog in any publish state visible to the actor.
// Ownership checks are the caller's business.
func (c *Client) GetBlogByID(ctx context.Context, id uint) *models.Blog {
	span, ctx := observability.StartBackendSpan(ctx, "GetBlogByID", idAttr("blog.id", id))
	defer span.End()

	blog, err := c.blogs.Get(ctx, id)
	if err != nil {
		c.fail(ctx, span, "GetBlogByID", err, map[string]interface{}{"blog_id": id})
		return nil
	}
	c.attachProfiles(ctx, "GetBlogByID", []*models.Blog{blog})
	return blog
}

// GetUserBlogs returns userID's blogs, drafts included when the actor is
// userID, newest first.
func (c *Client) GetUserBlogs(ctx context.Context, userID string) []*models.Blog {
	span, ctx := observability.StartBackendSpan(ctx, "GetUserBlogs", attribute.String("user.id", userID))
	defer span.End()

	blogs, err := c.blogs.ListByUser(ctx, userID)
	if err != nil {
		c.fail(ctx, span, "GetUserBlogs", err, map[string]interface{}{"user_id": userID})
		return []*models.Blog{}
	}
	c.attachProfiles(ctx, "GetUserBlogs", blogs)
	return blogs
}

// CreateBlog returns nil for errors the backend reported and returns
// transport errors to the caller.
func (c *Client) CreateBlog(ctx context.Context, in models.BlogInput) (*models.Blog, error) {
	span, ctx := observability.StartBackendSpan(ctx, "CreateBlog", attribute.Bool("published", in.Published))
	defer span.End()

	blog, err := c.blogs.Create(ctx, in)
	if err != nil {
		c.fail(ctx, span, "CreateBlog", err, map[string]interface{}{"title": in.Title})
		if _, reported := models.AsAppError(err); reported {
			return nil, nil
		}
		return nil, err
	}
	c.Publish(ctx, notifications.BlogEvent(blog.ID, notifications.ActionCreated))
	return blog, nil
}

func (c *Client) UpdateBlog(ctx context.Context, id uint, patch models.BlogPatch) *models.Blog {
	span, ctx := observability.StartBackendSpan(ctx, "UpdateBlog", idAttr("blog.id", id))
	defer span.End()

	blog, err := c.blogs.Update(ctx, id, patch)
	if err != nil {
		c.fail(ctx, span, "UpdateBlog", err, map[string]interface{}{"blog_id": id})
		return nil
	}

	action := notifications.ActionUpdated
	if patch.Published != nil {
		action = notifications.ActionUnpublished
		if *patch.Published {
			action = notifications.ActionPublished
		}
	}
	c.Publish(ctx, notifications.BlogEvent(id, action))
	return blog
}

// DeleteBlog removes the blog with its images, comments and reactions.
func (c *Client) DeleteBlog(ctx context.Context, id uint) bool {
	span, ctx := observability.StartBackendSpan(ctx, "DeleteBlog", idAttr("blog.id", id))
	defer span.End()

	if _, err := c.blogs.Delete(ctx, id); err != nil {
		c.fail(ctx, span, "DeleteBlog", err, map[string]interface{}{"blog_id": id})
		return false
	}
	c.Publish(ctx, notifications.BlogEvent(id, notifications.ActionDeleted))
	return true
}

// UploadAndSaveBlogImage stores the file and inserts its row.
func (c *Client) UploadAndSaveBlogImage(
	ctx context.Context, upload models.Upload, blogID uint, userID, altText string, featured bool,
) *models.BlogImage {
	span, ctx := observability.StartBackendSpan(ctx, "UploadAndSaveBlogImage", idAttr("blog.id", blogID))
	defer span.End()

	image, err := c.images.UploadBlogImage(ctx, upload, blogID, userID, altText, featured)
	if err != nil {
		c.fail(ctx, span, "UploadAndSaveBlogImage", err, map[string]interface{}{
			"blog_id":  blogID,
			"filename": upload.Filename,
		})
		return nil
	}
	c.Publish(ctx, notifications.BlogEvent(blogID, notifications.ActionUpdated))
	return image
}

// DeleteBlogImage removes the row and, best effort, the stored object.
func (c *Client) DeleteBlogImage(ctx context.Context, imageID uint) bool {
	span, ctx := observability.StartBackendSpan(ctx, "DeleteBlogImage", idAttr("image.id", imageID))
	defer span.End()

	image, err := c.images.DeleteImage(ctx, imageID)
	if err != nil {
		c.fail(ctx, span, "DeleteBlogImage", err, map[string]interface{}{"image_id": imageID})
		return false
	}
	c.Publish(ctx, notifications.BlogEvent(image.BlogID, notifications.ActionUpdated))
	return true
}

// SetFeaturedImage makes imageID the single featured image of the blog.
// imageID 0 clears the flag everywhere.
func (c *Client) SetFeaturedImage(ctx context.Context, blogID, imageID uint) bool {
	span, ctx := observability.StartBackendSpan(ctx, "SetFeaturedImage",
		idAttr("blog.id", blogID), idAttr("image.id", imageID))
	defer span.End()

	if err := c.images.SetFeatured(ctx, blogID, imageID); err != nil {
		c.fail(ctx, span, "SetFeaturedImage", err, map[string]interface{}{
			"blog_id":  blogID,
			"image_id": imageID,
		})
		return false
	}
	c.Publish(ctx, notifications.BlogEvent(blogID, notifications.ActionUpdated))
	return true
}
