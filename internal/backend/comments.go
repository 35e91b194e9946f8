package backend

import (
	"context"
	"strconv"
	"strings"

	"inkwell/internal/models"
	"inkwell/internal/notifications"
	"inkwell/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

func commentEvent(comment *models.Comment, action string) notifications.Event {
	return notifications.NewEvent(notifications.EntityComment,
		strconv.FormatUint(uint64(comment.ID), 10), comment.BlogID, action)
}

// GetComments returns the top-level comments of the blog, newest first.
// blogIDRaw comes straight from a route; a non-numeric id yields an empty
// list without touching the backend.
func (c *Client) GetComments(ctx context.Context, blogIDRaw string) []*models.Comment {
	id, err := strconv.ParseUint(strings.TrimSpace(blogIDRaw), 10, 64)
	if err != nil || id == 0 {
		return []*models.Comment{}
	}
	blogID := uint(id)

	span, ctx := observability.StartBackendSpan(ctx, "GetComments", idAttr("blog.id", blogID))
	defer span.End()

	comments, err := c.comments.ListTopLevel(ctx, blogID)
	if err != nil {
		c.fail(ctx, span, "GetComments", err, map[string]interface{}{"blog_id": blogID})
		return []*models.Comment{}
	}
	c.attachCommentProfiles(ctx, "GetComments", comments)
	return comments
}

// GetCommentThread returns every comment of the blog at any depth, flat,
// newest first.
func (c *Client) GetCommentThread(ctx context.Context, blogID uint) []*models.Comment {
	span, ctx := observability.StartBackendSpan(ctx, "GetCommentThread", idAttr("blog.id", blogID))
	defer span.End()

	comments, err := c.comments.ListThread(ctx, blogID)
	if err != nil {
		c.fail(ctx, span, "GetCommentThread", err, map[string]interface{}{"blog_id": blogID})
		return []*models.Comment{}
	}
	c.attachCommentProfiles(ctx, "GetCommentThread", comments)
	return comments
}

// ListReplies returns the direct replies of a comment on blogID, oldest
// first.
func (c *Client) ListReplies(ctx context.Context, blogID, parentID uint) []*models.Comment {
	span, ctx := observability.StartBackendSpan(ctx, "ListReplies",
		idAttr("blog.id", blogID), idAttr("comment.id", parentID))
	defer span.End()

	replies, err := c.comments.ListReplies(ctx, blogID, parentID)
	if err != nil {
		c.fail(ctx, span, "ListReplies", err, map[string]interface{}{"blog_id": blogID, "comment_id": parentID})
		return []*models.Comment{}
	}
	c.attachCommentProfiles(ctx, "ListReplies", replies)
	return replies
}

func (c *Client) GetComment(ctx context.Context, id uint) *models.Comment {
	span, ctx := observability.StartBackendSpan(ctx, "GetComment", idAttr("comment.id", id))
	defer span.End()

	comment, err := c.comments.Get(ctx, id)
	if err != nil {
		c.fail(ctx, span, "GetComment", err, map[string]interface{}{"comment_id": id})
		return nil
	}
	return comment
}

func (c *Client) AddComment(ctx context.Context, in models.CommentInput) *models.Comment {
	span, ctx := observability.StartBackendSpan(ctx, "AddComment",
		idAttr("blog.id", in.BlogID), attribute.Bool("reply", in.ParentCommentID != nil))
	defer span.End()

	comment, err := c.comments.Create(ctx, in)
	if err != nil {
		c.fail(ctx, span, "AddComment", err, map[string]interface{}{"blog_id": in.BlogID})
		return nil
	}
	c.Publish(ctx, commentEvent(comment, notifications.ActionCreated))
	return comment
}

func (c *Client) UpdateComment(ctx context.Context, id uint, content string) *models.Comment {
	span, ctx := observability.StartBackendSpan(ctx, "UpdateComment", idAttr("comment.id", id))
	defer span.End()

	comment, err := c.comments.Update(ctx, id, content)
	if err != nil {
		c.fail(ctx, span, "UpdateComment", err, map[string]interface{}{"comment_id": id})
		return nil
	}
	c.Publish(ctx, commentEvent(comment, notifications.ActionUpdated))
	return comment
}

func (c *Client) DeleteComment(ctx context.Context, id uint) bool {
	span, ctx := observability.StartBackendSpan(ctx, "DeleteComment", idAttr("comment.id", id))
	defer span.End()

	comment, err := c.comments.Delete(ctx, id)
	if err != nil {
		c.fail(ctx, span, "DeleteComment", err, map[string]interface{}{"comment_id": id})
		return false
	}
	c.Publish(ctx, commentEvent(comment, notifications.ActionDeleted))
	return true
}

// UploadCommentImage stores the image and returns its public URL, or "".
func (c *Client) UploadCommentImage(ctx context.Context, upload models.Upload, userID string) string {
	span, ctx := observability.StartBackendSpan(ctx, "UploadCommentImage", attribute.String("user.id", userID))
	defer span.End()

	url, err := c.images.UploadCommentImage(ctx, upload, userID)
	if err != nil {
		c.fail(ctx, span, "UploadCommentImage", err, map[string]interface{}{"filename": upload.Filename})
		return ""
	}
	return url
}
