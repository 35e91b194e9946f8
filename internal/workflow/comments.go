package workflow

import (
	"context"
	"strings"
	"unicode/utf8"

	"inkwell/internal/models"
	"inkwell/internal/service"
	"inkwell/internal/shaping"
)

// Comment form messages.
const (
	MsgCommentLogin     = "You must be logged in to comment"
	MsgCommentEmpty     = "Comment cannot be empty"
	MsgCommentTooLong   = "Comment too long (max 10000 characters)"
	MsgReplyTooDeep     = "Replies are limited to 3 levels"
	MsgReplyNoParent    = "The comment you replied to no longer exists"
	MsgCommentNotYours  = "You can only change your own comments"
	MsgCommentNotFound  = "Comment not found"
	MsgCommentFailed    = "Failed to post comment. Please try again."
	MsgCommentImage     = "Failed to upload image. Please try again."
	MsgCommentUpdate    = "Failed to update comment. Please try again."
	MsgCommentDelete    = "Failed to delete comment. Please try again."
	MsgConfirmDeletion  = "Please confirm the deletion"
	maxCommentRuneCount = 10000
)

// CommentBackend is what the comment workflow needs from the backend adapter.
type CommentBackend interface {
	GetCommentThread(ctx context.Context, blogID uint) []*models.Comment
	GetComment(ctx context.Context, id uint) *models.Comment
	AddComment(ctx context.Context, in models.CommentInput) *models.Comment
	UpdateComment(ctx context.Context, id uint, content string) *models.Comment
	DeleteComment(ctx context.Context, id uint) bool
	UploadCommentImage(ctx context.Context, upload models.Upload, userID string) string
}

type CommentComposer struct {
	backend CommentBackend
}

func NewCommentComposer(backend CommentBackend) *CommentComposer {
	return &CommentComposer{backend: backend}
}

func checkCommentContent(content string) (string, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return "", userError(ErrInvalid, MsgCommentEmpty)
	}
	if utf8.RuneCountInString(trimmed) > maxCommentRuneCount {
		return "", userError(ErrInvalid, MsgCommentTooLong)
	}
	return trimmed, nil
}

// Post adds a comment on blogID as viewer, or a reply when parentID is set.
// The optional image is uploaded first and its URL stored on the row.
func (c *CommentComposer) Post(ctx context.Context, viewer string, blogID uint, parentID *uint, content string, image *models.Upload) (*models.Comment, error) {
	if viewer == "" {
		return nil, userError(ErrLoginRequired, MsgCommentLogin)
	}
	trimmed, err := checkCommentContent(content)
	if err != nil {
		return nil, err
	}
	ctx = service.WithActor(ctx, viewer)

	if parentID != nil {
		tree := shaping.BuildTree(c.backend.GetCommentThread(ctx, blogID))
		parent := shaping.Find(tree, *parentID)
		if parent == nil {
			return nil, userError(ErrNotFound, MsgReplyNoParent)
		}
		if !shaping.CanReply(parent) {
			return nil, userError(ErrInvalid, MsgReplyTooDeep)
		}
	}

	in := models.CommentInput{BlogID: blogID, UserID: viewer, Content: trimmed, ParentCommentID: parentID}
	if image != nil && len(image.Data) > 0 {
		in.ImageURL = c.backend.UploadCommentImage(ctx, *image, viewer)
		if in.ImageURL == "" {
			return nil, userError(ErrBackend, MsgCommentImage)
		}
	}

	comment := c.backend.AddComment(ctx, in)
	if comment == nil {
		return nil, userError(ErrBackend, MsgCommentFailed)
	}
	return comment, nil
}

func (c *CommentComposer) authored(ctx context.Context, viewer string, id uint) (*models.Comment, error) {
	if viewer == "" {
		return nil, userError(ErrLoginRequired, MsgCommentLogin)
	}
	comment := c.backend.GetComment(ctx, id)
	if comment == nil {
		return nil, userError(ErrNotFound, MsgCommentNotFound)
	}
	if comment.UserID != viewer {
		return nil, userError(ErrNotOwner, MsgCommentNotYours)
	}
	return comment, nil
}

// Edit replaces the content of viewer's own comment.
func (c *CommentComposer) Edit(ctx context.Context, viewer string, id uint, content string) (*models.Comment, error) {
	trimmed, err := checkCommentContent(content)
	if err != nil {
		return nil, err
	}
	ctx = service.WithActor(ctx, viewer)
	if _, err := c.authored(ctx, viewer, id); err != nil {
		return nil, err
	}
	updated := c.backend.UpdateComment(ctx, id, trimmed)
	if updated == nil {
		return nil, userError(ErrBackend, MsgCommentUpdate)
	}
	return updated, nil
}

// Delete removes viewer's own comment. Nothing is sent to the backend until
// confirmed is true.
func (c *CommentComposer) Delete(ctx context.Context, viewer string, id uint, confirmed bool) (*models.Comment, error) {
	if !confirmed {
		return nil, userError(ErrConfirmationRequired, MsgConfirmDeletion)
	}
	ctx = service.WithActor(ctx, viewer)
	comment, err := c.authored(ctx, viewer, id)
	if err != nil {
		return nil, err
	}
	if !c.backend.DeleteComment(ctx, id) {
		return nil, userError(ErrBackend, MsgCommentDelete)
	}
	return comment, nil
}
