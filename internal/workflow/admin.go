package workflow

import (
	"context"
	"fmt"

	"inkwell/internal/models"
	"inkwell/internal/service"
)

const (
	MsgDeleteFailed  = "Failed to delete post. Please try again."
	MsgPublishFailed = "Failed to change the post status. Please try again."
	MsgNotYourPostOp = "You can only manage your own posts"
)

// PostAdmin runs the owner actions of the profile page.
type PostAdmin struct {
	backend PostBackend
}

func NewPostAdmin(backend PostBackend) *PostAdmin {
	return &PostAdmin{backend: backend}
}

func (a *PostAdmin) owned(ctx context.Context, viewer string, id uint) (*models.Blog, error) {
	if viewer == "" {
		return nil, userError(ErrLoginRequired, MsgNotSignedIn)
	}
	blog := a.backend.GetBlogByID(ctx, id)
	if blog == nil {
		return nil, userError(ErrNotFound, MsgPostNotFound)
	}
	if blog.UserID != viewer {
		return nil, userError(ErrNotOwner, MsgNotYourPostOp)
	}
	return blog, nil
}

// DeletePost deletes viewer's post once confirmed and returns the banner
// text.
func (a *PostAdmin) DeletePost(ctx context.Context, viewer string, id uint, confirmed bool) (string, error) {
	if !confirmed {
		return "", userError(ErrConfirmationRequired, MsgConfirmDeletion)
	}
	ctx = service.WithActor(ctx, viewer)
	blog, err := a.owned(ctx, viewer, id)
	if err != nil {
		return "", err
	}
	if !a.backend.DeleteBlog(ctx, id) {
		return "", userError(ErrBackend, MsgDeleteFailed)
	}
	return fmt.Sprintf("Post %q deleted successfully!", blog.Title), nil
}

// SetPublished moves viewer's post between draft and live.
func (a *PostAdmin) SetPublished(ctx context.Context, viewer string, id uint, published bool) (*models.Blog, error) {
	ctx = service.WithActor(ctx, viewer)
	blog, err := a.owned(ctx, viewer, id)
	if err != nil {
		return nil, err
	}
	if blog.Published == published {
		return blog, nil
	}
	updated := a.backend.UpdateBlog(ctx, id, models.BlogPatch{Published: &published})
	if updated == nil {
		return nil, userError(ErrBackend, MsgPublishFailed)
	}
	return updated, nil
}
