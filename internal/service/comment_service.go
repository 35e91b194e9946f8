package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"inkwell/internal/models"
	"inkwell/internal/repository"
)

const maxCommentLength = 10000

type CommentService struct {
	comments repository.CommentRepository
	blogs    *BlogService
}

func NewCommentService(comments repository.CommentRepository, blogs *BlogService) *CommentService {
	return &CommentService{comments: comments, blogs: blogs}
}

func validateCommentContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", models.NewValidationError("Comment cannot be empty")
	}
	if utf8.RuneCountInString(content) > maxCommentLength {
		return "", models.NewValidationError("Comment too long (max 10000 characters)")
	}
	return content, nil
}

// ListTopLevel returns the blog's comments without a parent, newest first.
func (s *CommentService) ListTopLevel(ctx context.Context, blogID uint) ([]*models.Comment, error) {
	if _, err := s.blogs.Get(ctx, blogID); err != nil {
		return nil, err
	}
	return s.comments.ListTopLevel(ctx, blogID)
}

// ListThread returns every comment of the blog at any depth.
func (s *CommentService) ListThread(ctx context.Context, blogID uint) ([]*models.Comment, error) {
	if _, err := s.blogs.Get(ctx, blogID); err != nil {
		return nil, err
	}
	return s.comments.ListByBlog(ctx, blogID)
}

// ListReplies returns the direct replies of parentID, which must belong to
// blogID. Replies on a draft are hidden from everyone but its author.
func (s *CommentService) ListReplies(ctx context.Context, blogID, parentID uint) ([]*models.Comment, error) {
	parent, err := s.comments.GetByID(ctx, parentID)
	if err != nil {
		return nil, err
	}
	if parent.BlogID != blogID {
		return nil, models.NewNotFoundError("Comment", parentID)
	}
	if _, err := s.blogs.Get(ctx, parent.BlogID); err != nil {
		return nil, err
	}
	return s.comments.ListReplies(ctx, parentID)
}

func (s *CommentService) Get(ctx context.Context, id uint) (*models.Comment, error) {
	return s.comments.GetByID(ctx, id)
}

func (s *CommentService) Create(ctx context.Context, in models.CommentInput) (*models.Comment, error) {
	if err := requireSelf(ctx, in.UserID, "You can only comment as yourself"); err != nil {
		return nil, err
	}
	content, err := validateCommentContent(in.Content)
	if err != nil {
		return nil, err
	}
	if _, err := s.blogs.Get(ctx, in.BlogID); err != nil {
		return nil, err
	}

	if in.ParentCommentID != nil {
		parent, err := s.comments.GetByID(ctx, *in.ParentCommentID)
		if err != nil {
			return nil, err
		}
		if parent.BlogID != in.BlogID {
			return nil, models.NewValidationError("Parent comment belongs to another post")
		}
		depth, err := s.comments.Depth(ctx, parent.ID)
		if err != nil {
			return nil, err
		}
		if depth >= models.MaxCommentDepth {
			return nil, models.NewValidationError("Replies are limited to 3 levels")
		}
	}

	comment := &models.Comment{
		BlogID:          in.BlogID,
		UserID:          in.UserID,
		Content:         content,
		ParentCommentID: in.ParentCommentID,
		ImageURL:        in.ImageURL,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *CommentService) authored(ctx context.Context, id uint, msg string) (*models.Comment, error) {
	actor, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}
	comment, err := s.comments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if comment.UserID != actor {
		return nil, models.NewForbiddenError(msg)
	}
	return comment, nil
}

// Update replaces the content of the actor's own comment.
func (s *CommentService) Update(ctx context.Context, id uint, content string) (*models.Comment, error) {
	content, err := validateCommentContent(content)
	if err != nil {
		return nil, err
	}
	if _, err := s.authored(ctx, id, "You can only edit your own comments"); err != nil {
		return nil, err
	}
	return s.comments.UpdateContent(ctx, id, content)
}

// Delete removes the actor's comment and its replies. It returns the
// deleted comment so callers know which blog changed.
func (s *CommentService) Delete(ctx context.Context, id uint) (*models.Comment, error) {
	comment, err := s.authored(ctx, id, "You can only delete your own comments")
	if err != nil {
		return nil, err
	}
	if err := s.comments.Delete(ctx, id); err != nil {
		return nil, err
	}
	return comment, nil
}
