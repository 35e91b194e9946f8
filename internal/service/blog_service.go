package service

import (
	"context"
	"strings"

	"inkwell/internal/models"
	"inkwell/internal/repository"
)

type BlogService struct {
	blogs  repository.BlogRepository
	images *ImageService
}

func NewBlogService(blogs repository.BlogRepository, images *ImageService) *BlogService {
	return &BlogService{blogs: blogs, images: images}
}

func (s *BlogService) Create(ctx context.Context, in models.BlogInput) (*models.Blog, error) {
	actor, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}
	if in.UserID == "" {
		in.UserID = actor
	}
	if in.UserID != actor {
		return nil, models.NewForbiddenError("You can only post as yourself")
	}
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Content) == "" || strings.TrimSpace(in.Category) == "" {
		return nil, models.NewValidationError("Title, content and category are required")
	}

	blog := &models.Blog{
		UserID:    in.UserID,
		Title:     strings.TrimSpace(in.Title),
		Excerpt:   strings.TrimSpace(in.Excerpt),
		Content:   in.Content,
		Category:  strings.TrimSpace(in.Category),
		Published: in.Published,
	}
	if err := s.blogs.Create(ctx, blog); err != nil {
		return nil, err
	}
	return blog, nil
}

// Get returns the blog. Drafts are only visible to their author.
func (s *BlogService) Get(ctx context.Context, id uint) (*models.Blog, error) {
	blog, err := s.blogs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !blog.Published && blog.UserID != ActorFrom(ctx) {
		return nil, models.NewNotFoundError("Blog", id)
	}
	return blog, nil
}

// ListPublished returns one page of the public feed. page is 1-based.
func (s *BlogService) ListPublished(ctx context.Context, page, pageSize int) (*models.BlogPage, error) {
	if pageSize <= 0 {
		return nil, models.NewValidationError("Page size must be positive")
	}
	if page < 1 {
		page = 1
	}
	blogs, total, err := s.blogs.ListPublished(ctx, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}
	return &models.BlogPage{Blogs: blogs, Total: total}, nil
}

// ListByUser returns every blog of userID for its author and only the
// published ones for anyone else.
func (s *BlogService) ListByUser(ctx context.Context, userID string) ([]*models.Blog, error) {
	blogs, err := s.blogs.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if ActorFrom(ctx) == userID {
		return blogs, nil
	}
	visible := blogs[:0]
	for _, b := range blogs {
		if b.Published {
			visible = append(visible, b)
		}
	}
	return visible, nil
}

func (s *BlogService) owned(ctx context.Context, id uint, msg string) (*models.Blog, error) {
	actor, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}
	blog, err := s.blogs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if blog.UserID != actor {
		return nil, models.NewForbiddenError(msg)
	}
	return blog, nil
}

func (s *BlogService) Update(ctx context.Context, id uint, patch models.BlogPatch) (*models.Blog, error) {
	if _, err := s.owned(ctx, id, "You can only edit your own posts"); err != nil {
		return nil, err
	}
	for _, field := range []*string{patch.Title, patch.Content, patch.Category} {
		if field != nil && strings.TrimSpace(*field) == "" {
			return nil, models.NewValidationError("Title, content and category cannot be empty")
		}
	}
	return s.blogs.Update(ctx, id, patch)
}

// Delete removes the blog and its dependent rows, then the stored images on
// a best-effort basis. It returns the deleted blog.
func (s *BlogService) Delete(ctx context.Context, id uint) (*models.Blog, error) {
	blog, err := s.owned(ctx, id, "You can only delete your own posts")
	if err != nil {
		return nil, err
	}
	keys, err := s.blogs.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, key := range keys {
		s.images.removeObject(ctx, key)
	}
	return blog, nil
}
