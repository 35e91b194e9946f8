package service

import (
	"context"

	"inkwell/internal/models"
	"inkwell/internal/repository"
)

type ReactionService struct {
	reactions repository.ReactionRepository
	blogs     *BlogService
}

func NewReactionService(reactions repository.ReactionRepository, blogs *BlogService) *ReactionService {
	return &ReactionService{reactions: reactions, blogs: blogs}
}

// List returns the reactions of a blog the actor may see.
func (s *ReactionService) List(ctx context.Context, blogID uint) ([]models.Reaction, error) {
	if _, err := s.blogs.Get(ctx, blogID); err != nil {
		return nil, err
	}
	return s.reactions.ListByBlog(ctx, blogID)
}

// Upsert sets the user's reaction, replacing the opposite one if present.
func (s *ReactionService) Upsert(ctx context.Context, blogID uint, userID, value string) error {
	if err := requireSelf(ctx, userID, "You can only react as yourself"); err != nil {
		return err
	}
	if !models.ValidReaction(value) {
		return models.NewValidationError("Reaction must be like or dislike")
	}
	if _, err := s.blogs.Get(ctx, blogID); err != nil {
		return err
	}
	return s.reactions.Upsert(ctx, blogID, userID, value)
}

func (s *ReactionService) Remove(ctx context.Context, blogID uint, userID string) error {
	if err := requireSelf(ctx, userID, "You can only remove your own reaction"); err != nil {
		return err
	}
	return s.reactions.Remove(ctx, blogID, userID)
}
