package workflow

import (
	"context"

	"inkwell/internal/models"
	"inkwell/internal/service"
	"inkwell/internal/shaping"
)

const (
	MsgReactLogin   = "login to react"
	MsgReactInvalid = "Unknown reaction"
	MsgReactFailed  = "Failed to update reaction. Please try again."
)

// ReactionBackend is what the reaction toggle needs from the backend adapter.
type ReactionBackend interface {
	FetchReactions(ctx context.Context, blogID uint) []models.Reaction
	UpsertReaction(ctx context.Context, blogID uint, userID, value string) error
	RemoveReaction(ctx context.Context, blogID uint, userID string) error
}

// ReactionControls is the like/dislike bar of one post.
type ReactionControls struct {
	shaping.Tally
	Disabled bool   `json:"disabled"`
	Label    string `json:"label,omitempty"`
}

// Controls builds the bar for viewer. Anonymous viewers get the counts with
// the buttons disabled.
func Controls(viewer string, reactions []models.Reaction) ReactionControls {
	controls := ReactionControls{Tally: shaping.CountReactions(reactions, viewer)}
	if viewer == "" {
		controls.Disabled = true
		controls.Label = MsgReactLogin
	}
	return controls
}

type ReactionToggle struct {
	backend ReactionBackend
}

func NewReactionToggle(backend ReactionBackend) *ReactionToggle {
	return &ReactionToggle{backend: backend}
}

// Toggle applies value for viewer on blogID: the same value again removes
// the reaction, the other value replaces it. It returns the refreshed bar.
func (t *ReactionToggle) Toggle(ctx context.Context, viewer string, blogID uint, value string) (ReactionControls, error) {
	if viewer == "" {
		return ReactionControls{}, userError(ErrLoginRequired, MsgReactLogin)
	}
	if !models.ValidReaction(value) {
		return ReactionControls{}, userError(ErrInvalid, MsgReactInvalid)
	}
	ctx = service.WithActor(ctx, viewer)

	current := shaping.CountReactions(t.backend.FetchReactions(ctx, blogID), viewer).Viewer
	var err error
	if current == value {
		err = t.backend.RemoveReaction(ctx, blogID, viewer)
	} else {
		err = t.backend.UpsertReaction(ctx, blogID, viewer, value)
	}
	if err != nil {
		return ReactionControls{}, &UserError{Message: MsgReactFailed, Err: ErrBackend}
	}
	return Controls(viewer, t.backend.FetchReactions(ctx, blogID)), nil
}
