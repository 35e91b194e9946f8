package backend

import (
	"context"

	"inkwell/internal/models"
	"inkwell/internal/notifications"
	"inkwell/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

func reactionEvent(blogID uint, userID, action string) notifications.Event {
	return notifications.NewEvent(notifications.EntityReaction, userID, blogID, action)
}

func (c *Client) FetchReactions(ctx context.Context, blogID uint) []models.Reaction {
	span, ctx := observability.StartBackendSpan(ctx, "FetchReactions", idAttr("blog.id", blogID))
	defer span.End()

	reactions, err := c.reactions.List(ctx, blogID)
	if err != nil {
		c.fail(ctx, span, "FetchReactions", err, map[string]interface{}{"blog_id": blogID})
		return []models.Reaction{}
	}
	return reactions
}

// UpsertReaction sets the user's reaction. Unlike most operations it returns
// its error so the toggle can report it.
func (c *Client) UpsertReaction(ctx context.Context, blogID uint, userID, value string) error {
	span, ctx := observability.StartBackendSpan(ctx, "UpsertReaction",
		idAttr("blog.id", blogID), attribute.String("reaction", value))
	defer span.End()

	if err := c.reactions.Upsert(ctx, blogID, userID, value); err != nil {
		c.fail(ctx, span, "UpsertReaction", err, map[string]interface{}{"blog_id": blogID})
		return err
	}
	c.Publish(ctx, reactionEvent(blogID, userID, notifications.ActionUpdated))
	return nil
}

func (c *Client) RemoveReaction(ctx context.Context, blogID uint, userID string) error {
	span, ctx := observability.StartBackendSpan(ctx, "RemoveReaction", idAttr("blog.id", blogID))
	defer span.End()

	if err := c.reactions.Remove(ctx, blogID, userID); err != nil {
		c.fail(ctx, span, "RemoveReaction", err, map[string]interface{}{"blog_id": blogID})
		return err
	}
	c.Publish(ctx, reactionEvent(blogID, userID, notifications.ActionDeleted))
	return nil
}
