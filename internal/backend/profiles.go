package backend

import (
	"context"

	"inkwell/internal/models"
	"inkwell/internal/notifications"
	"inkwell/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

func (c *Client) GetProfile(ctx context.Context, userID string) *models.Profile {
	span, ctx := observability.StartBackendSpan(ctx, "GetProfile", attribute.String("user.id", userID))
	defer span.End()

	profile, err := c.profiles.Get(ctx, userID)
	if err != nil {
		c.fail(ctx, span, "GetProfile", err, map[string]interface{}{"user_id": userID})
		return nil
	}
	return profile
}

func (c *Client) CreateProfile(ctx context.Context, userID, username, fullName string) *models.Profile {
	span, ctx := observability.StartBackendSpan(ctx, "CreateProfile", attribute.String("user.id", userID))
	defer span.End()

	profile, err := c.profiles.Create(ctx, userID, username, fullName)
	if err != nil {
		c.fail(ctx, span, "CreateProfile", err, map[string]interface{}{"user_id": userID})
		return nil
	}
	c.Publish(ctx, notifications.NewEvent(notifications.EntityProfile, userID, 0, notifications.ActionCreated))
	return profile
}

func (c *Client) UpdateProfile(ctx context.Context, userID string, update models.ProfileUpdate) *models.Profile {
	span, ctx := observability.StartBackendSpan(ctx, "UpdateProfile", attribute.String("user.id", userID))
	defer span.End()

	profile, err := c.profiles.Update(ctx, userID, update)
	if err != nil {
		c.fail(ctx, span, "UpdateProfile", err, map[string]interface{}{"user_id": userID})
		return nil
	}
	c.Publish(ctx, notifications.NewEvent(notifications.EntityProfile, userID, 0, notifications.ActionUpdated))
	return profile
}

// UploadAvatar stores the image and returns its public URL, or "".
func (c *Client) UploadAvatar(ctx context.Context, userID string, upload models.Upload) string {
	span, ctx := observability.StartBackendSpan(ctx, "UploadAvatar", attribute.String("user.id", userID))
	defer span.End()

	url, err := c.profiles.UploadAvatar(ctx, userID, upload)
	if err != nil {
		c.fail(ctx, span, "UploadAvatar", err, map[string]interface{}{"user_id": userID, "filename": upload.Filename})
		return ""
	}
	return url
}
