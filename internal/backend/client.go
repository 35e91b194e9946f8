// Package backend is the single doorway from controllers to the data
// services. It normalizes failures the same way for every caller: reads
// come back empty, writes come back nil or false, and each failure is logged
// and counted. The few operations whose callers must tell failures apart
// return an error instead.
package backend

import (
	"context"
	"errors"

	"inkwell/internal/models"
	"inkwell/internal/notifications"
	"inkwell/internal/observability"
	"inkwell/internal/service"
	"inkwell/internal/shaping"

	"go.opentelemetry.io/otel/attribute"
)

// Services are the collaborators behind the adapter.
type Services struct {
	Auth      *service.AuthService
	Profiles  *service.ProfileService
	Blogs     *service.BlogService
	Images    *service.ImageService
	Comments  *service.CommentService
	Reactions *service.ReactionService
}

type Client struct {
	auth      *service.AuthService
	profiles  *service.ProfileService
	blogs     *service.BlogService
	images    *service.ImageService
	comments  *service.CommentService
	reactions *service.ReactionService
	bus       notifications.Bus
	log       *observability.OpLogger
}

// New returns a client over svc. Successful mutations publish on bus, which
// may be nil.
func New(svc Services, bus notifications.Bus) *Client {
	return &Client{
		auth:      svc.Auth,
		profiles:  svc.Profiles,
		blogs:     svc.Blogs,
		images:    svc.Images,
		comments:  svc.Comments,
		reactions: svc.Reactions,
		bus:       bus,
		log:       observability.NewOpLogger("backend"),
	}
}

// Bus returns the bus mutations are published on.
func (c *Client) Bus() notifications.Bus {
	return c.bus
}

// Publish sends e on the bus. The write behind e has already committed, so
// the caller's cancellation does not stop the event. A failed publish is
// logged and otherwise ignored; subscribers reload on the next event anyway.
func (c *Client) Publish(ctx context.Context, e notifications.Event) {
	if c.bus == nil {
		return
	}
	if err := c.bus.Publish(context.WithoutCancel(ctx), e); err != nil {
		c.log.Failure(ctx, "publish", err, map[string]interface{}{"channel": e.Channel()})
	}
}

func (c *Client) fail(ctx context.Context, span *observability.Span, op string, err error, fields map[string]interface{}) {
	span.SetError(err)
	c.log.Failure(ctx, op, err, fields)
}

func (c *Client) lookupProfiles(ctx context.Context, ids []string) (map[string]*models.Profile, error) {
	return c.profiles.GetMany(ctx, ids)
}

func (c *Client) attachProfiles(ctx context.Context, op string, blogs []*models.Blog) {
	if err := shaping.AttachProfiles(ctx, blogs, c.lookupProfiles); err != nil {
		c.log.Failure(ctx, op+".profiles", err, nil)
	}
}

func (c *Client) attachCommentProfiles(ctx context.Context, op string, comments []*models.Comment) {
	if err := shaping.AttachCommentProfiles(ctx, comments, c.lookupProfiles); err != nil {
		c.log.Failure(ctx, op+".profiles", err, nil)
	}
}

// Message returns the message of a backend-reported error, or fallback for
// anything else.
func Message(err error, fallback string) string {
	var appErr *models.AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return fallback
}

func idAttr(key string, id uint) attribute.KeyValue {
	return attribute.Int64(key, int64(id))
}
