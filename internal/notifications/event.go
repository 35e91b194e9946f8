// Package notifications carries "entity X changed" invalidation events
// between the writers, the content cache and connected browsers.
package notifications

import (
	"context"
	"strconv"
	"time"
)

// Entities.
const (
	EntityBlog     = "blog"
	EntityComment  = "comment"
	EntityReaction = "reaction"
	EntityProfile  = "profile"
)

// Actions.
const (
	ActionCreated     = "created"
	ActionUpdated     = "updated"
	ActionDeleted     = "deleted"
	ActionPublished   = "published"
	ActionUnpublished = "unpublished"
)

// Event says that an entity changed. It never carries content.
type Event struct {
	Entity   string    `json:"entity"`
	EntityID string    `json:"entity_id"`
	BlogID   uint      `json:"blog_id,omitempty"`
	Action   string    `json:"action"`
	At       time.Time `json:"at"`
}

// NewEvent stamps an event with the current time. BlogID is the blog the
// entity belongs to (the blog itself for blog events, 0 for profiles).
func NewEvent(entity, entityID string, blogID uint, action string) Event {
	return Event{Entity: entity, EntityID: entityID, BlogID: blogID, Action: action, At: time.Now().UTC()}
}

// BlogEvent is shorthand for an event about blog id.
func BlogEvent(id uint, action string) Event {
	return NewEvent(EntityBlog, strconv.FormatUint(uint64(id), 10), id, action)
}

// Channel is the Redis channel the event is published on.
func (e Event) Channel() string {
	return "invalidate:" + e.Entity + ":" + e.EntityID
}

// Bus fans invalidation events out to subscribers. Subscriptions end, and
// their channel is closed, when ctx is cancelled.
type Bus interface {
	Publish(ctx context.Context, e Event) error
	Subscribe(ctx context.Context) (<-chan Event, error)
}
