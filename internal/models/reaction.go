package models

import "time"

// Reaction values.
const (
	ReactionLike    = "like"
	ReactionDislike = "dislike"
)

// Reaction is a user's single like or dislike on a blog.
type Reaction struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	BlogID    uint      `gorm:"not null;uniqueIndex:idx_reactions_blog_user" json:"blog_id"`
	UserID    string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_reactions_blog_user" json:"user_id"`
	Reaction  string    `gorm:"size:10;not null" json:"reaction"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ValidReaction reports whether v is "like" or "dislike".
func ValidReaction(v string) bool {
	return v == ReactionLike || v == ReactionDislike
}
