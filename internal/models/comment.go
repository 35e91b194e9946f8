package models

import "time"

// MaxCommentDepth is the deepest level a reply may sit at. Top-level
// comments are depth 1.
const MaxCommentDepth = 3

// Comment is a comment or reply on a blog. Replies and Depth are filled in
// when a flat list is shaped into a tree.
type Comment struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	BlogID          uint            `gorm:"not null;index" json:"blog_id"`
	UserID          string          `gorm:"type:varchar(36);not null;index" json:"user_id"`
	Content         string          `gorm:"type:text;not null" json:"content"`
	ParentCommentID *uint           `gorm:"index" json:"parent_comment_id"`
	ImageURL        string          `json:"image_url,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	Profile         *ProfileSummary `gorm:"-" json:"profiles,omitempty"`
	Replies         []*Comment      `gorm:"-" json:"replies,omitempty"`
	Depth           int             `gorm:"-" json:"depth,omitempty"`
}

// Edited reports whether the comment changed after creation.
func (c *Comment) Edited() bool {
	return !c.UpdatedAt.Equal(c.CreatedAt)
}

// IsTopLevel reports whether the comment has no parent.
func (c *Comment) IsTopLevel() bool {
	return c.ParentCommentID == nil
}

// CommentInput is the payload of a new comment.
type CommentInput struct {
	BlogID          uint   `json:"blog_id"`
	UserID          string `json:"user_id"`
	Content         string `json:"content"`
	ParentCommentID *uint  `json:"parent_comment_id,omitempty"`
	ImageURL        string `json:"image_url,omitempty"`
}
