package models

import "time"

// Categories are the labels offered by the editor.
var Categories = []string{"React", "Web Dev", "Performance", "JavaScript", "TypeScript", "Other"}

// Blog is a post. Drafts have Published=false.
type Blog struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	UserID    string      `gorm:"type:varchar(36);not null;index" json:"user_id"`
	Title     string      `gorm:"not null" json:"title"`
	Excerpt   string      `json:"excerpt,omitempty"`
	Content   string      `gorm:"type:text;not null" json:"content"`
	Category  string      `gorm:"not null;index" json:"category"`
	Published bool        `gorm:"not null;default:false;index" json:"published"`
	CreatedAt time.Time   `gorm:"index" json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
	Profile   *Profile    `gorm:"-" json:"profile,omitempty"`
	Images    []BlogImage `gorm:"foreignKey:BlogID;constraint:OnDelete:CASCADE" json:"images"`
}

// BlogImage is an uploaded image attached to a blog.
type BlogImage struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	BlogID     uint      `gorm:"not null;index" json:"blog_id"`
	ImageURL   string    `gorm:"not null" json:"image_url"`
	StorageKey string    `json:"-"`
	AltText    string    `json:"alt_text,omitempty"`
	IsFeatured bool      `gorm:"not null;default:false" json:"is_featured"`
	CreatedAt  time.Time `json:"created_at"`
}

// BlogInput is the payload of a blog creation.
type BlogInput struct {
	UserID    string `json:"user_id"`
	Title     string `json:"title"`
	Excerpt   string `json:"excerpt"`
	Content   string `json:"content"`
	Category  string `json:"category"`
	Published bool   `json:"published"`
}

// BlogPatch is a partial blog update. Nil fields are left unchanged.
type BlogPatch struct {
	Title     *string `json:"title,omitempty"`
	Excerpt   *string `json:"excerpt,omitempty"`
	Content   *string `json:"content,omitempty"`
	Category  *string `json:"category,omitempty"`
	Published *bool   `json:"published,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p BlogPatch) Empty() bool {
	return len(p.Fields()) == 0
}

// Fields returns the non-nil columns of the patch.
func (p BlogPatch) Fields() map[string]interface{} {
	fields := map[string]interface{}{}
	if p.Title != nil {
		fields["title"] = *p.Title
	}
	if p.Excerpt != nil {
		fields["excerpt"] = *p.Excerpt
	}
	if p.Content != nil {
		fields["content"] = *p.Content
	}
	if p.Category != nil {
		fields["category"] = *p.Category
	}
	if p.Published != nil {
		fields["published"] = *p.Published
	}
	return fields
}

// BlogPage is one page of the published feed plus the total row count.
type BlogPage struct {
	Blogs []*Blog `json:"blogs"`
	Total int64   `json:"total"`
}

// Upload is a file handed to object storage.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}
