// Package seed provides helpers to create demo data for the blog database.
// These helpers are intended for development and testing only.
package seed

import (
	"fmt"
	"strings"
	"time"

	"inkwell/internal/models"
	"inkwell/internal/observability"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DemoPassword is the password of every seeded account.
const DemoPassword = "password123"

// FactoryOptions tune what the factory builds.
type FactoryOptions struct {
	// DryRun assigns synthetic IDs instead of writing.
	DryRun bool
	// SkipBcrypt hashes the demo password at the minimum cost.
	SkipBcrypt bool
	// MaxDays spreads created_at over this many days back.
	MaxDays int
	// Seed makes the generated content reproducible when non-zero.
	Seed int64
}

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db     *gorm.DB
	opts   FactoryOptions
	faker  *gofakeit.Faker
	now    func() time.Time
	hashed string
	// synthetic ID counter when running in DryRun mode
	nextID uint
}

// NewFactory creates a new Factory bound to db. db may be nil in DryRun mode.
func NewFactory(db *gorm.DB, opts FactoryOptions) *Factory {
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if opts.MaxDays <= 0 {
		opts.MaxDays = 90
	}
	return &Factory{db: db, opts: opts, faker: gofakeit.New(seed), now: time.Now, nextID: 1000}
}

func (f *Factory) passwordHash() (string, error) {
	if f.hashed != "" {
		return f.hashed, nil
	}
	cost := bcrypt.DefaultCost
	if f.opts.SkipBcrypt {
		cost = bcrypt.MinCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), cost)
	if err != nil {
		return "", err
	}
	f.hashed = string(hashed)
	return f.hashed, nil
}

func (f *Factory) synthetic() uint {
	f.nextID++
	return f.nextID
}

// pastTime is a random moment within MaxDays.
func (f *Factory) pastTime() time.Time {
	back := time.Duration(f.faker.Number(0, f.opts.MaxDays*24*60)) * time.Minute
	return f.now().Add(-back).UTC()
}

// username returns a valid, unique-enough handle derived from a fake name.
func (f *Factory) username(n int) string {
	base := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		}
		return -1
	}, f.faker.Username())
	if len(base) < 3 {
		base = "writer"
	}
	suffix := fmt.Sprintf("%d", n)
	if len(base)+len(suffix) > 30 {
		base = base[:30-len(suffix)]
	}
	return base + suffix
}

// CreateUser persists an account and its profile. n keeps usernames and
// emails unique within one run.
func (f *Factory) CreateUser(n int, overrides ...func(*models.User, *models.Profile)) (*models.User, *models.Profile, error) {
	hashed, err := f.passwordHash()
	if err != nil {
		return nil, nil, fmt.Errorf("hash demo password: %w", err)
	}
	id := uuid.NewString()
	username := f.username(n)
	created := f.pastTime()

	user := &models.User{ID: id, Email: username + "@example.com", Password: hashed, CreatedAt: created}
	profile := &models.Profile{
		ID:        id,
		Username:  username,
		FullName:  f.faker.Name(),
		AvatarURL: fmt.Sprintf("https://i.pravatar.cc/150?u=%s", id),
		Bio:       f.faker.Sentence(10),
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, override := range overrides {
		override(user, profile)
	}

	if f.opts.DryRun {
		observability.Logger.Debug().Str("username", profile.Username).Msg("[dry-run] CreateUser")
		return user, profile, nil
	}
	err = f.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		return tx.Create(profile).Error
	})
	if err != nil {
		return nil, nil, err
	}
	return user, profile, nil
}

// BuildBlog constructs a blog by author without persisting it. The title and
// content always pass the editor's length checks.
func (f *Factory) BuildBlog(author *models.Profile, overrides ...func(*models.Blog)) *models.Blog {
	created := f.pastTime()
	paragraphs := f.faker.Number(2, 5)
	blog := &models.Blog{
		UserID:    author.ID,
		Title:     strings.TrimSuffix(f.faker.Sentence(f.faker.Number(3, 8)), "."),
		Excerpt:   f.faker.Sentence(14),
		Content:   f.faker.Paragraph(paragraphs, 4, 12, "\n\n"),
		Category:  f.faker.RandomString(models.Categories),
		Published: f.faker.Float64() < 0.8,
		CreatedAt: created,
		UpdatedAt: created,
	}
	if len([]rune(blog.Title)) < 5 {
		blog.Title = "Notes on " + blog.Title
	}
	for _, override := range overrides {
		override(blog)
	}
	return blog
}

// CreateBlogsBatch persists blogs in a single call when possible.
func (f *Factory) CreateBlogsBatch(blogs []*models.Blog, batchSize int) error {
	if len(blogs) == 0 {
		return nil
	}
	if f.opts.DryRun {
		for _, b := range blogs {
			b.ID = f.synthetic()
		}
		observability.Logger.Debug().Int("count", len(blogs)).Msg("[dry-run] CreateBlogsBatch")
		return nil
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	return f.db.CreateInBatches(blogs, batchSize).Error
}

// CreateBlogImages attaches n placeholder images to blog, the first one
// featured.
func (f *Factory) CreateBlogImages(blog *models.Blog, n int) ([]models.BlogImage, error) {
	images := make([]models.BlogImage, 0, n)
	for i := 0; i < n; i++ {
		images = append(images, models.BlogImage{
			BlogID:     blog.ID,
			ImageURL:   fmt.Sprintf("https://picsum.photos/seed/%s/1200/800", f.faker.UUID()),
			AltText:    f.faker.Sentence(4),
			IsFeatured: i == 0,
			CreatedAt:  blog.CreatedAt,
		})
	}
	if n == 0 {
		return images, nil
	}
	if f.opts.DryRun {
		for i := range images {
			images[i].ID = f.synthetic()
		}
		return images, nil
	}
	if err := f.db.Create(&images).Error; err != nil {
		return nil, err
	}
	return images, nil
}

// CreateComment persists a comment by author on blog, replying to parent
// when it is not nil.
func (f *Factory) CreateComment(author *models.Profile, blog *models.Blog, parent *models.Comment, overrides ...func(*models.Comment)) (*models.Comment, error) {
	created := blog.CreatedAt.Add(time.Duration(f.faker.Number(1, 72*60)) * time.Minute)
	if parent != nil && created.Before(parent.CreatedAt) {
		created = parent.CreatedAt.Add(time.Duration(f.faker.Number(1, 600)) * time.Minute)
	}
	comment := &models.Comment{
		BlogID:    blog.ID,
		UserID:    author.ID,
		Content:   f.faker.Sentence(f.faker.Number(4, 20)),
		CreatedAt: created,
		UpdatedAt: created,
	}
	if parent != nil {
		comment.ParentCommentID = &parent.ID
		comment.Depth = parent.Depth + 1
	} else {
		comment.Depth = 1
	}
	for _, override := range overrides {
		override(comment)
	}

	if f.opts.DryRun {
		comment.ID = f.synthetic()
		return comment, nil
	}
	if err := f.db.Create(comment).Error; err != nil {
		return nil, err
	}
	return comment, nil
}

// CreateReaction persists user's reaction to blog.
func (f *Factory) CreateReaction(user *models.Profile, blog *models.Blog, value string) error {
	if f.opts.DryRun {
		return nil
	}
	return f.db.Create(&models.Reaction{BlogID: blog.ID, UserID: user.ID, Reaction: value}).Error
}
