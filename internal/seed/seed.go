package seed

import (
	"context"
	"fmt"
	"math/rand"

	"inkwell/internal/models"
	"inkwell/internal/observability"

	"gorm.io/gorm"
)

// Options configure the seeder.
type Options struct {
	NumUsers        int
	NumBlogs        int
	MaxImages       int
	CommentsPerBlog int
	// ReplyChance is the probability that a comment replies to an earlier one.
	ReplyChance float64
	// ReactionChance is the probability that a given user reacts to a blog.
	ReactionChance float64
	BatchSize      int
	MaxDays        int
	SkipBcrypt     bool
	DryRun         bool
	Seed           int64
}

// DefaultOptions is a small, lively demo dataset.
func DefaultOptions() Options {
	return Options{
		NumUsers:        12,
		NumBlogs:        40,
		MaxImages:       3,
		CommentsPerBlog: 6,
		ReplyChance:     0.4,
		ReactionChance:  0.35,
		BatchSize:       50,
		MaxDays:         90,
	}
}

// Summary counts what a run created.
type Summary struct {
	Users     int
	Blogs     int
	Images    int
	Comments  int
	Reactions int
}

// Seeder populates the database with demo profiles, blogs and their
// comments and reactions.
type Seeder struct {
	db      *gorm.DB
	opts    Options
	factory *Factory
	rng     *rand.Rand
}

// NewSeeder creates a seeder over db.
func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	seed := opts.Seed
	if seed == 0 {
		seed = rand.Int63()
	}
	return &Seeder{
		db:   db,
		opts: opts,
		factory: NewFactory(db, FactoryOptions{
			DryRun:     opts.DryRun,
			SkipBcrypt: opts.SkipBcrypt,
			MaxDays:    opts.MaxDays,
			Seed:       seed,
		}),
		//nolint:gosec // Weak random number generator is fine for seeding
		rng: rand.New(rand.NewSource(seed)),
	}
}

// seededTables lists tables children first.
var seededTables = []string{"reactions", "comments", "blog_images", "blogs", "profiles", "users"}

// ClearAll removes every seeded row.
func (s *Seeder) ClearAll() error {
	if s.opts.DryRun {
		return nil
	}
	observability.Logger.Info().Msg("clearing existing data")
	if s.db.Dialector.Name() == "postgres" {
		return s.db.Exec("TRUNCATE TABLE reactions, comments, blog_images, blogs, profiles, users RESTART IDENTITY CASCADE").Error
	}
	for _, table := range seededTables {
		if err := s.db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}

// Run seeds users, then blogs with images, then comment threads and
// reactions.
func (s *Seeder) Run(ctx context.Context) (Summary, error) {
	var sum Summary
	log := observability.Ctx(ctx)
	log.Info().Int("users", s.opts.NumUsers).Int("blogs", s.opts.NumBlogs).Msg("starting database seeding")

	profiles, err := s.seedUsers()
	if err != nil {
		return sum, fmt.Errorf("failed to create users: %w", err)
	}
	sum.Users = len(profiles)
	if len(profiles) == 0 {
		return sum, nil
	}

	blogs, err := s.seedBlogs(profiles)
	if err != nil {
		return sum, fmt.Errorf("failed to create blogs: %w", err)
	}
	sum.Blogs = len(blogs)

	for _, blog := range blogs {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		images, err := s.factory.CreateBlogImages(blog, s.rng.Intn(max(s.opts.MaxImages, 0)+1))
		if err != nil {
			return sum, fmt.Errorf("failed to create images for blog %d: %w", blog.ID, err)
		}
		sum.Images += len(images)

		n, err := s.seedThread(profiles, blog)
		if err != nil {
			return sum, fmt.Errorf("failed to create comments for blog %d: %w", blog.ID, err)
		}
		sum.Comments += n

		n, err = s.seedReactions(profiles, blog)
		if err != nil {
			return sum, fmt.Errorf("failed to create reactions for blog %d: %w", blog.ID, err)
		}
		sum.Reactions += n
	}

	log.Info().
		Int("users", sum.Users).
		Int("blogs", sum.Blogs).
		Int("images", sum.Images).
		Int("comments", sum.Comments).
		Int("reactions", sum.Reactions).
		Msg("database seeding completed")
	return sum, nil
}

func (s *Seeder) seedUsers() ([]*models.Profile, error) {
	profiles := make([]*models.Profile, 0, s.opts.NumUsers)
	for i := 0; i < s.opts.NumUsers; i++ {
		_, profile, err := s.factory.CreateUser(i)
		if err != nil {
			observability.Logger.Warn().Err(err).Int("n", i).Msg("failed to create user")
			continue
		}
		profiles = append(profiles, profile)
	}
	return profiles, nil
}

func (s *Seeder) seedBlogs(profiles []*models.Profile) ([]*models.Blog, error) {
	blogs := make([]*models.Blog, 0, s.opts.NumBlogs)
	for i := 0; i < s.opts.NumBlogs; i++ {
		blogs = append(blogs, s.factory.BuildBlog(profiles[s.rng.Intn(len(profiles))]))
	}
	if err := s.factory.CreateBlogsBatch(blogs, s.opts.BatchSize); err != nil {
		return nil, err
	}
	return blogs, nil
}

// seedThread writes up to CommentsPerBlog comments. Replies only go under
// comments that can still take one.
func (s *Seeder) seedThread(profiles []*models.Profile, blog *models.Blog) (int, error) {
	if s.opts.CommentsPerBlog <= 0 {
		return 0, nil
	}
	count := s.rng.Intn(s.opts.CommentsPerBlog + 1)
	var open []*models.Comment
	for i := 0; i < count; i++ {
		var parent *models.Comment
		if len(open) > 0 && s.rng.Float64() < s.opts.ReplyChance {
			parent = open[s.rng.Intn(len(open))]
		}
		comment, err := s.factory.CreateComment(profiles[s.rng.Intn(len(profiles))], blog, parent)
		if err != nil {
			return i, err
		}
		if comment.Depth < models.MaxCommentDepth {
			open = append(open, comment)
		}
	}
	return count, nil
}

func (s *Seeder) seedReactions(profiles []*models.Profile, blog *models.Blog) (int, error) {
	n := 0
	for _, p := range profiles {
		if s.rng.Float64() >= s.opts.ReactionChance {
			continue
		}
		value := models.ReactionLike
		if s.rng.Float64() < 0.25 {
			value = models.ReactionDislike
		}
		if err := s.factory.CreateReaction(p, blog, value); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
