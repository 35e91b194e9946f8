package commands

import (
	"fmt"

	"inkwell/internal/database"
	"inkwell/internal/observability"
	"inkwell/internal/seed"

	"github.com/spf13/cobra"
)

var (
	seedOpts  = seed.DefaultOptions()
	seedClean bool
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Populate the database with demo writers, blogs and discussion",
	Long: `Populate the database with demo data.

Every seeded account uses the same password, printed at the end.

Examples:
  inkctl seed                          # Default dataset, wiping existing rows
  inkctl seed --users 50 --blogs 300   # Larger dataset
  inkctl seed --dry-run --seed 42      # Build without writing`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.IsProduction() {
			return fmt.Errorf("refusing to seed a %s database", cfg.Env)
		}
		db, err := database.Connect(cfg)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		if err := database.ApplySchema(cmd.Context(), db, cfg); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}

		s := seed.NewSeeder(db, seedOpts)
		if seedClean {
			if err := s.ClearAll(); err != nil {
				return fmt.Errorf("cleanup failed: %w", err)
			}
		}
		sum, err := s.Run(cmd.Context())
		if err != nil {
			return err
		}
		observability.Logger.Info().
			Int("users", sum.Users).
			Int("blogs", sum.Blogs).
			Int("comments", sum.Comments).
			Str("password", seed.DemoPassword).
			Msg("seeding done")
		return nil
	},
}

func init() {
	f := seedCmd.Flags()
	f.IntVar(&seedOpts.NumUsers, "users", seedOpts.NumUsers, "Number of users to create")
	f.IntVar(&seedOpts.NumBlogs, "blogs", seedOpts.NumBlogs, "Number of blogs to create")
	f.IntVar(&seedOpts.MaxImages, "max-images", seedOpts.MaxImages, "Maximum images per blog")
	f.IntVar(&seedOpts.CommentsPerBlog, "comments", seedOpts.CommentsPerBlog, "Maximum comments per blog")
	f.Float64Var(&seedOpts.ReplyChance, "reply-chance", seedOpts.ReplyChance, "Probability that a comment is a reply")
	f.Float64Var(&seedOpts.ReactionChance, "reaction-chance", seedOpts.ReactionChance, "Probability that a user reacts to a blog")
	f.IntVar(&seedOpts.MaxDays, "max-days", seedOpts.MaxDays, "Spread creation times over this many days")
	f.BoolVar(&seedOpts.SkipBcrypt, "fast", false, "Hash the demo password at the minimum bcrypt cost")
	f.BoolVar(&seedOpts.DryRun, "dry-run", false, "Build the dataset without writing it")
	f.Int64Var(&seedOpts.Seed, "seed", 0, "Random seed for reproducible data")
	f.BoolVar(&seedClean, "clean", true, "Clear existing data before seeding")
	rootCmd.AddCommand(seedCmd)
}
