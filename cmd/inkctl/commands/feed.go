package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"inkwell/internal/cache"
	"inkwell/internal/contentcache"
	"inkwell/internal/database"
	"inkwell/internal/feed"
	"inkwell/internal/models"
	"inkwell/internal/repository"
	"inkwell/internal/server"
	"inkwell/internal/shaping"
	"inkwell/internal/storage"

	"github.com/spf13/cobra"
)

var (
	feedPage  int
	feedQuery feed.Query
	feedAs    string
)

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Print one page of the public listing",
	Long: `Print one page of the public listing the way the home page lays it out,
with comment and reaction counts.

Examples:
  inkctl feed                          # First page, with the featured post
  inkctl feed --page 2 --category Go   # Filtered page
  inkctl feed --as alice               # Mark alice's own reactions`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		db, err := database.Connect(cfg)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		store, err := storage.New(ctx, cfg)
		if err != nil {
			return fmt.Errorf("init storage: %w", err)
		}
		srv, err := server.NewServerWithDeps(cfg, db, nil, store)
		if err != nil {
			return err
		}

		content := srv.Content()
		if feedAs != "" {
			profile, err := repository.NewProfileRepository(db, cache.New(nil)).GetByUsername(ctx, feedAs)
			if err != nil {
				return fmt.Errorf("resolve %q: %w", feedAs, err)
			}
			content.SetCurrentUser(profile.ID)
		}

		state, err := content.LoadBlogs(ctx, feedPage)
		if err != nil {
			return fmt.Errorf("load feed: %w", err)
		}
		view := feed.Compose(state.Blogs, feedQuery, state.Page)
		if jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]interface{}{
				"page":       state.Page,
				"page_count": state.PageCount(),
				"query":      feedQuery,
				"view":       view,
			})
		}
		return printFeed(state, view)
	},
}

func init() {
	f := feedCmd.Flags()
	f.IntVar(&feedPage, "page", 1, "Page number")
	f.StringVar(&feedQuery.Search, "q", "", "Search text matched against title and excerpt")
	f.StringVar(&feedQuery.Category, "category", feed.CategoryAll, "Category filter")
	f.StringVar(&feedAs, "as", "", "Username whose reactions are marked")
	rootCmd.AddCommand(feedCmd)
}

func printFeed(state contentcache.State, view feed.View) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Page %d of %d\n\n", state.Page, state.PageCount())
	fmt.Fprintln(w, "ID\tTITLE\tCATEGORY\tAUTHOR\tCOMMENTS\tLIKES\tDISLIKES\tYOU")
	row := func(prefix string, b *models.Blog) {
		tally := shaping.CountReactions(state.ReactionsByBlogID[b.ID], state.CurrentUserID)
		author := ""
		if b.Profile != nil {
			author = b.Profile.Username
		}
		fmt.Fprintf(w, "%s%d\t%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
			prefix, b.ID, b.Title, b.Category, author,
			shaping.Count(state.CommentsByBlogID[b.ID]), tally.Likes, tally.Dislikes, tally.Viewer)
	}
	if view.Featured != nil {
		row("*", view.Featured)
	}
	for _, b := range view.Grid {
		row("", b)
	}
	if view.Featured == nil && len(view.Grid) == 0 {
		fmt.Fprintln(w, "no posts found")
	}
	return w.Flush()
}
