package server

import (
	"inkwell/internal/feed"
	"inkwell/internal/models"
	"inkwell/internal/shaping"
	"inkwell/internal/workflow"

	"github.com/gofiber/fiber/v2"
)

// PostCard is one blog of the listing with its derived presentation.
type PostCard struct {
	Blog          *models.Blog      `json:"blog"`
	FeaturedImage *models.BlogImage `json:"featured_image,omitempty"`
	Layout        shaping.Layout    `json:"layout"`
	Reactions     shaping.Tally     `json:"reactions"`
	CommentCount  int               `json:"comment_count"`
}

// FeedResponse is the home listing.
type FeedResponse struct {
	Featured   *PostCard       `json:"featured,omitempty"`
	Grid       []PostCard      `json:"grid"`
	Pagination feed.Pagination `json:"pagination"`
	Query      feed.Query      `json:"query"`
	Categories []string        `json:"categories"`
}

// PostDetail is the single post view.
type PostDetail struct {
	PostCard
	Comments   []*models.Comment         `json:"comments"`
	Controls   workflow.ReactionControls `json:"reaction_controls"`
	CanComment bool                      `json:"can_comment"`
	CanEdit    bool                      `json:"can_edit"`
}

func card(b *models.Blog, comments []*models.Comment, reactions []models.Reaction, viewerID string) PostCard {
	return PostCard{
		Blog:          b,
		FeaturedImage: shaping.SelectFeatured(b.Images),
		Layout:        shaping.LayoutFor(len(b.Images)),
		Reactions:     shaping.CountReactions(reactions, viewerID),
		CommentCount:  shaping.Count(comments),
	}
}

// GetFeed handles GET /api/feed?page=&q=&category=. Search and category
// narrow the fetched page only.
func (s *Server) GetFeed(c *fiber.Ctx) error {
	var q feed.Query
	if err := c.QueryParser(&q); err != nil {
		return badRequest(c, "Invalid query")
	}

	state, err := s.content.LoadBlogs(c.UserContext(), c.QueryInt("page", 1))
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
	}

	viewerID := viewer(c)
	view := feed.Compose(state.Blogs, q, state.Page)
	resp := FeedResponse{
		Grid:       make([]PostCard, 0, len(view.Grid)),
		Pagination: feed.Paginate(state.Total, state.PageSize, state.Page),
		Query:      q,
		Categories: append([]string{feed.CategoryAll}, models.Categories...),
	}
	if view.Featured != nil {
		fc := card(view.Featured, state.CommentsByBlogID[view.Featured.ID], state.ReactionsByBlogID[view.Featured.ID], viewerID)
		resp.Featured = &fc
	}
	for _, b := range view.Grid {
		resp.Grid = append(resp.Grid, card(b, state.CommentsByBlogID[b.ID], state.ReactionsByBlogID[b.ID], viewerID))
	}
	return c.JSON(resp)
}

// GetPost handles GET /api/posts/:id. Comments and reactions are refetched
// so the detail view never shows the listing's older copy.
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	blog := s.client.GetBlogByID(c.UserContext(), id)
	if blog == nil {
		return models.RespondWithError(c, fiber.StatusNotFound, models.NewNotFoundError("Post", id))
	}
	extras, err := s.content.RefreshExtras(c.UserContext(), id)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
	}

	viewerID := viewer(c)
	return c.JSON(PostDetail{
		PostCard:   card(blog, extras.Comments, extras.Reactions, viewerID),
		Comments:   extras.Comments,
		Controls:   workflow.Controls(viewerID, extras.Reactions),
		CanComment: viewerID != "",
		CanEdit:    viewerID != "" && viewerID == blog.UserID,
	})
}

// ManagedPost is one row of the management listing.
type ManagedPost struct {
	ID        uint   `json:"id"`
	Title     string `json:"title"`
	Category  string `json:"category"`
	Published bool   `json:"published"`
	Status    string `json:"status"`
	Action    string `json:"toggle_action"`
	Images    int    `json:"images"`
}

// GetManage handles GET /api/manage.
func (s *Server) GetManage(c *fiber.Ctx) error {
	blogs := s.client.GetUserBlogs(c.UserContext(), viewer(c))
	rows := make([]ManagedPost, 0, len(blogs))
	for _, b := range blogs {
		row := ManagedPost{ID: b.ID, Title: b.Title, Category: b.Category, Published: b.Published, Images: len(b.Images)}
		if b.Published {
			row.Status, row.Action = "Published", "Take Down"
		} else {
			row.Status, row.Action = "Draft", "Publish"
		}
		rows = append(rows, row)
	}
	return c.JSON(fiber.Map{"posts": rows})
}
