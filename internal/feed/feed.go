// Package feed filters and lays out one fetched page of published blogs.
// Nothing here fetches; search only sees the page it is given.
package feed

import (
	"strings"

	"inkwell/internal/models"

	"golang.org/x/text/cases"
)

// CategoryAll matches every category.
const CategoryAll = "All"

// Query is the listing filter. An empty Category means CategoryAll.
type Query struct {
	Search   string `query:"q" json:"q"`
	Category string `query:"category" json:"category"`
}

func (q Query) allCategories() bool {
	return q.Category == "" || q.Category == CategoryAll
}

// Unfiltered reports whether q narrows nothing.
func (q Query) Unfiltered() bool {
	return strings.TrimSpace(q.Search) == "" && q.allCategories()
}

// Filter keeps blogs whose title or excerpt contains the search text,
// ignoring case, and whose category equals q.Category exactly.
func Filter(blogs []*models.Blog, q Query) []*models.Blog {
	fold := cases.Fold()
	needle := fold.String(strings.TrimSpace(q.Search))

	out := make([]*models.Blog, 0, len(blogs))
	for _, b := range blogs {
		if !q.allCategories() && b.Category != q.Category {
			continue
		}
		if needle != "" &&
			!strings.Contains(fold.String(b.Title), needle) &&
			!strings.Contains(fold.String(b.Excerpt), needle) {
			continue
		}
		out = append(out, b)
	}
	return out
}

// View is what the listing renders: an optional hero post and the grid.
type View struct {
	Featured *models.Blog   `json:"featured,omitempty"`
	Grid     []*models.Blog `json:"grid"`
}

// Compose filters blogs and picks the featured post. A post is featured only
// on an unfiltered first page: the most recent one, left out of the grid.
func Compose(blogs []*models.Blog, q Query, page int) View {
	filtered := Filter(blogs, q)
	if page != 1 || !q.Unfiltered() || len(filtered) == 0 {
		return View{Grid: filtered}
	}

	featured := 0
	for i, b := range filtered {
		if b.CreatedAt.After(filtered[featured].CreatedAt) {
			featured = i
		}
	}
	grid := make([]*models.Blog, 0, len(filtered)-1)
	grid = append(grid, filtered[:featured]...)
	grid = append(grid, filtered[featured+1:]...)
	return View{Featured: filtered[featured], Grid: grid}
}
