// Package contentcache keeps the current feed page together with the
// comments and reactions of each blog on it, and reconciles that state when
// invalidation events arrive.
//
// Every reload replaces whole slots. Overlapping reloads of the same slot
// resolve as last write wins.
package contentcache

import (
	"context"
	"sync"

	"inkwell/internal/feed"
	"inkwell/internal/models"
	"inkwell/internal/notifications"
	"inkwell/internal/observability"
	"inkwell/internal/shaping"

	"golang.org/x/sync/errgroup"
)

// extrasConcurrency bounds the per-blog fetches of one page load.
const extrasConcurrency = 4

// Source is the slice of the backend adapter the cache reads from.
type Source interface {
	FetchBlogs(ctx context.Context, page, pageSize int) models.BlogPage
	GetCommentThread(ctx context.Context, blogID uint) []*models.Comment
	FetchReactions(ctx context.Context, blogID uint) []models.Reaction
}

// Extras are the comment tree and reactions of one blog.
type Extras struct {
	Comments  []*models.Comment `json:"comments"`
	Reactions []models.Reaction `json:"reactions"`
}

// State is a point-in-time copy of the cache.
type State struct {
	Blogs             []*models.Blog
	CommentsByBlogID  map[uint][]*models.Comment
	ReactionsByBlogID map[uint][]models.Reaction
	CurrentUserID     string
	Page              int
	PageSize          int
	Total             int64
}

// PageCount is the number of feed pages for the cached total.
func (s State) PageCount() int {
	return feed.PageCount(s.Total, s.PageSize)
}

type Store struct {
	src      Source
	pageSize int

	mu          sync.RWMutex
	blogs       []*models.Blog
	comments    map[uint][]*models.Comment
	reactions   map[uint][]models.Reaction
	currentUser string
	page        int
	total       int64
}

func New(src Source, pageSize int) *Store {
	if pageSize <= 0 {
		pageSize = feed.DefaultPageSize
	}
	return &Store{
		src:       src,
		pageSize:  pageSize,
		comments:  make(map[uint][]*models.Comment),
		reactions: make(map[uint][]models.Reaction),
		page:      1,
	}
}

func (s *Store) SetCurrentUser(id string) {
	s.mu.Lock()
	s.currentUser = id
	s.mu.Unlock()
}

// Page returns the cached page number.
func (s *Store) Page() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.page
}

// LoadBlogs fetches page, clamped to the pages that exist, and the extras of
// every blog on it. It replaces the whole cache and returns the new state.
func (s *Store) LoadBlogs(ctx context.Context, page int) (State, error) {
	observability.CacheRefreshes.WithLabelValues("page").Inc()

	if page < 1 {
		page = 1
	}
	result := s.src.FetchBlogs(ctx, page, s.pageSize)
	if count := feed.PageCount(result.Total, s.pageSize); page > count {
		page = count
		result = s.src.FetchBlogs(ctx, page, s.pageSize)
	}

	comments := make([][]*models.Comment, len(result.Blogs))
	reactions := make([][]models.Reaction, len(result.Blogs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(extrasConcurrency)
	for i, b := range result.Blogs {
		g.Go(func() error {
			comments[i] = shaping.BuildTree(s.src.GetCommentThread(gctx, b.ID))
			reactions[i] = s.src.FetchReactions(gctx, b.ID)
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return State{}, err
	}

	s.mu.Lock()
	s.blogs = result.Blogs
	s.total = result.Total
	s.page = page
	s.comments = make(map[uint][]*models.Comment, len(result.Blogs))
	s.reactions = make(map[uint][]models.Reaction, len(result.Blogs))
	for i, b := range result.Blogs {
		s.comments[b.ID] = comments[i]
		s.reactions[b.ID] = reactions[i]
	}
	state := s.snapshotLocked()
	s.mu.Unlock()
	return state, nil
}

// RefreshExtras fetches the comments and reactions of one blog concurrently
// and replaces both slots once both have arrived. Blogs that are not on the
// cached page get their extras returned but not stored.
func (s *Store) RefreshExtras(ctx context.Context, blogID uint) (Extras, error) {
	observability.CacheRefreshes.WithLabelValues("extras").Inc()

	var extras Extras
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		extras.Comments = shaping.BuildTree(s.src.GetCommentThread(gctx, blogID))
		return gctx.Err()
	})
	g.Go(func() error {
		extras.Reactions = s.src.FetchReactions(gctx, blogID)
		return gctx.Err()
	})
	if err := g.Wait(); err != nil {
		return Extras{}, err
	}

	s.mu.Lock()
	if _, ok := s.comments[blogID]; ok {
		s.comments[blogID] = extras.Comments
		s.reactions[blogID] = extras.Reactions
	}
	s.mu.Unlock()
	return extras, nil
}

// Extras returns the cached extras of blogID.
func (s *Store) Extras(blogID uint) (Extras, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	comments, ok := s.comments[blogID]
	if !ok {
		return Extras{}, false
	}
	return Extras{Comments: comments, Reactions: s.reactions[blogID]}, true
}

func (s *Store) cached(blogID uint) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.comments[blogID]
	return ok
}

func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() State {
	state := State{
		Blogs:             append([]*models.Blog(nil), s.blogs...),
		CommentsByBlogID:  make(map[uint][]*models.Comment, len(s.comments)),
		ReactionsByBlogID: make(map[uint][]models.Reaction, len(s.reactions)),
		CurrentUserID:     s.currentUser,
		Page:              s.page,
		PageSize:          s.pageSize,
		Total:             s.total,
	}
	for id, c := range s.comments {
		state.CommentsByBlogID[id] = c
	}
	for id, r := range s.reactions {
		state.ReactionsByBlogID[id] = r
	}
	return state
}

// Watch reconciles the cache with bus until ctx ends. Blog and profile events
// reload the cached page; comment and reaction events refresh the extras of
// their blog when it is cached.
func (s *Store) Watch(ctx context.Context, bus notifications.Bus) error {
	events, err := bus.Subscribe(ctx)
	if err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case e, ok := <-events:
			if !ok {
				return nil
			}
			s.apply(ctx, e)
		}
	}
}

func (s *Store) apply(ctx context.Context, e notifications.Event) {
	var err error
	switch e.Entity {
	case notifications.EntityBlog, notifications.EntityProfile:
		_, err = s.LoadBlogs(ctx, s.Page())
	case notifications.EntityComment, notifications.EntityReaction:
		if s.cached(e.BlogID) {
			_, err = s.RefreshExtras(ctx, e.BlogID)
		}
	}
	if err != nil && ctx.Err() == nil {
		observability.LogAsyncOperationError(ctx, "contentcache.apply", err, map[string]interface{}{
			"entity": e.Entity,
			"id":     e.EntityID,
		})
	}
}
