package workflow

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"inkwell/internal/models"
	"inkwell/internal/notifications"
	"inkwell/internal/service"
)

// fakeBackend is an in-memory stand-in for the backend adapter. It is used
// from one goroutine at a time.
type fakeBackend struct {
	blogs     map[uint]*models.Blog
	images    map[uint]*models.BlogImage
	comments  map[uint]*models.Comment
	reactions map[uint]map[string]string

	nextBlog, nextImage, nextComment uint

	createErr  error
	reactErr   error
	failUpload map[string]bool

	calls  []string
	actors []string
	events []notifications.Event
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		blogs:       map[uint]*models.Blog{},
		images:      map[uint]*models.BlogImage{},
		comments:    map[uint]*models.Comment{},
		reactions:   map[uint]map[string]string{},
		nextBlog:    1,
		nextImage:   100,
		nextComment: 1,
		failUpload:  map[string]bool{},
	}
}

func (f *fakeBackend) record(ctx context.Context, call string) {
	f.calls = append(f.calls, call)
	f.actors = append(f.actors, service.ActorFrom(ctx))
}

func (f *fakeBackend) called(name string) int {
	n := 0
	for _, c := range f.calls {
		if c == name {
			n++
		}
	}
	return n
}

func (f *fakeBackend) addBlog(userID, title string, published bool) *models.Blog {
	b := &models.Blog{ID: f.nextBlog, UserID: userID, Title: title, Content: "Existing content of the post", Category: "Other", Published: published}
	f.nextBlog++
	f.blogs[b.ID] = b
	return b
}

func (f *fakeBackend) addImage(blogID, id uint, featured bool) {
	f.images[id] = &models.BlogImage{ID: id, BlogID: blogID, ImageURL: fmt.Sprintf("https://cdn.test/%d.png", id), IsFeatured: featured}
}

func (f *fakeBackend) imagesOf(blogID uint) []models.BlogImage {
	var out []models.BlogImage
	for _, img := range f.images {
		if img.BlogID == blogID {
			out = append(out, *img)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f *fakeBackend) GetBlogByID(ctx context.Context, id uint) *models.Blog {
	f.record(ctx, "GetBlogByID")
	b, ok := f.blogs[id]
	if !ok {
		return nil
	}
	cp := *b
	cp.Images = f.imagesOf(id)
	return &cp
}

func (f *fakeBackend) CreateBlog(ctx context.Context, in models.BlogInput) (*models.Blog, error) {
	f.record(ctx, "CreateBlog")
	if f.createErr != nil {
		return nil, f.createErr
	}
	b := f.addBlog(in.UserID, in.Title, in.Published)
	b.Excerpt, b.Content, b.Category = in.Excerpt, in.Content, in.Category
	cp := *b
	return &cp, nil
}

func (f *fakeBackend) UpdateBlog(ctx context.Context, id uint, patch models.BlogPatch) *models.Blog {
	f.record(ctx, "UpdateBlog")
	b, ok := f.blogs[id]
	if !ok {
		return nil
	}
	if patch.Title != nil {
		b.Title = *patch.Title
	}
	if patch.Excerpt != nil {
		b.Excerpt = *patch.Excerpt
	}
	if patch.Content != nil {
		b.Content = *patch.Content
	}
	if patch.Category != nil {
		b.Category = *patch.Category
	}
	if patch.Published != nil {
		b.Published = *patch.Published
	}
	cp := *b
	return &cp
}

func (f *fakeBackend) DeleteBlog(ctx context.Context, id uint) bool {
	f.record(ctx, "DeleteBlog")
	if _, ok := f.blogs[id]; !ok {
		return false
	}
	delete(f.blogs, id)
	return true
}

func (f *fakeBackend) UploadAndSaveBlogImage(ctx context.Context, upload models.Upload, blogID uint, _, altText string, featured bool) *models.BlogImage {
	f.record(ctx, "UploadAndSaveBlogImage")
	if f.failUpload[upload.Filename] {
		return nil
	}
	id := f.nextImage
	f.nextImage++
	f.addImage(blogID, id, featured)
	f.images[id].AltText = altText
	cp := *f.images[id]
	return &cp
}

func (f *fakeBackend) DeleteBlogImage(ctx context.Context, imageID uint) bool {
	f.record(ctx, "DeleteBlogImage")
	if _, ok := f.images[imageID]; !ok {
		return false
	}
	delete(f.images, imageID)
	return true
}

func (f *fakeBackend) SetFeaturedImage(ctx context.Context, blogID, imageID uint) bool {
	f.record(ctx, "SetFeaturedImage")
	img, ok := f.images[imageID]
	if !ok || img.BlogID != blogID {
		return false
	}
	for _, other := range f.images {
		if other.BlogID == blogID {
			other.IsFeatured = other.ID == imageID
		}
	}
	return true
}

func (f *fakeBackend) Publish(_ context.Context, e notifications.Event) {
	f.events = append(f.events, e)
}

func (f *fakeBackend) addComment(blogID uint, userID string, parent *uint) *models.Comment {
	now := time.Now()
	c := &models.Comment{ID: f.nextComment, BlogID: blogID, UserID: userID, Content: "hello", ParentCommentID: parent, CreatedAt: now, UpdatedAt: now}
	f.nextComment++
	f.comments[c.ID] = c
	return c
}

func (f *fakeBackend) GetCommentThread(ctx context.Context, blogID uint) []*models.Comment {
	f.record(ctx, "GetCommentThread")
	var out []*models.Comment
	for _, c := range f.comments {
		if c.BlogID == blogID {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (f *fakeBackend) GetComment(ctx context.Context, id uint) *models.Comment {
	f.record(ctx, "GetComment")
	c, ok := f.comments[id]
	if !ok {
		return nil
	}
	cp := *c
	return &cp
}

func (f *fakeBackend) AddComment(ctx context.Context, in models.CommentInput) *models.Comment {
	f.record(ctx, "AddComment")
	c := f.addComment(in.BlogID, in.UserID, in.ParentCommentID)
	c.Content, c.ImageURL = in.Content, in.ImageURL
	cp := *c
	return &cp
}

func (f *fakeBackend) UpdateComment(ctx context.Context, id uint, content string) *models.Comment {
	f.record(ctx, "UpdateComment")
	c, ok := f.comments[id]
	if !ok {
		return nil
	}
	c.Content = content
	c.UpdatedAt = c.UpdatedAt.Add(time.Second)
	cp := *c
	return &cp
}

func (f *fakeBackend) DeleteComment(ctx context.Context, id uint) bool {
	f.record(ctx, "DeleteComment")
	if _, ok := f.comments[id]; !ok {
		return false
	}
	delete(f.comments, id)
	return true
}

func (f *fakeBackend) UploadCommentImage(ctx context.Context, upload models.Upload, userID string) string {
	f.record(ctx, "UploadCommentImage")
	if f.failUpload[upload.Filename] {
		return ""
	}
	return "https://cdn.test/comment-images/" + userID + "/" + upload.Filename
}

func (f *fakeBackend) FetchReactions(ctx context.Context, blogID uint) []models.Reaction {
	f.record(ctx, "FetchReactions")
	var out []models.Reaction
	for user, value := range f.reactions[blogID] {
		out = append(out, models.Reaction{BlogID: blogID, UserID: user, Reaction: value})
	}
	return out
}

func (f *fakeBackend) UpsertReaction(ctx context.Context, blogID uint, userID, value string) error {
	f.record(ctx, "UpsertReaction")
	if f.reactErr != nil {
		return f.reactErr
	}
	if f.reactions[blogID] == nil {
		f.reactions[blogID] = map[string]string{}
	}
	f.reactions[blogID][userID] = value
	return nil
}

func (f *fakeBackend) RemoveReaction(ctx context.Context, blogID uint, userID string) error {
	f.record(ctx, "RemoveReaction")
	if f.reactErr != nil {
		return f.reactErr
	}
	delete(f.reactions[blogID], userID)
	return nil
}

var errTransport = errors.New("connection refused")

var (
	pngBytes  = []byte("\x89PNG\r\n\x1a\n-first")
	png2Bytes = []byte("\x89PNG\r\n\x1a\n-second")
)
