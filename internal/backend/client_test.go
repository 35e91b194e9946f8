package backend

import (
	"context"
	"errors"
	"testing"
	"time"

	"inkwell/internal/cache"
	"inkwell/internal/config"
	"inkwell/internal/database"
	"inkwell/internal/models"
	"inkwell/internal/notifications"
	"inkwell/internal/repository"
	"inkwell/internal/service"
	"inkwell/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var pngData = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type harness struct {
	db     *gorm.DB
	client *Client
	bus    *notifications.LocalBus
	store  *storage.MemoryStore
}

type repoOverrides struct {
	blogs    repository.BlogRepository
	comments repository.CommentRepository
}

func newHarness(t *testing.T, o repoOverrides) *harness {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))

	c := cache.New(nil)
	cfg := &config.Config{JWTSecret: "test-secret-with-at-least-32-characters!"}
	blogRepo := o.blogs
	if blogRepo == nil {
		blogRepo = repository.NewBlogRepository(db)
	}
	commentRepo := o.comments
	if commentRepo == nil {
		commentRepo = repository.NewCommentRepository(db)
	}
	profileRepo := repository.NewProfileRepository(db, c)
	store := storage.NewMemoryStore("blog-images", "")

	images := service.NewImageService(repository.NewImageRepository(db), blogRepo, store, cfg)
	blogs := service.NewBlogService(blogRepo, images)
	bus := notifications.NewLocalBus(16)

	client := New(Services{
		Auth:      service.NewAuthService(repository.NewUserRepository(db), profileRepo, c, cfg),
		Profiles:  service.NewProfileService(profileRepo, images),
		Blogs:     blogs,
		Images:    images,
		Comments:  service.NewCommentService(commentRepo, blogs),
		Reactions: service.NewReactionService(repository.NewReactionRepository(db), blogs),
	}, bus)
	return &harness{db: db, client: client, bus: bus, store: store}
}

func (h *harness) seedBlog(t *testing.T, userID, title string, published bool) *models.Blog {
	t.Helper()
	require.NoError(t, h.db.Create(&models.Profile{ID: userID, Username: "user_" + userID}).Error)
	b := &models.Blog{UserID: userID, Title: title, Content: "content of " + title, Category: "Other", Published: published}
	require.NoError(t, h.db.Create(b).Error)
	return b
}

func (h *harness) subscribe(t *testing.T) <-chan notifications.Event {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	events, err := h.bus.Subscribe(ctx)
	require.NoError(t, err)
	return events
}

func next(t *testing.T, events <-chan notifications.Event) notifications.Event {
	t.Helper()
	select {
	case e := <-events:
		return e
	case <-time.After(time.Second):
		t.Fatal("no event published")
		return notifications.Event{}
	}
}

func as(userID string) context.Context {
	return service.WithActor(context.Background(), userID)
}

// panicComments fails the test through a nil interface call if it is used.
type panicComments struct {
	repository.CommentRepository
}

// brokenBlogs returns transport errors from every method it overrides.
type brokenBlogs struct {
	repository.BlogRepository
	err error
}

func (b brokenBlogs) Create(context.Context, *models.Blog) error { return b.err }
func (b brokenBlogs) ListPublished(context.Context, int, int) ([]*models.Blog, int64, error) {
	return nil, 0, b.err
}

func TestGetComments_NonNumericIDSkipsBackend(t *testing.T) {
	t.Parallel()
	h := newHarness(t, repoOverrides{comments: panicComments{}})

	for _, raw := range []string{"", "abc", "12x", "-3", "0"} {
		comments := h.client.GetComments(context.Background(), raw)
		assert.NotNil(t, comments, raw)
		assert.Empty(t, comments, raw)
	}
}

func TestGetComments_AttachesProfiles(t *testing.T) {
	t.Parallel()
	h := newHarness(t, repoOverrides{})
	blog := h.seedBlog(t, "author", "Hello", true)

	require.NotNil(t, h.client.AddComment(as("author"), models.CommentInput{BlogID: blog.ID, UserID: "author", Content: "top"}))
	top := h.client.GetComments(context.Background(), "1")
	require.Len(t, top, 1)
	require.NotNil(t, top[0].Profile)
	assert.Equal(t, "user_author", top[0].Profile.Username)

	parent := top[0].ID
	require.NotNil(t, h.client.AddComment(as("author"), models.CommentInput{BlogID: blog.ID, UserID: "author", Content: "reply", ParentCommentID: &parent}))
	assert.Len(t, h.client.GetComments(context.Background(), "1"), 1)
	assert.Len(t, h.client.GetCommentThread(context.Background(), blog.ID), 2)
	assert.Len(t, h.client.ListReplies(context.Background(), blog.ID, parent), 1)
	assert.Empty(t, h.client.ListReplies(context.Background(), blog.ID+1, parent))
}

func TestCreateBlog_ErrorKinds(t *testing.T) {
	t.Parallel()

	h := newHarness(t, repoOverrides{})
	blog, err := h.client.CreateBlog(as("u1"), models.BlogInput{Title: "", Content: "x", Category: "Other"})
	assert.NoError(t, err)
	assert.Nil(t, blog)

	transport := errors.New("dial tcp: connection refused")
	broken := newHarness(t, repoOverrides{blogs: brokenBlogs{err: transport}})
	blog, err = broken.client.CreateBlog(as("u1"), models.BlogInput{Title: "Title", Content: "x", Category: "Other"})
	assert.ErrorIs(t, err, transport)
	assert.Nil(t, blog)

	page := broken.client.FetchBlogs(context.Background(), 1, 6)
	assert.NotNil(t, page.Blogs)
	assert.Empty(t, page.Blogs)
	assert.Zero(t, page.Total)
}

func TestBlogMutationsPublish(t *testing.T) {
	t.Parallel()
	h := newHarness(t, repoOverrides{})
	require.NoError(t, h.db.Create(&models.Profile{ID: "u1", Username: "writer"}).Error)
	events := h.subscribe(t)
	ctx := as("u1")

	blog, err := h.client.CreateBlog(ctx, models.BlogInput{Title: "Title", Content: "Body", Category: "Other"})
	require.NoError(t, err)
	require.NotNil(t, blog)
	e := next(t, events)
	assert.Equal(t, notifications.EntityBlog, e.Entity)
	assert.Equal(t, notifications.ActionCreated, e.Action)
	assert.Equal(t, blog.ID, e.BlogID)

	published := true
	require.NotNil(t, h.client.UpdateBlog(ctx, blog.ID, models.BlogPatch{Published: &published}))
	assert.Equal(t, notifications.ActionPublished, next(t, events).Action)

	image := h.client.UploadAndSaveBlogImage(ctx, models.Upload{Filename: "a.png", Data: pngData}, blog.ID, "u1", "", true)
	require.NotNil(t, image)
	assert.Equal(t, notifications.ActionUpdated, next(t, events).Action)

	got := h.client.GetBlogByID(ctx, blog.ID)
	require.NotNil(t, got)
	require.NotNil(t, got.Profile)
	assert.Equal(t, "writer", got.Profile.Username)
	assert.Len(t, got.Images, 1)

	assert.False(t, h.client.DeleteBlog(as("intruder"), blog.ID))
	assert.True(t, h.client.DeleteBlog(ctx, blog.ID))
	assert.Equal(t, notifications.ActionDeleted, next(t, events).Action)
	assert.Equal(t, 0, h.store.Len())
	assert.Nil(t, h.client.GetBlogByID(ctx, blog.ID))
}

func TestGetBlogByID_DraftOnlyForOwner(t *testing.T) {
	t.Parallel()
	h := newHarness(t, repoOverrides{})
	draft := h.seedBlog(t, "owner", "Secret", false)

	assert.NotNil(t, h.client.GetBlogByID(as("owner"), draft.ID))
	assert.Nil(t, h.client.GetBlogByID(as("other"), draft.ID))
	assert.Len(t, h.client.GetUserBlogs(as("owner"), "owner"), 1)
	assert.Empty(t, h.client.GetUserBlogs(as("other"), "owner"))
}

func TestReactions(t *testing.T) {
	t.Parallel()
	h := newHarness(t, repoOverrides{})
	blog := h.seedBlog(t, "author", "Post", true)
	events := h.subscribe(t)

	require.NoError(t, h.client.UpsertReaction(as("u1"), blog.ID, "u1", models.ReactionLike))
	e := next(t, events)
	assert.Equal(t, notifications.EntityReaction, e.Entity)
	assert.Equal(t, blog.ID, e.BlogID)

	assert.Len(t, h.client.FetchReactions(context.Background(), blog.ID), 1)

	err := h.client.UpsertReaction(context.Background(), blog.ID, "u1", models.ReactionLike)
	assert.True(t, models.IsCode(err, models.CodeUnauthorized))

	require.NoError(t, h.client.RemoveReaction(as("u1"), blog.ID, "u1"))
	assert.Empty(t, h.client.FetchReactions(context.Background(), blog.ID))
}

func TestAuthResults(t *testing.T) {
	t.Parallel()
	h := newHarness(t, repoOverrides{})
	ctx := context.Background()

	res := h.client.SignUp(ctx, "a@example.com", "secret1", "alice")
	assert.Equal(t, models.AuthResult{Success: true, Message: MsgRegistered}, res)

	res = h.client.SignUp(ctx, "a@example.com", "secret1", "alice2")
	assert.False(t, res.Success)
	assert.Equal(t, "User already registered", res.Message)

	res = h.client.SignIn(ctx, "a@example.com", "wrong")
	assert.False(t, res.Success)
	assert.Equal(t, "Invalid login credentials", res.Message)

	res = h.client.SignIn(ctx, "a@example.com", "secret1")
	require.True(t, res.Success)
	assert.Equal(t, MsgLoggedIn, res.Message)
	require.NotNil(t, res.Session)

	user := h.client.GetCurrentUser(ctx, res.Session.Token)
	require.NotNil(t, user)
	assert.Equal(t, "alice", user.Username)
	assert.Nil(t, h.client.GetCurrentUser(ctx, ""))
	assert.Nil(t, h.client.GetCurrentUser(ctx, "garbage"))

	out := h.client.SignOut(ctx, res.Session.Token)
	assert.Equal(t, models.AuthResult{Success: true, Message: MsgLoggedOut}, out)
	assert.False(t, h.client.SignOut(ctx, "garbage").Success)
}

func TestMessage(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "nope", Message(models.NewValidationError("nope"), "fallback"))
	assert.Equal(t, "fallback", Message(errors.New("raw"), "fallback"))
}

// cancelAwareBus refuses publishes whose context is done, the way a network
// publish would.
type cancelAwareBus struct {
	published []notifications.Event
}

func (b *cancelAwareBus) Publish(ctx context.Context, e notifications.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.published = append(b.published, e)
	return nil
}

func (b *cancelAwareBus) Subscribe(context.Context) (<-chan notifications.Event, error) {
	return make(chan notifications.Event), nil
}

func TestPublish_SurvivesCancelledRequest(t *testing.T) {
	t.Parallel()
	bus := &cancelAwareBus{}
	client := New(Services{}, bus)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	client.Publish(ctx, notifications.BlogEvent(7, notifications.ActionUpdated))

	require.Len(t, bus.published, 1)
	assert.Equal(t, uint(7), bus.published[0].BlogID)
}
