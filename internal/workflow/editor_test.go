package workflow

import (
	"context"
	"strings"
	"testing"

	"inkwell/internal/notifications"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validForm() PostForm {
	return PostForm{
		Title:    "Hello world",
		Excerpt:  "short",
		Content:  "This body is comfortably long enough.",
		Category: "Other",
		Publish:  true,
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		edit func(*PostForm)
		want string
	}{
		{name: "valid", edit: func(*PostForm) {}},
		{name: "missing title", edit: func(f *PostForm) { f.Title = "" }, want: MsgRequiredFields},
		{name: "missing category", edit: func(f *PostForm) { f.Category = "" }, want: MsgRequiredFields},
		{name: "title of four", edit: func(f *PostForm) { f.Title = "abcd" }, want: MsgTitleTooShort},
		{name: "title of five", edit: func(f *PostForm) { f.Title = "abcde" }},
		{name: "title counts characters", edit: func(f *PostForm) { f.Title = "éééé" }, want: MsgTitleTooShort},
		{name: "content of nineteen", edit: func(f *PostForm) { f.Content = strings.Repeat("x", 19) }, want: MsgContentTooShort},
		{name: "content of twenty", edit: func(f *PostForm) { f.Content = strings.Repeat("x", 20) }},
		{name: "excerpt optional", edit: func(f *PostForm) { f.Excerpt = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			form := validForm()
			tt.edit(&form)
			err := Validate(form)
			if tt.want == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalid)
			assert.Equal(t, tt.want, MessageOf(err))
		})
	}
}

func TestSubmit_InvalidFormMakesNoCalls(t *testing.T) {
	t.Parallel()
	be := newFakeBackend()
	editor := NewPostEditor(be, "author")
	form := validForm()
	form.Title = "abcd"

	_, err := editor.Submit(context.Background(), form)
	require.Error(t, err)
	assert.Empty(t, be.calls)
	assert.Equal(t, StateIdle, editor.State())
	assert.Equal(t, MsgTitleTooShort, editor.Message())
}

func TestSubmit_RequiresAuthor(t *testing.T) {
	t.Parallel()
	be := newFakeBackend()
	_, err := NewPostEditor(be, "").Submit(context.Background(), validForm())
	assert.ErrorIs(t, err, ErrLoginRequired)
	assert.Equal(t, MsgNotSignedIn, MessageOf(err))
	assert.Empty(t, be.calls)
}

func TestSubmit_CreateRewritesPreviews(t *testing.T) {
	t.Parallel()
	be := newFakeBackend()
	editor := NewPostEditor(be, "author")
	first := editor.StageImage("a.png", "", pngBytes)
	second := editor.StageImage("b.png", "image/png", png2Bytes)
	assert.Equal(t, "image/png", first.ContentType)
	require.Len(t, editor.Staged(), 2)

	form := validForm()
	form.Content = "Intro paragraph\n\n![a](" + first.PreviewURL + ")\n\n![b](" + second.PreviewURL + ")\n"
	out, err := editor.Submit(context.Background(), form)
	require.NoError(t, err)

	assert.Equal(t, StateSuccess, editor.State())
	assert.Equal(t, []string{"create-shell", "upload-images", "rewrite-content", "patch-content", "persist-featured"}, out.Completed)
	assert.Equal(t, 0, be.called("SetFeaturedImage"))
	require.NotNil(t, out.Blog)
	assert.Equal(t, "/posts/1", out.Redirect)
	assert.Empty(t, out.Skipped)

	stored := be.blogs[out.Blog.ID]
	assert.NotContains(t, stored.Content, "data:")
	images := be.imagesOf(out.Blog.ID)
	require.Len(t, images, 2)
	for _, img := range images {
		assert.Equal(t, 1, strings.Count(stored.Content, img.ImageURL))
	}
	assert.True(t, images[0].IsFeatured)
	assert.False(t, images[1].IsFeatured)

	for _, actor := range be.actors {
		assert.Equal(t, "author", actor)
	}
	require.NotEmpty(t, be.events)
	assert.Equal(t, notifications.BlogEvent(out.Blog.ID, notifications.ActionCreated).Channel(), be.events[len(be.events)-1].Channel())
	assert.Empty(t, editor.Staged())
}

func TestSubmit_CreateHonoursFeaturedChoice(t *testing.T) {
	t.Parallel()
	be := newFakeBackend()
	editor := NewPostEditor(be, "author")
	editor.StageImage("a.png", "image/png", pngBytes)
	second := editor.StageImage("b.png", "image/png", png2Bytes)
	require.NoError(t, editor.MarkFeatured(second.PreviewURL))

	out, err := editor.Submit(context.Background(), validForm())
	require.NoError(t, err)
	images := be.imagesOf(out.Blog.ID)
	require.Len(t, images, 2)
	assert.False(t, images[0].IsFeatured)
	assert.True(t, images[1].IsFeatured)

	// content without previews is not patched
	assert.Equal(t, 0, be.called("UpdateBlog"))
}

func TestSubmit_SkipsFailedUploads(t *testing.T) {
	t.Parallel()
	be := newFakeBackend()
	be.failUpload["a.png"] = true
	editor := NewPostEditor(be, "author")
	editor.StageImage("a.png", "image/png", pngBytes)
	editor.StageImage("b.png", "image/png", png2Bytes)

	out, err := editor.Submit(context.Background(), validForm())
	require.NoError(t, err)
	assert.Equal(t, []string{"a.png"}, out.Skipped)
	images := be.imagesOf(out.Blog.ID)
	require.Len(t, images, 1)
	assert.True(t, images[0].IsFeatured)
}

func TestSubmit_FeaturedChoiceFailsToUpload(t *testing.T) {
	t.Parallel()
	be := newFakeBackend()
	be.failUpload["b.png"] = true
	editor := NewPostEditor(be, "author")
	editor.StageImage("a.png", "image/png", pngBytes)
	second := editor.StageImage("b.png", "image/png", png2Bytes)
	editor.StageImage("c.png", "image/png", pngBytes)
	require.NoError(t, editor.MarkFeatured(second.PreviewURL))

	out, err := editor.Submit(context.Background(), validForm())
	require.NoError(t, err)
	assert.Equal(t, []string{"b.png"}, out.Skipped)
	assert.Contains(t, out.Completed, "persist-featured")

	images := be.imagesOf(out.Blog.ID)
	require.Len(t, images, 2)
	featured := 0
	for _, img := range images {
		if img.IsFeatured {
			featured++
		}
	}
	assert.Equal(t, 1, featured)
	assert.True(t, images[0].IsFeatured)
	assert.Equal(t, 1, be.called("SetFeaturedImage"))
}

func TestSubmit_CreateWithoutImagesSkipsFeatured(t *testing.T) {
	t.Parallel()
	be := newFakeBackend()
	editor := NewPostEditor(be, "author")

	_, err := editor.Submit(context.Background(), validForm())
	require.NoError(t, err)
	assert.Equal(t, 0, be.called("SetFeaturedImage"))
}

func TestSubmit_CreateFailure(t *testing.T) {
	t.Parallel()
	be := newFakeBackend()
	be.createErr = errTransport
	editor := NewPostEditor(be, "author")

	out, err := editor.Submit(context.Background(), validForm())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBackend)
	assert.ErrorIs(t, err, errTransport)
	assert.Equal(t, "Failed to create post: connection refused", editor.Message())
	assert.Equal(t, StateError, editor.State())
	assert.Equal(t, "create-shell", out.Failed)
	assert.Empty(t, out.Completed)
	assert.Empty(t, be.events)
}

func TestLoad(t *testing.T) {
	t.Parallel()
	be := newFakeBackend()
	blog := be.addBlog("author", "Mine", false)
	be.addImage(blog.ID, 10, true)

	_, err := NewPostEditor(be, "stranger").Load(context.Background(), blog.ID)
	assert.ErrorIs(t, err, ErrNotOwner)
	assert.Equal(t, MsgNotYourPost, MessageOf(err))

	_, err = NewPostEditor(be, "author").Load(context.Background(), 99)
	assert.ErrorIs(t, err, ErrNotFound)

	editor := NewPostEditor(be, "author")
	form, err := editor.Load(context.Background(), blog.ID)
	require.NoError(t, err)
	assert.Equal(t, "Mine", form.Title)
	assert.False(t, form.Publish)
	assert.Equal(t, "10", editor.Featured())
	require.Len(t, editor.Existing(), 1)
}

func TestSubmit_Edit(t *testing.T) {
	t.Parallel()
	be := newFakeBackend()
	blog := be.addBlog("author", "Original title", true)
	be.addImage(blog.ID, 10, true)
	be.addImage(blog.ID, 11, false)

	editor := NewPostEditor(be, "author")
	form, err := editor.Load(context.Background(), blog.ID)
	require.NoError(t, err)

	editor.KeepOnly([]uint{11})
	assert.Empty(t, editor.Featured())
	staged := editor.StageImage("new.png", "image/png", pngBytes)
	require.NoError(t, editor.MarkFeatured(staged.PreviewURL))

	form.Title = "Edited title"
	form.Content = "Now with a picture ![n](" + staged.PreviewURL + ")"
	out, err := editor.Submit(context.Background(), form)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"update-fields", "delete-removed-images", "upload-new-images",
		"rewrite-content", "patch-content", "persist-featured",
	}, out.Completed)
	assert.Equal(t, RedirectEdited, out.Redirect)
	assert.Equal(t, "Edited title", be.blogs[blog.ID].Title)

	images := be.imagesOf(blog.ID)
	require.Len(t, images, 2)
	assert.Equal(t, uint(11), images[0].ID)
	assert.False(t, images[0].IsFeatured)
	assert.True(t, images[1].IsFeatured)
	assert.Contains(t, be.blogs[blog.ID].Content, images[1].ImageURL)
	assert.NotContains(t, be.blogs[blog.ID].Content, "data:")

	last := be.events[len(be.events)-1]
	assert.Equal(t, notifications.ActionUpdated, last.Action)
}

func TestSubmit_EditKeepsExistingFeatured(t *testing.T) {
	t.Parallel()
	be := newFakeBackend()
	blog := be.addBlog("author", "Original title", true)
	be.addImage(blog.ID, 10, false)
	be.addImage(blog.ID, 11, true)

	editor := NewPostEditor(be, "author")
	form, err := editor.Load(context.Background(), blog.ID)
	require.NoError(t, err)
	editor.StageImage("new.png", "image/png", pngBytes)

	_, err = editor.Submit(context.Background(), form)
	require.NoError(t, err)
	images := be.imagesOf(blog.ID)
	require.Len(t, images, 3)
	featured := 0
	for _, img := range images {
		if img.IsFeatured {
			featured++
			assert.Equal(t, uint(11), img.ID)
		}
	}
	assert.Equal(t, 1, featured)
}

func TestStaging(t *testing.T) {
	t.Parallel()
	editor := NewPostEditor(newFakeBackend(), "author")
	a := editor.StageImage("a.png", "image/png", pngBytes)
	again := editor.StageImage("copy.png", "image/png", pngBytes)
	assert.Equal(t, a.PreviewURL, again.PreviewURL)
	require.Len(t, editor.Staged(), 1)

	ct, data, err := DecodePreviewURL(a.PreviewURL)
	require.NoError(t, err)
	assert.Equal(t, "image/png", ct)
	assert.Equal(t, pngBytes, data)

	b, err := editor.StagePreview("b.png", PreviewURL("image/png", png2Bytes))
	require.NoError(t, err)
	require.NoError(t, editor.MarkFeatured(b.PreviewURL))
	assert.ErrorIs(t, editor.MarkFeatured("nope"), ErrInvalid)

	assert.True(t, editor.UnstageImage(b.PreviewURL))
	assert.Empty(t, editor.Featured())
	assert.False(t, editor.UnstageImage(b.PreviewURL))

	_, err = editor.StagePreview("x", "not a data url")
	assert.ErrorIs(t, err, ErrInvalid)
	_, _, err = DecodePreviewURL("data:image/png;base64,%%%")
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestApplyFormat(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name       string
		content    string
		start, end int
		format     string
		want       string
		cursor     int
	}{
		{name: "bold selection", content: "say hello", start: 4, end: 9, format: FormatBold, want: "say **hello**", cursor: 6},
		{name: "italic placeholder", content: "ab", start: 1, end: 1, format: FormatItalic, want: "a_italic text_b", cursor: 2},
		{name: "code", content: "x", start: 0, end: 1, format: FormatCode, want: "`x`", cursor: 1},
		{name: "link", content: "docs", start: 0, end: 4, format: FormatLink, want: "[docs](url)", cursor: 1},
		{name: "heading", content: "", start: 0, end: 0, format: FormatHeading, want: "## Heading", cursor: 3},
		{name: "reversed and clamped", content: "héllo", start: 99, end: -3, format: FormatBold, want: "**héllo**", cursor: 2},
		{name: "unknown format", content: "abc", start: 2, end: 3, format: "strike", want: "abc", cursor: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, cursor := ApplyFormat(tt.content, tt.start, tt.end, tt.format)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.cursor, cursor)
		})
	}
}
