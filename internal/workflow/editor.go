package workflow

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"inkwell/internal/models"
	"inkwell/internal/notifications"
	"inkwell/internal/observability"
	"inkwell/internal/service"
)

// Editor messages.
const (
	MsgRequiredFields  = "Please fill in all required fields"
	MsgTitleTooShort   = "Title must be at least 5 characters"
	MsgContentTooShort = "Content must be at least 20 characters"
	MsgNotSignedIn     = "User not authenticated. Please log in again."
	MsgCreateFailed    = "Failed to create post. Please try again."
	MsgUpdateFailed    = "Failed to update post. Please try again."
	MsgNotYourPost     = "You can only edit your own posts"
	MsgPostNotFound    = "Post not found"
	MsgFeaturedFailed  = "Failed to save the featured image"
)

const (
	minTitleLength   = 5
	minContentLength = 20
)

// Redirect targets after a successful submit.
const RedirectEdited = "/profile?edited=true"

func redirectCreated(id uint) string {
	return "/posts/" + strconv.FormatUint(uint64(id), 10)
}

// EditorState is the lifecycle of one submit.
type EditorState string

const (
	StateIdle       EditorState = "idle"
	StateValidating EditorState = "validating"
	StateSubmitting EditorState = "submitting"
	StateSuccess    EditorState = "success"
	StateError      EditorState = "error"
)

// PostForm is what the author typed.
type PostForm struct {
	Title    string `json:"title"`
	Excerpt  string `json:"excerpt"`
	Content  string `json:"content"`
	Category string `json:"category"`
	Publish  bool   `json:"publish"`
}

// Validate checks the form the way the editor does before submitting.
// Lengths count characters, not bytes.
func Validate(f PostForm) error {
	if f.Title == "" || f.Content == "" || f.Category == "" {
		return userError(ErrInvalid, MsgRequiredFields)
	}
	if utf8.RuneCountInString(f.Title) < minTitleLength {
		return userError(ErrInvalid, MsgTitleTooShort)
	}
	if utf8.RuneCountInString(f.Content) < minContentLength {
		return userError(ErrInvalid, MsgContentTooShort)
	}
	return nil
}

// StagedImage is an image picked in the editor but not uploaded yet.
// PreviewURL is a data URL the content may already reference.
type StagedImage struct {
	PreviewURL  string `json:"preview_url"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"-"`
}

// PreviewURL returns the data URL of data.
func PreviewURL(contentType string, data []byte) string {
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodePreviewURL parses a base64 data URL.
func DecodePreviewURL(dataURL string) (contentType string, data []byte, err error) {
	rest, ok := strings.CutPrefix(dataURL, "data:")
	if !ok {
		return "", nil, userError(ErrInvalid, "Invalid image data")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok || !strings.HasSuffix(meta, ";base64") {
		return "", nil, userError(ErrInvalid, "Invalid image data")
	}
	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, userError(ErrInvalid, "Invalid image data")
	}
	return strings.TrimSuffix(meta, ";base64"), data, nil
}

// PostBackend is what the post workflows need from the backend adapter.
type PostBackend interface {
	GetBlogByID(ctx context.Context, id uint) *models.Blog
	CreateBlog(ctx context.Context, in models.BlogInput) (*models.Blog, error)
	UpdateBlog(ctx context.Context, id uint, patch models.BlogPatch) *models.Blog
	DeleteBlog(ctx context.Context, id uint) bool
	UploadAndSaveBlogImage(ctx context.Context, upload models.Upload, blogID uint, userID, altText string, featured bool) *models.BlogImage
	DeleteBlogImage(ctx context.Context, imageID uint) bool
	SetFeaturedImage(ctx context.Context, blogID, imageID uint) bool
	Publish(ctx context.Context, e notifications.Event)
}

// Outcome reports how far a submit got.
type Outcome struct {
	Blog      *models.Blog `json:"blog,omitempty"`
	Redirect  string       `json:"redirect,omitempty"`
	Completed []string     `json:"completed"`
	Failed    string       `json:"failed_step,omitempty"`
	// Skipped lists staged images whose upload failed.
	Skipped []string `json:"skipped_images,omitempty"`
}

// PostEditor drives creating or editing one post. It is not safe for
// concurrent use; each editing session gets its own.
type PostEditor struct {
	backend PostBackend
	author  string
	log     *observability.OpLogger

	editing  *models.Blog
	existing []models.BlogImage
	staged   []StagedImage
	featured string

	state   EditorState
	message string
}

// NewPostEditor starts a create session for author. Call Load to edit an
// existing post instead.
func NewPostEditor(backend PostBackend, author string) *PostEditor {
	return &PostEditor{
		backend: backend,
		author:  author,
		log:     observability.NewOpLogger("editor"),
		state:   StateIdle,
	}
}

func (e *PostEditor) State() EditorState { return e.state }

// Message is the last error shown to the author, if any.
func (e *PostEditor) Message() string { return e.message }

// Editing returns the post being edited, or nil in create mode.
func (e *PostEditor) Editing() *models.Blog { return e.editing }

// Existing returns the already uploaded images still kept in the form.
func (e *PostEditor) Existing() []models.BlogImage { return e.existing }

func (e *PostEditor) Staged() []StagedImage { return e.staged }

// Featured returns the featured choice: a preview URL, an existing image id,
// or "".
func (e *PostEditor) Featured() string { return e.featured }

// Load switches the editor to edit blogID and returns the prefilled form.
func (e *PostEditor) Load(ctx context.Context, blogID uint) (PostForm, error) {
	if e.author == "" {
		return PostForm{}, userError(ErrLoginRequired, MsgNotSignedIn)
	}
	blog := e.backend.GetBlogByID(service.WithActor(ctx, e.author), blogID)
	if blog == nil {
		return PostForm{}, userError(ErrNotFound, MsgPostNotFound)
	}
	if blog.UserID != e.author {
		return PostForm{}, userError(ErrNotOwner, MsgNotYourPost)
	}

	e.editing = blog
	e.existing = append([]models.BlogImage(nil), blog.Images...)
	e.featured = ""
	for _, img := range e.existing {
		if img.IsFeatured {
			e.featured = imageRef(img.ID)
			break
		}
	}
	return PostForm{
		Title:    blog.Title,
		Excerpt:  blog.Excerpt,
		Content:  blog.Content,
		Category: blog.Category,
		Publish:  blog.Published,
	}, nil
}

func imageRef(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

// StageImage keeps an image for upload on submit and returns its preview.
// Staging the same bytes twice keeps one copy.
func (e *PostEditor) StageImage(filename, contentType string, data []byte) StagedImage {
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	img := StagedImage{
		PreviewURL:  PreviewURL(contentType, data),
		Filename:    filename,
		ContentType: contentType,
		Data:        data,
	}
	for _, s := range e.staged {
		if s.PreviewURL == img.PreviewURL {
			return s
		}
	}
	e.staged = append(e.staged, img)
	return img
}

// StagePreview stages an image from its data URL.
func (e *PostEditor) StagePreview(filename, dataURL string) (StagedImage, error) {
	contentType, data, err := DecodePreviewURL(dataURL)
	if err != nil {
		return StagedImage{}, err
	}
	return e.StageImage(filename, contentType, data), nil
}

// UnstageImage drops a staged image. It reports whether one was removed.
func (e *PostEditor) UnstageImage(previewURL string) bool {
	for i, s := range e.staged {
		if s.PreviewURL == previewURL {
			e.staged = append(e.staged[:i], e.staged[i+1:]...)
			if e.featured == previewURL {
				e.featured = ""
			}
			return true
		}
	}
	return false
}

// RemoveExisting drops an uploaded image from the form. It is deleted on
// submit.
func (e *PostEditor) RemoveExisting(imageID uint) bool {
	for i, img := range e.existing {
		if img.ID == imageID {
			e.existing = append(e.existing[:i], e.existing[i+1:]...)
			if e.featured == imageRef(imageID) {
				e.featured = ""
			}
			return true
		}
	}
	return false
}

// KeepOnly removes every existing image not listed in ids.
func (e *PostEditor) KeepOnly(ids []uint) {
	keep := make(map[uint]bool, len(ids))
	for _, id := range ids {
		keep[id] = true
	}
	for _, img := range append([]models.BlogImage(nil), e.existing...) {
		if !keep[img.ID] {
			e.RemoveExisting(img.ID)
		}
	}
}

// MarkFeatured picks the single featured image by preview URL or existing
// image id. "" clears the choice.
func (e *PostEditor) MarkFeatured(ref string) error {
	if ref == "" {
		e.featured = ""
		return nil
	}
	for _, s := range e.staged {
		if s.PreviewURL == ref {
			e.featured = ref
			return nil
		}
	}
	for _, img := range e.existing {
		if imageRef(img.ID) == ref {
			e.featured = ref
			return nil
		}
	}
	return userError(ErrInvalid, "Featured image is not part of this post")
}

func (e *PostEditor) fail(err error) error {
	e.state = StateError
	e.message = MessageOf(err)
	return err
}

// Submit validates the form and runs the create or edit steps. A failure
// after the post exists leaves it in place; Outcome names the step that
// failed and the ones that completed.
func (e *PostEditor) Submit(ctx context.Context, form PostForm) (Outcome, error) {
	e.message = ""
	e.state = StateValidating
	if err := Validate(form); err != nil {
		e.state = StateIdle
		e.message = MessageOf(err)
		return Outcome{}, err
	}
	if e.author == "" {
		e.state = StateIdle
		e.message = MsgNotSignedIn
		return Outcome{}, userError(ErrLoginRequired, MsgNotSignedIn)
	}

	ctx = service.WithActor(ctx, e.author)
	e.state = StateSubmitting
	sub := &submission{editor: e, form: form, content: form.Content}
	steps := createSteps
	if e.editing != nil {
		sub.blog = e.editing
		steps = editSteps
	}

	for _, s := range steps {
		if err := s.run(ctx, sub); err != nil {
			sub.outcome.Failed = s.name
			sub.outcome.Blog = sub.blog
			e.log.Failure(ctx, "submit."+s.name, err, map[string]interface{}{"completed": sub.outcome.Completed})
			return sub.outcome, e.fail(err)
		}
		sub.outcome.Completed = append(sub.outcome.Completed, s.name)
	}

	action := notifications.ActionUpdated
	sub.outcome.Redirect = RedirectEdited
	if e.editing == nil {
		action = notifications.ActionCreated
		sub.outcome.Redirect = redirectCreated(sub.blog.ID)
	}
	e.backend.Publish(ctx, notifications.BlogEvent(sub.blog.ID, action))

	sub.outcome.Blog = sub.blog
	e.state = StateSuccess
	e.staged = nil
	return sub.outcome, nil
}

// submission is the state threaded through the steps of one submit.
type submission struct {
	editor   *PostEditor
	form     PostForm
	blog     *models.Blog
	content  string
	uploaded []uploadedImage
	outcome  Outcome
}

type uploadedImage struct {
	previewURL string
	image      *models.BlogImage
}

type step struct {
	name string
	run  func(ctx context.Context, s *submission) error
}

var createSteps = []step{
	{name: "create-shell", run: createShell},
	{name: "upload-images", run: uploadImages},
	{name: "rewrite-content", run: rewriteContent},
	{name: "patch-content", run: patchContent},
	{name: "persist-featured", run: persistFeatured},
}

var editSteps = []step{
	{name: "update-fields", run: updateFields},
	{name: "delete-removed-images", run: deleteRemovedImages},
	{name: "upload-new-images", run: uploadImages},
	{name: "rewrite-content", run: rewriteContent},
	{name: "patch-content", run: patchContent},
	{name: "persist-featured", run: persistFeatured},
}

func createShell(ctx context.Context, s *submission) error {
	blog, err := s.editor.backend.CreateBlog(ctx, models.BlogInput{
		UserID:    s.editor.author,
		Title:     s.form.Title,
		Excerpt:   s.form.Excerpt,
		Content:   s.form.Content,
		Category:  s.form.Category,
		Published: s.form.Publish,
	})
	if err != nil {
		return &UserError{Message: fmt.Sprintf("Failed to create post: %s", err.Error()), Err: errors.Join(ErrBackend, err)}
	}
	if blog == nil {
		return userError(ErrBackend, MsgCreateFailed)
	}
	s.blog = blog
	return nil
}

func updateFields(ctx context.Context, s *submission) error {
	patch := models.BlogPatch{
		Title:     &s.form.Title,
		Excerpt:   &s.form.Excerpt,
		Content:   &s.form.Content,
		Category:  &s.form.Category,
		Published: &s.form.Publish,
	}
	blog := s.editor.backend.UpdateBlog(ctx, s.blog.ID, patch)
	if blog == nil {
		return userError(ErrBackend, MsgUpdateFailed)
	}
	s.blog = blog
	return nil
}

// deleteRemovedImages deletes the post's images that are no longer in the
// form. A failed delete is logged and skipped.
func deleteRemovedImages(ctx context.Context, s *submission) error {
	kept := make(map[uint]bool, len(s.editor.existing))
	for _, img := range s.editor.existing {
		kept[img.ID] = true
	}
	for _, img := range s.editor.editing.Images {
		if kept[img.ID] {
			continue
		}
		if !s.editor.backend.DeleteBlogImage(ctx, img.ID) {
			s.editor.log.Failure(ctx, "submit.delete-image", errors.New("image not deleted"),
				map[string]interface{}{"image_id": img.ID})
		}
	}
	return nil
}

// uploadImages uploads every staged image under the post. The featured flag
// goes on the explicit choice, else on the first image that uploads;
// persist-featured settles whatever is left. Failed uploads are skipped.
func uploadImages(ctx context.Context, s *submission) error {
	e := s.editor
	creating := e.editing == nil
	explicit := e.featured
	for _, staged := range e.staged {
		featured := false
		if creating {
			featured = staged.PreviewURL == explicit || (explicit == "" && len(s.uploaded) == 0)
		}
		image := e.backend.UploadAndSaveBlogImage(ctx, models.Upload{
			Filename:    staged.Filename,
			ContentType: staged.ContentType,
			Data:        staged.Data,
		}, s.blog.ID, e.author, staged.Filename, featured)
		if image == nil {
			s.outcome.Skipped = append(s.outcome.Skipped, staged.Filename)
			continue
		}
		s.uploaded = append(s.uploaded, uploadedImage{previewURL: staged.PreviewURL, image: image})
	}
	return nil
}

func rewriteContent(_ context.Context, s *submission) error {
	for _, up := range s.uploaded {
		s.content = strings.ReplaceAll(s.content, up.previewURL, up.image.ImageURL)
	}
	return nil
}

func patchContent(ctx context.Context, s *submission) error {
	if s.content == s.form.Content {
		return nil
	}
	blog := s.editor.backend.UpdateBlog(ctx, s.blog.ID, models.BlogPatch{Content: &s.content})
	if blog == nil {
		return userError(ErrBackend, MsgUpdateFailed)
	}
	s.blog = blog
	return nil
}

// persistFeatured leaves exactly one featured image among the kept and newly
// uploaded ones: the explicit choice, else the one already featured, else
// the first. A new post whose uploads already carry the flag is left alone;
// when the chosen image failed to upload the first uploaded one takes over.
func persistFeatured(ctx context.Context, s *submission) error {
	e := s.editor
	if e.editing == nil {
		for _, up := range s.uploaded {
			if up.image.IsFeatured {
				return nil
			}
		}
	}
	var remaining []uint
	target := uint(0)
	for _, img := range e.existing {
		remaining = append(remaining, img.ID)
		if e.featured == imageRef(img.ID) {
			target = img.ID
		}
	}
	for _, up := range s.uploaded {
		remaining = append(remaining, up.image.ID)
		if e.featured == up.previewURL {
			target = up.image.ID
		}
	}
	if len(remaining) == 0 {
		return nil
	}
	if target == 0 {
		target = remaining[0]
	}
	if !e.backend.SetFeaturedImage(ctx, s.blog.ID, target) {
		return userError(ErrBackend, MsgFeaturedFailed)
	}
	return nil
}
