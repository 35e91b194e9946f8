package server

import (
	"strconv"

	"inkwell/internal/models"
	"inkwell/internal/storage"
	"inkwell/internal/workflow"

	"github.com/gofiber/fiber/v2"
)

// StagedUpload is an image already staged in the browser, sent back as its
// preview data URL.
type StagedUpload struct {
	Filename   string `json:"filename"`
	PreviewURL string `json:"preview_url"`
}

// PostRequest is the editor submit body.
type PostRequest struct {
	workflow.PostForm
	Images []StagedUpload `json:"images"`
	// Featured is a staged preview URL or an existing image id.
	Featured string `json:"featured"`
	// KeepImageIDs lists the existing images that survive an edit. Nil keeps
	// them all.
	KeepImageIDs []uint `json:"keep_image_ids"`
}

// EditorState is what the editor page renders.
type EditorState struct {
	Mode       string             `json:"mode"`
	Form       workflow.PostForm  `json:"form"`
	Images     []models.BlogImage `json:"images"`
	Featured   string             `json:"featured,omitempty"`
	Categories []string           `json:"categories"`
}

// FormatRequest is one toolbar action of the editor.
type FormatRequest struct {
	Content        string `json:"content"`
	SelectionStart int    `json:"selection_start"`
	SelectionEnd   int    `json:"selection_end"`
	Format         string `json:"format"`
}

func (s *Server) maxUploadBytes() int64 {
	mb := s.config.ImageMaxUploadSizeMB
	if mb <= 0 {
		mb = 10
	}
	return int64(mb) * 1024 * 1024
}

// GetEditor handles GET /api/editor?edit=:id.
func (s *Server) GetEditor(c *fiber.Ctx) error {
	state := EditorState{Mode: "create", Images: []models.BlogImage{}, Categories: models.Categories}
	raw := c.Query("edit")
	if raw == "" {
		return c.JSON(state)
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return badRequest(c, "Invalid post ID")
	}

	editor := workflow.NewPostEditor(s.client, viewer(c))
	form, err := editor.Load(c.UserContext(), uint(id))
	if err != nil {
		return respondWorkflowError(c, err)
	}
	state.Mode = "edit"
	state.Form = form
	state.Images = editor.Existing()
	state.Featured = editor.Featured()
	return c.JSON(state)
}

// StageImages handles POST /api/editor/images. Every "images" file is checked
// and returned as a preview; nothing is stored until the post is submitted.
func (s *Server) StageImages(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return badRequest(c, "Expected a multipart form")
	}
	files := form.File["images"]
	if len(files) == 0 {
		return badRequest(c, "No file uploaded")
	}

	editor := workflow.NewPostEditor(s.client, viewer(c))
	staged := make([]workflow.StagedImage, 0, len(files))
	for _, fh := range files {
		upload, err := readUpload(fh)
		if err != nil {
			return badRequest(c, "Could not read "+fh.Filename)
		}
		contentType, err := storage.ValidateImage(upload, s.maxUploadBytes())
		if err != nil {
			return models.RespondWithError(c, models.StatusFor(err), err)
		}
		staged = append(staged, editor.StageImage(upload.Filename, contentType, upload.Data))
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"images": staged})
}

// FormatContent handles POST /api/editor/format.
func (s *Server) FormatContent(c *fiber.Ctx) error {
	var req FormatRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	content, cursor := workflow.ApplyFormat(req.Content, req.SelectionStart, req.SelectionEnd, req.Format)
	return c.JSON(fiber.Map{"content": content, "cursor": cursor})
}

// stage loads the request's images and featured choice into editor.
func stage(editor *workflow.PostEditor, req PostRequest) error {
	for _, img := range req.Images {
		if _, err := editor.StagePreview(img.Filename, img.PreviewURL); err != nil {
			return err
		}
	}
	if req.KeepImageIDs != nil {
		editor.KeepOnly(req.KeepImageIDs)
	}
	if req.Featured != "" {
		return editor.MarkFeatured(req.Featured)
	}
	return nil
}

func (s *Server) submit(c *fiber.Ctx, editor *workflow.PostEditor, req PostRequest, created int) error {
	if err := stage(editor, req); err != nil {
		return respondWorkflowError(c, err)
	}
	outcome, err := editor.Submit(c.UserContext(), req.PostForm)
	if err != nil {
		status := workflowStatus(err)
		return c.Status(status).JSON(fiber.Map{
			"error":   workflow.MessageOf(err),
			"code":    workflowCode(err),
			"outcome": outcome,
		})
	}
	return c.Status(created).JSON(outcome)
}

// CreatePost handles POST /api/posts.
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req PostRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	return s.submit(c, workflow.NewPostEditor(s.client, viewer(c)), req, fiber.StatusCreated)
}

// UpdatePost handles PUT /api/posts/:id.
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req PostRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	editor := workflow.NewPostEditor(s.client, viewer(c))
	if _, err := editor.Load(c.UserContext(), id); err != nil {
		return respondWorkflowError(c, err)
	}
	return s.submit(c, editor, req, fiber.StatusOK)
}

// SetPublished handles PATCH /api/posts/:id/publish.
func (s *Server) SetPublished(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Published *bool `json:"published"`
	}
	if err := c.BodyParser(&req); err != nil || req.Published == nil {
		return badRequest(c, "published is required")
	}

	blog, err := s.admin.SetPublished(c.UserContext(), viewer(c), id, *req.Published)
	if err != nil {
		return respondWorkflowError(c, err)
	}
	return c.JSON(blog)
}

// DeletePost handles DELETE /api/posts/:id?confirm=true.
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	msg, err := s.admin.DeletePost(c.UserContext(), viewer(c), id, c.QueryBool("confirm"))
	if err != nil {
		return respondWorkflowError(c, err)
	}
	return c.JSON(fiber.Map{"message": msg})
}
