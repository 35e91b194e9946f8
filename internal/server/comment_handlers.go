package server

import (
	"strconv"

	"inkwell/internal/models"
	"inkwell/internal/shaping"
	"inkwell/internal/workflow"

	"github.com/gofiber/fiber/v2"
)

// CommentRequest is the JSON comment body. Image is an optional data URL.
type CommentRequest struct {
	Content         string `json:"content"`
	ParentCommentID *uint  `json:"parent_comment_id"`
	Image           string `json:"image"`
	ImageName       string `json:"image_name"`
}

// GetComments handles GET /api/posts/:id/comments. It returns the reply tree,
// or only the top-level comments with ?top=true.
func (s *Server) GetComments(c *fiber.Ctx) error {
	if c.QueryBool("top") {
		return c.JSON(fiber.Map{"comments": s.client.GetComments(c.UserContext(), c.Params("id"))})
	}
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	tree := shaping.BuildTree(s.client.GetCommentThread(c.UserContext(), id))
	return c.JSON(fiber.Map{"comments": tree, "count": shaping.Count(tree)})
}

// GetReplies handles GET /api/posts/:id/comments/:commentId/replies.
func (s *Server) GetReplies(c *fiber.Ctx) error {
	blogID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	commentID, err := parseID(c, "commentId")
	if err != nil {
		return nil
	}
	if !s.postVisible(c, blogID) {
		return nil
	}
	return c.JSON(fiber.Map{"replies": s.client.ListReplies(c.UserContext(), blogID, commentID)})
}

// postVisible answers 404 and reports false when the viewer cannot see the
// post, so drafts leak nothing through their sub-resources.
func (s *Server) postVisible(c *fiber.Ctx, id uint) bool {
	if s.client.GetBlogByID(c.UserContext(), id) != nil {
		return true
	}
	_ = models.RespondWithError(c, fiber.StatusNotFound, models.NewNotFoundError("Post", id))
	return false
}

func parseCommentRequest(c *fiber.Ctx) (CommentRequest, *models.Upload, error) {
	var req CommentRequest
	if isMultipart(c) {
		req.Content = c.FormValue("content")
		if raw := c.FormValue("parent_comment_id"); raw != "" {
			id, err := strconv.ParseUint(raw, 10, 64)
			if err != nil || id == 0 {
				return req, nil, models.NewValidationError("Invalid parent comment ID")
			}
			parent := uint(id)
			req.ParentCommentID = &parent
		}
		upload, err := formUpload(c, "image")
		if err != nil {
			return req, nil, models.NewValidationError("Could not read image")
		}
		return req, upload, nil
	}

	if err := c.BodyParser(&req); err != nil {
		return req, nil, models.NewValidationError("Invalid request body")
	}
	if req.Image == "" {
		return req, nil, nil
	}
	contentType, data, err := workflow.DecodePreviewURL(req.Image)
	if err != nil {
		return req, nil, models.NewValidationError(workflow.MessageOf(err))
	}
	name := req.ImageName
	if name == "" {
		name = "comment-image"
	}
	return req, &models.Upload{Filename: name, ContentType: contentType, Data: data}, nil
}

// CreateComment handles POST /api/posts/:id/comments as JSON or multipart.
func (s *Server) CreateComment(c *fiber.Ctx) error {
	blogID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	req, upload, err := parseCommentRequest(c)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, err)
	}

	comment, err := s.comments.Post(c.UserContext(), viewer(c), blogID, req.ParentCommentID, req.Content, upload)
	if err != nil {
		return respondWorkflowError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// UpdateComment handles PUT /api/posts/:id/comments/:commentId.
func (s *Server) UpdateComment(c *fiber.Ctx) error {
	commentID, err := parseID(c, "commentId")
	if err != nil {
		return nil
	}
	var req CommentRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	comment, err := s.comments.Edit(c.UserContext(), viewer(c), commentID, req.Content)
	if err != nil {
		return respondWorkflowError(c, err)
	}
	return c.JSON(comment)
}

// DeleteComment handles DELETE /api/posts/:id/comments/:commentId?confirm=true.
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	commentID, err := parseID(c, "commentId")
	if err != nil {
		return nil
	}
	if _, err := s.comments.Delete(c.UserContext(), viewer(c), commentID, c.QueryBool("confirm")); err != nil {
		return respondWorkflowError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Comment deleted"})
}

// GetReactions handles GET /api/posts/:id/reactions.
func (s *Server) GetReactions(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	if !s.postVisible(c, id) {
		return nil
	}
	return c.JSON(workflow.Controls(viewer(c), s.client.FetchReactions(c.UserContext(), id)))
}

// ToggleReaction handles POST /api/posts/:id/reactions with {"reaction": "like"}.
func (s *Server) ToggleReaction(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Reaction string `json:"reaction"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	controls, err := s.reactions.Toggle(c.UserContext(), viewer(c), id, req.Reaction)
	if err != nil {
		return respondWorkflowError(c, err)
	}
	return c.JSON(controls)
}
