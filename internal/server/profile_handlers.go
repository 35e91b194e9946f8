package server

import (
	"inkwell/internal/models"

	"github.com/gofiber/fiber/v2"
)

// MsgPostEdited is echoed on the dashboard after the editor redirects there.
const MsgPostEdited = "Post updated successfully!"

// GetDashboard handles GET /api/profile: the viewer's profile and all of
// their posts, drafts included.
func (s *Server) GetDashboard(c *fiber.Ctx) error {
	id := viewer(c)
	profile := s.client.GetProfile(c.UserContext(), id)
	if profile == nil {
		return models.RespondWithError(c, fiber.StatusNotFound, models.NewNotFoundError("Profile", id))
	}
	resp := fiber.Map{
		"profile": profile,
		"blogs":   s.client.GetUserBlogs(c.UserContext(), id),
	}
	if c.QueryBool("edited") {
		resp["notice"] = MsgPostEdited
	}
	return c.JSON(resp)
}

// UpdateProfile handles PUT /api/profile.
func (s *Server) UpdateProfile(c *fiber.Ctx) error {
	var update models.ProfileUpdate
	if err := c.BodyParser(&update); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if len(update.Fields()) == 0 {
		return badRequest(c, "No fields to update")
	}
	profile := s.client.UpdateProfile(c.UserContext(), viewer(c), update)
	if profile == nil {
		return badRequest(c, "Failed to update profile")
	}
	return c.JSON(profile)
}

// UploadAvatar handles POST /api/profile/avatar with an "avatar" file and
// points the profile at the stored image.
func (s *Server) UploadAvatar(c *fiber.Ctx) error {
	upload, err := formUpload(c, "avatar")
	if err != nil || upload == nil {
		return badRequest(c, "No file uploaded")
	}
	id := viewer(c)
	url := s.client.UploadAvatar(c.UserContext(), id, *upload)
	if url == "" {
		return badRequest(c, "Failed to upload avatar")
	}
	profile := s.client.UpdateProfile(c.UserContext(), id, models.ProfileUpdate{AvatarURL: &url})
	if profile == nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(nil))
	}
	return c.JSON(profile)
}

// GetPublicProfile handles GET /api/profiles/:id.
func (s *Server) GetPublicProfile(c *fiber.Ctx) error {
	id := c.Params("id")
	profile := s.client.GetProfile(c.UserContext(), id)
	if profile == nil {
		return models.RespondWithError(c, fiber.StatusNotFound, models.NewNotFoundError("Profile", id))
	}
	return c.JSON(fiber.Map{
		"profile": profile,
		"blogs":   s.client.GetUserBlogs(c.UserContext(), id),
	})
}
