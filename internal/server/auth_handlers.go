package server

import (
	"strings"

	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/service"
	"inkwell/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// LoginRequest is the sign-in form.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles POST /api/auth/register. The form is checked here in the
// order the sign-up page reports problems before anything is sent on.
func (s *Server) Register(c *fiber.Ctx) error {
	var form validation.RegistrationForm
	if err := c.BodyParser(&form); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := form.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.AuthResult{Message: err.Error()})
	}

	result := s.client.SignUp(c.UserContext(),
		strings.TrimSpace(form.Email), form.Password, strings.TrimSpace(form.Username))
	if !result.Success {
		status := fiber.StatusBadRequest
		if result.Message == service.MsgEmailTaken || result.Message == service.MsgUsernameTaken {
			status = fiber.StatusConflict
		}
		return c.Status(status).JSON(result)
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

// Login handles POST /api/auth/login.
func (s *Server) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(models.AuthResult{Message: "Please fill in all fields"})
	}

	result := s.client.SignIn(c.UserContext(), strings.TrimSpace(req.Email), req.Password)
	if !result.Success {
		return c.Status(fiber.StatusUnauthorized).JSON(result)
	}
	return c.JSON(result)
}

// Logout handles POST /api/auth/logout.
func (s *Server) Logout(c *fiber.Ctx) error {
	token, _ := c.Locals(middleware.LocalToken).(string)
	result := s.client.SignOut(c.UserContext(), token)
	if !result.Success {
		return c.Status(fiber.StatusInternalServerError).JSON(result)
	}
	return c.JSON(result)
}

// Session handles GET /api/auth/session. It answers 200 with a null user
// for anonymous visitors.
func (s *Server) Session(c *fiber.Ctx) error {
	user := s.client.GetCurrentUser(c.UserContext(), middleware.BearerToken(c))
	return c.JSON(fiber.Map{"user": user})
}
