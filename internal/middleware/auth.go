package middleware

import (
	"context"
	"strings"

	"inkwell/internal/models"
	"inkwell/internal/observability"

	"github.com/gofiber/fiber/v2"
)

// SessionResolver turns a bearer token into the signed-in user.
type SessionResolver interface {
	ResolveSession(ctx context.Context, token string) (*models.SessionUser, error)
}

// Locals keys set by the auth middleware.
const (
	LocalUserID  = "userID"
	LocalSession = "session"
	LocalToken   = "token"
)

// BearerToken extracts the token from "Authorization: Bearer <token>".
// It returns "" for a missing or malformed header.
func BearerToken(c *fiber.Ctx) string {
	authHeader := c.Get(fiber.HeaderAuthorization)
	parts := strings.Fields(authHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

// AuthRequired rejects requests without a valid session.
func AuthRequired(resolver SessionResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := BearerToken(c)
		if token == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization header required"))
		}

		user, err := resolver.ResolveSession(c.UserContext(), token)
		if err != nil || user == nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid or expired token"))
		}

		setSession(c, token, user)
		return c.Next()
	}
}

// OptionalAuth attaches the session when a valid token is present and
// otherwise lets the request through anonymously.
func OptionalAuth(resolver SessionResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if token := BearerToken(c); token != "" {
			if user, err := resolver.ResolveSession(c.UserContext(), token); err == nil && user != nil {
				setSession(c, token, user)
			}
		}
		return c.Next()
	}
}

func setSession(c *fiber.Ctx, token string, user *models.SessionUser) {
	c.Locals(LocalUserID, user.ID)
	c.Locals(LocalSession, user)
	c.Locals(LocalToken, token)
	c.SetUserContext(observability.WithUserID(c.UserContext(), user.ID))
}

// SessionFrom returns the session attached by the auth middleware, or nil.
func SessionFrom(c *fiber.Ctx) *models.SessionUser {
	user, _ := c.Locals(LocalSession).(*models.SessionUser)
	return user
}

// ViewerID returns the signed-in user id or "".
func ViewerID(c *fiber.Ctx) string {
	id, _ := c.Locals(LocalUserID).(string)
	return id
}
