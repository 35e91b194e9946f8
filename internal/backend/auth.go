package backend

import (
	"context"

	"inkwell/internal/models"
	"inkwell/internal/observability"
)

// Auth result messages.
const (
	MsgRegistered      = "Registration successful! You can now log in with your credentials."
	MsgLoggedIn        = "Login successful!"
	MsgLoggedOut       = "Logged out successfully"
	MsgUnexpectedError = "An unexpected error occurred"
)

func (c *Client) SignUp(ctx context.Context, email, password, username string) models.AuthResult {
	span, ctx := observability.StartBackendSpan(ctx, "SignUp")
	defer span.End()

	if _, err := c.auth.SignUp(ctx, email, password, username); err != nil {
		c.fail(ctx, span, "SignUp", err, nil)
		return models.AuthResult{Message: Message(err, MsgUnexpectedError)}
	}
	return models.AuthResult{Success: true, Message: MsgRegistered}
}

func (c *Client) SignIn(ctx context.Context, email, password string) models.AuthResult {
	span, ctx := observability.StartBackendSpan(ctx, "SignIn")
	defer span.End()

	session, err := c.auth.SignIn(ctx, email, password)
	if err != nil {
		c.fail(ctx, span, "SignIn", err, nil)
		return models.AuthResult{Message: Message(err, MsgUnexpectedError)}
	}
	return models.AuthResult{Success: true, Message: MsgLoggedIn, Session: session}
}

func (c *Client) SignOut(ctx context.Context, token string) models.AuthResult {
	span, ctx := observability.StartBackendSpan(ctx, "SignOut")
	defer span.End()

	if err := c.auth.SignOut(ctx, token); err != nil {
		c.fail(ctx, span, "SignOut", err, nil)
		return models.AuthResult{Message: Message(err, MsgUnexpectedError)}
	}
	return models.AuthResult{Success: true, Message: MsgLoggedOut}
}

// GetCurrentUser resolves token to its user. It never fails: an empty,
// invalid or revoked token yields nil.
func (c *Client) GetCurrentUser(ctx context.Context, token string) *models.SessionUser {
	if token == "" {
		return nil
	}
	span, ctx := observability.StartBackendSpan(ctx, "GetCurrentUser")
	defer span.End()

	user, err := c.auth.ResolveSession(ctx, token)
	if err != nil {
		if models.IsCode(err, models.CodeUnauthorized) {
			observability.Ctx(ctx).Debug().Err(err).Msg("session not resolved")
			return nil
		}
		c.fail(ctx, span, "GetCurrentUser", err, nil)
		return nil
	}
	return user
}
