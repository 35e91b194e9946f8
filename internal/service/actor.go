// Package service holds the business rules below the backend adapter:
// credential handling, ownership and visibility checks, and image storage.
//
// The acting user travels on the context, the way a row-level security
// policy reads it from the session. Mutations without an actor are refused.
package service

import (
	"context"

	"inkwell/internal/models"
	"inkwell/internal/observability"
)

// WithActor returns a context acting as userID.
func WithActor(ctx context.Context, userID string) context.Context {
	return observability.WithUserID(ctx, userID)
}

// ActorFrom returns the acting user id or "".
func ActorFrom(ctx context.Context) string {
	return observability.ExtractUserID(ctx)
}

func requireActor(ctx context.Context) (string, error) {
	actor := ActorFrom(ctx)
	if actor == "" {
		return "", models.NewUnauthorizedError("Authentication required")
	}
	return actor, nil
}

// requireSelf checks that the actor is userID.
func requireSelf(ctx context.Context, userID, msg string) error {
	actor, err := requireActor(ctx)
	if err != nil {
		return err
	}
	if actor != userID {
		return models.NewForbiddenError(msg)
	}
	return nil
}
