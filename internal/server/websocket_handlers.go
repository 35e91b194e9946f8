package server

import (
	"errors"

	"inkwell/internal/models"
	"inkwell/internal/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// ChangeStreamUpgrade rejects plain HTTP requests to the change stream.
func (s *Server) ChangeStreamUpgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	c.Locals("viewer", viewer(c))
	return c.Next()
}

// ChangeStreamHandler streams invalidation events to the browser. Anonymous
// viewers may listen too; events never carry content.
func (s *Server) ChangeStreamHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		userID, _ := conn.Locals("viewer").(string)

		client, err := s.hub.Register(userID, conn)
		if err != nil {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"`+err.Error()+`"}`))
			_ = conn.Close()
			return
		}

		go client.WritePump()
		client.ReadPump()
	})
}

// ServeMedia handles GET /media/:bucket/* for stores that serve their own
// objects.
func (s *Server) ServeMedia(c *fiber.Ctx) error {
	reader, ok := s.store.(storage.Reader)
	if !ok {
		return fiber.ErrNotFound
	}
	data, contentType, err := reader.Get(c.UserContext(), c.Params("*"))
	if errors.Is(err, storage.ErrObjectNotFound) {
		return models.RespondWithError(c, fiber.StatusNotFound, models.NewNotFoundError("Object", c.Params("*")))
	}
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
	}
	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderCacheControl, "public, max-age=31536000, immutable")
	return c.Send(data)
}
