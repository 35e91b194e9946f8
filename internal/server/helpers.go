package server

import (
	"errors"
	"io"
	"mime/multipart"
	"strings"
	"unicode"

	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/workflow"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 400 JSON response and returns errResponseWritten.
// The error message is derived from the parameter name (e.g. "id" -> "Invalid ID",
// "commentId" -> "Invalid comment ID").
func parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+humanizeParam(param)))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// humanizeParam converts a route param name into a human-readable label.
func humanizeParam(param string) string {
	if param == "id" {
		return "ID"
	}
	if strings.HasSuffix(param, "Id") {
		words := splitCamel(param[:len(param)-2])
		return strings.ToLower(strings.Join(words, " ")) + " ID"
	}
	return param
}

func splitCamel(s string) []string {
	var words []string
	start := 0
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			words = append(words, s[start:i])
			start = i
		}
	}
	return append(words, s[start:])
}

// workflowStatus maps a workflow error to the status the API answers with.
func workflowStatus(err error) int {
	switch {
	case errors.Is(err, workflow.ErrInvalid):
		return fiber.StatusBadRequest
	case errors.Is(err, workflow.ErrLoginRequired):
		return fiber.StatusUnauthorized
	case errors.Is(err, workflow.ErrNotOwner):
		return fiber.StatusForbidden
	case errors.Is(err, workflow.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, workflow.ErrConfirmationRequired):
		return fiber.StatusPreconditionRequired
	case errors.Is(err, workflow.ErrBackend):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

func workflowCode(err error) string {
	switch {
	case errors.Is(err, workflow.ErrInvalid):
		return models.CodeValidation
	case errors.Is(err, workflow.ErrLoginRequired):
		return models.CodeUnauthorized
	case errors.Is(err, workflow.ErrNotOwner):
		return models.CodeForbidden
	case errors.Is(err, workflow.ErrNotFound):
		return models.CodeNotFound
	case errors.Is(err, workflow.ErrConfirmationRequired):
		return "CONFIRMATION_REQUIRED"
	default:
		return models.CodeInternal
	}
}

// respondWorkflowError writes a workflow failure as the inline banner the
// form shows.
func respondWorkflowError(c *fiber.Ctx, err error) error {
	return c.Status(workflowStatus(err)).JSON(models.ErrorResponse{
		Error: workflow.MessageOf(err),
		Code:  workflowCode(err),
	})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError(msg))
}

// readUpload reads one multipart file into an Upload.
func readUpload(fh *multipart.FileHeader) (models.Upload, error) {
	f, err := fh.Open()
	if err != nil {
		return models.Upload{}, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return models.Upload{}, err
	}
	return models.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
		Data:        data,
	}, nil
}

// formUpload returns the file under field, or nil when none was sent.
func formUpload(c *fiber.Ctx, field string) (*models.Upload, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return nil, nil
	}
	upload, err := readUpload(fh)
	if err != nil {
		return nil, err
	}
	return &upload, nil
}

func isMultipart(c *fiber.Ctx) bool {
	return strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm)
}

// viewer returns the signed-in user id or "".
func viewer(c *fiber.Ctx) string {
	return middleware.ViewerID(c)
}
