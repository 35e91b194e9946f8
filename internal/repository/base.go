// Package repository provides the gorm-backed data access layer.
package repository

import (
	"errors"

	"inkwell/internal/models"

	"gorm.io/gorm"
)

// translate maps gorm errors onto AppErrors so callers can tell "the backend
// refused" from a transport failure. Unknown errors pass through unchanged.
func translate(err error, resource string, id interface{}) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return models.NewNotFoundError(resource, id)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return models.NewConflictError(resource+" already exists", err)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return models.NewValidationError(resource + " references a missing row")
	case errors.Is(err, gorm.ErrCheckConstraintViolated):
		return models.NewValidationError(resource + " has an invalid value")
	default:
		return err
	}
}
