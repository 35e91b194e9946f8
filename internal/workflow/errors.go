// Package workflow holds the multi-step user flows: writing and editing a
// post, commenting, and reacting. Controllers talk to the backend adapter
// through small interfaces and report failures as messages for the form.
package workflow

import "errors"

var (
	ErrLoginRequired        = errors.New("login required")
	ErrConfirmationRequired = errors.New("confirmation required")
	ErrNotOwner             = errors.New("not the owner")
	ErrNotFound             = errors.New("not found")
	ErrInvalid              = errors.New("invalid input")
	ErrBackend              = errors.New("backend failure")
)

// UserError carries a message meant for the person filling in the form.
// Err classifies it for errors.Is.
type UserError struct {
	Message string
	Err     error
}

func (e *UserError) Error() string { return e.Message }

func (e *UserError) Unwrap() error { return e.Err }

func userError(kind error, msg string) *UserError {
	return &UserError{Message: msg, Err: kind}
}

// MessageOf returns the form message of err, or err's text.
func MessageOf(err error) string {
	var ue *UserError
	if errors.As(err, &ue) {
		return ue.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
