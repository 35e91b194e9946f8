// Package validation provides input validation utilities
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	MinPasswordLength = 6
	MaxPasswordLength = 128
)

var (
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

// Registration form messages.
var (
	ErrMissingFields    = errors.New("Please fill in all fields")
	ErrPasswordMismatch = errors.New("Passwords do not match")
	ErrPasswordTooShort = fmt.Errorf("Password must be at least %d characters", MinPasswordLength)
)

// RegistrationForm is the sign-up form as typed by the user.
type RegistrationForm struct {
	Email           string `json:"email"`
	Username        string `json:"username"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// Validate checks the form in the order the sign-up page reports problems.
func (f RegistrationForm) Validate() error {
	if strings.TrimSpace(f.Email) == "" || strings.TrimSpace(f.Username) == "" ||
		f.Password == "" || f.ConfirmPassword == "" {
		return ErrMissingFields
	}
	if f.Password != f.ConfirmPassword {
		return ErrPasswordMismatch
	}
	if err := ValidatePassword(f.Password); err != nil {
		return err
	}
	if err := ValidateEmail(strings.TrimSpace(f.Email)); err != nil {
		return err
	}
	return ValidateUsername(strings.TrimSpace(f.Username))
}

// ValidatePassword checks the password length in characters.
func ValidatePassword(password string) error {
	n := utf8.RuneCountInString(password)
	if n < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if n > MaxPasswordLength {
		return fmt.Errorf("Password must not exceed %d characters", MaxPasswordLength)
	}
	return nil
}

// ValidateUsername checks if a username meets requirements
func ValidateUsername(username string) error {
	if len(username) < 3 {
		return fmt.Errorf("username must be at least 3 characters long")
	}

	if len(username) > 30 {
		return fmt.Errorf("username must not exceed 30 characters")
	}

	if !usernameRegex.MatchString(username) {
		return fmt.Errorf("username can only contain letters, numbers, underscores, and hyphens")
	}

	first, last := username[0], username[len(username)-1]
	if first == '_' || first == '-' || last == '_' || last == '-' {
		return fmt.Errorf("username cannot start or end with underscore or hyphen")
	}

	return nil
}

// ValidateEmail checks basic email format
func ValidateEmail(email string) error {
	if len(email) > 254 {
		return fmt.Errorf("email must not exceed 254 characters")
	}
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format")
	}
	return nil
}
