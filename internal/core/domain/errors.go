package domain

import (
	"errors"
	"fmt"
)

// Not-found errors (map to HTTP 404)
var (
	ErrBookNotFound   = errors.New("book not found")
	ErrMemberNotFound = errors.New("member not found")
	ErrBorrowNotFound = errors.New("borrow record not found")
	ErrUserNotFound   = errors.New("user not found")
)

// Conflict errors (map to HTTP 409)
// These signal an invariant violation attempt, distinct from bad input,
// so a client can refresh its view instead of retrying blindly.
var (
	ErrBookNotAvailable = errors.New("book already borrowed")
	ErrAlreadyReturned  = errors.New("borrow record already returned")
	ErrMemberInactive   = errors.New("member is not active")
)

// Auth errors
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserInactive       = errors.New("user account is inactive")
	ErrInvalidToken       = errors.New("token invalid")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenRevoked       = errors.New("token revoked")
)

// ValidationError reports malformed input with a field-level message
// (maps to HTTP 400). No partial writes occur when one is returned.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError creates a field-level validation error
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// IsValidation unwraps err as a ValidationError if it is one
func IsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	ok := errors.As(err, &ve)
	return ve, ok
}
