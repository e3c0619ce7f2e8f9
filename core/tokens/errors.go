package tokens

import "errors"

// Error types for token operations
type TokenNotFoundError struct {
	ID string
}

type TokenAlreadyExistsError struct {
	Name string
}

type TokenValidationError struct {
	Message string
}

// TokenLockedError means the token is not in the unlocked cache.
type TokenLockedError struct {
	ID string
}

func (e *TokenNotFoundError) Error() string {
	return "Token not found: " + e.ID
}

func (e *TokenAlreadyExistsError) Error() string {
	return "A token with this name already exists: " + e.Name
}

func (e *TokenValidationError) Error() string {
	return "Invalid token: " + e.Message
}

func (e *TokenLockedError) Error() string {
	return "Token is locked: " + e.ID
}

// helper functions for error handling

func IsTokenNotFoundError(err error) bool {
	var target *TokenNotFoundError
	return errors.As(err, &target)
}

func IsTokenAlreadyExistsError(err error) bool {
	var target *TokenAlreadyExistsError
	return errors.As(err, &target)
}

func IsTokenValidationError(err error) bool {
	var target *TokenValidationError
	return errors.As(err, &target)
}

func IsTokenLockedError(err error) bool {
	var target *TokenLockedError
	return errors.As(err, &target)
}

func NewTokenNotFoundError(id string) error {
	return &TokenNotFoundError{ID: id}
}

func NewTokenAlreadyExistsError(name string) error {
	return &TokenAlreadyExistsError{Name: name}
}

func NewTokenValidationError(message string) error {
	return &TokenValidationError{Message: message}
}

func NewTokenLockedError(id string) error {
	return &TokenLockedError{ID: id}
}
