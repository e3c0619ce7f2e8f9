package passwords

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

var (
	ErrPasswordTooShort = errors.New("password must be at least 8 characters")
	ErrPasswordMismatch = errors.New("passwords do not match")
)

// WeakPasswordError is returned when a password scores below the required minimum.
type WeakPasswordError struct {
	Required Strength
	Result   Result
}

func (e *WeakPasswordError) Error() string {
	return fmt.Sprintf("password is %s, at least %s is required", e.Result.Strength, e.Required)
}

func IsWeakPasswordError(err error) bool {
	var target *WeakPasswordError
	return errors.As(err, &target)
}

// ValidateNewPassword is the hard gate applied before a password is used to
// encrypt anything. Length and confirmation are checked first, then the
// evaluated strength against minimum.
func ValidateNewPassword(password, confirmation string, minimum Strength) (Result, error) {
	result := Evaluate(password)

	if utf8.RuneCountInString(password) < MinLength {
		return result, ErrPasswordTooShort
	}
	if password != confirmation {
		return result, ErrPasswordMismatch
	}
	if !result.Strength.AtLeast(minimum) {
		return result, &WeakPasswordError{Required: minimum, Result: result}
	}

	return result, nil
}
