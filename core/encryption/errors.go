package encryption

import (
	"errors"
	"fmt"
)

// KeyDerivationError indicates the key could not be derived because of the
// environment (bad salt size, unsupported parameters). Password content never causes it.
type KeyDerivationError struct {
	Reason string
}

func (e *KeyDerivationError) Error() string {
	return fmt.Sprintf("key derivation failed: %s", e.Reason)
}

// EncryptionError indicates sealing failed, e.g. because the random source or
// cipher was unavailable.
type EncryptionError struct {
	Reason string
	Err    error
}

func (e *EncryptionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("encryption failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("encryption failed: %s", e.Reason)
}

func (e *EncryptionError) Unwrap() error {
	return e.Err
}

// DecryptionError is returned for every decryption failure: wrong password,
// corrupted ciphertext and malformed salt or IV all look the same.
type DecryptionError struct{}

func (e *DecryptionError) Error() string {
	return "decryption failed: incorrect password or corrupted data"
}

// helper functions for error handling
func IsKeyDerivationError(err error) bool {
	var target *KeyDerivationError
	return errors.As(err, &target)
}

func IsEncryptionError(err error) bool {
	var target *EncryptionError
	return errors.As(err, &target)
}

func IsDecryptionError(err error) bool {
	var target *DecryptionError
	return errors.As(err, &target)
}

// factory functions
func NewKeyDerivationError(reason string) error {
	return &KeyDerivationError{Reason: reason}
}

func NewEncryptionError(reason string, err error) error {
	return &EncryptionError{Reason: reason, Err: err}
}

func NewDecryptionError() error {
	return &DecryptionError{}
}
