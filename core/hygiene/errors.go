package hygiene

import (
	"errors"
	"fmt"
)

// ErrSecretDestroyed is returned when a SealedSecret is used after Destroy.
var ErrSecretDestroyed = errors.New("secret has been destroyed")

// ClipboardError reports that the system clipboard could not be written.
// It is not fatal: the caller shows the value some other way or asks the user to copy it.
type ClipboardError struct {
	Op  string
	Err error
}

func (e *ClipboardError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("clipboard %s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("clipboard %s failed", e.Op)
}

func (e *ClipboardError) Unwrap() error {
	return e.Err
}

func NewClipboardError(op string, err error) error {
	return &ClipboardError{Op: op, Err: err}
}

func IsClipboardError(err error) bool {
	var target *ClipboardError
	return errors.As(err, &target)
}
