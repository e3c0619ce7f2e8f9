package encryption

import (
	"crypto/sha256"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	DefaultIterations = 100000 // PBKDF2 work factor for envelope version 1
	MinIterations     = 10000
	MaxIterations     = 10000000

	KeyLength  = 32 // AES-256
	SaltLength = 16
)

// KeyDeriver turns a password and salt into an AES-256-GCM key.
type KeyDeriver interface {
	DeriveKey(password []byte, salt []byte) ([]byte, error)
}

// PBKDF2Deriver derives keys with PBKDF2-HMAC-SHA256 at a fixed iteration count.
// Keys are never cached: every call re-derives.
type PBKDF2Deriver struct {
	iterations int
}

func NewPBKDF2Deriver(iterations int) *PBKDF2Deriver {
	return &PBKDF2Deriver{iterations: iterations}
}

func (d *PBKDF2Deriver) Iterations() int {
	return d.iterations
}

// DeriveKey derives a KeyLength key. The caller owns the result and should wipe it after use.
func (d *PBKDF2Deriver) DeriveKey(password []byte, salt []byte) ([]byte, error) {
	if len(salt) != SaltLength {
		return nil, NewKeyDerivationError(fmt.Sprintf("salt must be %d bytes, got %d", SaltLength, len(salt)))
	}
	if d.iterations < MinIterations || d.iterations > MaxIterations {
		return nil, NewKeyDerivationError(fmt.Sprintf("unsupported iteration count %d", d.iterations))
	}

	return pbkdf2.Key(password, salt, d.iterations, KeyLength, sha256.New), nil
}
