package hygiene

import (
	"sync"

	"github.com/awnumar/memguard"
)

// SealedSecret keeps a secret encrypted in memory and only exposes the
// plaintext for the duration of a Use call.
type SealedSecret struct {
	mu      sync.Mutex
	enclave *memguard.Enclave
}

// NewSealedSecret seals value into an enclave. value is wiped.
// An empty value yields a destroyed secret.
func NewSealedSecret(value []byte) *SealedSecret {
	s := &SealedSecret{}
	if len(value) == 0 {
		return s
	}
	s.enclave = memguard.NewEnclave(value)
	return s
}

// Use opens the enclave and passes the plaintext to fn. The plaintext buffer is
// destroyed when fn returns; fn must not retain it.
func (s *SealedSecret) Use(fn func(plaintext []byte) error) error {
	s.mu.Lock()
	enclave := s.enclave
	s.mu.Unlock()

	if enclave == nil {
		return ErrSecretDestroyed
	}

	buf, err := enclave.Open()
	if err != nil {
		return ErrSecretDestroyed
	}
	defer buf.Destroy()

	return fn(buf.Bytes())
}

// Copy returns a plain copy of the secret. The caller owns it and should SecureWipe it.
func (s *SealedSecret) Copy() ([]byte, error) {
	var out []byte
	err := s.Use(func(plaintext []byte) error {
		out = make([]byte, len(plaintext))
		copy(out, plaintext)
		return nil
	})
	return out, err
}

// Destroy drops the enclave. The sealed ciphertext is unreachable afterwards and
// its key dies with the process or with memguard.Purge.
func (s *SealedSecret) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enclave = nil
}

func (s *SealedSecret) IsDestroyed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enclave == nil
}
