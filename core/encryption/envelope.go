package encryption

import (
	"encoding/base64"
	"unicode/utf8"

	"github.com/yeti47/agentbench/core/hygiene"
)

// CurrentEnvelopeVersion is written into every new envelope.
// Version 1: PBKDF2-HMAC-SHA256 + AES-256-GCM, 16 byte salt, 12 byte IV.
const CurrentEnvelopeVersion = 1

// Envelope is a ciphertext together with everything except the password that
// is needed to decrypt it. All byte fields are base64 (standard encoding).
//
// Envelopes stored before versioning carry only ciphertext, iv and salt; they
// are read as version 1 at DefaultIterations.
type Envelope struct {
	Ciphertext string `json:"ciphertext"`
	IV         string `json:"iv"`
	Salt       string `json:"salt"`
	Version    int    `json:"version,omitempty"`
	Iterations int    `json:"iterations,omitempty"`
}

type EnvelopeOption func(*EnvelopeCipher)

// WithIterations overrides the PBKDF2 work factor used for new envelopes.
func WithIterations(iterations int) EnvelopeOption {
	return func(c *EnvelopeCipher) {
		c.iterations = iterations
	}
}

// WithKeyDeriverFactory replaces how a KeyDeriver is built for an iteration count.
func WithKeyDeriverFactory(factory func(iterations int) KeyDeriver) EnvelopeOption {
	return func(c *EnvelopeCipher) {
		c.newDeriver = factory
	}
}

// EnvelopeCipher encrypts secrets under a password into self-contained envelopes.
// It holds no per-call state and is safe for concurrent use.
type EnvelopeCipher struct {
	encryptor  Encryptor
	iterations int
	newDeriver func(iterations int) KeyDeriver
}

func NewEnvelopeCipher(encryptor Encryptor, opts ...EnvelopeOption) *EnvelopeCipher {
	if encryptor == nil {
		encryptor = NewAESEncryptor()
	}

	c := &EnvelopeCipher{
		encryptor:  encryptor,
		iterations: DefaultIterations,
		newDeriver: func(iterations int) KeyDeriver {
			return NewPBKDF2Deriver(iterations)
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Seal encrypts plaintext under password with a fresh salt and IV.
// Neither argument is modified; the derived key is wiped before returning.
func (c *EnvelopeCipher) Seal(plaintext, password []byte) (*Envelope, error) {
	if len(password) == 0 {
		return nil, NewEncryptionError("password must not be empty", nil)
	}

	salt, err := c.encryptor.GenerateSalt()
	if err != nil {
		return nil, NewEncryptionError("failed to generate salt", err)
	}
	iv, err := c.encryptor.GenerateNonce()
	if err != nil {
		return nil, NewEncryptionError("failed to generate iv", err)
	}

	key, err := c.newDeriver(c.iterations).DeriveKey(password, salt)
	if err != nil {
		return nil, NewEncryptionError("failed to derive key", err)
	}
	defer hygiene.SecureWipe(key)

	ciphertext, err := c.encryptor.Seal(plaintext, key, iv)
	if err != nil {
		return nil, NewEncryptionError("cipher unavailable", err)
	}

	return &Envelope{
		Ciphertext: base64.StdEncoding.EncodeToString(ciphertext),
		IV:         base64.StdEncoding.EncodeToString(iv),
		Salt:       base64.StdEncoding.EncodeToString(salt),
		Version:    CurrentEnvelopeVersion,
		Iterations: c.iterations,
	}, nil
}

// Open decrypts env with password. Every failure is a DecryptionError.
// The caller owns the returned plaintext and should wipe it after use.
func (c *EnvelopeCipher) Open(env *Envelope, password []byte) ([]byte, error) {
	if env == nil {
		return nil, NewDecryptionError()
	}

	iterations, ok := env.workFactor()
	if !ok {
		return nil, NewDecryptionError()
	}

	salt, err := base64.StdEncoding.DecodeString(env.Salt)
	if err != nil {
		return nil, NewDecryptionError()
	}
	iv, err := base64.StdEncoding.DecodeString(env.IV)
	if err != nil {
		return nil, NewDecryptionError()
	}
	ciphertext, err := base64.StdEncoding.DecodeString(env.Ciphertext)
	if err != nil {
		return nil, NewDecryptionError()
	}

	key, err := c.newDeriver(iterations).DeriveKey(password, salt)
	if err != nil {
		return nil, NewDecryptionError()
	}
	defer hygiene.SecureWipe(key)

	plaintext, err := c.encryptor.Open(ciphertext, key, iv)
	if err != nil {
		return nil, NewDecryptionError()
	}

	return plaintext, nil
}

// Encrypt is Seal for string values.
func (c *EnvelopeCipher) Encrypt(plaintext, password string) (*Envelope, error) {
	return c.Seal([]byte(plaintext), []byte(password))
}

// Decrypt is Open for string values. Plaintext that is not valid UTF-8 is
// treated as corrupted data.
func (c *EnvelopeCipher) Decrypt(env *Envelope, password string) (string, error) {
	plaintext, err := c.Open(env, []byte(password))
	if err != nil {
		return "", err
	}
	defer hygiene.SecureWipe(plaintext)

	if !utf8.Valid(plaintext) {
		return "", NewDecryptionError()
	}
	return string(plaintext), nil
}

// workFactor resolves the KDF iteration count, treating an unversioned envelope as version 1.
func (e *Envelope) workFactor() (int, bool) {
	version := e.Version
	if version == 0 {
		version = 1
	}
	if version != CurrentEnvelopeVersion {
		return 0, false
	}

	iterations := e.Iterations
	if iterations == 0 {
		iterations = DefaultIterations
	}
	if iterations < MinIterations || iterations > MaxIterations {
		return 0, false
	}
	return iterations, true
}
