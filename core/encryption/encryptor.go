package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"io"
)

const NonceLength = 12 // 96 bits for GCM

// Encryptor is the cryptographic provider: a random source plus AES-256-GCM.
type Encryptor interface {
	// Seal encrypts plaintext under key with the given nonce and returns ciphertext||tag
	Seal(plaintext, key, nonce []byte) ([]byte, error)
	// Open authenticates and decrypts ciphertext||tag
	Open(ciphertext, key, nonce []byte) ([]byte, error)
	// GenerateSalt returns SaltLength random bytes for key derivation
	GenerateSalt() ([]byte, error)
	// GenerateNonce returns NonceLength random bytes
	GenerateNonce() ([]byte, error)
}

// AESEncryptor implements the Encryptor interface using AES-GCM
type AESEncryptor struct {
	random io.Reader
}

// NewAESEncryptor creates an AESEncryptor reading randomness from crypto/rand
func NewAESEncryptor() *AESEncryptor {
	return &AESEncryptor{random: rand.Reader}
}

// NewAESEncryptorWithRandom creates an AESEncryptor with an injected random source.
func NewAESEncryptorWithRandom(random io.Reader) *AESEncryptor {
	return &AESEncryptor{random: random}
}

func (e *AESEncryptor) newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != KeyLength {
		return nil, errors.New("invalid key length")
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	return cipher.NewGCM(block)
}

// Seal encrypts data using AES-GCM with the provided key and nonce
func (e *AESEncryptor) Seal(plaintext, key, nonce []byte) ([]byte, error) {
	gcm, err := e.newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(nonce) != gcm.NonceSize() {
		return nil, errors.New("invalid nonce length")
	}

	return gcm.Seal(nil, nonce, plaintext, nil), nil
}

// Open decrypts data using AES-GCM with the provided key and nonce
func (e *AESEncryptor) Open(ciphertext, key, nonce []byte) ([]byte, error) {
	gcm, err := e.newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(nonce) != gcm.NonceSize() {
		return nil, errors.New("invalid nonce length")
	}
	if len(ciphertext) < gcm.Overhead() {
		return nil, errors.New("ciphertext too short")
	}

	return gcm.Open(nil, nonce, ciphertext, nil)
}

// GenerateSalt generates a new random salt
func (e *AESEncryptor) GenerateSalt() ([]byte, error) {
	return e.randomBytes(SaltLength)
}

// GenerateNonce generates a new random GCM nonce
func (e *AESEncryptor) GenerateNonce() ([]byte, error) {
	return e.randomBytes(NonceLength)
}

func (e *AESEncryptor) randomBytes(n int) ([]byte, error) {
	if e.random == nil {
		return nil, errors.New("no random source configured")
	}

	buf := make([]byte, n)
	if _, err := io.ReadFull(e.random, buf); err != nil {
		return nil, err
	}
	return buf, nil
}
