package encryption

import (
	"bytes"
	"crypto/rand"
	"errors"
	"testing"
)

func testKey(t *testing.T) []byte {
	t.Helper()
	key := make([]byte, KeyLength)
	if _, err := rand.Read(key); err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}
	return key
}

func TestNewAESEncryptor(t *testing.T) {
	encryptor := NewAESEncryptor()
	if encryptor == nil {
		t.Fatal("NewAESEncryptor() returned nil")
	}
}

func TestGenerateSalt(t *testing.T) {
	encryptor := NewAESEncryptor()

	salt, err := encryptor.GenerateSalt()
	if err != nil {
		t.Fatalf("GenerateSalt() failed: %v", err)
	}

	if len(salt) != SaltLength {
		t.Errorf("Expected salt length %d, got %d", SaltLength, len(salt))
	}

	// Generate another salt and ensure they're different
	salt2, err := encryptor.GenerateSalt()
	if err != nil {
		t.Fatalf("GenerateSalt() failed on second call: %v", err)
	}

	if bytes.Equal(salt, salt2) {
		t.Error("GenerateSalt() produced identical salts, should be random")
	}
}

func TestGenerateNonce(t *testing.T) {
	encryptor := NewAESEncryptor()

	nonce, err := encryptor.GenerateNonce()
	if err != nil {
		t.Fatalf("GenerateNonce() failed: %v", err)
	}

	if len(nonce) != NonceLength {
		t.Errorf("Expected nonce length %d, got %d", NonceLength, len(nonce))
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("entropy source unavailable")
}

func TestGenerateWithFailingRandomSource(t *testing.T) {
	encryptor := NewAESEncryptorWithRandom(failingReader{})

	if _, err := encryptor.GenerateSalt(); err == nil {
		t.Error("GenerateSalt() should fail when the random source fails")
	}
	if _, err := encryptor.GenerateNonce(); err == nil {
		t.Error("GenerateNonce() should fail when the random source fails")
	}

	if _, err := NewAESEncryptorWithRandom(nil).GenerateSalt(); err == nil {
		t.Error("GenerateSalt() should fail without a random source")
	}
}

func TestSealOpen(t *testing.T) {
	encryptor := NewAESEncryptor()
	key := testKey(t)
	nonce, _ := encryptor.GenerateNonce()

	testData := []byte("Hello, World! This is a test message.")

	sealed, err := encryptor.Seal(testData, key, nonce)
	if err != nil {
		t.Fatalf("Seal() failed: %v", err)
	}

	if bytes.Contains(sealed, testData) {
		t.Error("Sealed data should not contain the original data")
	}

	opened, err := encryptor.Open(sealed, key, nonce)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}

	if !bytes.Equal(testData, opened) {
		t.Errorf("Opened data does not match original. Expected %s, got %s", testData, opened)
	}
}

func TestSealWithInvalidKey(t *testing.T) {
	encryptor := NewAESEncryptor()
	nonce, _ := encryptor.GenerateNonce()

	if _, err := encryptor.Seal([]byte("test data"), []byte("short"), nonce); err == nil {
		t.Error("Seal() should fail with invalid key length")
	}

	if _, err := encryptor.Seal([]byte("test data"), []byte{}, nonce); err == nil {
		t.Error("Seal() should fail with empty key")
	}

	if _, err := encryptor.Seal([]byte("test data"), testKey(t), []byte("bad")); err == nil {
		t.Error("Seal() should fail with invalid nonce length")
	}
}

func TestOpenWithWrongKeyOrNonce(t *testing.T) {
	encryptor := NewAESEncryptor()
	key := testKey(t)
	nonce, _ := encryptor.GenerateNonce()
	sealed, _ := encryptor.Seal([]byte("test data"), key, nonce)

	if _, err := encryptor.Open(sealed, testKey(t), nonce); err == nil {
		t.Error("Open() should fail with wrong key")
	}

	otherNonce, _ := encryptor.GenerateNonce()
	if _, err := encryptor.Open(sealed, key, otherNonce); err == nil {
		t.Error("Open() should fail with wrong nonce")
	}
}

func TestOpenWithInvalidData(t *testing.T) {
	encryptor := NewAESEncryptor()
	key := testKey(t)
	nonce, _ := encryptor.GenerateNonce()

	if _, err := encryptor.Open([]byte("short"), key, nonce); err == nil {
		t.Error("Open() should fail with data too short")
	}

	if _, err := encryptor.Open([]byte{}, key, nonce); err == nil {
		t.Error("Open() should fail with empty data")
	}
}

func TestSealEmptyData(t *testing.T) {
	encryptor := NewAESEncryptor()
	key := testKey(t)
	nonce, _ := encryptor.GenerateNonce()

	sealed, err := encryptor.Seal([]byte{}, key, nonce)
	if err != nil {
		t.Fatalf("Seal() failed with empty data: %v", err)
	}

	opened, err := encryptor.Open(sealed, key, nonce)
	if err != nil {
		t.Fatalf("Open() failed with empty data: %v", err)
	}

	if len(opened) != 0 {
		t.Error("Empty data encryption/decryption failed")
	}
}
