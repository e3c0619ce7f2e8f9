package sessions

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestGetOrCreateSessionKey(t *testing.T) {
	keyPath := filepath.Join(t.TempDir(), "nested", "session.key")

	first, err := GetOrCreateSessionKey(keyPath)
	if err != nil {
		t.Fatalf("GetOrCreateSessionKey() failed: %v", err)
	}
	if len(first) != sessionKeyLength {
		t.Errorf("expected %d byte key, got %d", sessionKeyLength, len(first))
	}

	info, err := os.Stat(keyPath)
	if err != nil {
		t.Fatalf("key file was not written: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("expected permissions 0600, got %v", info.Mode().Perm())
	}

	second, err := GetOrCreateSessionKey(keyPath)
	if err != nil {
		t.Fatalf("second GetOrCreateSessionKey() failed: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("existing key should be reused")
	}
}

func TestGetOrCreateSessionKey_Corrupt(t *testing.T) {
	keyPath := filepath.Join(t.TempDir(), "session.key")

	if err := os.WriteFile(keyPath, []byte("not base64!"), 0600); err != nil {
		t.Fatalf("failed to write key: %v", err)
	}
	if _, err := GetOrCreateSessionKey(keyPath); err == nil {
		t.Error("expected an error for a corrupt key file")
	}

	if err := os.WriteFile(keyPath, []byte("c2hvcnQ="), 0600); err != nil {
		t.Fatalf("failed to write key: %v", err)
	}
	if _, err := GetOrCreateSessionKey(keyPath); err == nil {
		t.Error("expected an error for a short key")
	}
}
