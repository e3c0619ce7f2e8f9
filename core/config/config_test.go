package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/yeti47/agentbench/core/passwords"
)

func TestDefaultConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg := DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}
	if cfg.SessionTimeout() != 30*time.Minute || cfg.SessionWarning() != 5*time.Minute {
		t.Errorf("unexpected session defaults: %v / %v", cfg.SessionTimeout(), cfg.SessionWarning())
	}
	if cfg.ClipboardClearDelay() != 60*time.Second {
		t.Errorf("unexpected clipboard delay: %v", cfg.ClipboardClearDelay())
	}
	if !cfg.PurgeStoredOnTimeout {
		t.Error("stored tokens should be purged on timeout by default")
	}
	if cfg.MinimumStrength() != passwords.Medium {
		t.Errorf("unexpected minimum strength: %s", cfg.MinimumStrength())
	}
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}
	if cfg.WebPort != 8080 {
		t.Errorf("expected default port, got %d", cfg.WebPort)
	}
}

func TestLoadConfig_PartialFileKeepsDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	path := filepath.Join(t.TempDir(), ConfigFileName)
	if err := os.WriteFile(path, []byte(`{"web_port": 9090, "session_timeout_minutes": 10}`), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}
	if cfg.WebPort != 9090 || cfg.SessionTimeoutMinutes != 10 {
		t.Errorf("file values not applied: port %d timeout %d", cfg.WebPort, cfg.SessionTimeoutMinutes)
	}
	if cfg.SessionWarningMinutes != 5 {
		t.Errorf("expected default warning to survive, got %d", cfg.SessionWarningMinutes)
	}
}

func TestLoadConfig_RejectsUnknownFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	if err := os.WriteFile(path, []byte(`{"web_prot": 9090}`), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	if _, err := LoadConfig(path); err == nil {
		t.Error("expected an error for an unknown field")
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	path := filepath.Join(t.TempDir(), ConfigFileName)
	cfg := DefaultConfig()
	cfg.LogLevel = "debug"
	cfg.PurgeStoredOnTimeout = false

	if err := cfg.SaveConfig(path); err != nil {
		t.Fatalf("SaveConfig() failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("config file missing: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("expected permissions 0600, got %v", info.Mode().Perm())
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}
	if loaded.LogLevel != "debug" || loaded.PurgeStoredOnTimeout {
		t.Errorf("saved values not restored: %+v", loaded)
	}
}

func TestValidate(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port zero", func(c *Config) { c.WebPort = 0 }},
		{"port too high", func(c *Config) { c.WebPort = 70000 }},
		{"empty database", func(c *Config) { c.DatabasePath = "" }},
		{"zero timeout", func(c *Config) { c.SessionTimeoutMinutes = 0 }},
		{"warning equals timeout", func(c *Config) { c.SessionWarningMinutes = c.SessionTimeoutMinutes }},
		{"zero warning", func(c *Config) { c.SessionWarningMinutes = 0 }},
		{"negative clipboard delay", func(c *Config) { c.ClipboardClearSeconds = -1 }},
		{"unknown strength", func(c *Config) { c.MinimumPasswordStrength = "epic" }},
		{"negative threshold", func(c *Config) { c.UnlockFailureThreshold = -1 }},
		{"threshold without window", func(c *Config) { c.UnlockFailureWindowMinutes = 0 }},
		{"zero agent timeout", func(c *Config) { c.AgentTimeoutSeconds = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
