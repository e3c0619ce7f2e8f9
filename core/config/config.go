package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/yeti47/agentbench/core/passwords"
)

const (
	DataDirName    = "agentbench"
	ConfigFileName = "agentbench.json"
)

// Config holds the configuration shared by the dashboard and the command line
type Config struct {
	WebAddr        string `json:"web_addr"`
	WebPort        int    `json:"web_port"`
	DatabasePath   string `json:"database_path"`
	SessionKeyPath string `json:"session_key_path"`
	LogPath        string `json:"log_path"`
	LogLevel       string `json:"log_level"`

	SessionTimeoutMinutes int  `json:"session_timeout_minutes"`
	SessionWarningMinutes int  `json:"session_warning_minutes"`
	PurgeStoredOnTimeout  bool `json:"purge_stored_on_timeout"`

	ClipboardClearSeconds   int    `json:"clipboard_clear_seconds"`
	MinimumPasswordStrength string `json:"minimum_password_strength"`

	UnlockFailureThreshold     int `json:"unlock_failure_threshold"`
	UnlockFailureWindowMinutes int `json:"unlock_failure_window_minutes"`

	AgentTimeoutSeconds int `json:"agent_timeout_seconds"`
}

// DataDir returns ~/agentbench, creating it if needed. It falls back to the
// working directory when the home directory is unavailable.
func DataDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil || homeDir == "" {
		return "."
	}

	dataDir := filepath.Join(homeDir, DataDirName)
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return "."
	}
	return dataDir
}

// DefaultConfigPath is where LoadConfig looks when no path is given.
func DefaultConfigPath() string {
	return filepath.Join(DataDir(), ConfigFileName)
}

// DefaultConfig returns a new Config with default values
func DefaultConfig() *Config {
	dataDir := DataDir()

	return &Config{
		WebAddr:        "127.0.0.1",
		WebPort:        8080,
		DatabasePath:   filepath.Join(dataDir, "agentbench.db"),
		SessionKeyPath: filepath.Join(dataDir, "session.key"),
		LogPath:        filepath.Join(dataDir, "logs"),
		LogLevel:       "info",

		SessionTimeoutMinutes: 30,
		SessionWarningMinutes: 5,
		PurgeStoredOnTimeout:  true,

		ClipboardClearSeconds:   60,
		MinimumPasswordStrength: string(passwords.Medium),

		UnlockFailureThreshold:     5,
		UnlockFailureWindowMinutes: 15,

		AgentTimeoutSeconds: 60,
	}
}

// LoadConfig loads the configuration from a JSON file. Fields missing from the
// file keep their defaults; a missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	return config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.WebPort <= 0 || c.WebPort > 65535 {
		return fmt.Errorf("invalid web port: %d", c.WebPort)
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("database path must not be empty")
	}
	if c.SessionTimeoutMinutes <= 0 {
		return fmt.Errorf("invalid session timeout: %d minutes", c.SessionTimeoutMinutes)
	}
	if c.SessionWarningMinutes <= 0 || c.SessionWarningMinutes >= c.SessionTimeoutMinutes {
		return fmt.Errorf("session warning (%d minutes) must be positive and shorter than the timeout (%d minutes)",
			c.SessionWarningMinutes, c.SessionTimeoutMinutes)
	}
	if c.ClipboardClearSeconds < 0 {
		return fmt.Errorf("invalid clipboard clear delay: %d seconds", c.ClipboardClearSeconds)
	}
	if _, err := passwords.ParseStrength(c.MinimumPasswordStrength); err != nil {
		return err
	}
	if c.UnlockFailureThreshold < 0 {
		return fmt.Errorf("invalid unlock failure threshold: %d", c.UnlockFailureThreshold)
	}
	if c.UnlockFailureThreshold > 0 && c.UnlockFailureWindowMinutes <= 0 {
		return fmt.Errorf("invalid unlock failure window: %d minutes", c.UnlockFailureWindowMinutes)
	}
	if c.AgentTimeoutSeconds <= 0 {
		return fmt.Errorf("invalid agent timeout: %d seconds", c.AgentTimeoutSeconds)
	}
	return nil
}

func (c *Config) SessionTimeout() time.Duration {
	return time.Duration(c.SessionTimeoutMinutes) * time.Minute
}

func (c *Config) SessionWarning() time.Duration {
	return time.Duration(c.SessionWarningMinutes) * time.Minute
}

func (c *Config) ClipboardClearDelay() time.Duration {
	return time.Duration(c.ClipboardClearSeconds) * time.Second
}

func (c *Config) UnlockFailureWindow() time.Duration {
	return time.Duration(c.UnlockFailureWindowMinutes) * time.Minute
}

func (c *Config) AgentTimeout() time.Duration {
	return time.Duration(c.AgentTimeoutSeconds) * time.Second
}

// MinimumStrength returns the parsed minimum password strength, defaulting to medium.
func (c *Config) MinimumStrength() passwords.Strength {
	s, err := passwords.ParseStrength(c.MinimumPasswordStrength)
	if err != nil {
		return passwords.Medium
	}
	return s
}

// SaveConfig saves the configuration to a JSON file
func (c *Config) SaveConfig(path string) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config file: %w", err)
	}

	return nil
}
