package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLogLevel_SlogLevel(t *testing.T) {
	cases := map[LogLevel]slog.Level{
		LogLevelDebug: slog.LevelDebug,
		"WARN":        slog.LevelWarn,
		LogLevelError: slog.LevelError,
		LogLevelInfo:  slog.LevelInfo,
		"verbose":     slog.LevelInfo,
	}

	for level, expected := range cases {
		if got := level.slogLevel(); got != expected {
			t.Errorf("level %q: expected %v, got %v", level, expected, got)
		}
	}
}

func TestDailyRotatingWriter_RotatesOnDateChange(t *testing.T) {
	dir := t.TempDir()
	w := newDailyRotatingWriter(dir, "agentbench")
	defer w.Close()

	day := time.Date(2025, 3, 1, 23, 59, 0, 0, time.Local)
	w.now = func() time.Time { return day }

	if _, err := w.Write([]byte("first\n")); err != nil {
		t.Fatalf("Write() failed: %v", err)
	}

	day = day.Add(2 * time.Minute)
	if _, err := w.Write([]byte("second\n")); err != nil {
		t.Fatalf("Write() failed: %v", err)
	}

	first, err := os.ReadFile(filepath.Join(dir, "agentbench-2025-03-01.log"))
	if err != nil {
		t.Fatalf("expected first log file: %v", err)
	}
	second, err := os.ReadFile(filepath.Join(dir, "agentbench-2025-03-02.log"))
	if err != nil {
		t.Fatalf("expected second log file: %v", err)
	}

	if strings.TrimSpace(string(first)) != "first" || strings.TrimSpace(string(second)) != "second" {
		t.Errorf("unexpected file contents: %q / %q", first, second)
	}
}

func TestCreateLogger_WritesJSON(t *testing.T) {
	dir := t.TempDir()
	logger, closer := CreateLogger(LogLevelInfo, dir, "test")

	logger.Debug("hidden")
	logger.Info("visible", "token", "alpha")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) != 1 {
		t.Fatalf("expected one log file, got %v (err %v)", entries, err)
	}

	content, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	if err != nil {
		t.Fatalf("failed to read log: %v", err)
	}

	if strings.Contains(string(content), "hidden") {
		t.Error("debug entry should be filtered at info level")
	}
	if !strings.Contains(string(content), `"msg":"visible"`) {
		t.Errorf("expected JSON entry, got %s", content)
	}
}
