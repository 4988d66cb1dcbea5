package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bizarre": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewManagerWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	mgr, logger := NewManager(Config{Level: "info", Format: "json", FilePath: path})

	logger.Info("startup", slog.String("component", "test"))
	if err := mgr.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	line := string(data)
	if !strings.Contains(line, `"msg":"startup"`) || !strings.Contains(line, `"component":"test"`) {
		t.Errorf("log line = %q", line)
	}
}

func TestNewManagerLevelFilter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	mgr, logger := NewManager(Config{Level: "warn", FilePath: path})

	logger.Info("dropped")
	logger.Warn("kept")
	if err := mgr.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "dropped") {
		t.Error("info record should be filtered at warn level")
	}
	if !strings.Contains(string(data), "kept") {
		t.Error("warn record missing from output")
	}
}

func TestCloseIdempotent(t *testing.T) {
	mgr, _ := NewManager(Config{})
	if err := mgr.Close(); err != nil {
		t.Fatal(err)
	}
	if err := mgr.Close(); err != nil {
		t.Fatal(err)
	}
}
