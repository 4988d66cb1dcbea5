package logging

import (
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Config describes the desired logging configuration.
type Config struct {
	Level          string
	Format         string
	FilePath       string
	FileMaxSizeMB  int
	FileMaxFiles   int
	FileMaxAgeDays int
}

// Manager owns the logger lifecycle, in particular the rotating file writer.
type Manager struct {
	closer io.Closer // lumberjack writer, if any
}

// NewManager creates a Manager and returns it along with a ready-to-use logger.
func NewManager(cfg Config) (*Manager, *slog.Logger) {
	writer, closer := buildWriter(cfg)
	handler := buildHandler(writer, parseLevel(cfg.Level), cfg.Format)
	return &Manager{closer: closer}, slog.New(handler)
}

// Close releases resources (e.g. the log file writer).
func (m *Manager) Close() error {
	if m.closer != nil {
		err := m.closer.Close()
		m.closer = nil
		return err
	}
	return nil
}

// parseLevel converts a string to slog.Level, defaulting to Info.
func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// buildWriter returns the log destination. When a file path is configured,
// output goes to a size/age-rotated file; otherwise to stderr.
func buildWriter(cfg Config) (io.Writer, io.Closer) {
	if cfg.FilePath == "" {
		return os.Stderr, nil
	}
	lj := &lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    orDefault(cfg.FileMaxSizeMB, 20),
		MaxBackups: orDefault(cfg.FileMaxFiles, 3),
		MaxAge:     orDefault(cfg.FileMaxAgeDays, 28),
		Compress:   true,
	}
	return lj, lj
}

func buildHandler(w io.Writer, level slog.Level, format string) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if format == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
