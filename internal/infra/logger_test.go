package infra

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
		"INVALID": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewLogger_WritesRotatingFile(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Logging.File = filepath.Join(t.TempDir(), "logs", "tracker.log")

	logger := NewLogger(cfg)
	logger.Info("startup", slog.String("component", "test"))

	if _, err := os.Stat(cfg.Logging.File); err != nil {
		t.Fatalf("Expected log file to be created: %v", err)
	}

	data, err := os.ReadFile(cfg.Logging.File)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) == 0 {
		t.Error("Expected a log record in the file")
	}
}

func TestNewLogger_EmptyFileFallsBackToStdout(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Logging.File = ""

	// Must not panic or create anything; stdout-only logging is valid
	logger := NewLogger(cfg)
	if logger == nil {
		t.Fatal("Expected a logger")
	}
	logger.Debug("discarded at info level")
}
