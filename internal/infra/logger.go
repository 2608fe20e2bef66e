package infra

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// NewLogger builds the process-wide slog.Logger: JSON records to stdout and
// to a rotating file, with level and rotation policy taken from app config.
func NewLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Logging.Level)}
	return slog.New(slog.NewJSONHandler(logWriter(cfg), opts))
}

// ParseLevel maps a config level string to a slog.Level; unknown values
// fall back to info.
func ParseLevel(level string) slog.Level {
	switch level {
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

// logWriter wires stdout together with the rotating file sink. When the log
// directory cannot be created the file sink is skipped rather than failing
// startup; a widget without a log file still has to come up.
func logWriter(cfg *Config) io.Writer {
	lc := cfg.Logging
	if lc.File == "" {
		return os.Stdout
	}
	if err := os.MkdirAll(filepath.Dir(lc.File), 0755); err != nil {
		return os.Stdout
	}

	return io.MultiWriter(os.Stdout, &lumberjack.Logger{
		Filename:   lc.File,
		MaxSize:    lc.MaxSizeMB,
		MaxBackups: lc.MaxBackups,
		MaxAge:     lc.MaxAgeDays,
		Compress:   lc.Compress,
	})
}
