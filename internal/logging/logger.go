package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// ParseLevel maps LOG_LEVEL values to slog levels; unknown values mean info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewFileWriter returns a size-rotated log file.
func NewFileWriter(path string) io.WriteCloser {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // megabytes
		MaxBackups: 7,
		MaxAge:     7, // days
		Compress:   true,
	}
}

// Setup initializes the global slog logger with JSON output to stdout and,
// when file is set, to a rotating file as well. The returned handler is the
// base for the MultiHandler built once the database is up.
func Setup(level, file string) *MultiHandler {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	handler := NewMultiHandler(slog.NewJSONHandler(os.Stdout, opts))
	if file != "" {
		handler = handler.With(slog.NewJSONHandler(NewFileWriter(file), opts))
	}
	slog.SetDefault(slog.New(handler))
	return handler
}
