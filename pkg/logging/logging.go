// Package logging configures structured logging for log/slog.
//
// Usage:
//
//	logging.Setup(logging.Options{})                           // console, LOG_LEVEL or INFO
//	logging.Setup(logging.Options{Level: "debug"})             // explicit level override
//	logging.Setup(logging.Options{Format: logging.FormatJSON}) // machine-readable
//
// Environment variables:
//
//	LOG_LEVEL: debug, info, warn, error (default: info)
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// Output formats.
const (
	// FormatConsole is colored, human-readable output via tint.
	FormatConsole = "console"
	// FormatJSON is one JSON object per line.
	FormatJSON = "json"
)

// Options selects the handler. Zero values fall back to LOG_LEVEL and console.
type Options struct {
	Level  string
	Format string
}

// Setup installs a logger built from opts as the slog default and returns it.
func Setup(opts Options) *slog.Logger {
	logger := New(os.Stderr, opts)
	slog.SetDefault(logger)
	return logger
}

// New builds a logger writing to w.
func New(w io.Writer, opts Options) *slog.Logger {
	level := levelFromEnv()
	if opts.Level != "" {
		level = ParseLevel(opts.Level)
	}

	if strings.EqualFold(opts.Format, FormatJSON) {
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level:     level,
			AddSource: true,
		}))
	}

	return slog.New(
		tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
			AddSource:  true,
			NoColor:    !isTerminal(w),
		}),
	)
}

// ParseLevel maps debug, info, warn and error to slog levels. Unknown names
// are INFO.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
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

func levelFromEnv() slog.Level {
	return ParseLevel(os.Getenv("LOG_LEVEL"))
}

// isTerminal reports whether w is a character device such as a TTY.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
