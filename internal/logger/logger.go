// Package logger provides the process-wide structured logger.
//
// All store-failure logging in the mapping registry goes through this
// package with operation and key context, so a failed write is always
// traceable even though the failure itself is non-fatal.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Config holds logger configuration.
type Config struct {
	Level  string // DEBUG, INFO, WARN, ERROR
	Format string // text, json
	Output string // stdout, stderr, or a file path
}

var (
	mu       sync.RWMutex
	levelVar = new(slog.LevelVar)
	output   io.Writer = os.Stdout
	format             = "text"
	slogger            = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: levelVar}))
)

// Init initializes the logger with the given configuration.
// Output can be "stdout", "stderr", or a file path.
func Init(cfg Config) error {
	mu.Lock()
	defer mu.Unlock()

	if cfg.Output != "" {
		switch strings.ToLower(cfg.Output) {
		case "stdout":
			output = os.Stdout
		case "stderr":
			output = os.Stderr
		default:
			f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
			if err != nil {
				return fmt.Errorf("failed to open log file %q: %w", cfg.Output, err)
			}
			output = f
		}
	}

	if cfg.Level != "" {
		if err := setLevelLocked(cfg.Level); err != nil {
			return err
		}
	}

	if cfg.Format != "" {
		f := strings.ToLower(cfg.Format)
		if f != "text" && f != "json" {
			return fmt.Errorf("invalid log format %q", cfg.Format)
		}
		format = f
	}

	reconfigureLocked()
	return nil
}

// InitWithWriter initializes the logger with a custom io.Writer.
// This is primarily useful for testing.
func InitWithWriter(w io.Writer, level, formatName string) {
	mu.Lock()
	defer mu.Unlock()

	output = w
	if level != "" {
		_ = setLevelLocked(level)
	}
	if formatName != "" {
		format = strings.ToLower(formatName)
	}
	reconfigureLocked()
}

// SetLevel sets the minimum log level. Invalid levels are ignored.
func SetLevel(level string) {
	mu.Lock()
	defer mu.Unlock()
	_ = setLevelLocked(level)
}

func setLevelLocked(level string) error {
	switch strings.ToUpper(level) {
	case "DEBUG":
		levelVar.Set(slog.LevelDebug)
	case "INFO":
		levelVar.Set(slog.LevelInfo)
	case "WARN":
		levelVar.Set(slog.LevelWarn)
	case "ERROR":
		levelVar.Set(slog.LevelError)
	default:
		return fmt.Errorf("invalid log level %q", level)
	}
	return nil
}

// reconfigureLocked rebuilds the slog handler from the current settings.
func reconfigureLocked() {
	opts := &slog.HandlerOptions{Level: levelVar}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(output, opts)
	} else {
		handler = slog.NewTextHandler(output, opts)
	}

	slogger = slog.New(handler)
}

func getLogger() *slog.Logger {
	mu.RLock()
	l := slogger
	mu.RUnlock()
	return l
}

// Debug logs at debug level with structured fields.
// Usage: Debug("message", "key1", value1, "key2", value2)
func Debug(msg string, args ...any) {
	getLogger().Debug(msg, args...)
}

// Info logs at info level with structured fields.
func Info(msg string, args ...any) {
	getLogger().Info(msg, args...)
}

// Warn logs at warn level with structured fields.
func Warn(msg string, args ...any) {
	getLogger().Warn(msg, args...)
}

// Error logs at error level with structured fields.
func Error(msg string, args ...any) {
	getLogger().Error(msg, args...)
}

// With returns a slog.Logger with additional pre-bound attributes.
func With(args ...any) *slog.Logger {
	return getLogger().With(args...)
}
