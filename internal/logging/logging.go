// Package logging provides a shared, structured logger for the cli-rank application.
//
// It wraps the standard library's [log/slog] package and provides a single
// initialization point so all components share the same output handler and
// log level. The log level can be controlled at startup via the
// CLI_RANK_LOG_LEVEL environment variable (debug, info, warn, error).
// If unset, the default level is INFO.
//
// The ranking editor takes over the whole terminal, so anything written to
// stderr while it runs would corrupt the screen. Set CLI_RANK_LOG_FILE to
// append log output to a file of your choice; otherwise the editor command
// sends logs to a file under the data dir with ToFile while it runs.
//
// Usage:
//
//	log := logging.New("draft")         // creates a logger tagged with component="draft"
//	log.Info("restored draft", "ranking", id)
//	log.Warn("write draft", "error", err)
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileEnv names the environment variable that sends logs to a file.
const FileEnv = "CLI_RANK_LOG_FILE"

var (
	// out is the destination shared by every component logger. Loggers
	// handed out before SetOutput keep working because they write through
	// the switchWriter.
	out = &switchWriter{w: os.Stderr}

	// level is shared so SetLevel affects existing loggers too.
	level = new(slog.LevelVar)

	initLogger sync.Once
	baseLogger *slog.Logger
)

// switchWriter lets the destination change after loggers were created.
type switchWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *switchWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

// set installs w and returns the previous destination.
func (s *switchWriter) set(w io.Writer) io.Writer {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.w
	s.w = w
	return prev
}

func base() *slog.Logger {
	initLogger.Do(func() {
		level.Set(parseLevel(os.Getenv("CLI_RANK_LOG_LEVEL")))
		if path := strings.TrimSpace(os.Getenv(FileEnv)); path != "" {
			if f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600); err == nil {
				out.set(f)
			}
		}
		baseLogger = slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))
	})
	return baseLogger
}

// New returns a structured logger scoped to the given component name.
//
// The component name is added as a "component" attribute to every log entry
// produced by the returned logger. If component is empty, the base logger is
// returned without any additional attributes.
func New(component string) *slog.Logger {
	logger := base()
	if component == "" {
		return logger
	}
	return logger.With("component", component)
}

// SetOutput redirects all loggers, including ones already created.
func SetOutput(w io.Writer) {
	base()
	if w == nil {
		w = io.Discard
	}
	out.set(w)
}

// FileFromEnv reports whether FileEnv already routes output to a file.
func FileFromEnv() bool {
	return strings.TrimSpace(os.Getenv(FileEnv)) != ""
}

// ToFile appends all log output to path until restore is called, which
// puts the previous destination back and closes the file.
func ToFile(path string) (restore func(), err error) {
	base()
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	prev := out.set(f)
	return func() {
		out.set(prev)
		_ = f.Close()
	}, nil
}

// SetLevel changes the minimum level for all loggers.
func SetLevel(value string) {
	base()
	level.Set(parseLevel(value))
}

// parseLevel converts a human-readable log level string to a [slog.Level].
//
// Recognized values (case-insensitive, whitespace-trimmed):
//   - "debug"           → slog.LevelDebug
//   - "warn", "warning" → slog.LevelWarn
//   - "error"           → slog.LevelError
//   - anything else     → slog.LevelInfo (the default)
func parseLevel(value string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
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
