// Package logger provides the process-wide structured logger.
//
// Console output goes to stderr; Init adds a JSON file sink so a run keeps a
// machine-readable log next to its report.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config captures options for configuring the global logger.
type Config struct {
	Level   string    // debug, info, warn, error (defaults to LOG_LEVEL or info)
	Output  io.Writer // console writer (defaults to os.Stderr)
	Console bool      // human-readable console output instead of JSON
}

var (
	mu      sync.Mutex
	cfg     Config
	base    = zerolog.Nop()
	logFile *os.File
)

// Configure sets the level and console writer of the global logger.
func Configure(c Config) {
	mu.Lock()
	defer mu.Unlock()

	cfg = c
	rebuildLocked()
}

// Init adds a JSON file sink at logPath. A previously opened file is closed.
func Init(logPath string) error {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		logFile.Close()
		logFile = nil
	}

	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}
	logFile = f
	rebuildLocked()
	return nil
}

// Close closes the file sink. Console logging keeps working.
func Close() {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
	rebuildLocked()
}

func rebuildLocked() {
	level := zerolog.InfoLevel
	if cfg.Level != "" {
		if parsed, err := zerolog.ParseLevel(cfg.Level); err == nil {
			level = parsed
		}
	} else if env := os.Getenv("LOG_LEVEL"); env != "" {
		if parsed, err := zerolog.ParseLevel(env); err == nil {
			level = parsed
		}
	}
	zerolog.TimeFieldFormat = time.RFC3339Nano

	console := cfg.Output
	if console == nil {
		console = os.Stderr
	}
	if cfg.Console {
		console = zerolog.ConsoleWriter{Out: console, TimeFormat: "15:04:05.000"}
	}

	var w io.Writer = console
	if logFile != nil {
		w = zerolog.MultiLevelWriter(console, logFile)
	}

	base = zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// Base returns the configured logger.
func Base() zerolog.Logger {
	mu.Lock()
	defer mu.Unlock()
	return base
}

// WithComponent returns a child logger annotated with the given component name.
func WithComponent(component string) zerolog.Logger {
	return Base().With().Str("component", component).Logger()
}

// Info logs an info message.
func Info(format string, v ...interface{}) {
	l := Base()
	l.Info().Msgf(format, v...)
}

// Debug logs a debug message.
func Debug(format string, v ...interface{}) {
	l := Base()
	l.Debug().Msgf(format, v...)
}

// Warn logs a warning message.
func Warn(format string, v ...interface{}) {
	l := Base()
	l.Warn().Msgf(format, v...)
}

// Error logs an error message.
func Error(format string, v ...interface{}) {
	l := Base()
	l.Error().Msgf(format, v...)
}

// GetWriter returns the file sink, or io.Discard when none is open.
func GetWriter() io.Writer {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		return logFile
	}
	return io.Discard
}

func init() {
	rebuildLocked()
}
