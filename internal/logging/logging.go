// Package logging implements the structured logging client used by both
// processes: a small handler-dispatch core in the shape of the teacher's
// app/core/logging/logging_client.go, trimmed to the two sinks MAS needs
// (stderr, rotating file) instead of the teacher's pluggable provider
// factory for Slack/Sentry/Papertrail channels.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Level is a logging severity.
type Level string

const (
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Handler is a pluggable logging sink.
type Handler interface {
	Handle(level Level, message string, fields map[string]interface{})
}

// Logger dispatches leveled, structured log lines to its handlers.
type Logger struct {
	mu       sync.RWMutex
	name     string
	handlers map[string]Handler
}

// New creates a Logger named after its owning component ("maas-server",
// "maas-client"), with a stderr handler always attached.
func New(name string) *Logger {
	l := &Logger{name: name, handlers: make(map[string]Handler)}
	l.AddHandler("stderr", NewStderrHandler())
	return l
}

// AddHandler attaches a named handler; a later call with the same name replaces it.
func (l *Logger) AddHandler(name string, h Handler) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.handlers[name] = h
}

// EnableFile attaches a rotating file handler at path, with the given
// max size in megabytes before rotation.
func (l *Logger) EnableFile(path string, maxSizeMB int) error {
	handler, err := NewFileHandler(path, maxSizeMB)
	if err != nil {
		return err
	}
	l.AddHandler("file", handler)
	return nil
}

func (l *Logger) log(level Level, message string, fields map[string]interface{}) {
	if fields == nil {
		fields = make(map[string]interface{})
	}
	fields["timestamp"] = time.Now().Format(time.RFC3339)
	fields["component"] = l.name
	fields["level"] = string(level)

	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, h := range l.handlers {
		h.Handle(level, message, fields)
	}
}

// Info logs at info level.
func (l *Logger) Info(message string, fields map[string]interface{}) {
	l.log(LevelInfo, message, fields)
}

// Warn logs at warn level.
func (l *Logger) Warn(message string, fields map[string]interface{}) {
	l.log(LevelWarn, message, fields)
}

// Error logs at error level.
func (l *Logger) Error(message string, fields map[string]interface{}) {
	l.log(LevelError, message, fields)
}

// Close closes any handlers that hold an open resource (currently just the
// file handler). Handlers without a Close method are left alone.
func (l *Logger) Close() error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, h := range l.handlers {
		if closer, ok := h.(interface{ Close() error }); ok {
			if err := closer.Close(); err != nil {
				return err
			}
		}
	}
	return nil
}

// StderrHandler writes formatted lines to stderr.
type StderrHandler struct{}

// NewStderrHandler creates a StderrHandler.
func NewStderrHandler() *StderrHandler {
	return &StderrHandler{}
}

// Handle implements Handler.
func (h *StderrHandler) Handle(level Level, message string, fields map[string]interface{}) {
	fmt.Fprintf(os.Stderr, "[%s] %-5s %s %s\n", fields["timestamp"], level, fields["component"], message)
}

// FileHandler writes log lines to a size-rotated file via lumberjack.
type FileHandler struct {
	writer *lumberjack.Logger
}

// NewFileHandler creates a FileHandler, ensuring the parent directory exists.
func NewFileHandler(path string, maxSizeMB int) (*FileHandler, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure log directory %s: %w", dir, err)
		}
	}
	return &FileHandler{
		writer: &lumberjack.Logger{
			Filename:   path,
			MaxSize:    maxSizeMB,
			MaxBackups: 5,
			MaxAge:     14,
			Compress:   true,
		},
	}, nil
}

// Handle implements Handler.
func (h *FileHandler) Handle(level Level, message string, fields map[string]interface{}) {
	fmt.Fprintf(h.writer, "[%s] %-5s %s %s\n", fields["timestamp"], level, fields["component"], message)
}

// Close flushes and closes the underlying rotated file.
func (h *FileHandler) Close() error {
	return h.writer.Close()
}
