package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
)

// Logger provides synchronized logging for the event loop and background
// tasks. The terminal UI owns stdout, so output normally goes to a file.
type Logger struct {
	mu sync.Mutex
	l  *log.Logger
	c  io.Closer
}

// New creates a thread-safe logger writing to w.
func New(w io.Writer) *Logger {
	return &Logger{l: log.New(w, "", log.Ldate|log.Ltime|log.Lmicroseconds)}
}

// Open creates a logger appending to path. When the file cannot be opened
// the logger falls back to stderr and the open error is returned alongside it.
func Open(path string) (*Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return New(os.Stderr), fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return New(os.Stderr), fmt.Errorf("open log file %s: %w", path, err)
	}
	lg := New(f)
	lg.c = f
	return lg, nil
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return New(io.Discard)
}

// Close releases the underlying file, if any.
func (lg *Logger) Close() error {
	lg.mu.Lock()
	defer lg.mu.Unlock()
	if lg.c == nil {
		return nil
	}
	err := lg.c.Close()
	lg.c = nil
	return err
}

// Debugf writes a diagnostic message.
func (lg *Logger) Debugf(format string, args ...any) {
	lg.logf("DEBUG", format, args...)
}

// Infof writes an informational message.
func (lg *Logger) Infof(format string, args ...any) {
	lg.logf("INFO ", format, args...)
}

// Warnf writes a warning message.
func (lg *Logger) Warnf(format string, args ...any) {
	lg.logf("WARN ", format, args...)
}

// Errorf writes an error message.
func (lg *Logger) Errorf(format string, args ...any) {
	lg.logf("ERROR", format, args...)
}

func (lg *Logger) logf(level, format string, args ...any) {
	lg.mu.Lock()
	defer lg.mu.Unlock()
	lg.l.Printf("%s %s", level, fmt.Sprintf(format, args...))
}
