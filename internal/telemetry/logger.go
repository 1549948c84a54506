// Package telemetry provides the append-only structured event log for AI
// activity. Recording is fire-and-forget: failures are reported to stderr
// and never reach the caller.
package telemetry

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Levels accepted by Record.
const (
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

func init() {
	zerolog.TimestampFieldName = "timestamp"
	zerolog.TimeFieldFormat = time.RFC3339
}

// Logger appends one JSON object per line to the active log file.
type Logger struct {
	mu        sync.Mutex
	path      string
	file      *os.File
	log       zerolog.Logger
	lastWrite time.Time
	closed    bool
}

// NewLogger opens (or creates) the active log file in append mode.
func NewLogger(path string) (*Logger, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
	}
	l := &Logger{path: path}
	if err := l.open(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Logger) open() error {
	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	l.file = file
	l.log = zerolog.New(failsafeWriter{file: file}).With().Timestamp().Logger()
	if info, err := file.Stat(); err == nil && info.Size() > 0 {
		l.lastWrite = info.ModTime()
	}
	return nil
}

// Record appends one entry. It never panics or returns an error; internal
// failures go to stderr only. Append order matches call order within the
// process.
func (l *Logger) Record(level, event string, payload map[string]interface{}) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "telemetry: record panicked: %v\n", r)
		}
	}()

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		fmt.Fprintf(os.Stderr, "telemetry: record after close: %s\n", event)
		return
	}

	l.log.WithLevel(parseLevel(level)).
		Str("event", event).
		Fields(payload).
		Send()
	l.lastWrite = time.Now()
}

// Close flushes and releases the file handle.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	return l.file.Close()
}

func parseLevel(level string) zerolog.Level {
	switch level {
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// failsafeWriter reports write failures to stderr instead of propagating
// them into the request path.
type failsafeWriter struct {
	file *os.File
}

func (w failsafeWriter) Write(p []byte) (int, error) {
	n, err := w.file.Write(p)
	if err != nil {
		fmt.Fprintf(os.Stderr, "telemetry: write failed: %v\n", err)
	}
	// Swallow the error: telemetry must never fail the caller.
	return n, nil
}
