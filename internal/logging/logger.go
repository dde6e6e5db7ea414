// Package logging provides the leveled console logger. Verbosity gates what
// reaches the console: 0 is silent, 1 shows progress, above 1 adds errors.
// The optional log file always receives every line.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/backmassage/tiff2video/internal/config"
	"github.com/backmassage/tiff2video/internal/term"
)

// Logger provides leveled, optionally colored logging with optional file sink.
type Logger struct {
	mu        sync.Mutex
	out       io.Writer
	verbosity int
	color     bool
	file      *os.File
}

// NewLogger initializes colors from cfg and optionally opens cfg.LogFile.
// Console output goes to stdout. Call Close() when done.
func NewLogger(cfg *config.Config) (*Logger, error) {
	l := &Logger{
		out:       os.Stdout,
		verbosity: cfg.Verbosity,
		color:     term.Configure(cfg.ColorMode, os.Stdout),
	}

	if cfg.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err != nil {
			return nil, err
		}
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, err
		}
		l.file = f
	}
	return l, nil
}

// New returns an uncolored Logger writing to w at the given verbosity.
// Used by tests and by callers that capture output.
func New(w io.Writer, verbosity int) *Logger {
	return &Logger{out: w, verbosity: verbosity}
}

// Discard returns a Logger that drops everything.
func Discard() *Logger {
	return New(io.Discard, 0)
}

// Close closes the log file if one was opened.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		err := l.file.Close()
		l.file = nil
		return err
	}
	return nil
}

// line writes one message. A nil Logger drops it.
func (l *Logger) line(minVerbosity int, level, color, text string) {
	if l == nil {
		return
	}
	ts := time.Now().Format("2006-01-02 15:04:05")
	plain := ts + " [" + level + "] " + text + "\n"

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.verbosity >= minVerbosity {
		if l.color && color != "" {
			_, _ = io.WriteString(l.out, ts+" "+color+"["+level+"]"+term.NC+" "+text+"\n")
		} else {
			_, _ = io.WriteString(l.out, plain)
		}
	}
	if l.file != nil {
		_, _ = io.WriteString(l.file, plain)
	}
}

// Info logs progress at INFO level (blue). Shown at verbosity >= 1.
func (l *Logger) Info(format string, args ...interface{}) {
	l.line(config.VerbosityInfo, "INFO", term.Blue, fmt.Sprintf(format, args...))
}

// Success logs a completed output at SUCCESS level (green). Shown at verbosity >= 1.
func (l *Logger) Success(format string, args ...interface{}) {
	l.line(config.VerbosityInfo, "SUCCESS", term.Green, fmt.Sprintf(format, args...))
}

// Warn logs at WARN level (yellow). Shown at verbosity >= 1.
func (l *Logger) Warn(format string, args ...interface{}) {
	l.line(config.VerbosityInfo, "WARN", term.Yellow, fmt.Sprintf(format, args...))
}

// Error logs at ERROR level (red). Shown at verbosity >= 2.
func (l *Logger) Error(format string, args ...interface{}) {
	l.line(config.VerbosityError, "ERROR", term.Red, fmt.Sprintf(format, args...))
}

// Debug logs at DEBUG level (cyan). Shown at verbosity >= 3.
func (l *Logger) Debug(format string, args ...interface{}) {
	l.line(config.VerbosityDebug, "DEBUG", term.Cyan, fmt.Sprintf(format, args...))
}
