package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	charmlog "github.com/charmbracelet/log"
)

// Logger is the structured logger used across the client
type Logger interface {
	Debug(msg string, keyvals ...any)
	Info(msg string, keyvals ...any)
	Warn(msg string, keyvals ...any)
	Error(msg string, keyvals ...any)
	With(keyvals ...any) Logger
}

type charmLogger struct {
	l *charmlog.Logger
}

func (c *charmLogger) Debug(msg string, keyvals ...any) { c.l.Debug(msg, keyvals...) }
func (c *charmLogger) Info(msg string, keyvals ...any) { c.l.Info(msg, keyvals...) }
func (c *charmLogger) Warn(msg string, keyvals ...any) { c.l.Warn(msg, keyvals...) }
func (c *charmLogger) Error(msg string, keyvals ...any) { c.l.Error(msg, keyvals...) }

func (c *charmLogger) With(keyvals ...any) Logger {
	return &charmLogger{l: c.l.With(keyvals...)}
}

// Config controls where and how much the logger writes
type Config struct {
	Level  string
	Dir    string    // directory for the log file when Output is nil
	Output io.Writer // overrides the log file
	Prefix string
}

var (
	mu      sync.RWMutex
	std     Logger = Discard()
	logFile *os.File
)

// New builds a logger writing to w
func New(w io.Writer, level, prefix string) Logger {
	lvl, err := charmlog.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = charmlog.InfoLevel
	}
	l := charmlog.NewWithOptions(w, charmlog.Options{
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
		Level:           lvl,
		Prefix:          prefix,
	})
	return &charmLogger{l: l}
}

// Discard returns a logger that drops everything
func Discard() Logger {
	return New(io.Discard, "error", "")
}

// Init installs the package logger. Without an explicit Output the log goes
// to <Dir>/cli-<timestamp>.log so it never interferes with the TUI; if the
// file cannot be created it falls back to stderr.
func Init(cfg Config) error {
	mu.Lock()
	defer mu.Unlock()

	if cfg.Output != nil {
		std = New(cfg.Output, cfg.Level, cfg.Prefix)
		return nil
	}

	dir := cfg.Dir
	if dir == "" {
		dir = "tmp"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		std = New(os.Stderr, cfg.Level, cfg.Prefix)
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	name := filepath.Join(dir, fmt.Sprintf("cli-%s.log", time.Now().Format("20060102-150405")))
	f, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		std = New(os.Stderr, cfg.Level, cfg.Prefix)
		return fmt.Errorf("failed to open log file: %w", err)
	}
	if logFile != nil {
		logFile.Close()
	}
	logFile = f
	std = New(f, cfg.Level, cfg.Prefix)
	return nil
}

// Get returns the package logger
func Get() Logger {
	mu.RLock()
	defer mu.RUnlock()
	return std
}

func Debug(msg string, keyvals ...any) { Get().Debug(msg, keyvals...) }
func Info(msg string, keyvals ...any) { Get().Info(msg, keyvals...) }
func Warn(msg string, keyvals ...any) { Get().Warn(msg, keyvals...) }
func Error(msg string, keyvals ...any) { Get().Error(msg, keyvals...) }

// Close closes the log file, if any
func Close() {
	mu.Lock()
	defer mu.Unlock()
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
	std = Discard()
}
