// Package corelog wraps github.com/charmbracelet/log behind a small
// interface, adapted from compozy-compozy's pkg/logger/mod.go so the
// engine's structured logging stays in the same charmbracelet family as
// the teacher's existing bubbletea/bubbles/lipgloss TUI stack instead of
// reaching for the stdlib log package the teacher used ad hoc in
// cmd/rag/main.go.
package corelog

import (
	"io"
	"os"

	charmlog "github.com/charmbracelet/log"
)

// Logger is the structured logging surface used throughout the engine.
type Logger interface {
	Debug(msg string, keyvals ...any)
	Info(msg string, keyvals ...any)
	Warn(msg string, keyvals ...any)
	Error(msg string, keyvals ...any)
	With(keyvals ...any) Logger
}

type logger struct {
	l *charmlog.Logger
}

// Config controls verbosity and output of the default logger.
type Config struct {
	Level  charmlog.Level
	Output io.Writer
	JSON   bool
}

// DefaultConfig returns an info-level, human-readable, stderr logger.
func DefaultConfig() Config {
	return Config{Level: charmlog.InfoLevel, Output: os.Stderr}
}

// New constructs a Logger from cfg.
func New(cfg Config) Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}
	l := charmlog.NewWithOptions(cfg.Output, charmlog.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
		Level:           cfg.Level,
	})
	if cfg.JSON {
		l.SetFormatter(charmlog.JSONFormatter)
	}
	return &logger{l: l}
}

// Nop returns a logger that discards everything, used in tests.
func Nop() Logger {
	return &logger{l: charmlog.NewWithOptions(io.Discard, charmlog.Options{})}
}

func (lg *logger) Debug(msg string, keyvals ...any) { lg.l.Debug(msg, keyvals...) }
func (lg *logger) Info(msg string, keyvals ...any)  { lg.l.Info(msg, keyvals...) }
func (lg *logger) Warn(msg string, keyvals ...any)  { lg.l.Warn(msg, keyvals...) }
func (lg *logger) Error(msg string, keyvals ...any) { lg.l.Error(msg, keyvals...) }

func (lg *logger) With(keyvals ...any) Logger {
	return &logger{l: lg.l.With(keyvals...)}
}
