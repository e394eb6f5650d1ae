// Package logger is a small structured logging facade with slog and zap
// backends. Handlers and services log through Ctx so every line carries the
// request and user ids.
package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"time"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = map[string]Level{
	"debug":   LevelDebug,
	"info":    LevelInfo,
	"warn":    LevelWarn,
	"warning": LevelWarn,
	"error":   LevelError,
}

// ParseLevel is case-insensitive and falls back to info.
func ParseLevel(s string) Level {
	if l, ok := levelNames[strings.ToLower(s)]; ok {
		return l
	}
	return LevelInfo
}

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	}
	return "info"
}

// Field is one structured key/value pair.
type Field struct {
	Key   string
	Value any
}

func String(key, value string) Field                 { return Field{key, value} }
func Int(key string, value int) Field                { return Field{key, value} }
func Int64(key string, value int64) Field            { return Field{key, value} }
func Bool(key string, value bool) Field              { return Field{key, value} }
func Duration(key string, value time.Duration) Field { return Field{key, value.String()} }

// Err records err under "error"; a nil error logs as null.
func Err(err error) Field {
	if err == nil {
		return Field{Key: "error"}
	}
	return Field{"error", err.Error()}
}

type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)

	With(fields ...Field) Logger
	// WithContext adds request_id and user_id when ctx carries them
	WithContext(ctx context.Context) Logger

	Level() Level
}

// Config selects the backend and its sinks.
type Config struct {
	Level   Level
	Format  string // "json" or "text"
	Backend string // "slog" or "zap"

	// File adds a size-rotated JSON sink
	File string
	// SentryDSN forwards error records to Sentry (slog backend)
	SentryDSN   string
	Environment string

	AddSource bool
	// Output replaces stdout for the console sink
	Output io.Writer
}

func New(cfg Config) Logger {
	if cfg.Backend == "zap" {
		return NewZapLogger(cfg)
	}
	return NewSlogLogger(cfg)
}

func (c Config) output() io.Writer {
	if c.Output != nil {
		return c.Output
	}
	return os.Stdout
}

var defaultLogger Logger

func SetDefault(l Logger) { defaultLogger = l }

// Default returns the installed logger, or an info-level JSON logger on
// stdout when none was set.
func Default() Logger {
	if defaultLogger == nil {
		defaultLogger = NewSlogLogger(Config{Level: LevelInfo, Format: "json"})
	}
	return defaultLogger
}

func Debug(msg string, fields ...Field) { Default().Debug(msg, fields...) }
func Info(msg string, fields ...Field)  { Default().Info(msg, fields...) }
func Warn(msg string, fields ...Field)  { Default().Warn(msg, fields...) }
func Error(msg string, fields ...Field) { Default().Error(msg, fields...) }
