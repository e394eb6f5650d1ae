package logger

import (
	"context"
	"log/slog"
	"time"

	"github.com/getsentry/sentry-go"
	slogmulti "github.com/samber/slog-multi"
	slogsentry "github.com/samber/slog-sentry/v2"
	"gopkg.in/natefinch/lumberjack.v2"
)

type slogLogger struct {
	l     *slog.Logger
	level Level
}

var slogLevels = [...]slog.Level{
	LevelDebug: slog.LevelDebug,
	LevelInfo:  slog.LevelInfo,
	LevelWarn:  slog.LevelWarn,
	LevelError: slog.LevelError,
}

// NewSlogLogger fans records out to the console, the optional rotated file
// and, for errors, Sentry.
func NewSlogLogger(cfg Config) Logger {
	opts := &slog.HandlerOptions{Level: slogLevels[cfg.Level], AddSource: cfg.AddSource}

	sinks := make([]slog.Handler, 0, 3)
	if cfg.Format == "text" {
		sinks = append(sinks, slog.NewTextHandler(cfg.output(), opts))
	} else {
		sinks = append(sinks, slog.NewJSONHandler(cfg.output(), opts))
	}
	if cfg.File != "" {
		sinks = append(sinks, slog.NewJSONHandler(rotatingFile(cfg.File), opts))
	}
	if cfg.SentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{Dsn: cfg.SentryDSN, Environment: cfg.Environment})
		if err == nil {
			sinks = append(sinks, slogsentry.Option{Level: slog.LevelError}.NewSentryHandler())
		}
	}

	handler := sinks[0]
	if len(sinks) > 1 {
		handler = slogmulti.Fanout(sinks...)
	}
	return &slogLogger{l: slog.New(handler), level: cfg.Level}
}

func rotatingFile(path string) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    100, // MB
		MaxBackups: 30,
		MaxAge:     90, // days
	}
}

// Flush blocks until queued Sentry events are sent or two seconds pass.
func Flush() {
	sentry.Flush(2 * time.Second)
}

func attrs(fields []Field) []any {
	out := make([]any, 0, 2*len(fields))
	for _, f := range fields {
		out = append(out, f.Key, f.Value)
	}
	return out
}

func (s *slogLogger) Debug(msg string, fields ...Field) { s.l.Debug(msg, attrs(fields)...) }
func (s *slogLogger) Info(msg string, fields ...Field)  { s.l.Info(msg, attrs(fields)...) }
func (s *slogLogger) Warn(msg string, fields ...Field)  { s.l.Warn(msg, attrs(fields)...) }
func (s *slogLogger) Error(msg string, fields ...Field) { s.l.Error(msg, attrs(fields)...) }
func (s *slogLogger) Level() Level                      { return s.level }

func (s *slogLogger) With(fields ...Field) Logger {
	return &slogLogger{l: s.l.With(attrs(fields)...), level: s.level}
}

func (s *slogLogger) WithContext(ctx context.Context) Logger {
	if fields := contextFields(ctx); len(fields) > 0 {
		return s.With(fields...)
	}
	return s
}
