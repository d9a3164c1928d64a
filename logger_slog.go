package nanitws

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// slogLogger adapts a *slog.Logger to the logger interface. Printf-style calls are
// rendered before they reach the handler; fields become slog attributes.
type slogLogger struct {
	l *slog.Logger
}

// NewSlogLogger wraps l. A nil l falls back to slog.Default().
func NewSlogLogger(l *slog.Logger) Logger {
	if l == nil {
		l = slog.Default()
	}
	return &slogLogger{l: l}
}

// NewDiscardLogger returns a logger that drops everything.
func NewDiscardLogger() Logger {
	return &slogLogger{l: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func (s *slogLogger) WithField(key string, value any) logger {
	return &slogLogger{l: s.l.With(key, value)}
}

func (s *slogLogger) log(level slog.Level, msg string) {
	ctx := context.Background()
	if !s.l.Enabled(ctx, level) {
		return
	}
	s.l.Log(ctx, level, strings.TrimSuffix(msg, "\n"))
}

func (s *slogLogger) Debug(args ...any) { s.log(slog.LevelDebug, fmt.Sprint(args...)) }

func (s *slogLogger) Debugf(format string, args ...any) {
	s.log(slog.LevelDebug, fmt.Sprintf(format, args...))
}

func (s *slogLogger) Debugln(args ...any) { s.log(slog.LevelDebug, fmt.Sprintln(args...)) }

func (s *slogLogger) Info(args ...any) { s.log(slog.LevelInfo, fmt.Sprint(args...)) }

func (s *slogLogger) Infof(format string, args ...any) {
	s.log(slog.LevelInfo, fmt.Sprintf(format, args...))
}

func (s *slogLogger) Infoln(args ...any) { s.log(slog.LevelInfo, fmt.Sprintln(args...)) }

func (s *slogLogger) Warn(args ...any) { s.log(slog.LevelWarn, fmt.Sprint(args...)) }

func (s *slogLogger) Warnf(format string, args ...any) {
	s.log(slog.LevelWarn, fmt.Sprintf(format, args...))
}

func (s *slogLogger) Warnln(args ...any) { s.log(slog.LevelWarn, fmt.Sprintln(args...)) }

func (s *slogLogger) Error(args ...any) { s.log(slog.LevelError, fmt.Sprint(args...)) }

func (s *slogLogger) Errorf(format string, args ...any) {
	s.log(slog.LevelError, fmt.Sprintf(format, args...))
}

func (s *slogLogger) Errorln(args ...any) { s.log(slog.LevelError, fmt.Sprintln(args...)) }
