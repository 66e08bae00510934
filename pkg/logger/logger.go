// Package logger содержит тонкую обёртку над log/slog с форматированными методами,
// которыми пользуется весь сервис.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger - минимальный интерфейс логгера, который передаётся во все слои.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(err error, format string, args ...any)
	With(args ...any) Logger
}

// SlogLogger реализует Logger поверх slog.Logger.
type SlogLogger struct {
	log *slog.Logger
}

// NewSlogLogger создаёт JSON-логгер в stdout. Уровень берётся из LOG_LEVEL.
func NewSlogLogger() *SlogLogger {
	return New(os.Stdout, ParseLevel(os.Getenv("LOG_LEVEL")))
}

// New создаёт логгер, пишущий JSON в w с минимальным уровнем level.
func New(w io.Writer, level slog.Level) *SlogLogger {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return &SlogLogger{log: slog.New(h)}
}

// Discard возвращает логгер, который ничего не пишет. Используется в тестах.
func Discard() *SlogLogger {
	return New(io.Discard, slog.LevelError+1)
}

func ParseLevel(lvl string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(lvl)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (l *SlogLogger) Debugf(format string, args ...any) {
	l.logf(slog.LevelDebug, format, args...)
}

func (l *SlogLogger) Infof(format string, args ...any) {
	l.logf(slog.LevelInfo, format, args...)
}

func (l *SlogLogger) Warnf(format string, args ...any) {
	l.logf(slog.LevelWarn, format, args...)
}

// Errorf пишет сообщение уровня error, прикладывая текст ошибки отдельным полем.
func (l *SlogLogger) Errorf(err error, format string, args ...any) {
	if !l.log.Enabled(context.Background(), slog.LevelError) {
		return
	}
	attrs := []any{}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	l.log.Error(fmt.Sprintf(format, args...), attrs...)
}

// With возвращает логгер с постоянными полями.
func (l *SlogLogger) With(args ...any) Logger {
	return &SlogLogger{log: l.log.With(args...)}
}

func (l *SlogLogger) logf(level slog.Level, format string, args ...any) {
	if !l.log.Enabled(context.Background(), level) {
		return
	}
	l.log.Log(context.Background(), level, fmt.Sprintf(format, args...))
}
