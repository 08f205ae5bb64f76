package logger

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
)

func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warning", "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Logger wraps slog with helpers that tag entries with the request they
// belong to.
type Logger struct {
	*slog.Logger
}

func New(log *slog.Logger) Logger {
	if log == nil {
		log = slog.Default()
	}
	return Logger{Logger: log}
}

func requestAttrs(req *http.Request) []any {
	if req == nil {
		return nil
	}
	return []any{
		slog.String("ip", req.RemoteAddr),
		slog.String("method", req.Method),
		slog.String("path", req.URL.Path),
	}
}

func (log Logger) httpLog(req *http.Request, level slog.Level, message string, args ...any) {
	ctx := context.Background()
	if req != nil {
		ctx = req.Context()
	}
	log.Log(ctx, level, message, append(requestAttrs(req), args...)...)
}

func (log Logger) HTTPDebug(req *http.Request, message string, args ...any) {
	log.httpLog(req, slog.LevelDebug, message, args...)
}

func (log Logger) HTTPInfo(req *http.Request, message string, args ...any) {
	log.httpLog(req, slog.LevelInfo, message, args...)
}

func (log Logger) HTTPWarning(req *http.Request, message string, args ...any) {
	log.httpLog(req, slog.LevelWarn, message, args...)
}

func (log Logger) HTTPError(req *http.Request, message string, args ...any) {
	log.httpLog(req, slog.LevelError, message, args...)
}
