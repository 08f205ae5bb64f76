package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"inventory-analytics/logger"
)

type levelRangeHandler struct {
	handler  slog.Handler
	minLevel slog.Level
	maxLevel slog.Level
}

func newLevelRangeHandler(handler slog.Handler, minLevel slog.Level, maxLevel slog.Level) slog.Handler {
	return &levelRangeHandler{handler: handler, minLevel: minLevel, maxLevel: maxLevel}
}

func (handler *levelRangeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	if level < handler.minLevel || level > handler.maxLevel {
		return false
	}
	return handler.handler.Enabled(ctx, level)
}

func (handler *levelRangeHandler) Handle(ctx context.Context, record slog.Record) error {
	if record.Level < handler.minLevel || record.Level > handler.maxLevel {
		return nil
	}
	return handler.handler.Handle(ctx, record)
}

func (handler *levelRangeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &levelRangeHandler{
		handler:  handler.handler.WithAttrs(attrs),
		minLevel: handler.minLevel,
		maxLevel: handler.maxLevel,
	}
}

func (handler *levelRangeHandler) WithGroup(name string) slog.Handler {
	return &levelRangeHandler{
		handler:  handler.handler.WithGroup(name),
		minLevel: handler.minLevel,
		maxLevel: handler.maxLevel,
	}
}

// fanoutHandler sends each record to every handler that accepts its level.
type fanoutHandler struct {
	handlers []slog.Handler
}

func newFanoutHandler(handlers ...slog.Handler) slog.Handler {
	return &fanoutHandler{handlers: handlers}
}

func (handler *fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range handler.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (handler *fanoutHandler) Handle(ctx context.Context, record slog.Record) error {
	var errs []error
	for _, h := range handler.handlers {
		if !h.Enabled(ctx, record.Level) {
			continue
		}
		if err := h.Handle(ctx, record.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (handler *fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(handler.handlers))
	for i, h := range handler.handlers {
		handlers[i] = h.WithAttrs(attrs)
	}
	return &fanoutHandler{handlers: handlers}
}

func (handler *fanoutHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(handler.handlers))
	for i, h := range handler.handlers {
		handlers[i] = h.WithGroup(name)
	}
	return &fanoutHandler{handlers: handlers}
}

// NewLogger builds the app logger: text on stdout up to Info, text on stderr
// for Warn and above, and JSON into logDir when one is configured. The
// returned closer is nil when no log file was opened.
func NewLogger(level string, logDir string) (*slog.Logger, io.Closer, error) {
	return newLoggerTo(os.Stdout, os.Stderr, logger.ParseLogLevel(level), logDir)
}

func newLoggerTo(stdout io.Writer, stderr io.Writer, minLevel slog.Level, logDir string) (*slog.Logger, io.Closer, error) {
	removeTime := func(groups []string, a slog.Attr) slog.Attr {
		if a.Key == slog.TimeKey && len(groups) == 0 {
			return slog.Attr{}
		}
		return a
	}

	stdoutTextHandler := newLevelRangeHandler(
		slog.NewTextHandler(stdout, &slog.HandlerOptions{
			Level:       minLevel,
			ReplaceAttr: removeTime,
		}),
		minLevel,
		slog.LevelInfo,
	)
	stderrTextHandler := newLevelRangeHandler(
		slog.NewTextHandler(stderr, &slog.HandlerOptions{
			Level:       slog.LevelWarn,
			ReplaceAttr: removeTime,
		}),
		max(minLevel, slog.LevelWarn),
		slog.LevelError,
	)
	handlers := []slog.Handler{stdoutTextHandler, stderrTextHandler}

	var closer io.Closer
	if logDir != "" {
		jsonLogFile, err := os.OpenFile(filepath.Join(logDir, time.Now().Format("2006-01-02_15-04-05")+".json.log"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o0640)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open JSON log file: %w", err)
		}
		handlers = append(handlers, newLevelRangeHandler(
			slog.NewJSONHandler(jsonLogFile, &slog.HandlerOptions{Level: minLevel}),
			minLevel,
			slog.LevelError,
		))
		closer = jsonLogFile
	}

	return slog.New(newFanoutHandler(handlers...)), closer, nil
}
