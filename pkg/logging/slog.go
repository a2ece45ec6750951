// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-smpc.
//
// go-smpc is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// SlogAdapter wraps a slog.Logger to implement the Logger interface
type SlogAdapter struct {
	logger *slog.Logger
}

var _ Logger = (*SlogAdapter)(nil)

// SlogConfig configures the slog adapter
type SlogConfig struct {
	// Level is the minimum log level to output
	Level Level

	// Format selects the handler: "json" or "text" (default)
	Format string

	// Writer receives log output. Defaults to os.Stderr.
	Writer io.Writer
}

// NewSlogAdapter creates a new slog adapter
func NewSlogAdapter(config *SlogConfig) *SlogAdapter {
	if config == nil {
		config = &SlogConfig{Level: LevelInfo}
	}
	w := config.Writer
	if w == nil {
		w = os.Stderr
	}

	opts := &slog.HandlerOptions{Level: levelToSlogLevel(config.Level)}
	var handler slog.Handler
	if strings.EqualFold(config.Format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return &SlogAdapter{logger: slog.New(handler)}
}

// Debug logs a debug message
func (l *SlogAdapter) Debug(msg string, fields ...Field) {
	l.log(slog.LevelDebug, msg, fields...)
}

// Info logs an informational message
func (l *SlogAdapter) Info(msg string, fields ...Field) {
	l.log(slog.LevelInfo, msg, fields...)
}

// Warn logs a warning message
func (l *SlogAdapter) Warn(msg string, fields ...Field) {
	l.log(slog.LevelWarn, msg, fields...)
}

// Error logs an error message
func (l *SlogAdapter) Error(msg string, fields ...Field) {
	l.log(slog.LevelError, msg, fields...)
}

// With creates a child logger with the given fields
func (l *SlogAdapter) With(fields ...Field) Logger {
	args := make([]any, 0, len(fields))
	for _, f := range fields {
		args = append(args, fieldToAttr(f))
	}
	return &SlogAdapter{logger: l.logger.With(args...)}
}

func (l *SlogAdapter) log(level slog.Level, msg string, fields ...Field) {
	attrs := make([]slog.Attr, 0, len(fields))
	for _, f := range fields {
		attrs = append(attrs, fieldToAttr(f))
	}
	l.logger.LogAttrs(context.Background(), level, msg, attrs...)
}

// fieldToAttr converts a Field to slog.Attr
func fieldToAttr(field Field) slog.Attr {
	switch v := field.Value.(type) {
	case string:
		return slog.String(field.Key, v)
	case int:
		return slog.Int(field.Key, v)
	case bool:
		return slog.Bool(field.Key, v)
	default:
		return slog.Any(field.Key, v)
	}
}

// levelToSlogLevel converts our Level to slog.Level
func levelToSlogLevel(level Level) slog.Level {
	switch level {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
