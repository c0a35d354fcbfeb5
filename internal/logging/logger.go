// Copyright (c) 2026 Econbot Team
// Econbot - Discord economy and governance bot
// This source code is licensed under the MIT license found in the LICENSE file.

// Package logging configures the process logger. Output is JSON Lines on
// stdout by default; values stored under credential-looking keys are masked.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	clog "github.com/charmbracelet/log"
	"github.com/econbot/econbot/internal/security"
)

// L is the package-level logger. Callers should use the helper functions
// below or a component logger from For.
var L = newLogger(os.Stdout, clog.InfoLevel, clog.JSONFormatter)

const masked = "***"

func newLogger(w io.Writer, level clog.Level, f clog.Formatter) *clog.Logger {
	return clog.NewWithOptions(w, clog.Options{
		ReportTimestamp: true,
		Level:           level,
		Formatter:       f,
	})
}

// Setup replaces L using the configured level and format ("json", "text"
// or "logfmt").
func Setup(w io.Writer, level, format string) error {
	lvl := clog.InfoLevel
	if level != "" {
		parsed, err := clog.ParseLevel(strings.ToLower(level))
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", level, err)
		}
		lvl = parsed
	}
	var f clog.Formatter
	switch strings.ToLower(format) {
	case "", "json":
		f = clog.JSONFormatter
	case "text":
		f = clog.TextFormatter
	case "logfmt":
		f = clog.LogfmtFormatter
	default:
		return fmt.Errorf("invalid log format %q", format)
	}
	L = newLogger(w, lvl, f)
	return nil
}

// Redact returns a copy of keyvals with credential values masked.
func Redact(keyvals []any) []any {
	out := make([]any, len(keyvals))
	copy(out, keyvals)
	for i := 0; i+1 < len(out); i += 2 {
		key, ok := out[i].(string)
		if !ok {
			continue
		}
		if security.IsSensitiveKey(key) {
			out[i+1] = masked
		}
	}
	return out
}

// Debugf logs a debug-level formatted message.
func Debugf(format string, v ...any) {
	L.Debug(fmt.Sprintf(format, v...))
}

// Infof logs an info-level formatted message.
func Infof(format string, v ...any) {
	L.Info(fmt.Sprintf(format, v...))
}

// Warnf logs a warning-level formatted message.
func Warnf(format string, v ...any) {
	L.Warn(fmt.Sprintf(format, v...))
}

// Errorf logs an error-level formatted message.
func Errorf(format string, v ...any) {
	L.Error(fmt.Sprintf(format, v...))
}

// Logger is a component logger. It resolves L on every call so Setup can
// run after component loggers were created.
type Logger struct {
	component string
	fields    []any
}

// For returns a logger tagged with component.
func For(component string) *Logger {
	return &Logger{component: component}
}

// With returns a child logger carrying extra key/value pairs.
func (l *Logger) With(keyvals ...any) *Logger {
	fields := make([]any, 0, len(l.fields)+len(keyvals))
	fields = append(fields, l.fields...)
	fields = append(fields, keyvals...)
	return &Logger{component: l.component, fields: fields}
}

func (l *Logger) kv(keyvals []any) []any {
	all := make([]any, 0, 2+len(l.fields)+len(keyvals))
	all = append(all, "component", l.component)
	all = append(all, l.fields...)
	all = append(all, keyvals...)
	return Redact(all)
}

func (l *Logger) Debug(msg string, keyvals ...any) { L.Debug(msg, l.kv(keyvals)...) }
func (l *Logger) Info(msg string, keyvals ...any)  { L.Info(msg, l.kv(keyvals)...) }
func (l *Logger) Warn(msg string, keyvals ...any)  { L.Warn(msg, l.kv(keyvals)...) }
func (l *Logger) Error(msg string, keyvals ...any) { L.Error(msg, l.kv(keyvals)...) }
