// Copyright 2025 The fusetranslator Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package logger wraps log/slog the way the teacher's own logger package
// does: a package-level default logger, a severity-gated LevelVar, and a
// small set of printf-style helpers so call sites don't have to spell
// out slog's attribute API for a simple formatted message. Rotation is
// handled by gopkg.in/natefinch/lumberjack.v2, the same library the
// teacher wires for its own file-backed logging.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"

	"github.com/fspgo/fusetranslator/internal/config"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	programLevel   = new(slog.LevelVar)
	defaultLogger  = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: programLevel}))
)

// Format selects the slog handler's encoding.
type Format int

const (
	FormatText Format = iota
	FormatJSON
)

// Config controls where log records go and how verbose they are.
type Config struct {
	Severity   config.LogSeverity
	Format     Format
	FilePath   string // empty means stderr
	MaxSizeMB  int
	MaxBackups int
}

// Init installs a new default logger built from cfg, replacing whatever
// was installed before. Safe to call once at process startup; not
// synchronized against concurrent logging calls, the same contract the
// teacher's own init-time logger setup carries.
func Init(cfg Config) {
	programLevel.Set(severityToSlogLevel(cfg.Severity))

	var w io.Writer = os.Stderr
	if cfg.FilePath != "" {
		w = &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
		}
	}

	defaultLogger = slog.New(createHandler(cfg.Format, w, programLevel))
}

func createHandler(format Format, w io.Writer, level *slog.LevelVar) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if format == FormatJSON {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

func severityToSlogLevel(s config.LogSeverity) slog.Level {
	switch s {
	case config.TRACE, config.DEBUG:
		return slog.LevelDebug
	case config.INFO:
		return slog.LevelInfo
	case config.WARNING:
		return slog.LevelWarn
	case config.ERROR:
		return slog.LevelError
	case config.OFF:
		// Above every level the helpers log at, so nothing is emitted.
		return slog.Level(math.MaxInt)
	default:
		return slog.LevelInfo
	}
}

// Tracef logs at slog's Debug level, tagged so TRACE-vs-DEBUG intent
// survives even though slog has no native Trace level.
func Tracef(format string, args ...any) {
	defaultLogger.Debug(fmt.Sprintf(format, args...), slog.String("severity", "TRACE"))
}

// Debugf logs at Debug level.
func Debugf(format string, args ...any) {
	defaultLogger.Debug(fmt.Sprintf(format, args...))
}

// Infof logs at Info level.
func Infof(format string, args ...any) {
	defaultLogger.Info(fmt.Sprintf(format, args...))
}

// Warnf logs at Warn level.
func Warnf(format string, args ...any) {
	defaultLogger.Warn(fmt.Sprintf(format, args...))
}

// Errorf logs at Error level.
func Errorf(format string, args ...any) {
	defaultLogger.Error(fmt.Sprintf(format, args...))
}

// Default returns the current process-wide logger, for packages (such
// as corefs) that want an *slog.Logger value directly instead of the
// package-level printf helpers.
func Default() *slog.Logger {
	return defaultLogger
}
