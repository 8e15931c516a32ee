// Package logging builds the zap loggers used across srcpaths.
//
// Logs always go to stderr or another caller-provided writer: stdout carries
// the path listing or the MCP stream.
package logging

import (
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DefaultLevel is used for empty or unknown level names.
const DefaultLevel = zapcore.WarnLevel

// ParseLevel converts a level name to a zap level, falling back to
// DefaultLevel.
func ParseLevel(name string) zapcore.Level {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return DefaultLevel
	}
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return DefaultLevel
	}
	return level
}

// New returns a console logger writing to w at the named level.
// A nil writer logs to stderr.
func New(level string, w io.Writer) *zap.Logger {
	if w == nil {
		w = os.Stderr
	}

	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.TimeKey = ""
	encoderConfig.CallerKey = ""

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.AddSync(w),
		zap.NewAtomicLevelAt(ParseLevel(level)),
	)
	return zap.New(core).Named("srcpaths")
}

// OrNop returns logger, or a no-op logger when it is nil.
func OrNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
