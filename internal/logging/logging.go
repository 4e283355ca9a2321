// Package logging builds the process-wide zap logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config selects level, encoding and sinks.
type Config struct {
	Level  string
	Format string // "json" or "console"
	// File, when set, adds a daily-rotated file sink. The path is used as the
	// symlink to the current file.
	File    string
	MaxAge  time.Duration
	Console io.Writer
}

// ParseLevel maps a config string to a zap level. Unknown values yield info.
func ParseLevel(l string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(l)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// New builds a logger and returns a closer for the file sink.
func New(cfg Config) (*zap.Logger, func() error, error) {
	level := ParseLevel(cfg.Level)

	console := cfg.Console
	if console == nil {
		console = os.Stdout
	}

	cores := []zapcore.Core{
		zapcore.NewCore(encoder(cfg.Format), zapcore.AddSync(console), level),
	}

	closer := func() error { return nil }
	if cfg.File != "" {
		rl, err := newRotator(cfg.File, cfg.MaxAge)
		if err != nil {
			return nil, nil, err
		}
		closer = rl.Close
		// Files are always JSON so they stay machine-readable.
		cores = append(cores, zapcore.NewCore(encoder("json"), zapcore.AddSync(rl), level))
	}

	logger := zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	return logger, closer, nil
}

func encoder(format string) zapcore.Encoder {
	if format == "console" {
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return zapcore.NewConsoleEncoder(cfg)
	}
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	return zapcore.NewJSONEncoder(cfg)
}

func newRotator(path string, maxAge time.Duration) (*rotatelogs.RotateLogs, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
	}
	if maxAge <= 0 {
		maxAge = 7 * 24 * time.Hour
	}
	ext := filepath.Ext(path)
	pattern := strings.TrimSuffix(path, ext) + ".%Y%m%d" + ext
	rl, err := rotatelogs.New(pattern,
		rotatelogs.WithLinkName(path),
		rotatelogs.WithMaxAge(maxAge),
		rotatelogs.WithRotationTime(24*time.Hour),
	)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return rl, nil
}
