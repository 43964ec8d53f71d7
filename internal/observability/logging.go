// Package observability builds the zap loggers every component writes to.
// Data-quality diagnostics such as empty areas, unknown areas and dangling
// exits go through them; there is no other telemetry.
package observability

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cory-johannsen/mudmap/internal/config"
)

// ServiceName is the "service" field of every entry.
const ServiceName = "mudmap"

var formats = map[string]func() zap.Config{
	"json":    zap.NewProductionConfig,
	"console": zap.NewDevelopmentConfig,
}

// NewLogger builds the root logger. Output names a file, "stdout" or
// "stderr"; internal zap errors go to the same place so a raw-mode terminal
// stays clean.
//
// Precondition: cfg passed config validation.
// Postcondition: returns a logger or an error naming the bad setting.
func NewLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parsing log level %q: %w", cfg.Level, err)
	}
	base, ok := formats[cfg.Format]
	if !ok {
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	zc := base()
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if cfg.Output != "" {
		zc.OutputPaths = []string{cfg.Output}
		zc.ErrorOutputPaths = []string{cfg.Output}
	}
	zc.InitialFields = map[string]any{"service": ServiceName}

	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return logger, nil
}

// Component names a child logger after a subsystem such as "scene".
func Component(logger *zap.Logger, name string) *zap.Logger {
	return logger.Named(name)
}
