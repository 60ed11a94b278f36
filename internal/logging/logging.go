// Package logging builds the zap loggers used across contractlens.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a console-encoded sugared logger. Debug enables development
// output; otherwise only warnings and errors are written.
func New(debug bool) (*zap.SugaredLogger, error) {
	if debug {
		return build(zap.NewDevelopmentConfig(), zapcore.DebugLevel)
	}
	return build(zap.NewProductionConfig(), zapcore.WarnLevel)
}

// FromLevel builds a logger for a named level such as "debug" or "warn".
func FromLevel(level string) (*zap.SugaredLogger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	if lvl <= zapcore.DebugLevel {
		return build(zap.NewDevelopmentConfig(), lvl)
	}
	return build(zap.NewProductionConfig(), lvl)
}

// Nop returns a logger that discards everything.
func Nop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

func build(cfg zap.Config, lvl zapcore.Level) (*zap.SugaredLogger, error) {
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.OutputPaths = []string{"stderr"}

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return logger.Sugar(), nil
}
