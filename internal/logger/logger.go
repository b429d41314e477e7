// Package logger builds the standalone file logger used when telemetry
// is disabled; with telemetry on, the bridged logger from the telemetry
// package replaces it.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger creates a production JSON logger writing only to file with
// configurable level ("debug", "info", "warn", "error").
// An empty logPath yields a no-op logger; an invalid level falls back
// to info.
func NewLogger(logPath, logLevel string) (*zap.SugaredLogger, error) {
	if logPath == "" {
		return zap.NewNop().Sugar(), nil
	}

	var level zap.AtomicLevel
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}

	config := zap.NewProductionConfig()
	config.Level = level
	config.OutputPaths = []string{logPath}
	config.ErrorOutputPaths = []string{logPath}
	config.EncoderConfig = zap.NewProductionEncoderConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := config.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, err
	}

	return logger.Sugar(), nil
}
