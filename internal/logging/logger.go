// Package logging provides zap logger helpers for the enricher.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a zap.Logger configured for development or production.
func New(development bool) (*zap.Logger, error) {
	if development {
		cfg := zap.NewDevelopmentConfig()
		cfg.EncoderConfig.TimeKey = "ts"
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		logger, err := cfg.Build()
		if err != nil {
			return nil, fmt.Errorf("build dev logger: %w", err)
		}
		return logger, nil
	}
	cfg := zap.NewProductionConfig()
	cfg.DisableStacktrace = true
	cfg.EncoderConfig.TimeKey = "ts"
	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build prod logger: %w", err)
	}
	return logger, nil
}

// OrNop returns logger, or a no-op logger when it is nil.
func OrNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

// Company returns the fields attached to every per-company log line.
func Company(id int64, name, url string) []zap.Field {
	return []zap.Field{
		zap.Int64("company_id", id),
		zap.String("company_name", name),
		zap.String("url", url),
	}
}

// Batch returns the fields identifying a roster slice.
func Batch(number, start, end int) []zap.Field {
	return []zap.Field{
		zap.Int("batch", number),
		zap.Int("start", start),
		zap.Int("end", end),
	}
}
