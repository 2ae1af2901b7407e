// Package logging builds the process-wide zap logger. Components receive a
// *zap.Logger through their constructors; nothing in this repository logs
// through a package-level singleton.
package logging

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options selects the encoder and minimum level.
type Options struct {
	// Env is "dev" (colored console) or "prod" (JSON lines).
	Env string
	// Level is "debug", "info", "warn" or "error".
	Level string
}

// New constructs a logger from opts. Invalid values fall back to a dev
// logger at info so a misconfigured deployment still produces output.
func New(opts Options) *zap.Logger {
	level := parseLevel(opts.Level)

	var cfg zap.Config
	if strings.EqualFold(opts.Env, "prod") {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		cfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
		cfg.DisableStacktrace = true
	}
	cfg.Level = zap.NewAtomicLevelAt(level)

	logger, err := cfg.Build()
	if err != nil {
		logger, _ = zap.NewDevelopment()
	}
	return logger
}

func parseLevel(s string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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
