// Package observability provides logger construction for rulebench.
package observability

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the process-wide logger, initialized by the CLI before any
// pipeline stage runs.
var Logger = zap.NewNop()

// InitLogger configures the CLI logger. Verbose lowers the level to debug.
func InitLogger(verbose bool) {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	cfg.DisableStacktrace = true

	logger, err := cfg.Build()
	if err != nil {
		// zap.NewDevelopmentConfig only fails on invalid sink paths, which we
		// do not set; keep the nop logger rather than crashing the CLI.
		return
	}
	Logger = logger
}
