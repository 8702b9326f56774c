// Package logging builds the zap loggers used across the harness.
// Every pipeline stage logs under its own category, which becomes the zap
// logger name (e.g. "harness.loader").
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category represents a log category/system
type Category string

const (
	CategoryBoot      Category = "boot"      // CLI startup, config resolution
	CategoryLoader    Category = "loader"    // Task file ingestion
	CategorySimulator Category = "simulator" // Response simulation
	CategoryWriter    Category = "writer"    // Result emission
	CategoryEval      Category = "eval"      // Repeated-run evaluation
	CategoryScoring   Category = "scoring"   // Offline scoring
	CategoryValidate  Category = "validate"  // Task file validation
)

// Options mirrors config.LoggingConfig to avoid an import cycle.
type Options struct {
	Level   string // debug, info, warn, error
	Format  string // json, console
	Verbose bool   // forces debug level
	// OutputPaths defaults to stderr.
	OutputPaths []string
}

// New builds the root logger named "harness".
func New(opts Options) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()

	level := strings.TrimSpace(opts.Level)
	if opts.Verbose {
		level = "debug"
	}
	if level != "" {
		lvl, err := zap.ParseAtomicLevel(strings.ToLower(level))
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		cfg.Level = lvl
	}

	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "", "json":
	case "console", "text":
		cfg.Encoding = "console"
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	default:
		return nil, fmt.Errorf("invalid log format %q (expected json|console)", opts.Format)
	}

	if len(opts.OutputPaths) > 0 {
		cfg.OutputPaths = opts.OutputPaths
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger.Named("harness"), nil
}

// For returns the category logger under base. A nil base yields a no-op logger.
func For(base *zap.Logger, category Category) *zap.Logger {
	if base == nil {
		return zap.NewNop()
	}
	return base.Named(string(category))
}
