// Package logging builds the zap loggers of the ccpp commands.
package logging

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// RunIDKey is the field holding the identifier of one command invocation.
const RunIDKey = "run"

// Config returns the production configuration, at debug level if verbose.
// Logs go to stderr so generated sources may be written to stdout.
func Config(verbose bool) zap.Config {
	config := zap.NewProductionConfig()
	if verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	config.Encoding = "console"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.OutputPaths = []string{"stderr"}
	config.DisableStacktrace = !verbose
	return config
}

// New returns a logger for the named command tagged with a fresh run id.
func New(command string, verbose bool) (*zap.Logger, error) {
	logger, err := Config(verbose).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return WithRun(logger.Named(command)), nil
}

// WithRun tags every entry of log with a new run id.
func WithRun(log *zap.Logger) *zap.Logger {
	return log.With(zap.String(RunIDKey, uuid.NewString()))
}
