// Package logging builds the file-backed zap logger used by walrus.
// The terminal belongs to the TUI, so log output goes to ~/.walrus/logs/walrus.log.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/diogo/walrus/internal/config"
)

// FileName is the log file created inside the log directory
const FileName = "walrus.log"

// Options controls logger construction
type Options struct {
	// Dir overrides the log directory (defaults to config.GetLogDir)
	Dir string
	// Verbose lowers the level from info to debug
	Verbose bool
}

// New builds a JSON file logger. The returned cleanup flushes and closes it.
func New(opts Options) (*zap.Logger, func(), error) {
	dir := opts.Dir
	if dir == "" {
		var err error
		dir, err = config.GetLogDir()
		if err != nil {
			return nil, nil, err
		}
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{filepath.Join(dir, FileName)}
	cfg.ErrorOutputPaths = []string{filepath.Join(dir, FileName)}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.Sampling = nil
	if opts.Verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return logger, func() { _ = logger.Sync() }, nil
}

// NewOrNop returns a file logger, or a no-op logger when the file cannot be opened
func NewOrNop(opts Options) (*zap.Logger, func()) {
	logger, cleanup, err := New(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: logging disabled: %v\n", err)
		return zap.NewNop(), func() {}
	}
	return logger, cleanup
}
