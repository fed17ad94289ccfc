package main

import (
	"go.uber.org/zap"
)

// newLogger builds the logger handed to the game library. Without --verbose
// only warnings (such as dropped dataset rows) are printed.
func newLogger(cfg *Config) (*zap.Logger, error) {
	if cfg.verbose {
		return zap.NewDevelopment()
	}

	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(zap.WarnLevel)

	return zc.Build()
}
