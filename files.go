/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"fmt"
	"os"

	"github.com/Seednode/babybox/games/babynames"
	"go.uber.org/zap"
)

func humanReadableSize(bytes int64) string {
	const unit int64 = 1000
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := unit, 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB",
		float64(bytes)/float64(div),
		"kMGTPE"[exp])
}

// loadDataset reads --dataset if set, or the sample compiled into the binary.
func loadDataset(cfg *Config, logger *zap.Logger) (*babynames.Dataset, error) {
	if cfg.dataset == "" {
		logf(cfg, "DATA: Using built-in sample dataset")

		return babynames.LoadEmbedded(logger)
	}

	if info, err := os.Stat(cfg.dataset); err == nil {
		logf(cfg, "DATA: Reading %s (%s)", cfg.dataset, humanReadableSize(info.Size()))
	}

	return babynames.LoadFile(cfg.dataset, logger)
}
