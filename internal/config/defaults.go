package config

import (
	"path/filepath"
	"time"
)

const (
	// DefaultTimeout bounds each HTTP request.
	DefaultTimeout = 60 * time.Second

	// DefaultBatchSize is the per-request title limit MediaWiki applies to
	// accounts without the apihighlimits right.
	DefaultBatchSize = 50

	// MaxBatchSize is the title limit for accounts with apihighlimits.
	MaxBatchSize = 500

	// DefaultMoveReason is the log comment of replayed moves.
	DefaultMoveReason = "Synchronizing page move from source wiki"

	// DefaultWatermarkFile is the watermark file name inside the config directory.
	DefaultWatermarkFile = "watermark"
)

// GetDefaultConfig returns the default configuration for a config directory.
func GetDefaultConfig(configDir string) Config {
	return Config{
		Timeout:       DefaultTimeout,
		WatermarkFile: filepath.Join(configDir, DefaultWatermarkFile),
		Export: ExportConfig{
			BatchSize: DefaultBatchSize,
		},
		Import: ImportConfig{
			AssignKnownUsers: true,
		},
		Move: MoveConfig{
			Reason:     DefaultMoveReason,
			NoRedirect: true,
		},
	}
}
