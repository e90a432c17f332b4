package app

import (
	"io"

	"wikisync/internal/config"
)

// Config holds the application configuration
type Config struct {
	// Debug enables debug logging
	Debug bool

	// Quiet hides progress output and info logs
	Quiet bool

	// LogFormat is "text" or "json"
	LogFormat string

	// ConfigDir is the directory holding wikisync.yaml. Empty means the
	// default ~/.config/wikisync.
	ConfigDir string

	// LogOutput receives log lines. Defaults to stderr.
	LogOutput io.Writer

	// Settings, when set, is used instead of loading the configuration
	// directory.
	Settings *config.Config
}

// NewConfig creates a new application configuration
func NewConfig(debug, quiet bool, logFormat, configDir string) *Config {
	return &Config{
		Debug:     debug,
		Quiet:     quiet,
		LogFormat: logFormat,
		ConfigDir: configDir,
	}
}
