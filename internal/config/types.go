package config

import "time"

// Config is the top-level configuration structure for wikisync.
type Config struct {
	Source WikiConfig `yaml:"source"`
	Target WikiConfig `yaml:"target"`

	Proxy     string        `yaml:"proxy,omitempty"`     // Proxy URL for both wikis (default: HTTP(S)_PROXY)
	UserAgent string        `yaml:"userAgent,omitempty"` // User agent sent with every request
	Timeout   time.Duration `yaml:"timeout,omitempty"`   // Per-request timeout (default: 60s)

	ExcludeCategory string `yaml:"excludeCategory,omitempty"` // Pages in this source category are never synced
	WatermarkFile   string `yaml:"watermarkFile,omitempty"`   // Relative paths resolve against the config directory

	Export ExportConfig `yaml:"export"`
	Import ImportConfig `yaml:"import"`
	Move   MoveConfig   `yaml:"move"`

	MetricsTextfile string         `yaml:"metricsTextfile,omitempty"` // node-exporter textfile to write after each run
	Fixtures        FixturesConfig `yaml:"fixtures"`
}

// WikiConfig identifies one wiki and how to authenticate to it.
type WikiConfig struct {
	API        string `yaml:"api"`                  // URL of api.php
	Username   string `yaml:"username,omitempty"`   // Bot password user, e.g. User@SyncBot
	Password   string `yaml:"password,omitempty"`   // Bot password
	OAuthToken string `yaml:"oauthToken,omitempty"` // Owner-only OAuth 2 access token; replaces login
}

// HasLogin reports whether username/password credentials are configured.
func (w WikiConfig) HasLogin() bool {
	return w.Username != ""
}

// ExportConfig controls how pages are exported from the source.
type ExportConfig struct {
	BatchSize int `yaml:"batchSize,omitempty"` // Titles per export request (default: 50)
}

// ImportConfig controls the action=import request on the target.
type ImportConfig struct {
	Summary          string   `yaml:"summary,omitempty"`         // Log comment template
	Tags             []string `yaml:"tags,omitempty"`            // Change tags for the import log entry
	InterwikiPrefix  string   `yaml:"interwikiPrefix,omitempty"` // Prefix for imported usernames
	AssignKnownUsers bool     `yaml:"assignKnownUsers"`          // Attribute revisions to existing local users (default: true)
}

// MoveConfig controls how source moves are replayed on the target.
type MoveConfig struct {
	Reason     string `yaml:"reason,omitempty"` // Move log comment
	NoRedirect bool   `yaml:"noRedirect"`       // Suppress redirects on the target (default: true)
}

// FixturesConfig selects the record/replay transport.
type FixturesConfig struct {
	Dir  string `yaml:"dir,omitempty"`  // Directory holding recorded responses
	Mode string `yaml:"mode,omitempty"` // record, replay or empty for live traffic
}
