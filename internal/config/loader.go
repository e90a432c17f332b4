package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"wikisync/pkg/logging"

	"gopkg.in/yaml.v3"
)

const (
	userConfigDir  = ".config/wikisync"
	configFileName = "wikisync.yaml"

	// EnvPrefix prefixes every environment variable override.
	EnvPrefix = "WIKISYNC_"
)

// lookupEnv is replaced in tests.
var lookupEnv = os.LookupEnv

// GetDefaultConfigPath returns ~/.config/wikisync.
func GetDefaultConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine user config directory: %w", err)
	}
	return filepath.Join(homeDir, userConfigDir), nil
}

// ConfigFilePath returns the path of the config file inside configDir.
func ConfigFilePath(configDir string) string {
	return filepath.Join(configDir, configFileName)
}

// LoadConfig builds the configuration from defaults, the wikisync.yaml file
// in configDir and WIKISYNC_* environment variables, in increasing order of
// precedence. A missing file is not an error.
func LoadConfig(configDir string) (Config, error) {
	config := GetDefaultConfig(configDir)
	configFilePath := ConfigFilePath(configDir)

	data, err := os.ReadFile(configFilePath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		logging.Info("Config", "No %s found at %s, using defaults", configFileName, configFilePath)
	case err != nil:
		return Config{}, fmt.Errorf("error reading config from %s: %w", configFilePath, err)
	default:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&config); err != nil && !errors.Is(err, io.EOF) {
			return Config{}, fmt.Errorf("error loading config from %s: %w", configFilePath, err)
		}
		logging.Info("Config", "Loaded configuration from %s", configFilePath)
	}

	if err := applyEnv(&config); err != nil {
		return Config{}, err
	}

	// Relative paths are relative to the config directory, not the
	// working directory of a cron job.
	for _, p := range []*string{&config.WatermarkFile, &config.MetricsTextfile, &config.Fixtures.Dir} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(configDir, *p)
		}
	}
	return config, nil
}

// envBinding maps one environment variable onto a config field.
type envBinding struct {
	name string
	set  func(c *Config, value string) error
}

func stringVar(field func(c *Config) *string) func(*Config, string) error {
	return func(c *Config, v string) error {
		*field(c) = v
		return nil
	}
}

var envBindings = []envBinding{
	{"SOURCE_API", stringVar(func(c *Config) *string { return &c.Source.API })},
	{"SOURCE_USERNAME", stringVar(func(c *Config) *string { return &c.Source.Username })},
	{"SOURCE_PASSWORD", stringVar(func(c *Config) *string { return &c.Source.Password })},
	{"SOURCE_OAUTH_TOKEN", stringVar(func(c *Config) *string { return &c.Source.OAuthToken })},
	{"TARGET_API", stringVar(func(c *Config) *string { return &c.Target.API })},
	{"TARGET_USERNAME", stringVar(func(c *Config) *string { return &c.Target.Username })},
	{"TARGET_PASSWORD", stringVar(func(c *Config) *string { return &c.Target.Password })},
	{"TARGET_OAUTH_TOKEN", stringVar(func(c *Config) *string { return &c.Target.OAuthToken })},
	{"PROXY", stringVar(func(c *Config) *string { return &c.Proxy })},
	{"USER_AGENT", stringVar(func(c *Config) *string { return &c.UserAgent })},
	{"EXCLUDE_CATEGORY", stringVar(func(c *Config) *string { return &c.ExcludeCategory })},
	{"WATERMARK_FILE", stringVar(func(c *Config) *string { return &c.WatermarkFile })},
	{"IMPORT_SUMMARY", stringVar(func(c *Config) *string { return &c.Import.Summary })},
	{"IMPORT_INTERWIKI_PREFIX", stringVar(func(c *Config) *string { return &c.Import.InterwikiPrefix })},
	{"MOVE_REASON", stringVar(func(c *Config) *string { return &c.Move.Reason })},
	{"METRICS_TEXTFILE", stringVar(func(c *Config) *string { return &c.MetricsTextfile })},
	{"FIXTURES_DIR", stringVar(func(c *Config) *string { return &c.Fixtures.Dir })},
	{"FIXTURES_MODE", stringVar(func(c *Config) *string { return &c.Fixtures.Mode })},
	{"TIMEOUT", func(c *Config, v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		c.Timeout = d
		return nil
	}},
	{"EXPORT_BATCH_SIZE", func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		c.Export.BatchSize = n
		return nil
	}},
	{"IMPORT_TAGS", func(c *Config, v string) error {
		c.Import.Tags = splitList(v)
		return nil
	}},
	{"IMPORT_ASSIGN_KNOWN_USERS", func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		c.Import.AssignKnownUsers = b
		return nil
	}},
	{"MOVE_NO_REDIRECT", func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		c.Move.NoRedirect = b
		return nil
	}},
}

// EnvNames returns the names of all recognised environment variables.
func EnvNames() []string {
	names := make([]string, 0, len(envBindings))
	for _, b := range envBindings {
		names = append(names, EnvPrefix+b.name)
	}
	return names
}

func applyEnv(c *Config) error {
	var errs ValidationErrors
	for _, b := range envBindings {
		name := EnvPrefix + b.name
		v, ok := lookupEnv(name)
		if !ok {
			continue
		}
		if err := b.set(c, v); err != nil {
			errs.Add(name, fmt.Sprintf("cannot parse %q: %v", v, err), v)
			continue
		}
		logging.Debug("Config", "Applied %s from environment", name)
	}
	if errs.HasErrors() {
		return errs
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
