package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"wikisync/internal/config"
	"wikisync/internal/mediawiki"
	"wikisync/internal/orchestrator"
	"wikisync/internal/state"
	"wikisync/internal/template"
	"wikisync/pkg/logging"
)

// Application wires configuration, wiki clients and the watermark store
// for one command invocation.
type Application struct {
	config   *Config
	settings config.Config
	runID    string
}

// NewApplication initializes logging, assigns a run id and loads the
// configuration.
func NewApplication(cfg *Config) (*Application, error) {
	level := logging.LevelInfo
	if cfg.Debug {
		level = logging.LevelDebug
	} else if cfg.Quiet {
		level = logging.LevelWarn
	}

	var logOutput io.Writer = os.Stderr
	if cfg.LogOutput != nil {
		logOutput = cfg.LogOutput
	}
	logging.Init(level, logOutput, logging.ParseFormat(cfg.LogFormat))

	runID := uuid.NewString()
	logging.SetRunID(runID)

	var settings config.Config
	if cfg.Settings != nil {
		settings = *cfg.Settings
	} else {
		dir := cfg.ConfigDir
		if dir == "" {
			var err error
			dir, err = config.GetDefaultConfigPath()
			if err != nil {
				return nil, fmt.Errorf("failed to determine config directory: %w", err)
			}
		}

		loaded, err := config.LoadConfig(dir)
		if err != nil {
			logging.Error("Bootstrap", err, "Failed to load configuration from %s", dir)
			return nil, fmt.Errorf("failed to load configuration from %s: %w", dir, err)
		}
		settings = loaded
		logging.Debug("Bootstrap", "Loaded configuration from %s", config.ConfigFilePath(dir))
	}

	return &Application{
		config:   cfg,
		settings: settings,
		runID:    runID,
	}, nil
}

// Settings returns the loaded configuration. Commands apply flag overrides
// to it before calling Validate.
func (a *Application) Settings() *config.Config {
	return &a.settings
}

// RunID returns the identifier attached to this invocation's logs.
func (a *Application) RunID() string {
	return a.runID
}

// Quiet reports whether progress output is suppressed.
func (a *Application) Quiet() bool {
	return a.config.Quiet
}

// Validate checks the configuration. requireTarget is false for commands
// that only read the source wiki.
func (a *Application) Validate(requireTarget bool) error {
	if err := a.settings.Validate(requireTarget); err != nil {
		logging.Error("Config", err, "Configuration is invalid")
		return err
	}
	return nil
}

// WatermarkStore returns the store for the configured watermark file.
func (a *Application) WatermarkStore() *state.FileStore {
	return state.NewFileStore(a.settings.WatermarkFile)
}

// SourceClient creates the source wiki client and logs in when the source
// has credentials.
func (a *Application) SourceClient(ctx context.Context) (*mediawiki.Client, error) {
	c, err := a.newClient("source", a.settings.Source)
	if err != nil {
		return nil, err
	}
	if a.settings.Source.HasLogin() {
		if err := c.Login(ctx, a.settings.Source.Username, a.settings.Source.Password); err != nil {
			return nil, fmt.Errorf("failed to log in to source wiki: %w", err)
		}
	}
	return c, nil
}

// TargetClient creates the target wiki client. Login happens inside the
// run, right before the first write.
func (a *Application) TargetClient() (*mediawiki.Client, error) {
	return a.newClient("target", a.settings.Target)
}

func (a *Application) newClient(name string, w config.WikiConfig) (*mediawiki.Client, error) {
	transport, err := mediawiki.NewHTTPTransport(a.settings.Proxy)
	if err != nil {
		return nil, fmt.Errorf("failed to set up %s transport: %w", name, err)
	}

	mode, err := mediawiki.ParseFixtureMode(a.settings.Fixtures.Mode)
	if err != nil {
		return nil, err
	}
	if mode != mediawiki.FixtureOff {
		dir := filepath.Join(a.settings.Fixtures.Dir, name)
		ft, err := mediawiki.NewFixtureTransport(dir, mode, transport)
		if err != nil {
			return nil, fmt.Errorf("failed to set up %s fixtures: %w", name, err)
		}
		logging.Info("Bootstrap", "Using %s fixtures for %s wiki in %s", mode, name, dir)
		transport = ft
	}

	c, err := mediawiki.NewClient(mediawiki.Options{
		Name:       name,
		Endpoint:   w.API,
		UserAgent:  a.settings.UserAgent,
		OAuthToken: w.OAuthToken,
		Timeout:    a.settings.Timeout,
		Transport:  transport,
	})
	if err != nil {
		return nil, err
	}
	auth := "session"
	if c.UsesOAuth() {
		auth = "oauth"
	}
	logging.Debug("Bootstrap", "Using %s wiki at %s (%s auth)", c.Name(), c.Endpoint(), auth)
	return c, nil
}

// RunOptions select how an orchestrator is built.
type RunOptions struct {
	// WithTarget creates the target client; plan and inspect leave it out.
	WithTarget bool
	Since      string
	DryRun     bool
	Progress   orchestrator.Progress
}

// NewOrchestrator builds an orchestrator from the configuration.
func (a *Application) NewOrchestrator(ctx context.Context, opts RunOptions) (*orchestrator.Orchestrator, error) {
	summary, err := template.New(a.settings.Import.Summary)
	if err != nil {
		return nil, fmt.Errorf("invalid import summary: %w", err)
	}

	source, err := a.SourceClient(ctx)
	if err != nil {
		return nil, err
	}

	cfg := orchestrator.Config{
		Source:    source,
		Watermark: a.WatermarkStore(),
		Progress:  opts.Progress,
		Options: orchestrator.Options{
			ExcludeCategory:  a.settings.ExcludeCategory,
			ExportBatchSize:  a.settings.Export.BatchSize,
			Summary:          summary,
			Tags:             a.settings.Import.Tags,
			InterwikiPrefix:  a.settings.Import.InterwikiPrefix,
			AssignKnownUsers: a.settings.Import.AssignKnownUsers,
			MoveReason:       a.settings.Move.Reason,
			NoRedirect:       a.settings.Move.NoRedirect,
			TargetUsername:   a.settings.Target.Username,
			TargetPassword:   a.settings.Target.Password,
			Since:            opts.Since,
			DryRun:           opts.DryRun,
			SourceName:       a.settings.Source.API,
			RunID:            a.runID,
		},
	}

	if opts.WithTarget {
		target, err := a.TargetClient()
		if err != nil {
			return nil, err
		}
		cfg.Target = target
	}
	return orchestrator.New(cfg), nil
}
