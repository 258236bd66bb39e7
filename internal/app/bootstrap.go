package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"odootest/internal/config"
	"odootest/pkg/logging"
)

// Application bundles the configuration and the wired services of one
// odoo-test process.
//
// Example usage:
//
//	cfg := app.NewConfig(app.ModeServe, false, false, ".")
//	application, err := app.NewApplication(cfg)
//	if err != nil {
//	    return fmt.Errorf("failed to create application: %w", err)
//	}
//	return application.Run(ctx)
type Application struct {
	config   *Config
	services *Services
}

// NewApplication configures logging, loads the layered settings of the
// workspace and wires the services.
func NewApplication(cfg *Config) (*Application, error) {
	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}
	if cfg.ErrOut == nil {
		cfg.ErrOut = os.Stderr
	}
	InitLogging(cfg)

	store := cfg.Store
	if store == nil {
		paths, err := config.DefaultPaths(cfg.Workspace)
		if err != nil {
			return nil, err
		}
		store, err = config.NewStore(paths)
		if err != nil {
			logging.Error("Bootstrap", err, "Failed to load odoo-test configuration")
			return nil, fmt.Errorf("failed to load odoo-test configuration: %w", err)
		}
		logging.Debug("Bootstrap", "Loaded configuration for workspace %s", paths.Workspace)
	}

	services, err := InitializeServices(cfg, store)
	if err != nil {
		logging.Error("Bootstrap", err, "Failed to initialize services")
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	return &Application{config: cfg, services: services}, nil
}

// InitLogging sets up pkg/logging for cfg. Logs never go to stdout: it
// carries command output, and the MCP transport when serving.
func InitLogging(cfg *Config) {
	level := logging.LevelInfo
	if cfg.Debug {
		level = logging.LevelDebug
	}
	var out io.Writer = cfg.ErrOut
	if out == nil {
		out = os.Stderr
	}
	if cfg.Silent {
		out = io.Discard
	}
	if cfg.LogFormat == "json" || cfg.Mode == ModeServe {
		logging.InitForJSON(level, out)
		return
	}
	logging.InitForCLI(level, out)
}

// Config returns the application configuration.
func (a *Application) Config() *Config {
	return a.config
}

// Services returns the wired services.
func (a *Application) Services() *Services {
	return a.services
}

// Run executes the long-lived mode of the application. ModeCLI has none;
// commands use Services directly.
func (a *Application) Run(ctx context.Context) error {
	switch a.config.Mode {
	case ModeServe:
		return runServe(ctx, a.config, a.services)
	case ModeInteractive:
		return runInteractive(ctx, a.config, a.services)
	}
	return fmt.Errorf("mode %q has no run loop", a.config.Mode)
}
