package app

import (
	"io"

	"odootest/internal/cli"
	"odootest/internal/config"
	"odootest/internal/lens"
)

// Mode selects where notifications and application output go.
type Mode string

const (
	// ModeCLI runs one command; notifications go to Out.
	ModeCLI Mode = "cli"
	// ModeInteractive runs the REPL on the terminal.
	ModeInteractive Mode = "interactive"
	// ModeServe speaks MCP on stdout, so notifications are forwarded to the
	// editor and everything else goes to ErrOut.
	ModeServe Mode = "serve"
)

// Config holds the application configuration
type Config struct {
	// Logging
	Debug     bool
	Silent    bool
	LogFormat string

	// Workspace is the folder the project settings are read from.
	Workspace string

	// Style of the standard test lenses.
	Style lens.Style

	Mode Mode

	// Format of the REPL listings.
	Format cli.OutputFormat

	// Version is reported to MCP clients.
	Version string

	Out    io.Writer
	ErrOut io.Writer

	// Store, when set, is used instead of loading the workspace settings.
	Store *config.Store
}

// NewConfig creates a new application configuration
func NewConfig(mode Mode, debug, silent bool, workspace string) *Config {
	return &Config{
		Debug:     debug,
		Silent:    silent,
		LogFormat: "text",
		Workspace: workspace,
		Style:     lens.StyleLayout,
		Mode:      mode,
		Format:    cli.OutputFormatTable,
		Version:   "dev",
	}
}
