package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"odootest/internal/app"
	"odootest/internal/cli"
	"odootest/internal/config"
	"odootest/internal/lens"
	"odootest/internal/workflow"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (command failed, invalid arguments).
	ExitCodeError = 1
	// ExitCodeConfig indicates the configuration could not be loaded or is invalid.
	ExitCodeConfig = 2
)

// Global flags.
var (
	debugFlag     bool
	silentFlag    bool
	logFormatFlag string
	workspaceFlag string
	outputFlag    string
	styleFlag     string
)

// rootCmd represents the base command for the odoo-test application.
var rootCmd = &cobra.Command{
	Use:   "odoo-test",
	Short: "Run Odoo tests and upgrades against a scratch database",
	Long: `odoo-test runs Odoo standard tests, standalone tests and upgrade tests
against a dedicated test database. It installs and updates modules, keeps dump
snapshots to speed up reruns, checks out the previous branches for upgrade
scenarios and drives a hot test session.

Editors integrate through 'odoo-test serve' (an MCP server on stdio) and
terminals through 'odoo-test interactive'.`,
	// SilenceUsage prevents Cobra from printing the usage message on errors that are handled by the application.
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := cli.ValidateOutputFormat(outputFlag); err != nil {
			return err
		}
		if _, err := lens.ParseStyle(styleFlag); err != nil {
			return err
		}
		if logFormatFlag != "text" && logFormatFlag != "json" {
			return fmt.Errorf("unsupported log format %q, expected text or json", logFormatFlag)
		}
		return nil
	},
}

// SetVersion sets the version for the root command.
// This function is typically called from the main package to inject the application version at build time.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute is the main entry point for the CLI application.
// This function is called by main.main().
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "odoo-test version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(getExitCode(err))
	}
}

// getExitCode determines the appropriate exit code based on the error type.
func getExitCode(err error) int {
	var validation config.ValidationErrors
	if errors.As(err, &validation) {
		return ExitCodeConfig
	}

	var loadErr *config.LoadError
	if errors.As(err, &loadErr) {
		return ExitCodeConfig
	}

	if errors.Is(err, config.ErrUnknownKey) {
		return ExitCodeConfig
	}

	return ExitCodeError
}

// statusError reports a dispatched action that did not complete.
type statusError struct {
	exec workflow.Execution
}

func (e *statusError) Error() string {
	return fmt.Sprintf("%s %s", e.exec.Action, e.exec.Status)
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVar(&debugFlag, "debug", false, "Enable debug logging")
	pf.BoolVar(&silentFlag, "silent", false, "Disable all logging")
	pf.StringVar(&logFormatFlag, "log-format", "text", "Log format (text|json)")
	pf.StringVarP(&workspaceFlag, "workspace", "w", ".", "Workspace folder holding .odoo-test/config.yaml")
	pf.StringVarP(&outputFlag, "output", "o", string(cli.OutputFormatTable), "Output format (table|plain|json|yaml)")
	pf.StringVar(&styleFlag, "style", string(lens.StyleLayout), "Standard test lens style (layout|run-mode)")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newTestCmd())
	rootCmd.AddCommand(newHotCmd())
	rootCmd.AddCommand(newUpgradeCmd())
	rootCmd.AddCommand(newDBCmd())
	rootCmd.AddCommand(newLensesCmd())
	rootCmd.AddCommand(newActionsCmd())
	rootCmd.AddCommand(newDispatchCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newInteractiveCmd())
}

// newAppConfig builds the application configuration from the global flags.
func newAppConfig(cmd *cobra.Command, mode app.Mode) *app.Config {
	cfg := app.NewConfig(mode, debugFlag, silentFlag, workspaceFlag)
	cfg.LogFormat = logFormatFlag
	cfg.Style = lens.Style(styleFlag)
	if cfg.Style == "" {
		cfg.Style = lens.StyleLayout
	}
	cfg.Format = cli.OutputFormat(outputFlag)
	cfg.Version = GetVersion()
	cfg.Out = cmd.OutOrStdout()
	cfg.ErrOut = cmd.ErrOrStderr()
	return cfg
}

// newApplication wires the services for a command.
func newApplication(cmd *cobra.Command, mode app.Mode) (*app.Application, error) {
	return app.NewApplication(newAppConfig(cmd, mode))
}

func printer(cmd *cobra.Command) cli.Printer {
	return cli.Printer{Out: cmd.OutOrStdout(), Format: cli.OutputFormat(outputFlag)}
}
