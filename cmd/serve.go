package cmd

import (
	"github.com/spf13/cobra"

	"odootest/internal/app"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve lenses and actions to an editor over MCP on stdio",
		Long: `Starts a Model Context Protocol server on stdin/stdout for an editor
extension. The editor lists the lenses of the visible files with the lenses
tool and runs them with the dispatch tool. Every action shares one session:
the busy guards, the rerun target and the lens toggles persist until the
editor disconnects.

Notifications are sent to the editor as MCP log messages. Logs are written
as JSON to stderr, together with the Odoo output. Settings changes are
applied without a restart.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := newApplication(cmd, app.ModeServe)
			if err != nil {
				return err
			}
			return application.Run(cmd.Context())
		},
	}
}
