package cmd

import (
	"github.com/spf13/cobra"

	"odootest/internal/session"
)

func newHotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hot",
		Short: "Hot test session",
		Long: `The hot test session keeps an Odoo server running with the hot_test addon
installed. Tests are then triggered in the running server instead of a new
process.

Triggering tests and toggling SQL logging need the session state of the
process that started it: use the runHotTest and toggleHotTestLogSql actions
from 'odoo-test interactive' or an editor connected to 'odoo-test serve'.`,
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "start",
		Short: "Start the hot test session and wait for the server to exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAction(cmd, session.ActionStartHotTest)
		},
	})
	return cmd
}
