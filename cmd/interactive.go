package cmd

import (
	"github.com/spf13/cobra"

	"odootest/internal/app"
)

func newInteractiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "interactive",
		Aliases: []string{"repl"},
		Short:   "Run actions from an interactive prompt",
		Long: `Starts a prompt that runs actions in one session, so that rerun, the run
mode, the button layer and the hot test session carry over between lines.

  lenses <file>   list the lenses of a file
  click <n>       run the n-th lens of the last listing
  <action> args   run an action, see 'actions'
  rerun           run the last test or upgrade action again`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := newApplication(cmd, app.ModeInteractive)
			if err != nil {
				return err
			}
			return application.Run(cmd.Context())
		},
	}
}
