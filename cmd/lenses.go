package cmd

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"odootest/internal/app"
	"odootest/internal/cli"
)

func newLensesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lenses <file>",
		Short: "List the lenses of a Python file",
		Long: `Prints the annotations an editor shows for a test file, an upgrade test or
an upgrade script, with the action and arguments each one runs. Pass the
action and arguments to 'odoo-test dispatch' to run one.

Nothing is listed when odooBinPath is not configured or the file is not
under an addons or upgrade path.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			application, err := newApplication(cmd, app.ModeCLI)
			if err != nil {
				return err
			}
			lenses, err := application.Services().Lenses.File(cmd.Context(), path)
			if err != nil {
				return err
			}
			return printer(cmd).Print(lenses, cli.LensTable(lenses))
		},
	}
}
