package cmd

import (
	"github.com/spf13/cobra"

	"odootest/internal/lens"
)

func newTestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test",
		Short: "Run standard and standalone tests",
		Long: `Runs Odoo tests against the test database.

  run        install the module when missing, then run the tests
  update     update the module, then run the tests
  dump       restore standard.dump (creating it on first use), then run the tests
  standalone run a @standalone test by tag`,
	}
	cmd.AddCommand(
		newStandardTestCmd("run <module> <class> [method]", "Run a test class or method", lens.ActionRunTest),
		newStandardTestCmd("update <module> <class> [method]", "Update the module, then run the test", lens.ActionRunUpdateTest),
		newStandardTestCmd("dump <module> <class> [method]", "Run the test on a database restored from standard.dump", lens.ActionRunDumpTest),
		&cobra.Command{
			Use:   "standalone <module> <tag>",
			Short: "Run a standalone test",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runAction(cmd, lens.ActionRunStandaloneTest, args...)
			},
		},
	)
	return cmd
}

func newStandardTestCmd(use, short, action string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAction(cmd, action, args...)
		},
	}
}
