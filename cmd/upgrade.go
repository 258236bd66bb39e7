package cmd

import (
	"strconv"

	"github.com/spf13/cobra"

	"odootest/internal/lens"
)

func newUpgradeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upgrade",
		Short: "Prepare, run and check upgrade scenarios",
		Long: `Upgrade scenarios check out the previous branch of every repository, build
a database there, then upgrade it with the current code.

  prepare  check out <branch>, install the module, prepare the upgrade test
           data and save the upgrade dumps
  apply    restore the upgrade dump and upgrade all modules
  check    run the check step of an upgrade test class

<branch> is a version branch such as saas-17.2 or 17.0, or "current" to keep
the checked out branches.`,
	}

	var noPrepare bool
	prepare := &cobra.Command{
		Use:   "prepare <module> <branch>",
		Short: "Check out the branch and prepare the upgrade dumps",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAction(cmd, lens.ActionPrepareUpgrade, args[0], args[1], strconv.FormatBool(!noPrepare))
		},
	}
	prepare.Flags().BoolVar(&noPrepare, "no-prepare", false, "Skip the prepare step of upgrade tests")

	var applyNoPrepare bool
	apply := &cobra.Command{
		Use:   "apply <module> <branch>",
		Short: "Restore the upgrade dump and upgrade all modules",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAction(cmd, lens.ActionUpgradeDatabase, args[0], args[1], strconv.FormatBool(!applyNoPrepare))
		},
	}
	apply.Flags().BoolVar(&applyNoPrepare, "no-prepare", false, "Restore the dump taken before the upgrade test data was prepared")

	check := &cobra.Command{
		Use:   "check <module> <class> <file>",
		Short: "Run the check step of an upgrade test",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAction(cmd, lens.ActionCheckUpgradeTest, args...)
		},
	}

	cmd.AddCommand(prepare, apply, check)
	return cmd
}
