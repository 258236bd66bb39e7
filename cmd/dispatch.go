package cmd

import (
	"github.com/spf13/cobra"

	"odootest/internal/app"
	"odootest/internal/cli"
	"odootest/internal/session"
	"odootest/internal/workflow"
)

// runAction dispatches one action in a fresh session. Outside the table
// format the execution record is printed. A skipped or aborted action is
// an error for the exit code.
func runAction(cmd *cobra.Command, id string, args ...string) error {
	application, err := newApplication(cmd, app.ModeCLI)
	if err != nil {
		return err
	}
	exec, err := application.Services().Dispatcher.Dispatch(cmd.Context(), id, args)
	if err != nil {
		return err
	}
	if cli.OutputFormat(outputFlag) != cli.OutputFormatTable {
		if err := printer(cmd).Print(exec, cli.HistoryTable([]workflow.Execution{exec})); err != nil {
			return err
		}
	}
	switch exec.Status {
	case workflow.ExecutionAborted, workflow.ExecutionSkipped:
		return &statusError{exec: exec}
	}
	return nil
}

// newDispatchCmd runs any action of the table, e.g. the action of a lens.
func newDispatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dispatch <action> [args...]",
		Short: "Run an action by id",
		Long: `Runs one action of the action table with positional arguments, the way
clicking a lens does. See 'odoo-test actions' for the ids and their usages.

Example:
  odoo-test dispatch runTest sale TestSaleOrder test_confirm`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAction(cmd, args[0], args[1:]...)
		},
	}
}

func newActionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "actions",
		Short: "List the actions and their arguments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			actions := session.Actions()
			return printer(cmd).Print(actions, cli.ActionTable(actions))
		},
	}
}
