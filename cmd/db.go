package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"odootest/internal/app"
	"odootest/internal/cli"
	"odootest/internal/database"
	"odootest/internal/lens"
)

func newDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Manage the test database and its dumps",
		Long: `Dumps are kept under <dumpPath>/<databaseName>/. The standard, standalone
and upgrade flows create them on first use; cleanup deletes them.

When dumpMirror is configured, push and pull copy dumps to and from
s3://<bucket>/<databaseName>/.`,
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "dump <name>",
			Short: "Dump the test database",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runAction(cmd, lens.ActionDumpTestDatabase, args[0])
			},
		},
		&cobra.Command{
			Use:       "cleanup <standard|standalone|upgrade>",
			Short:     "Delete the dumps of a category and drop the test database",
			Args:      cobra.ExactArgs(1),
			ValidArgs: []string{"standard", "standalone", "upgrade"},
			RunE: func(cmd *cobra.Command, args []string) error {
				return runAction(cmd, lens.ActionCleanupTest, args[0])
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List the local dumps",
			Args:  cobra.NoArgs,
			RunE:  runDBList,
		},
		newMirrorCmd("push <name>", "Upload a dump to the mirror", "Pushing", (*database.Mirror).Push),
		newMirrorCmd("pull <name>", "Download a dump from the mirror", "Pulling", (*database.Mirror).Pull),
		&cobra.Command{
			Use:   "remote",
			Short: "List the dumps in the mirror",
			Args:  cobra.NoArgs,
			RunE:  runDBRemote,
		},
	)
	return cmd
}

func runDBList(cmd *cobra.Command, args []string) error {
	application, err := newApplication(cmd, app.ModeCLI)
	if err != nil {
		return err
	}
	dumps, err := application.Services().Database.Manager().ListDumps()
	if err != nil {
		return err
	}
	return printer(cmd).Print(dumps, cli.DumpTable(dumps))
}

type mirrorOp func(m *database.Mirror, ctx context.Context, mgr *database.Manager, name string) error

func newMirrorCmd(use, short, verb string, op mirrorOp) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := newApplication(cmd, app.ModeCLI)
			if err != nil {
				return err
			}
			services := application.Services()
			mirror, err := services.Mirror()
			if err != nil {
				return err
			}
			mgr := services.Database.Manager()
			err = cli.WithSpinner(cmd.ErrOrStderr(), quiet(), fmt.Sprintf("%s %s", verb, args[0]), func() error {
				return op(mirror, cmd.Context(), mgr, args[0])
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("%s %s done", verb, args[0])))
			return nil
		},
	}
}

func runDBRemote(cmd *cobra.Command, args []string) error {
	application, err := newApplication(cmd, app.ModeCLI)
	if err != nil {
		return err
	}
	services := application.Services()
	mirror, err := services.Mirror()
	if err != nil {
		return err
	}
	var dumps []database.RemoteDump
	err = cli.WithSpinner(cmd.ErrOrStderr(), quiet(), "Listing mirrored dumps", func() error {
		dumps, err = mirror.List(cmd.Context(), services.Database.Name())
		return err
	})
	if err != nil {
		return err
	}
	return printer(cmd).Print(dumps, cli.RemoteDumpTable(dumps))
}

// quiet disables the spinner for machine readable output.
func quiet() bool {
	return silentFlag || cli.OutputFormat(outputFlag) != cli.OutputFormatTable
}
