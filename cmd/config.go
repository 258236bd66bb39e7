package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"odootest/internal/app"
	"odootest/internal/cli"
	"odootest/internal/config"
	"odootest/internal/session"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show, check and change the configuration",
		Long: `The configuration is layered: built-in defaults, then the user file
~/.config/odoo-test/config.yaml, then the project file
<workspace>/.odoo-test/config.yaml, then ODOO_TEST_* environment variables
(also read from <workspace>/.env).`,
	}

	var scope string
	set := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Store a value in the user or project file",
		Long: `Stores a value in the settings file of --scope. List and map keys take YAML
flow syntax.

Examples:
  odoo-test config set databaseName my_test_db
  odoo-test config set upgradeFrom saas-17.2
  odoo-test config set addonsPath "[odoo/addons, enterprise]"
  odoo-test config set standardTestLayout "[[run, cleanup], [runDump, dump, cleanup]]"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := loadStore(cmd)
			if err != nil {
				return err
			}
			key := config.Key(args[0])
			value, err := config.ParseValue(key, args[1])
			if err != nil {
				return err
			}
			if err := store.Set(key, value, config.Scope(scope)); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("%s updated in %s configuration", key, scope)))
			return nil
		},
	}
	set.Flags().StringVar(&scope, "scope", string(config.ScopeProject), "Settings file to write (user|project)")

	var save bool
	detect := &cobra.Command{
		Use:   "detect",
		Short: "Detect odoo-bin, addons and upgrade paths in the workspace folders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if save {
				return runAction(cmd, session.ActionResetPaths)
			}
			store, err := loadStore(cmd)
			if err != nil {
				return err
			}
			d, ok := config.Detect(store.Config().WorkspaceFolders)
			if !ok {
				return fmt.Errorf("no odoo-bin found in %v", store.Config().WorkspaceFolders)
			}
			detected := config.GetDefaultConfig()
			detected.OdooBinPath = d.OdooBinPath
			detected.AddonsPath = d.AddonsPath
			detected.UpgradePath = d.UpgradePath
			detected.ConfigPath = d.ConfigPath
			detected.DumpPath = d.DumpPath
			t := cli.Table{Headers: []string{"key", "value"}}
			for _, row := range cli.ConfigTable(detected).Rows {
				switch config.Key(row[0]) {
				case config.KeyOdooBinPath, config.KeyAddonsPath, config.KeyUpgradePath, config.KeyConfigPath, config.KeyDumpPath:
					t.Rows = append(t.Rows, row)
				}
			}
			return printer(cmd).Print(d, t)
		},
	}
	detect.Flags().BoolVar(&save, "save", false, "Store the detected paths in the project file")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective configuration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				store, err := loadStore(cmd)
				if err != nil {
					return err
				}
				c := store.Config()
				return printer(cmd).Print(c, cli.ConfigTable(c))
			},
		},
		&cobra.Command{
			Use:   "get <key>",
			Short: "Print one configuration value",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				store, err := loadStore(cmd)
				if err != nil {
					return err
				}
				v, err := store.Get(config.Key(args[0]))
				if err != nil {
					return err
				}
				switch cli.OutputFormat(outputFlag) {
				case cli.OutputFormatTable, cli.OutputFormatPlain:
					fmt.Fprintln(cmd.OutOrStdout(), cli.FormatValue(v))
					return nil
				}
				return printer(cmd).Print(v, cli.Table{})
			},
		},
		&cobra.Command{
			Use:   "check",
			Short: "Validate the effective configuration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				store, err := loadStore(cmd)
				if err != nil {
					return err
				}
				errs := store.Check()
				if !errs.HasErrors() {
					fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Configuration is valid"))
					return nil
				}
				if err := printer(cmd).Print(errs, cli.ValidationTable(errs)); err != nil {
					return err
				}
				return errs
			},
		},
		set,
		detect,
	)
	return cmd
}

// loadStore reads the layered settings without wiring the services.
func loadStore(cmd *cobra.Command) (*config.Store, error) {
	app.InitLogging(newAppConfig(cmd, app.ModeCLI))
	paths, err := config.DefaultPaths(workspaceFlag)
	if err != nil {
		return nil, err
	}
	return config.NewStore(paths)
}
