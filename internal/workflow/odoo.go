package workflow

import (
	"context"
	"fmt"

	"odootest/internal/launcher"
	"odootest/pkg/logging"
)

func (e *Engine) settings(extraAddons ...string) launcher.Settings {
	c := e.cfg.Config()
	return launcher.Settings{
		OdooBinPath:      c.OdooBinPath,
		DatabaseName:     e.db.Name(),
		ConfigPath:       c.ConfigPath,
		AddonsPath:       c.AddonsPath,
		UpgradePath:      c.UpgradePath,
		WorkspaceFolders: c.WorkspaceFolders,
		PythonPath:       c.PythonPath,
		ExtraAddonsPath:  extraAddons,
	}
}

func (e *Engine) build(kind launcher.Kind, extraAddons ...string) (launcher.LaunchConfig, error) {
	cfg, err := launcher.BuildConfig(kind, e.settings(extraAddons...))
	if err != nil {
		e.sink.Error(fmt.Sprintf("Cannot build the %s launch configuration: %v", kind, err))
		return launcher.LaunchConfig{}, fmt.Errorf("%w: %v", ErrLaunch, err)
	}
	return cfg, nil
}

// launch runs cfg to termination. failure is shown when it cannot start.
func (e *Engine) launch(ctx context.Context, cfg launcher.LaunchConfig, failure string) error {
	if !e.launcher.Launch(ctx, cfg) {
		e.sink.Error(failure)
		return fmt.Errorf("%w: %s", ErrLaunch, cfg.Name)
	}
	return nil
}

// installModule installs module with --stop-after-init and reports whether
// the run started and terminated.
func (e *Engine) installModule(ctx context.Context, module string, extraAddons ...string) bool {
	base, err := e.build(launcher.KindStandard, extraAddons...)
	if err != nil {
		return false
	}
	cfg := base.With("Install:"+module, "-i", module, "--stop-after-init")
	if !e.launcher.Launch(ctx, cfg) {
		e.sink.Error(fmt.Sprintf("Failed to install module %s for database(%s).", module, e.db.Name()))
		return false
	}
	logging.Debug(subsystem, "Install run of %s terminated", module)
	return true
}

// runStandardTest runs the tests selected by tags. install and update name
// a module to install or update in the same run.
func (e *Engine) runStandardTest(ctx context.Context, tags, install, update string) error {
	base, err := e.build(launcher.KindStandard)
	if err != nil {
		return err
	}
	args := []string{"--test-tags", tags, "--stop-after-init"}
	if install != "" {
		args = append(args, "-i", install)
	}
	if update != "" {
		args = append(args, "-u", update)
	}
	return e.launch(ctx, base.With("", args...), "Failed to start Odoo tests. Please check the odoo-test configuration.")
}

func (e *Engine) runStandalone(ctx context.Context, tag string) error {
	base, err := e.build(launcher.KindStandalone)
	if err != nil {
		return err
	}
	return e.launch(ctx, base.With("", "--standalone", tag), "Failed to start Odoo standalone test. Please check the odoo-test configuration.")
}

func (e *Engine) runUpgrade(ctx context.Context) error {
	base, err := e.build(launcher.KindUpgrade)
	if err != nil {
		return err
	}
	return e.launch(ctx, base.With("", "-u", "all", "--stop-after-init"), "Failed to start Odoo upgrade. Please check the odoo-test configuration.")
}

func (e *Engine) runUpgradeTest(ctx context.Context, tags string) error {
	base, err := e.build(launcher.KindUpgrade)
	if err != nil {
		return err
	}
	return e.launch(ctx, base.With("", "--test-tags", tags, "--stop-after-init"), "Failed to start Odoo upgrade check. Please check the odoo-test configuration.")
}
