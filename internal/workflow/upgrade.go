package workflow

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"odootest/internal/config"
	"odootest/internal/notify"
	"odootest/internal/version"
	"odootest/pkg/logging"
)

// PrepareTestTags selects the prepare step of every upgrade test.
const PrepareTestTags = "upgrade.test_prepare"

var moduleTestPath = regexp.MustCompile(`(/[^/]+/tests/.*\.py)`)

// PrepareUpgrade builds the database the upgrade starts from: every git
// repository of the addons and upgrade paths is checked out on upgradeFrom,
// module is installed and dumped, and with withPrepare the upgrade test data
// is prepared and dumped as well. The original branches are restored on
// every exit path.
func (e *Engine) PrepareUpgrade(ctx context.Context, module, upgradeFrom string, withPrepare bool) error {
	originals := map[string]string{}
	targets := map[string]string{}
	if upgradeFrom != config.UpgradeFromCurrent {
		if err := e.resolveCheckouts(ctx, upgradeFrom, originals, targets); err != nil {
			return err
		}
	}

	defer func() {
		if len(originals) == 0 {
			return
		}
		if failed := e.git.CheckoutAll(context.WithoutCancel(ctx), originals); len(failed) > 0 {
			logging.Warn(subsystem, "Could not restore the branches of %s", strings.Join(failed, ", "))
		}
	}()

	if len(targets) > 0 {
		if failed := e.git.CheckoutAll(ctx, targets); len(failed) > 0 {
			return fmt.Errorf("checkout of %s failed", strings.Join(failed, ", "))
		}
	}

	dumpName := UpgradeDumpName(upgradeFrom)
	dumpExists := e.db.DumpExists(dumpName)
	if err := e.db.Drop(ctx); err != nil {
		return err
	}
	if dumpExists {
		if err := e.db.Create(ctx); err != nil {
			return err
		}
		if err := e.db.Restore(ctx, dumpName); err != nil {
			return err
		}
	}
	if !e.installed(ctx, module) {
		e.sink.Info(notify.TopicInstall, "Install module: "+module)
		if !e.installModule(ctx, module) {
			return fmt.Errorf("%w: install %s", ErrLaunch, module)
		}
		if dumpExists {
			e.db.DeleteDump(dumpName)
		}
		if err := e.db.Dump(ctx, dumpName); err != nil {
			return err
		}
	}

	if !withPrepare {
		return nil
	}

	e.sink.Info(notify.TopicTest, "Prepare upgrade test data")
	if err := e.runUpgradeTest(ctx, PrepareTestTags); err != nil {
		return err
	}
	prepareName := UpgradePrepareDumpName(upgradeFrom)
	e.db.DeleteDump(prepareName)
	return e.db.Dump(ctx, prepareName)
}

// resolveCheckouts fills targets with the branch to check out per repository
// and originals with the branch or commit to return to. Nothing is checked
// out when any repository has uncommitted changes.
func (e *Engine) resolveCheckouts(ctx context.Context, upgradeFrom string, originals, targets map[string]string) error {
	if e.git == nil {
		return fmt.Errorf("git is not available")
	}
	c := e.cfg.Config()
	roots := slices.Concat(c.AddonsPath, c.UpgradePath)

	for _, repo := range e.git.RepoPaths(ctx, roots) {
		repoName := filepath.Base(repo)
		target := upgradeFrom
		if !e.git.HasLocalBranch(ctx, repo, upgradeFrom) {
			derived := upgradeFrom
			if v, ok := version.Parse(repoName); ok {
				derived = v.BranchName()
			}
			if derived == upgradeFrom || !e.git.HasLocalBranch(ctx, repo, derived) {
				e.sink.Warn(fmt.Sprintf("Ignore invalid git local branch: %s for %s", derived, repoName))
				continue
			}
			target = derived
		}

		current := e.git.Current(ctx, repo)
		if current == "" {
			continue
		}
		clean, err := e.git.IsClean(ctx, repo)
		if err != nil {
			return err
		}
		if !clean {
			e.sink.Error(fmt.Sprintf("Git repo %s has uncommitted changes", repoName))
			return abort("git repo %s has uncommitted changes", repoName)
		}
		originals[repo] = current
		targets[repo] = target
	}

	if len(targets) == 0 {
		e.sink.Error(fmt.Sprintf("No git valid localbranches repo found in %s", strings.Join(roots, ", ")))
		return abort("no repository has a local branch for %s", upgradeFrom)
	}
	return nil
}

// UpgradeDatabase restores the dump prepared for branch and upgrades all
// modules.
func (e *Engine) UpgradeDatabase(ctx context.Context, module, branch string, withPrepare bool) error {
	if !e.installed(ctx, module) {
		e.sink.Warn(fmt.Sprintf("Module %s is not installed", module))
		return abort("module %s is not installed", module)
	}
	dumpName := UpgradeDumpName(branch)
	if withPrepare {
		dumpName = UpgradePrepareDumpName(branch)
	}
	if !e.db.DumpExists(dumpName) {
		e.sink.Error("Upgrade dump file not found: " + dumpName)
		return abort("upgrade dump %s not found", dumpName)
	}
	if err := e.restore(ctx, dumpName); err != nil {
		return err
	}

	e.sink.Info(notify.TopicTest, "Upgrade all modules")
	return e.runUpgrade(ctx)
}

// CheckUpgradeTest runs the check step of an upgrade test class defined in
// filePath.
func (e *Engine) CheckUpgradeTest(ctx context.Context, module, class, filePath string) error {
	if !e.installed(ctx, module) {
		e.sink.Error(fmt.Sprintf("Module %s is not installed", module))
		return abort("module %s is not installed", module)
	}
	r := e.reg.IsUpgradeTestPrepared(ctx, e.db.Name(), module, class)
	if r.QueryFailed() {
		logging.Warn(subsystem, "Treating upgrade test data of %s as missing: %v", class, r.Err)
	}
	if !r.Found {
		e.sink.Warn(fmt.Sprintf("Upgrade test data for %s is not prepared in the database", class))
		return abort("upgrade test data for %s is not prepared", class)
	}

	e.sink.Info(notify.TopicTest, "Run upgrade check: "+class)
	return e.runUpgradeTest(ctx, CheckTestTags(filePath, class))
}

// CheckTestTags selects the check step of class. The test module path is
// taken from filePath in slash form, e.g. /sale/tests/test_upgrade.py.
func CheckTestTags(filePath, class string) string {
	var sub string
	if m := moduleTestPath.FindStringSubmatch(filepath.ToSlash(filePath)); m != nil {
		sub = m[1]
	}
	return fmt.Sprintf("upgrade%s:%s.test_check", sub, class)
}
