package workflow

import (
	"context"
	"fmt"

	"odootest/internal/notify"
)

// Cleanup categories.
const (
	CleanupStandard   = "standard"
	CleanupStandalone = "standalone"
	CleanupUpgrade    = "upgrade"
)

// CleanupCategories lists the valid Cleanup categories.
var CleanupCategories = []string{CleanupStandard, CleanupStandalone, CleanupUpgrade}

// UpgradeDumpName is the dump of the database with the module installed on
// the branch upgraded from.
func UpgradeDumpName(branch string) string {
	return fmt.Sprintf("upgrade__%s.dump", branch)
}

// UpgradePrepareDumpName is the dump taken after the upgrade test data was
// prepared.
func UpgradePrepareDumpName(branch string) string {
	return fmt.Sprintf("upgrade_prepare__%s.dump", branch)
}

// CleanupDumps returns the artifacts owned by category.
func CleanupDumps(category, upgradeFrom string) []string {
	if category == CleanupUpgrade {
		return []string{UpgradeDumpName(upgradeFrom), UpgradePrepareDumpName(upgradeFrom)}
	}
	return []string{category + ".dump"}
}

// Cleanup deletes the dumps of category ("standard", "standalone" or
// "upgrade") and drops the database. It returns the number of deleted dumps.
func (e *Engine) Cleanup(ctx context.Context, category string) (int, error) {
	e.sink.Info(notify.TopicGeneral, fmt.Sprintf("Cleanup %s tests", category))

	deleted := 0
	for _, name := range CleanupDumps(category, e.cfg.Config().UpgradeFrom) {
		deleted += e.db.DeleteDump(name)
	}
	return deleted, e.db.Drop(ctx)
}

// DumpTestDatabase replaces the named dump with the current database.
func (e *Engine) DumpTestDatabase(ctx context.Context, dumpName string) error {
	if !e.db.DatabaseExists(ctx) {
		e.sink.Error(fmt.Sprintf("Database %s does not exist", e.db.Name()))
		return abort("database %s does not exist", e.db.Name())
	}
	e.db.DeleteDump(dumpName)
	return e.db.Dump(ctx, dumpName)
}
