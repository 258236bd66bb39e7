package lens

import (
	"path/filepath"

	"odootest/internal/symbols"
	"odootest/internal/version"
	"odootest/internal/workflow"
)

const migrateFunction = "migrate"

// UpgradeBranches returns the branches an upgrade script in a directory
// named dirVersion can be prepared from. It returns nil for master and
// for directories that are not a version.
func UpgradeBranches(dirVersion, upgradeFrom string) []string {
	v, ok := version.Parse(dirVersion)
	if !ok || v.IsMaster {
		return nil
	}
	prev, _ := v.Previous()
	from, ok := version.Parse(upgradeFrom)
	switch {
	case !ok:
		return []string{"current"}
	case prev.Compare(from) > 0:
		return []string{prev.BranchName(), upgradeFrom}
	}
	return []string{prev.BranchName()}
}

func upgradeScriptLenses(syms []symbols.Symbol, path, module, database, upgradeFrom string) []Lens {
	branches := UpgradeBranches(filepath.Base(filepath.Dir(path)), upgradeFrom)
	if len(branches) == 0 {
		return nil
	}
	var lenses []Lens
	for _, s := range syms {
		if s.Kind != symbols.KindFunction || s.Name != migrateFunction {
			continue
		}
		for _, b := range branches {
			lenses = append(lenses,
				Lens{Range: s.Range, Title: "Prepare " + b, Icon: "debug-rerun", Action: ActionPrepareUpgrade, Args: []string{module, b, "false"}},
				Lens{Range: s.Range, Title: "Upgrade", Icon: "fold-up", Action: ActionUpgradeDatabase, Args: []string{module, b, "false"}},
			)
		}
		lenses = append(lenses, cleanupLens(s.Range, database, workflow.CleanupUpgrade))
	}
	return lenses
}

func upgradeTestLenses(syms []symbols.Symbol, path, module, database, upgradeFrom string) []Lens {
	var lenses []Lens
	for _, cls := range syms {
		if cls.Kind != symbols.KindClass {
			continue
		}
		var prepare, check *symbols.Symbol
		for i := range cls.Children {
			child := &cls.Children[i]
			if child.Kind != symbols.KindMethod {
				continue
			}
			switch child.Name {
			case "prepare":
				prepare = child
			case "check":
				check = child
			}
		}

		prepareLens := func(r symbols.Range) Lens {
			return Lens{Range: r, Title: "Prepare " + upgradeFrom, Icon: "debug-rerun", Action: ActionPrepareUpgrade, Args: []string{module, upgradeFrom}}
		}
		if prepare != nil {
			lenses = append(lenses, prepareLens(prepare.Range), cleanupLens(prepare.Range, database, workflow.CleanupUpgrade))
		}
		if check != nil {
			if prepare == nil {
				lenses = append(lenses, prepareLens(check.Range))
			}
			lenses = append(lenses,
				Lens{Range: check.Range, Title: "Upgrade", Icon: "fold-up", Action: ActionUpgradeDatabase, Args: []string{module, upgradeFrom}},
				Lens{Range: check.Range, Title: "Check", Icon: "play", Action: ActionCheckUpgradeTest, Args: []string{module, cls.Name, path}},
			)
			if prepare == nil {
				lenses = append(lenses, cleanupLens(check.Range, database, workflow.CleanupUpgrade))
			}
		}
	}
	return lenses
}
