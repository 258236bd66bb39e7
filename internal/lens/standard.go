package lens

import (
	"strings"

	"odootest/internal/config"
	"odootest/internal/symbols"
	"odootest/internal/workflow"
)

// testTarget is a class or one of its test methods a lens is attached to.
type testTarget struct {
	rng  symbols.Range
	args []string
}

// testTargets returns, per class holding at least one test* method, the
// class itself followed by each test method.
func testTargets(syms []symbols.Symbol, module string) []testTarget {
	var out []testTarget
	for _, cls := range syms {
		if cls.Kind != symbols.KindClass {
			continue
		}
		var methods []symbols.Symbol
		for _, child := range cls.Children {
			if child.Kind == symbols.KindMethod && strings.HasPrefix(child.Name, "test") {
				methods = append(methods, child)
			}
		}
		if len(methods) == 0 {
			continue
		}
		out = append(out, testTarget{rng: cls.Range, args: []string{module, cls.Name}})
		for _, m := range methods {
			out = append(out, testTarget{rng: m.Range, args: []string{module, cls.Name, m.Name}})
		}
	}
	return out
}

func layoutLenses(syms []symbols.Symbol, module, database string, buttons []string, layers int) []Lens {
	var lenses []Lens
	for _, t := range testTargets(syms, module) {
		if layers > 1 {
			lenses = append(lenses, Lens{Range: t.rng, Icon: "versions", Action: ActionSwitchButtonLayer})
		}
		for _, b := range buttons {
			switch b {
			case config.ButtonRun:
				lenses = append(lenses, Lens{Range: t.rng, Title: "Run", Icon: "play", Action: ActionRunTest, Args: t.args})
			case config.ButtonUpdateRun:
				lenses = append(lenses, Lens{Range: t.rng, Title: "Update & Run", Icon: "run-above", Action: ActionRunUpdateTest, Args: t.args})
			case config.ButtonRunDump:
				lenses = append(lenses, Lens{Range: t.rng, Title: "Run Dump", Icon: "debug-rerun", Action: ActionRunDumpTest, Args: t.args})
			case config.ButtonDump:
				lenses = append(lenses, dumpLens(t.rng, workflow.StandardDump))
			case config.ButtonCleanup:
				lenses = append(lenses, cleanupLens(t.rng, database, workflow.CleanupStandard))
			}
		}
	}
	return lenses
}

func runModeLenses(syms []symbols.Symbol, module, database string, mode RunMode) []Lens {
	var lenses []Lens
	for _, t := range testTargets(syms, module) {
		lenses = append(lenses, Lens{Range: t.rng, Icon: "versions", Action: ActionSwitchRunMode})
		switch mode {
		case RunModeStandard:
			lenses = append(lenses, Lens{Range: t.rng, Title: "Run", Icon: "play", Action: ActionRunTest, Args: t.args})
		case RunModeUpdate:
			lenses = append(lenses, Lens{Range: t.rng, Title: "Run Update", Icon: "run-above", Action: ActionRunUpdateTest, Args: t.args})
		case RunModeDump:
			lenses = append(lenses,
				Lens{Range: t.rng, Title: "Run Dump", Icon: "debug-rerun", Action: ActionRunDumpTest, Args: t.args},
				dumpLens(t.rng, workflow.StandardDump),
			)
		}
		lenses = append(lenses, cleanupLens(t.rng, database, workflow.CleanupStandard))
	}
	return lenses
}

func hotLenses(syms []symbols.Symbol, module string, logSQL bool) []Lens {
	status := "OFF"
	if logSQL {
		status = "ON"
	}
	var lenses []Lens
	for _, t := range testTargets(syms, module) {
		lenses = append(lenses,
			Lens{Range: t.rng, Title: "Run Hot", Icon: "play", Action: ActionRunHotTest, Args: t.args},
			Lens{Range: t.rng, Title: "Log SQL (" + status + ")", Icon: "database", Action: ActionToggleHotTestLogSQL},
		)
	}
	return lenses
}
