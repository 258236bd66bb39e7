package config

// Button identifiers usable in standardTestLayout.
const (
	ButtonRun       = "run"
	ButtonUpdateRun = "updateRun"
	ButtonRunDump   = "runDump"
	ButtonDump      = "dump"
	ButtonCleanup   = "cleanup"
)

// Buttons lists the valid layout button identifiers.
var Buttons = []string{ButtonRun, ButtonUpdateRun, ButtonRunDump, ButtonDump, ButtonCleanup}

// GetDefaultConfig returns the built-in defaults. The workspace dependent
// defaults (dumpPath, workspaceFolders) are filled in by the loader.
func GetDefaultConfig() Config {
	return Config{
		DatabaseName: "odoo_test",
		UpgradeFrom:  UpgradeFromCurrent,
		PythonPath:   "python3",
		StandardTestLayout: [][]string{
			{ButtonRun, ButtonCleanup},
			{ButtonUpdateRun, ButtonCleanup},
			{ButtonRunDump, ButtonDump, ButtonCleanup},
		},
		AddonsPath:  []string{},
		UpgradePath: []string{},
		MutedTopics: []string{},
	}
}
