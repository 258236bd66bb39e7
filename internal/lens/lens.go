// Package lens assembles the actionable annotations shown above test
// classes, test methods, standalone tests and upgrade scripts.
package lens

import (
	"context"
	"fmt"
	"os"

	"odootest/internal/classify"
	"odootest/internal/config"
	"odootest/internal/symbols"
	"odootest/pkg/logging"
)

const subsystem = "Lens"

// Action identifiers bound by lenses.
const (
	ActionRunTest             = "runTest"
	ActionRunUpdateTest       = "runUpdateTest"
	ActionRunDumpTest         = "runDumpTest"
	ActionRunStandaloneTest   = "runStandaloneTest"
	ActionRunHotTest          = "runHotTest"
	ActionPrepareUpgrade      = "prepareUpgrade"
	ActionUpgradeDatabase     = "upgradeDatabase"
	ActionCheckUpgradeTest    = "checkUpgradeTest"
	ActionCleanupTest         = "cleanupTest"
	ActionDumpTestDatabase    = "dumpTestDatabase"
	ActionSwitchRunMode       = "switchRunMode"
	ActionSwitchButtonLayer   = "switchButtonLayer"
	ActionToggleHotTestLogSQL = "toggleHotTestLogSql"
)

// Lens is one clickable annotation.
type Lens struct {
	Range   symbols.Range `json:"range" yaml:"range"`
	Title   string        `json:"title" yaml:"title"`
	Icon    string        `json:"icon,omitempty" yaml:"icon,omitempty"`
	Action  string        `json:"action" yaml:"action"`
	Args    []string      `json:"args" yaml:"args"`
	Tooltip string        `json:"tooltip,omitempty" yaml:"tooltip,omitempty"`
}

// Label renders the lens for a terminal, e.g. "[play] Run".
func (l Lens) Label() string {
	if l.Icon == "" {
		return l.Title
	}
	if l.Title == "" {
		return fmt.Sprintf("[%s]", l.Icon)
	}
	return fmt.Sprintf("[%s] %s", l.Icon, l.Title)
}

// Style selects how standard test lenses are laid out.
type Style string

const (
	// StyleLayout renders the buttons of the current standardTestLayout layer.
	StyleLayout Style = "layout"
	// StyleRunMode renders one run lens for the current run mode.
	StyleRunMode Style = "run-mode"
)

// ParseStyle validates a style name.
func ParseStyle(s string) (Style, error) {
	switch Style(s) {
	case StyleLayout, StyleRunMode:
		return Style(s), nil
	case "":
		return StyleLayout, nil
	}
	return "", fmt.Errorf("unknown lens style %q, expected %s or %s", s, StyleLayout, StyleRunMode)
}

// ConfigSource returns the effective configuration.
type ConfigSource interface {
	Config() config.Config
}

// Assembler derives the lenses of a document.
type Assembler struct {
	cfg      ConfigSource
	provider symbols.Provider
	state    *UIState
	style    Style
}

// NewAssembler creates an assembler.
func NewAssembler(cfg ConfigSource, provider symbols.Provider, state *UIState, style Style) *Assembler {
	if style == "" {
		style = StyleLayout
	}
	return &Assembler{cfg: cfg, provider: provider, state: state, style: style}
}

// State returns the UI state the lenses are rendered from.
func (a *Assembler) State() *UIState {
	return a.state
}

// File reads path and returns its lenses.
func (a *Assembler) File(ctx context.Context, path string) ([]Lens, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return a.Lenses(ctx, path, src)
}

// Lenses returns the lenses of the document at path with content src. A
// file that is neither a test nor an upgrade script has none.
func (a *Assembler) Lenses(ctx context.Context, path string, src []byte) ([]Lens, error) {
	c := a.cfg.Config()
	if c.OdooBinPath == "" {
		return nil, nil
	}
	loc, ok := classify.Classify(path, c.ClassifyRoots())
	if !ok {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	syms, symErr := a.provider.Symbols(ctx, path, src)
	if symErr != nil {
		logging.Warn(subsystem, "No outline for %s: %v", path, symErr)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var lenses []Lens
	switch loc.Category {
	case classify.StandardTest:
		lenses = append(lenses, standaloneLenses(standaloneTags(syms, src, symErr != nil), loc.ModuleName, c.DatabaseName)...)
		if symErr != nil {
			break
		}
		st := a.state.Snapshot()
		switch {
		case st.HotTest:
			lenses = append(lenses, hotLenses(syms, loc.ModuleName, st.LogSQL)...)
		case a.style == StyleRunMode:
			lenses = append(lenses, runModeLenses(syms, loc.ModuleName, c.DatabaseName, st.RunMode)...)
		default:
			lenses = append(lenses, layoutLenses(syms, loc.ModuleName, c.DatabaseName, st.Buttons, a.state.Layers())...)
		}
	case classify.UpgradeTest:
		if symErr != nil || len(c.UpgradePath) == 0 {
			break
		}
		lenses = upgradeTestLenses(syms, path, loc.ModuleName, c.DatabaseName, upgradeFrom(c))
	case classify.UpgradeScript:
		if symErr != nil || len(c.UpgradePath) == 0 {
			break
		}
		lenses = upgradeScriptLenses(syms, path, loc.ModuleName, c.DatabaseName, upgradeFrom(c))
	}
	logging.Debug(subsystem, "%d lenses for %s (%s, %s)", len(lenses), path, loc.Category, loc.ModuleName)
	return lenses, nil
}

func upgradeFrom(c config.Config) string {
	if c.UpgradeFrom == "" {
		return config.UpgradeFromCurrent
	}
	return c.UpgradeFrom
}

func cleanupLens(r symbols.Range, database, category string) Lens {
	return Lens{
		Range:   r,
		Title:   database,
		Icon:    "trash",
		Action:  ActionCleanupTest,
		Args:    []string{category},
		Tooltip: "Cleanup " + database,
	}
}

func dumpLens(r symbols.Range, dumpName string) Lens {
	return Lens{Range: r, Title: "Dump", Icon: "database", Action: ActionDumpTestDatabase, Args: []string{dumpName}}
}
