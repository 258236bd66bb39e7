package lens

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"odootest/internal/config"
	"odootest/internal/symbols"
)

const (
	testFile        = "/ws/enterprise/sale/tests/test_sale.py"
	upgradeTestFile = "/ws/upgrade/migrations/sale/tests/test_upgrade.py"
	scriptFile      = "/ws/upgrade/migrations/sale/17.0/post-migrate.py"
)

type staticConfig config.Config

func (c staticConfig) Config() config.Config { return config.Config(c) }

type fakeProvider struct {
	syms []symbols.Symbol
	err  error
}

func (p fakeProvider) Symbols(context.Context, string, []byte) ([]symbols.Symbol, error) {
	return p.syms, p.err
}

func testConfig() config.Config {
	c := config.GetDefaultConfig()
	c.DatabaseName = "odoo_test"
	c.OdooBinPath = "/ws/odoo/odoo-bin"
	c.AddonsPath = []string{"/ws/enterprise"}
	c.UpgradePath = []string{"/ws/upgrade/migrations"}
	c.UpgradeFrom = "16.0"
	return c
}

func at(line int) symbols.Range {
	return symbols.Range{Start: symbols.Position{Line: line}, End: symbols.Position{Line: line + 1}}
}

func method(name string, line int) symbols.Symbol {
	return symbols.Symbol{Name: name, Kind: symbols.KindMethod, Range: at(line)}
}

var testClass = symbols.Symbol{
	Name:  "TestSale",
	Kind:  symbols.KindClass,
	Range: at(3),
	Children: []symbols.Symbol{
		method("setUp", 4),
		method("test_confirm", 6),
		method("helper", 8),
	},
}

var plainClass = symbols.Symbol{
	Name:     "Helper",
	Kind:     symbols.KindClass,
	Range:    at(20),
	Children: []symbols.Symbol{method("run", 21)},
}

func assemble(t *testing.T, c config.Config, p symbols.Provider, style Style, path string) ([]Lens, *UIState) {
	t.Helper()
	state := NewUIState(c.StandardTestLayout)
	lenses, err := NewAssembler(staticConfig(c), p, state, style).Lenses(context.Background(), path, nil)
	require.NoError(t, err)
	return lenses, state
}

func actions(lenses []Lens) []string {
	out := make([]string, 0, len(lenses))
	for _, l := range lenses {
		out = append(out, l.Action)
	}
	return out
}

func TestLayoutLenses(t *testing.T) {
	p := fakeProvider{syms: []symbols.Symbol{testClass, plainClass}}
	lenses, _ := assemble(t, testConfig(), p, StyleLayout, testFile)

	require.Len(t, lenses, 6)
	assert.Equal(t, []string{
		ActionSwitchButtonLayer, ActionRunTest, ActionCleanupTest,
		ActionSwitchButtonLayer, ActionRunTest, ActionCleanupTest,
	}, actions(lenses))

	assert.Equal(t, at(3), lenses[1].Range)
	assert.Equal(t, []string{"sale", "TestSale"}, lenses[1].Args)
	assert.Equal(t, "[play] Run", lenses[1].Label())
	assert.Equal(t, []string{"sale", "TestSale", "test_confirm"}, lenses[4].Args)
	assert.Equal(t, at(6), lenses[4].Range)

	cleanup := lenses[2]
	assert.Equal(t, "odoo_test", cleanup.Title)
	assert.Equal(t, "Cleanup odoo_test", cleanup.Tooltip)
	assert.Equal(t, []string{"standard"}, cleanup.Args)
	assert.Equal(t, "[versions]", lenses[0].Label())
}

func TestLayoutLensesFollowLayer(t *testing.T) {
	c := testConfig()
	p := fakeProvider{syms: []symbols.Symbol{testClass}}
	state := NewUIState(c.StandardTestLayout)
	a := NewAssembler(staticConfig(c), p, state, StyleLayout)

	state.SetButtonLayer(2)
	lenses, err := a.Lenses(context.Background(), testFile, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{
		ActionSwitchButtonLayer, ActionRunDumpTest, ActionDumpTestDatabase, ActionCleanupTest,
		ActionSwitchButtonLayer, ActionRunDumpTest, ActionDumpTestDatabase, ActionCleanupTest,
	}, actions(lenses))
	assert.Equal(t, []string{"standard.dump"}, lenses[2].Args)
	assert.Equal(t, "Run Dump", lenses[1].Title)
}

func TestLayoutSingleLayerHasNoSwitch(t *testing.T) {
	c := testConfig()
	c.StandardTestLayout = [][]string{{config.ButtonUpdateRun}}
	lenses, _ := assemble(t, c, fakeProvider{syms: []symbols.Symbol{testClass}}, StyleLayout, testFile)
	assert.Equal(t, []string{ActionRunUpdateTest, ActionRunUpdateTest}, actions(lenses))
	assert.Equal(t, "Update & Run", lenses[0].Title)
}

func TestRunModeLenses(t *testing.T) {
	c := testConfig()
	p := fakeProvider{syms: []symbols.Symbol{testClass}}
	state := NewUIState(c.StandardTestLayout)
	a := NewAssembler(staticConfig(c), p, state, StyleRunMode)

	tests := []struct {
		mode RunMode
		want []string
	}{
		{RunModeStandard, []string{ActionSwitchRunMode, ActionRunTest, ActionCleanupTest}},
		{RunModeUpdate, []string{ActionSwitchRunMode, ActionRunUpdateTest, ActionCleanupTest}},
		{RunModeDump, []string{ActionSwitchRunMode, ActionRunDumpTest, ActionDumpTestDatabase, ActionCleanupTest}},
	}
	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			for state.RunMode() != tt.mode {
				state.SwitchRunMode()
			}
			lenses, err := a.Lenses(context.Background(), testFile, nil)
			require.NoError(t, err)
			assert.Equal(t, append(tt.want, tt.want...), actions(lenses))
		})
	}
}

func TestHotLenses(t *testing.T) {
	c := testConfig()
	p := fakeProvider{syms: []symbols.Symbol{testClass}}
	state := NewUIState(c.StandardTestLayout)
	a := NewAssembler(staticConfig(c), p, state, StyleLayout)

	state.SetHotTest(true)
	lenses, err := a.Lenses(context.Background(), testFile, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{
		ActionRunHotTest, ActionToggleHotTestLogSQL,
		ActionRunHotTest, ActionToggleHotTestLogSQL,
	}, actions(lenses))
	assert.Equal(t, "Log SQL (OFF)", lenses[1].Title)
	assert.Equal(t, []string{"sale", "TestSale", "test_confirm"}, lenses[2].Args)

	state.ToggleLogSQL()
	lenses, err = a.Lenses(context.Background(), testFile, nil)
	require.NoError(t, err)
	assert.Equal(t, "Log SQL (ON)", lenses[1].Title)
}

func TestLensesRequireOdooBin(t *testing.T) {
	c := testConfig()
	c.OdooBinPath = ""
	lenses, _ := assemble(t, c, fakeProvider{syms: []symbols.Symbol{testClass}}, StyleLayout, testFile)
	assert.Empty(t, lenses)
}

func TestLensesIgnoreUnclassifiedFiles(t *testing.T) {
	lenses, _ := assemble(t, testConfig(), fakeProvider{syms: []symbols.Symbol{testClass}}, StyleLayout, "/ws/enterprise/sale/models/sale.py")
	assert.Empty(t, lenses)
}

func TestLensesHonorCancellation(t *testing.T) {
	c := testConfig()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewAssembler(staticConfig(c), fakeProvider{}, NewUIState(c.StandardTestLayout), StyleLayout).Lenses(ctx, testFile, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLensesWithoutOutlineFallBackToScan(t *testing.T) {
	c := testConfig()
	src := []byte("@standalone('flow')\ndef test_flow(env):\n    pass\n")
	a := NewAssembler(staticConfig(c), fakeProvider{err: errors.New("no parser")}, NewUIState(c.StandardTestLayout), StyleLayout)

	lenses, err := a.Lenses(context.Background(), testFile, src)
	require.NoError(t, err)
	assert.Equal(t, []string{ActionRunStandaloneTest, ActionDumpTestDatabase, ActionCleanupTest}, actions(lenses))
	assert.Equal(t, []string{"sale", "flow"}, lenses[0].Args)
	assert.Equal(t, []string{"standalone.dump"}, lenses[1].Args)
	assert.Equal(t, []string{"standalone"}, lenses[2].Args)
}

func TestStandaloneLensesFromOutline(t *testing.T) {
	fn := symbols.Symbol{
		Name:  "test_flow",
		Kind:  symbols.KindFunction,
		Range: at(30),
		Decorators: []symbols.Decorator{
			{Name: "odoo.tests.standalone", Args: []string{"a", "b"}, Range: at(30)},
		},
	}
	lenses, _ := assemble(t, testConfig(), fakeProvider{syms: []symbols.Symbol{fn}}, StyleLayout, testFile)

	assert.Equal(t, []string{ActionRunStandaloneTest, ActionRunStandaloneTest, ActionDumpTestDatabase, ActionCleanupTest}, actions(lenses))
	assert.Equal(t, "Run a", lenses[0].Title)
	assert.Equal(t, "Run b", lenses[1].Title)
	assert.Equal(t, lenses[0].Range.Start, lenses[0].Range.End)
	assert.Equal(t, 30, lenses[0].Range.Start.Line)
}

func TestUpgradeScriptLenses(t *testing.T) {
	migrate := symbols.Symbol{Name: "migrate", Kind: symbols.KindFunction, Range: at(2)}
	lenses, _ := assemble(t, testConfig(), fakeProvider{syms: []symbols.Symbol{migrate}}, StyleLayout, scriptFile)

	require.Len(t, lenses, 5)
	assert.Equal(t, "Prepare saas-16.5", lenses[0].Title)
	assert.Equal(t, []string{"sale", "saas-16.5", "false"}, lenses[0].Args)
	assert.Equal(t, ActionUpgradeDatabase, lenses[1].Action)
	assert.Equal(t, "Prepare 16.0", lenses[2].Title)
	assert.Equal(t, []string{"sale", "16.0", "false"}, lenses[3].Args)
	assert.Equal(t, []string{"upgrade"}, lenses[4].Args)
}

func TestUpgradeLensesRequireUpgradePath(t *testing.T) {
	c := testConfig()
	c.UpgradePath = nil
	migrate := symbols.Symbol{Name: "migrate", Kind: symbols.KindFunction, Range: at(2)}
	lenses, _ := assemble(t, c, fakeProvider{syms: []symbols.Symbol{migrate}}, StyleLayout, scriptFile)
	assert.Empty(t, lenses)
}

func TestUpgradeBranches(t *testing.T) {
	tests := []struct {
		dir, from string
		want      []string
	}{
		{"17.0", "16.0", []string{"saas-16.5", "16.0"}},
		{"16.1", "16.0", []string{"16.0"}},
		{"saas-17.1", "17.0", []string{"17.0"}},
		{"17.0", "current", []string{"current"}},
		{"master", "16.0", nil},
		{"scripts", "16.0", nil},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, UpgradeBranches(tt.dir, tt.from), "%s from %s", tt.dir, tt.from)
	}
}

func TestUpgradeTestLenses(t *testing.T) {
	both := symbols.Symbol{
		Name: "TestBoth", Kind: symbols.KindClass, Range: at(1),
		Children: []symbols.Symbol{method("prepare", 2), method("check", 5)},
	}
	checkOnly := symbols.Symbol{
		Name: "TestCheck", Kind: symbols.KindClass, Range: at(10),
		Children: []symbols.Symbol{method("check", 11)},
	}
	lenses, _ := assemble(t, testConfig(), fakeProvider{syms: []symbols.Symbol{both, checkOnly}}, StyleLayout, upgradeTestFile)

	assert.Equal(t, []string{
		ActionPrepareUpgrade, ActionCleanupTest, ActionUpgradeDatabase, ActionCheckUpgradeTest,
		ActionPrepareUpgrade, ActionUpgradeDatabase, ActionCheckUpgradeTest, ActionCleanupTest,
	}, actions(lenses))
	assert.Equal(t, "Prepare 16.0", lenses[0].Title)
	assert.Equal(t, []string{"sale", "16.0"}, lenses[0].Args)
	assert.Equal(t, at(5), lenses[2].Range)
	assert.Equal(t, []string{"sale", "TestBoth", upgradeTestFile}, lenses[3].Args)
	assert.Equal(t, at(11), lenses[4].Range)
}

func TestUpgradeTestLensesDefaultToCurrent(t *testing.T) {
	c := testConfig()
	c.UpgradeFrom = ""
	cls := symbols.Symbol{Name: "T", Kind: symbols.KindClass, Range: at(1), Children: []symbols.Symbol{method("prepare", 2)}}
	lenses, _ := assemble(t, c, fakeProvider{syms: []symbols.Symbol{cls}}, StyleLayout, upgradeTestFile)
	require.NotEmpty(t, lenses)
	assert.Equal(t, "Prepare current", lenses[0].Title)
}

func TestParseStyle(t *testing.T) {
	s, err := ParseStyle("")
	require.NoError(t, err)
	assert.Equal(t, StyleLayout, s)

	s, err = ParseStyle("run-mode")
	require.NoError(t, err)
	assert.Equal(t, StyleRunMode, s)

	_, err = ParseStyle("grid")
	assert.Error(t, err)
}
