package session

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"odootest/internal/lens"
	"odootest/internal/workflow"
)

// Action ids that are not bound to a lens.
const (
	ActionStartHotTest = "startHotTest"
	ActionRerun        = "rerun"
	ActionResetPaths   = "resetPaths"
)

type guardSet uint8

const (
	guardDebug guardSet = 1 << iota
	guardDatabase
)

// Action is one entry of the action table.
type Action struct {
	ID string `json:"id" yaml:"id"`
	// Usage lists the positional arguments, optional ones in brackets.
	Usage       string `json:"usage" yaml:"usage"`
	Description string `json:"description" yaml:"description"`
	// Recorded actions become the LastInvocation when they run.
	Recorded bool `json:"recorded" yaml:"recorded"`
	// Guards names the exclusion guards taken, "run" and/or "database".
	Guards []string `json:"guards,omitempty" yaml:"guards,omitempty"`

	minArgs int
	maxArgs int
	guards  guardSet
	run     func(ctx context.Context, d *Dispatcher, args []string) error
}

func (a Action) check(args []string) error {
	if len(args) < a.minArgs || len(args) > a.maxArgs {
		want := strconv.Itoa(a.minArgs)
		if a.maxArgs != a.minArgs {
			want = fmt.Sprintf("%d to %d", a.minArgs, a.maxArgs)
		}
		return &ArgumentError{Action: a.ID, Usage: a.synopsis(), Message: fmt.Sprintf("expected %s arguments, got %d", want, len(args))}
	}
	return nonEmpty(a.ID, a.synopsis(), requiredNames[a.ID], args)
}

func (a Action) synopsis() string {
	if a.Usage == "" {
		return a.ID
	}
	return a.ID + " " + a.Usage
}

func arg(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}

// withPrepare parses the optional boolean at args[i], true when absent.
func withPrepare(action string, args []string, i int) (bool, error) {
	raw := arg(args, i)
	if raw == "" {
		return true, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, &ArgumentError{Action: action, Usage: "module branch [withPrepare]", Message: fmt.Sprintf("withPrepare must be true or false, got %q", raw)}
	}
	return b, nil
}

func nonEmpty(action, usage string, names, args []string) error {
	for i, n := range names {
		if i < len(args) && strings.TrimSpace(args[i]) == "" {
			return &ArgumentError{Action: action, Usage: usage, Message: n + " cannot be empty"}
		}
	}
	return nil
}

// actionTable is built in init as its entries call back into Dispatch.
var actionTable []Action

func buildActions() []Action {
	return []Action{
		{
			ID: lens.ActionRunTest, Usage: "module class [method]", Description: "Run a test class or method",
			Recorded: true, minArgs: 2, maxArgs: 3, guards: guardDebug,
			run: func(ctx context.Context, d *Dispatcher, args []string) error {
				return d.wf.RunTest(ctx, args[0], args[1], arg(args, 2))
			},
		},
		{
			ID: lens.ActionRunUpdateTest, Usage: "module class [method]", Description: "Update the module, then run the test",
			Recorded: true, minArgs: 2, maxArgs: 3, guards: guardDebug,
			run: func(ctx context.Context, d *Dispatcher, args []string) error {
				return d.wf.RunUpdateTest(ctx, args[0], args[1], arg(args, 2))
			},
		},
		{
			ID: lens.ActionRunDumpTest, Usage: "module class [method]", Description: "Run the test on a database restored from standard.dump",
			Recorded: true, minArgs: 2, maxArgs: 3, guards: guardDebug,
			run: func(ctx context.Context, d *Dispatcher, args []string) error {
				return d.wf.RunDumpTest(ctx, args[0], args[1], arg(args, 2))
			},
		},
		{
			ID: lens.ActionRunStandaloneTest, Usage: "module tag", Description: "Run a standalone test",
			Recorded: true, minArgs: 2, maxArgs: 2, guards: guardDebug,
			run: func(ctx context.Context, d *Dispatcher, args []string) error {
				return d.wf.RunStandaloneTest(ctx, args[0], args[1])
			},
		},
		{
			ID: lens.ActionRunHotTest, Usage: "module class [method]", Description: "Trigger a test in the hot test session",
			Recorded: true, minArgs: 2, maxArgs: 3,
			run: func(ctx context.Context, d *Dispatcher, args []string) error {
				return d.wf.RunHotTest(ctx, args[0], args[1], arg(args, 2))
			},
		},
		{
			ID: lens.ActionPrepareUpgrade, Usage: "module branch [withPrepare]", Description: "Check out the branch and prepare the upgrade dumps",
			Recorded: true, minArgs: 2, maxArgs: 3, guards: guardDebug,
			run: func(ctx context.Context, d *Dispatcher, args []string) error {
				prepare, err := withPrepare(lens.ActionPrepareUpgrade, args, 2)
				if err != nil {
					return err
				}
				return d.wf.PrepareUpgrade(ctx, args[0], args[1], prepare)
			},
		},
		{
			ID: lens.ActionUpgradeDatabase, Usage: "module branch [withPrepare]", Description: "Restore the upgrade dump and upgrade all modules",
			Recorded: true, minArgs: 2, maxArgs: 3, guards: guardDebug,
			run: func(ctx context.Context, d *Dispatcher, args []string) error {
				prepare, err := withPrepare(lens.ActionUpgradeDatabase, args, 2)
				if err != nil {
					return err
				}
				return d.wf.UpgradeDatabase(ctx, args[0], args[1], prepare)
			},
		},
		{
			ID: lens.ActionCheckUpgradeTest, Usage: "module class filePath", Description: "Run the check step of an upgrade test",
			Recorded: true, minArgs: 3, maxArgs: 3, guards: guardDebug,
			run: func(ctx context.Context, d *Dispatcher, args []string) error {
				return d.wf.CheckUpgradeTest(ctx, args[0], args[1], args[2])
			},
		},
		{
			ID: lens.ActionDumpTestDatabase, Usage: "name", Description: "Dump the test database",
			minArgs: 1, maxArgs: 1, guards: guardDatabase,
			run: func(ctx context.Context, d *Dispatcher, args []string) error {
				return d.wf.DumpTestDatabase(ctx, args[0])
			},
		},
		{
			ID: lens.ActionCleanupTest, Usage: "category", Description: "Delete the dumps of a category and drop the test database",
			minArgs: 1, maxArgs: 1, guards: guardDebug | guardDatabase,
			run: func(ctx context.Context, d *Dispatcher, args []string) error {
				if !slices.Contains(workflow.CleanupCategories, args[0]) {
					return &ArgumentError{
						Action:  lens.ActionCleanupTest,
						Usage:   "category",
						Message: fmt.Sprintf("category must be one of %s, got %q", strings.Join(workflow.CleanupCategories, ", "), args[0]),
					}
				}
				_, err := d.wf.Cleanup(ctx, args[0])
				return err
			},
		},
		{
			ID: ActionStartHotTest, Description: "Start the hot test session and wait for it to end",
			guards: guardDebug,
			run: func(ctx context.Context, d *Dispatcher, _ []string) error {
				return d.wf.StartHotTest(ctx)
			},
		},
		{
			ID: lens.ActionToggleHotTestLogSQL, Description: "Toggle SQL logging in the hot test session",
			run: func(ctx context.Context, d *Dispatcher, _ []string) error {
				return d.wf.ToggleHotTestLogSQL(ctx)
			},
		},
		{
			ID: lens.ActionSwitchRunMode, Description: "Cycle the run mode",
			run: func(_ context.Context, d *Dispatcher, _ []string) error {
				d.state.SwitchRunMode()
				return nil
			},
		},
		{
			ID: lens.ActionSwitchButtonLayer, Usage: "[layer]", Description: "Show the next button layer",
			maxArgs: 1,
			run: func(_ context.Context, d *Dispatcher, args []string) error {
				if len(args) == 0 {
					d.state.SwitchButtonLayer()
					return nil
				}
				layer, err := strconv.Atoi(args[0])
				if err != nil {
					return &ArgumentError{Action: lens.ActionSwitchButtonLayer, Usage: "[layer]", Message: fmt.Sprintf("layer must be a number, got %q", args[0])}
				}
				d.state.SetButtonLayer(layer)
				return nil
			},
		},
		{
			ID: ActionResetPaths, Description: "Detect odoo-bin, addons and upgrade paths in the workspace",
			run: func(_ context.Context, d *Dispatcher, _ []string) error {
				return d.resetPaths()
			},
		},
		{
			ID: ActionRerun, Description: "Run the last recorded action again",
			run: func(ctx context.Context, d *Dispatcher, _ []string) error {
				return d.rerun(ctx)
			},
		},
	}
}

// argument names validated as non-empty, per action.
var requiredNames = map[string][]string{
	lens.ActionRunTest:           {"module", "class"},
	lens.ActionRunUpdateTest:     {"module", "class"},
	lens.ActionRunDumpTest:       {"module", "class"},
	lens.ActionRunHotTest:        {"module", "class"},
	lens.ActionRunStandaloneTest: {"module", "tag"},
	lens.ActionPrepareUpgrade:    {"module", "branch"},
	lens.ActionUpgradeDatabase:   {"module", "branch"},
	lens.ActionCheckUpgradeTest:  {"module", "class", "filePath"},
	lens.ActionDumpTestDatabase:  {"name"},
	lens.ActionCleanupTest:       {"category"},
}

func init() {
	actionTable = buildActions()
	for i := range actionTable {
		a := &actionTable[i]
		if a.guards&guardDebug != 0 {
			a.Guards = append(a.Guards, guardNameRun)
		}
		if a.guards&guardDatabase != 0 {
			a.Guards = append(a.Guards, guardNameDatabase)
		}
	}
}

// Actions returns the action table in display order.
func Actions() []Action {
	return slices.Clone(actionTable)
}

// Lookup returns the action with id.
func Lookup(id string) (Action, bool) {
	for _, a := range actionTable {
		if a.ID == id {
			return a, true
		}
	}
	return Action{}, false
}
