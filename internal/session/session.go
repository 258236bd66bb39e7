// Package session dispatches actions by id. It owns the two exclusion
// guards, the last recorded invocation used by rerun and the execution
// history of one long-lived host (the REPL or the editor server).
package session

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"odootest/internal/config"
	"odootest/internal/guard"
	"odootest/internal/lens"
	"odootest/internal/notify"
	"odootest/internal/workflow"
	"odootest/pkg/logging"
)

const subsystem = "Session"

const (
	guardNameRun      = "run"
	guardNameDatabase = "database"
)

// Conflict notifications of the two guards.
const (
	MessageRunBusy      = "Another command is running, please wait."
	MessageDatabaseBusy = "Database operation is running, please wait."
)

// Workflows are the orchestration routines the actions are bound to.
type Workflows interface {
	RunTest(ctx context.Context, module, class, method string) error
	RunUpdateTest(ctx context.Context, module, class, method string) error
	RunDumpTest(ctx context.Context, module, class, method string) error
	RunStandaloneTest(ctx context.Context, module, tag string) error
	PrepareUpgrade(ctx context.Context, module, branch string, withPrepare bool) error
	UpgradeDatabase(ctx context.Context, module, branch string, withPrepare bool) error
	CheckUpgradeTest(ctx context.Context, module, class, filePath string) error
	Cleanup(ctx context.Context, category string) (int, error)
	DumpTestDatabase(ctx context.Context, dumpName string) error
	StartHotTest(ctx context.Context) error
	RunHotTest(ctx context.Context, module, class, method string) error
	ToggleHotTestLogSQL(ctx context.Context) error
}

// PathResetter re-detects the workspace paths and persists them.
type PathResetter interface {
	ResetPaths() (config.Detection, bool, error)
}

// Invocation is an action id with its positional arguments.
type Invocation struct {
	Action string   `json:"action" yaml:"action"`
	Args   []string `json:"args" yaml:"args"`
}

func (i Invocation) String() string {
	if len(i.Args) == 0 {
		return i.Action
	}
	return i.Action + " " + strings.Join(i.Args, " ")
}

// Options configures a Dispatcher. Workflows, State and Sink are required.
type Options struct {
	Workflows Workflows
	State     *lens.UIState
	Sink      notify.Sink
	History   *workflow.History
	Paths     PathResetter
}

// Dispatcher runs actions under their guards.
type Dispatcher struct {
	wf      Workflows
	state   *lens.UIState
	sink    notify.Sink
	history *workflow.History
	paths   PathResetter

	run *guard.Guard
	db  *guard.Guard

	mu   sync.Mutex
	last *Invocation
}

// New creates a dispatcher with free guards and no last invocation.
func New(o Options) *Dispatcher {
	d := &Dispatcher{
		wf:      o.Workflows,
		state:   o.State,
		sink:    o.Sink,
		history: o.History,
		paths:   o.Paths,
	}
	if d.history == nil {
		d.history = workflow.NewHistory(workflow.DefaultHistorySize)
	}
	d.run = guard.New(guardNameRun, func() { d.sink.Warn(MessageRunBusy) })
	d.db = guard.New(guardNameDatabase, func() { d.sink.Warn(MessageDatabaseBusy) })
	return d
}

// State returns the UI state the toggles act on.
func (d *Dispatcher) State() *lens.UIState {
	return d.state
}

// History returns the executions recorded so far.
func (d *Dispatcher) History() *workflow.History {
	return d.history
}

// Busy reports which guards are held.
func (d *Dispatcher) Busy() map[string]bool {
	return map[string]bool{
		guardNameRun:      d.run.Held(),
		guardNameDatabase: d.db.Held(),
	}
}

// LastInvocation returns the last recorded action that ran.
func (d *Dispatcher) LastInvocation() (Invocation, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.last == nil {
		return Invocation{}, false
	}
	return Invocation{Action: d.last.Action, Args: slices.Clone(d.last.Args)}, true
}

func (d *Dispatcher) record(id string, args []string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.last = &Invocation{Action: id, Args: slices.Clone(args)}
}

func (d *Dispatcher) guards(set guardSet) []*guard.Guard {
	var out []*guard.Guard
	if set&guardDebug != 0 {
		out = append(out, d.run)
	}
	if set&guardDatabase != 0 {
		out = append(out, d.db)
	}
	return out
}

// Dispatch runs the action id with args. A call rejected by a busy guard
// is reported through the sink and returns a skipped execution with a nil
// error, and so does a workflow that stopped at a failed precondition.
// Unknown ids and invalid arguments are returned as errors before anything
// runs.
func (d *Dispatcher) Dispatch(ctx context.Context, id string, args []string) (workflow.Execution, error) {
	a, ok := Lookup(id)
	if !ok {
		return workflow.Execution{}, &UnknownActionError{Action: id}
	}
	if err := a.check(args); err != nil {
		return workflow.Execution{}, err
	}

	logging.Debug(subsystem, "Dispatching %s", Invocation{Action: id, Args: args})
	exec, err := d.history.Track(id, args, func() (bool, error) {
		return guard.All(func() error {
			if a.Recorded {
				d.record(id, args)
			}
			return a.run(ctx, d, args)
		}, d.guards(a.guards)...)
	})

	switch {
	case err == nil:
	case errors.Is(err, workflow.ErrPrecondition):
		logging.Info(subsystem, "%s aborted: %v", id, err)
		return exec, nil
	case IsArgumentError(err):
		return exec, err
	default:
		logging.Error(subsystem, err, "%s failed", id)
	}
	return exec, err
}

func (d *Dispatcher) rerun(ctx context.Context) error {
	last, ok := d.LastInvocation()
	if !ok {
		d.sink.Warn("No previous command to rerun.")
		return nil
	}
	d.sink.Info(notify.TopicGeneral, "Rerunning: "+last.Action)
	if _, err := d.Dispatch(ctx, last.Action, last.Args); err != nil {
		d.sink.Error(fmt.Sprintf("Failed to rerun command: %v", err))
		return err
	}
	return nil
}

func (d *Dispatcher) resetPaths() error {
	if d.paths == nil {
		return errors.New("path detection is not available")
	}
	det, ok, err := d.paths.ResetPaths()
	if err != nil {
		d.sink.Error(fmt.Sprintf("Failed to save detected paths: %v", err))
		return err
	}
	if !ok {
		d.sink.Warn("No odoo-bin found in the workspace folders")
		return nil
	}
	d.sink.Info(notify.TopicGeneral, fmt.Sprintf("Detected odoo-bin at %s with %d addons and %d upgrade paths",
		det.OdooBinPath, len(det.AddonsPath), len(det.UpgradePath)))
	return nil
}
