package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"odootest/internal/config"
	"odootest/internal/launcher"
	"odootest/internal/notify"
	"odootest/internal/registry"
	"odootest/pkg/logging"
)

const subsystem = "Workflow"

var (
	// ErrPrecondition marks a workflow aborted at a check, e.g. a module
	// that is not installed or a missing dump. The reason was already
	// reported through the notification sink.
	ErrPrecondition = errors.New("precondition not met")
	// ErrLaunch is returned when the application could not be started.
	ErrLaunch = errors.New("application launch failed")
)

func abort(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrPrecondition, fmt.Sprintf(format, args...))
}

// Database is the lifecycle of the target database and its dump artifacts.
type Database interface {
	Name() string
	Drop(ctx context.Context) error
	Create(ctx context.Context) error
	Restore(ctx context.Context, dumpName string) error
	Dump(ctx context.Context, dumpName string) error
	DumpExists(dumpName string) bool
	DeleteDump(dumpName string) int
	DatabaseExists(ctx context.Context) bool
}

// Registry answers questions about the module registry inside a database.
type Registry interface {
	IsModuleInstalled(ctx context.Context, database, module string) registry.Result
	IsUpgradeTestPrepared(ctx context.Context, database, module, class string) registry.Result
	RemoveModules(ctx context.Context, database string, modules []string) error
}

// Git is the version control surface used by the upgrade workflows.
type Git interface {
	RepoPaths(ctx context.Context, paths []string) []string
	Current(ctx context.Context, repo string) string
	IsClean(ctx context.Context, repo string) (bool, error)
	HasLocalBranch(ctx context.Context, repo, branch string) bool
	CheckoutAll(ctx context.Context, targets map[string]string) []string
}

// ConfigSource returns the effective configuration. It is read at the start
// of every workflow so that reloads apply to the next run.
type ConfigSource interface {
	Config() config.Config
}

// HotState is the hot test toggle the annotations render from.
type HotState interface {
	HotTest() bool
	SetHotTest(on bool)
	// ToggleLogSQL flips the SQL logging sub-toggle and returns the new value.
	ToggleLogSQL() bool
}

// Deps are the collaborators of an Engine.
type Deps struct {
	Config   ConfigSource
	Database Database
	Registry Registry
	Git      Git
	Launcher launcher.Launcher
	Sink     notify.Sink
	Hot      HotState
}

// Engine sequences database operations, registry queries, git checkouts and
// application launches into the test and upgrade workflows. It does not
// serialize callers; that is done by the guards of the dispatch layer.
type Engine struct {
	cfg      ConfigSource
	db       Database
	reg      Registry
	git      Git
	launcher launcher.Launcher
	sink     notify.Sink
	hot      HotState

	mu      sync.Mutex
	session *launcher.Session
}

// NewEngine creates an engine. Every field of d except Git and Hot is required.
func NewEngine(d Deps) *Engine {
	sink := d.Sink
	if sink == nil {
		sink = notify.NewRecorder()
	}
	return &Engine{
		cfg:      d.Config,
		db:       d.Database,
		reg:      d.Registry,
		git:      d.Git,
		launcher: d.Launcher,
		sink:     sink,
		hot:      d.Hot,
	}
}

// installed reports whether module is installed in the target database.
// A failed query counts as not installed.
func (e *Engine) installed(ctx context.Context, module string) bool {
	r := e.reg.IsModuleInstalled(ctx, e.db.Name(), module)
	if r.QueryFailed() {
		logging.Warn(subsystem, "Treating %s as not installed: %v", module, r.Err)
	}
	return r.Found
}

// restore replaces the target database with the content of dumpName.
func (e *Engine) restore(ctx context.Context, dumpName string) error {
	if err := e.db.Drop(ctx); err != nil {
		return err
	}
	if err := e.db.Create(ctx); err != nil {
		return err
	}
	return e.db.Restore(ctx, dumpName)
}

// TestTags builds the --test-tags selector of a class or a method.
func TestTags(module, class, method string) string {
	if method != "" {
		return fmt.Sprintf("/%s:%s.%s", module, class, method)
	}
	return fmt.Sprintf("/%s:%s", module, class)
}

func testName(class, method string) string {
	if method != "" {
		return method
	}
	return class
}
