package app

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"odootest/internal/config"
	"odootest/internal/database"
	"odootest/internal/execx"
	"odootest/internal/git"
	"odootest/internal/launcher"
	"odootest/internal/lens"
	"odootest/internal/mcpserver"
	"odootest/internal/notify"
	"odootest/internal/registry"
	"odootest/internal/session"
	"odootest/internal/symbols"
	"odootest/internal/workflow"
	"odootest/pkg/logging"
)

// Services holds the wired components of one process. One Dispatcher is
// shared by every surface so that the guards, the LastInvocation and the UI
// state are session wide.
type Services struct {
	Store    *config.Store
	Console  *notify.Console
	Notifier *mcpserver.Notifier
	Sink     notify.Sink

	Runner   execx.Runner
	Registry *registry.Client
	Database *LiveDatabase
	Git      *git.Client
	Launcher *launcher.ProcessLauncher

	State      *lens.UIState
	Engine     *workflow.Engine
	History    *workflow.History
	Dispatcher *session.Dispatcher

	Symbols *symbols.PythonProvider
	Lenses  *lens.Assembler
}

// InitializeServices wires the components for cfg on top of store.
//
// Initialization order:
//  1. notification sinks (console, and the MCP notifier when serving)
//  2. command runner, registry client and database manager
//  3. git client and application launcher
//  4. UI state, workflow engine and dispatcher
//  5. symbol provider and lens assembler
func InitializeServices(cfg *Config, store *config.Store) (*Services, error) {
	c := store.Config()
	s := &Services{Store: store}

	// application output must stay off the MCP transport
	appOut := cfg.Out
	if cfg.Mode == ModeServe {
		appOut = cfg.ErrOut
	}

	s.Console = notify.NewConsole(appOut, c.MutedTopics)
	s.Sink = s.Console
	if cfg.Mode == ModeServe {
		s.Notifier = mcpserver.NewNotifier(c.MutedTopics)
		s.Sink = notify.Tee{s.Console, s.Notifier}
	}

	s.Runner = execx.NewExecRunner()
	s.Registry = registry.NewClient(c.DatabaseDSN)

	db, err := NewLiveDatabase(s.Runner, s.Sink, s.Registry, c)
	if err != nil {
		return nil, err
	}
	s.Database = db

	s.Git = git.NewClient(s.Runner, s.Sink)
	s.Launcher = launcher.NewProcessLauncher(appOut, cfg.ErrOut, s.Registry)

	s.State = lens.NewUIState(c.StandardTestLayout)
	s.Engine = workflow.NewEngine(workflow.Deps{
		Config:   store,
		Database: s.Database,
		Registry: s.Registry,
		Git:      s.Git,
		Launcher: s.Launcher,
		Sink:     s.Sink,
		Hot:      s.State,
	})
	s.History = workflow.NewHistory(workflow.DefaultHistorySize)
	s.Dispatcher = session.New(session.Options{
		Workflows: s.Engine,
		State:     s.State,
		Sink:      s.Sink,
		History:   s.History,
		Paths:     store,
	})

	s.Symbols, err = symbols.NewPythonProvider(symbols.DefaultCacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating symbol provider: %w", err)
	}
	style := cfg.Style
	if style == "" {
		style = lens.StyleLayout
	}
	s.Lenses = lens.NewAssembler(store, s.Symbols, s.State, style)

	logging.Debug("Bootstrap", "Services initialized for database %s", c.DatabaseName)
	return s, nil
}

// Apply propagates a reloaded configuration to the long-lived components.
func (s *Services) Apply(c config.Config) {
	s.Console.SetMuted(c.MutedTopics)
	if s.Notifier != nil {
		s.Notifier.SetMuted(c.MutedTopics)
	}
	if !slices.EqualFunc(s.State.Layout(), c.StandardTestLayout, slices.Equal[[]string]) {
		s.State.SetLayout(c.StandardTestLayout)
	}
	if err := s.Database.Refresh(c); err != nil {
		logging.Error("Bootstrap", err, "Keeping database %s", s.Database.Name())
	}
}

// Mirror returns a client for the configured dump mirror.
func (s *Services) Mirror() (*database.Mirror, error) {
	m := s.Store.Config().DumpMirror
	if !m.Enabled() {
		return nil, fmt.Errorf("no dump mirror configured, set %s.endpoint and %s.bucket", config.KeyDumpMirror, config.KeyDumpMirror)
	}
	return database.NewMirror(database.MirrorConfig{
		Endpoint:  m.Endpoint,
		Region:    m.Region,
		AccessKey: m.AccessKey,
		SecretKey: m.SecretKey,
		Bucket:    m.Bucket,
		UseSSL:    m.UseSSL,
	})
}

// LiveDatabase is the workflow database of the current configuration. A
// settings reload that changes the database name, the dump root or the DSN
// swaps the underlying manager for the next workflow.
type LiveDatabase struct {
	runner  execx.Runner
	sink    notify.Sink
	catalog database.Catalog

	mu   sync.RWMutex
	opts database.Options
	mgr  *database.Manager
}

var _ workflow.Database = (*LiveDatabase)(nil)

// NewLiveDatabase creates the manager for c.
func NewLiveDatabase(runner execx.Runner, sink notify.Sink, catalog database.Catalog, c config.Config) (*LiveDatabase, error) {
	l := &LiveDatabase{runner: runner, sink: sink, catalog: catalog}
	if err := l.Refresh(c); err != nil {
		return nil, err
	}
	return l, nil
}

func databaseOptions(c config.Config) database.Options {
	return database.Options{DatabaseName: c.DatabaseName, DumpRoot: c.DumpPath, DSN: c.DatabaseDSN}
}

// Refresh rebuilds the manager when c targets another database.
func (l *LiveDatabase) Refresh(c config.Config) error {
	opts := databaseOptions(c)
	l.mu.RLock()
	same := l.mgr != nil && l.opts == opts
	l.mu.RUnlock()
	if same {
		return nil
	}
	mgr, err := database.NewManager(l.runner, l.sink, l.catalog, opts)
	if err != nil {
		return err
	}
	l.mu.Lock()
	l.opts = opts
	l.mgr = mgr
	l.mu.Unlock()
	logging.Debug("Bootstrap", "Targeting database %s", opts.DatabaseName)
	return nil
}

// Manager returns the current manager.
func (l *LiveDatabase) Manager() *database.Manager {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.mgr
}

func (l *LiveDatabase) Name() string { return l.Manager().Name() }

func (l *LiveDatabase) Drop(ctx context.Context) error { return l.Manager().Drop(ctx) }

func (l *LiveDatabase) Create(ctx context.Context) error { return l.Manager().Create(ctx) }

func (l *LiveDatabase) DumpExists(dumpName string) bool { return l.Manager().DumpExists(dumpName) }

func (l *LiveDatabase) DeleteDump(dumpName string) int { return l.Manager().DeleteDump(dumpName) }

func (l *LiveDatabase) DatabaseExists(ctx context.Context) bool {
	return l.Manager().DatabaseExists(ctx)
}

func (l *LiveDatabase) Restore(ctx context.Context, dumpName string) error {
	return l.Manager().Restore(ctx, dumpName)
}

func (l *LiveDatabase) Dump(ctx context.Context, dumpName string) error {
	return l.Manager().Dump(ctx, dumpName)
}
