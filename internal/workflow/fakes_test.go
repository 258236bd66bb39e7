package workflow

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"sync"

	"odootest/internal/config"
	"odootest/internal/launcher"
	"odootest/internal/registry"
)

type opLog struct {
	mu  sync.Mutex
	ops []string
}

func (l *opLog) add(op string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ops = append(l.ops, op)
}

func (l *opLog) list() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.ops)
}

type fakeDB struct {
	log    *opLog
	dumps  map[string]bool
	exists bool
	fail   map[string]error
}

func (d *fakeDB) Name() string { return "odoo_test" }

func (d *fakeDB) op(name string) error {
	d.log.add(name)
	return d.fail[name]
}

func (d *fakeDB) Drop(context.Context) error   { return d.op("drop") }
func (d *fakeDB) Create(context.Context) error { return d.op("create") }

func (d *fakeDB) Restore(_ context.Context, name string) error {
	return d.op("restore:" + name)
}

func (d *fakeDB) Dump(_ context.Context, name string) error {
	if err := d.op("dump:" + name); err != nil {
		return err
	}
	d.dumps[name] = true
	return nil
}

func (d *fakeDB) DumpExists(name string) bool { return d.dumps[name] }

func (d *fakeDB) DeleteDump(name string) int {
	if !d.dumps[name] {
		return 0
	}
	delete(d.dumps, name)
	d.log.add("delete:" + name)
	return 1
}

func (d *fakeDB) DatabaseExists(context.Context) bool { return d.exists }

type fakeRegistry struct {
	mu        sync.Mutex
	installed map[string]bool
	prepared  bool
	failed    bool
	removed   []string
}

func (r *fakeRegistry) IsModuleInstalled(_ context.Context, _, module string) registry.Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failed {
		return registry.Result{Err: fmt.Errorf("connection refused")}
	}
	return registry.Result{Found: r.installed[module]}
}

func (r *fakeRegistry) IsUpgradeTestPrepared(context.Context, string, string, string) registry.Result {
	return registry.Result{Found: r.prepared}
}

func (r *fakeRegistry) RemoveModules(_ context.Context, _ string, modules []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removed = append(r.removed, modules...)
	for _, m := range modules {
		delete(r.installed, m)
	}
	return nil
}

func (r *fakeRegistry) install(module string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.installed[module] = true
}

// fakeLauncher logs a short label per launch: install:<m>, test:<tags>,
// standalone:<tag>, upgrade, upgrade-test:<tags>.
type fakeLauncher struct {
	log       *opLog
	reg       *fakeRegistry
	failStart bool
	configs   []launcher.LaunchConfig

	notifier *recordingNotifier
	exited   chan error
}

func argAfter(args []string, flag string) string {
	for i := len(args) - 2; i >= 0; i-- {
		if args[i] == flag {
			return args[i+1]
		}
	}
	return ""
}

func (l *fakeLauncher) Launch(_ context.Context, cfg launcher.LaunchConfig) bool {
	l.configs = append(l.configs, cfg)
	if l.failStart {
		l.log.add("launch-failed:" + cfg.Name)
		return false
	}
	args := cfg.Args
	switch tags := argAfter(args, "--test-tags"); {
	case argAfter(args, "--standalone") != "":
		l.log.add("standalone:" + argAfter(args, "--standalone"))
	case cfg.Kind == launcher.KindUpgrade && tags != "":
		l.log.add("upgrade-test:" + tags)
	case cfg.Kind == launcher.KindUpgrade:
		l.log.add("upgrade")
	case tags != "":
		op := "test:" + tags
		if m := argAfter(args, "-i"); m != "" {
			op += " -i " + m
			l.reg.install(m)
		}
		if m := argAfter(args, "-u"); m != "" {
			op += " -u " + m
		}
		l.log.add(op)
	default:
		m := argAfter(args, "-i")
		l.log.add("install:" + m)
		l.reg.install(m)
	}
	return true
}

func (l *fakeLauncher) StartSession(_ context.Context, cfg launcher.LaunchConfig, channel string) (*launcher.Session, error) {
	l.configs = append(l.configs, cfg)
	l.log.add("session:" + channel)
	return launcher.NewSession(cfg.ID, channel, l.notifier, l.exited), nil
}

type recordingNotifier struct {
	mu       sync.Mutex
	payloads []string
}

func (n *recordingNotifier) Notify(_ context.Context, _, payload string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.payloads = append(n.payloads, payload)
	return nil
}

func (n *recordingNotifier) list() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return slices.Clone(n.payloads)
}

type fakeRepo struct {
	branches []string
	current  string
	dirty    bool
}

type fakeGit struct {
	log      *opLog
	repos    map[string]*fakeRepo
	order    []string
	failRepo string
}

func (g *fakeGit) RepoPaths(context.Context, []string) []string { return g.order }

func (g *fakeGit) Current(_ context.Context, repo string) string { return g.repos[repo].current }

func (g *fakeGit) IsClean(_ context.Context, repo string) (bool, error) {
	return !g.repos[repo].dirty, nil
}

func (g *fakeGit) HasLocalBranch(_ context.Context, repo, branch string) bool {
	return slices.Contains(g.repos[repo].branches, branch)
}

func (g *fakeGit) CheckoutAll(_ context.Context, targets map[string]string) []string {
	var pairs, failed []string
	for repo, name := range targets {
		pairs = append(pairs, filepath.Base(repo)+"="+name)
		if repo == g.failRepo {
			failed = append(failed, repo)
		}
	}
	sort.Strings(pairs)
	g.log.add("checkout:" + strings.Join(pairs, ","))
	return failed
}

type staticConfig struct {
	c config.Config
}

func (s staticConfig) Config() config.Config { return s.c }

type hotState struct {
	mu     sync.Mutex
	on     bool
	logSQL bool
}

func (h *hotState) HotTest() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.on
}

func (h *hotState) SetHotTest(on bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.on = on
	if !on {
		h.logSQL = false
	}
}

func (h *hotState) ToggleLogSQL() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.logSQL = !h.logSQL
	return h.logSQL
}
