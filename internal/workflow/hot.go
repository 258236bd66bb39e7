package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	"odootest/internal/hotaddon"
	"odootest/internal/launcher"
	"odootest/internal/notify"
	"odootest/pkg/logging"
)

// HotTestModule is the addon receiving hot test statements.
const HotTestModule = hotaddon.Module

// bundledAddonsDir is where the bundled addon is extracted, under the dump root.
const bundledAddonsDir = ".addons"

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
}

type runTestParams struct {
	Module   string `json:"module"`
	TestTags string `json:"test_tags"`
}

type logSQLParams struct {
	Enabled bool `json:"enabled"`
}

// Statement encodes a JSON-RPC 2.0 notification for the hot_test addon.
func Statement(method string, params any) (string, error) {
	data, err := json.Marshal(rpcRequest{JSONRPC: "2.0", Method: method, Params: params})
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// HotSession returns the running hot test session, or nil.
func (e *Engine) HotSession() *launcher.Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session
}

func (e *Engine) setSession(s *launcher.Session) {
	e.mu.Lock()
	e.session = s
	e.mu.Unlock()
}

// hotSession returns the session when hot test mode is on.
func (e *Engine) hotSession() (*launcher.Session, bool) {
	s := e.HotSession()
	if e.hot == nil || !e.hot.HotTest() || s == nil {
		return nil, false
	}
	return s, true
}

// hotAddonsPath returns hotTestAddonsPath when set. Otherwise the bundled
// addon is extracted under the dump root.
func (e *Engine) hotAddonsPath() (string, error) {
	c := e.cfg.Config()
	if c.HotTestAddonsPath != "" {
		return c.HotTestAddonsPath, nil
	}
	if c.DumpPath == "" {
		return "", errors.New("neither hotTestAddonsPath nor dumpPath is configured")
	}
	return hotaddon.Extract(filepath.Join(c.DumpPath, bundledAddonsDir))
}

// StartHotTest installs the hot_test addon when needed, enables hot test
// mode and runs the hot test server until it terminates. The addon is
// removed from the registry and hot test mode is disabled on every exit path.
func (e *Engine) StartHotTest(ctx context.Context) error {
	if e.hot == nil {
		return errors.New("hot test state is not available")
	}
	addons, err := e.hotAddonsPath()
	if err != nil {
		e.sink.Error(fmt.Sprintf("Failed to start hot test: %v", err))
		return abort("%v", err)
	}

	defer func() {
		e.setSession(nil)
		cleanupCtx := context.WithoutCancel(ctx)
		if err := e.reg.RemoveModules(cleanupCtx, e.db.Name(), []string{HotTestModule}); err != nil {
			logging.Warn(subsystem, "Failed to remove %s from %s: %v", HotTestModule, e.db.Name(), err)
		}
		e.hot.SetHotTest(false)
	}()

	if !e.installed(ctx, HotTestModule) {
		e.sink.Info(notify.TopicGeneral, "Installing hot_test module...")
		if !e.installModule(ctx, HotTestModule, addons) {
			return fmt.Errorf("%w: install %s", ErrLaunch, HotTestModule)
		}
	}

	e.hot.SetHotTest(true)
	e.sink.Info(notify.TopicGeneral, "Hot test mode enabled")

	cfg, err := e.build(launcher.KindHot, addons)
	if err != nil {
		return err
	}
	session, err := e.launcher.StartSession(ctx, cfg, HotTestModule)
	if err != nil {
		e.sink.Error(fmt.Sprintf("Failed to start hot test: %v", err))
		return fmt.Errorf("%w: %v", ErrLaunch, err)
	}
	e.setSession(session)
	logging.Info(subsystem, "Hot test session %s started", session.ID)

	if err := session.Wait(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Info(subsystem, "Hot test session %s ended: %v", session.ID, err)
	}
	return nil
}

// RunHotTest sends a test run to the hot test session.
func (e *Engine) RunHotTest(ctx context.Context, module, class, method string) error {
	session, ok := e.hotSession()
	if !ok {
		e.sink.Error("Hot test mode is not enabled")
		return abort("hot test mode is not enabled")
	}
	if !e.installed(ctx, module) {
		e.sink.Error(fmt.Sprintf("Module %s is not installed", module))
		return abort("module %s is not installed", module)
	}
	payload, err := Statement("run_test", runTestParams{Module: module, TestTags: TestTags(module, class, method)})
	if err != nil {
		return err
	}
	if err := session.Send(ctx, payload); err != nil {
		e.sink.Error(fmt.Sprintf("Failed to trigger hot test: %v", err))
		return err
	}
	e.sink.Info(notify.TopicTest, "Hot test triggered: "+testName(class, method))
	return nil
}

// ToggleHotTestLogSQL flips SQL logging of the hot test session.
func (e *Engine) ToggleHotTestLogSQL(ctx context.Context) error {
	session, ok := e.hotSession()
	if !ok {
		e.sink.Error("Hot test mode is not enabled")
		return abort("hot test mode is not enabled")
	}
	enabled := e.hot.ToggleLogSQL()
	payload, err := Statement("log_sql", logSQLParams{Enabled: enabled})
	if err != nil {
		return err
	}
	if err := session.Send(ctx, payload); err != nil {
		e.sink.Error(fmt.Sprintf("Failed to toggle log SQL: %v", err))
		return err
	}
	status := "OFF"
	if enabled {
		status = "ON"
	}
	e.sink.Info(notify.TopicGeneral, "Log SQL mode: "+status)
	return nil
}
