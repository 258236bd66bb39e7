package workflow

import (
	"context"
	"fmt"

	"odootest/internal/notify"
)

// Dump artifacts of the standard and standalone workflows.
const (
	StandardDump   = "standard.dump"
	StandaloneDump = "standalone.dump"
)

// RunTest runs a test class or method, installing the module in the same
// run when it is not installed yet.
func (e *Engine) RunTest(ctx context.Context, module, class, method string) error {
	tags := TestTags(module, class, method)
	name := testName(class, method)
	if e.installed(ctx, module) {
		e.sink.Info(notify.TopicTest, "Test: "+name)
		return e.runStandardTest(ctx, tags, "", "")
	}
	e.sink.Info(notify.TopicTest, "Install & Test: "+name)
	return e.runStandardTest(ctx, tags, module, "")
}

// RunUpdateTest is RunTest with the module updated before the tests run.
func (e *Engine) RunUpdateTest(ctx context.Context, module, class, method string) error {
	tags := TestTags(module, class, method)
	name := testName(class, method)
	if e.installed(ctx, module) {
		e.sink.Info(notify.TopicTest, "Upgrade & Test: "+name)
		return e.runStandardTest(ctx, tags, "", module)
	}
	e.sink.Info(notify.TopicTest, "Install & Test: "+name)
	return e.runStandardTest(ctx, tags, module, "")
}

// RunDumpTest restores the standard dump when it exists. Otherwise it
// installs the module and writes the dump. Then it runs the test.
func (e *Engine) RunDumpTest(ctx context.Context, module, class, method string) error {
	if !e.db.DumpExists(StandardDump) {
		if !e.installed(ctx, module) {
			e.sink.Info(notify.TopicInstall, "Install module: "+module)
			if !e.installModule(ctx, module) {
				return fmt.Errorf("%w: install %s", ErrLaunch, module)
			}
		}
		if err := e.db.Dump(ctx, StandardDump); err != nil {
			return err
		}
	} else if err := e.restore(ctx, StandardDump); err != nil {
		return err
	}
	return e.RunTest(ctx, module, class, method)
}

// RunStandaloneTest runs the standalone test tag of module. The first
// successful setup is dumped so later runs start from the snapshot.
func (e *Engine) RunStandaloneTest(ctx context.Context, module, tag string) error {
	dumpExists := e.db.DumpExists(StandaloneDump)
	if dumpExists {
		if err := e.restore(ctx, StandaloneDump); err != nil {
			return err
		}
	}
	switch {
	case !e.installed(ctx, module):
		e.sink.Info(notify.TopicInstall, "Install module: "+module)
		if !e.installModule(ctx, module) {
			return fmt.Errorf("%w: install %s", ErrLaunch, module)
		}
		e.db.DeleteDump(StandaloneDump)
		if err := e.db.Dump(ctx, StandaloneDump); err != nil {
			return err
		}
	case !dumpExists:
		if err := e.db.Dump(ctx, StandaloneDump); err != nil {
			return err
		}
	}

	e.sink.Info(notify.TopicTest, "Run standalone test: "+tag)
	return e.runStandalone(ctx, tag)
}
