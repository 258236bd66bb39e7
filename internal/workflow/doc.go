// Package workflow sequences the external operations behind every odoo-test
// action.
//
// An Engine combines the database lifecycle (drop, create, restore, dump),
// module registry queries, git checkouts and application launches:
//
//   - RunTest, RunUpdateTest and RunDumpTest run standard tests, installing
//     or updating the module in the same run, or starting from standard.dump.
//   - RunStandaloneTest restores or writes standalone.dump and runs one
//     standalone tag.
//   - PrepareUpgrade, UpgradeDatabase and CheckUpgradeTest drive an upgrade
//     test from the branch upgraded from to the checked out code.
//   - Cleanup and DumpTestDatabase manage the dump artifacts.
//   - StartHotTest, RunHotTest and ToggleHotTestLogSQL drive a long-lived
//     server that runs tests on request.
//
// Workflows report progress and problems through a notify.Sink. A workflow
// stopped by a failed check returns an error wrapping ErrPrecondition;
// external command failures are returned as is. The Engine does not
// serialize callers; guards are applied by the dispatch layer.
//
// History keeps a bounded in-memory record of dispatched actions.
package workflow
