// Package execx runs external commands for odoo-test.
//
// Every database and version-control operation goes through the Runner
// interface so that workflows can be exercised without PostgreSQL client
// tools or git being installed.
//
//	runner := execx.NewExecRunner()
//	out, err := runner.Run(ctx, execx.Command{Name: "git", Args: []string{"rev-parse", "HEAD"}, Dir: repo})
//
// A non-zero exit is returned as a *CommandError carrying the trimmed
// stderr of the process.
//
// Fake records every command and answers from scripted responses; it is
// used by the tests of the packages built on top of Runner.
package execx
