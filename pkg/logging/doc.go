// Package logging provides the subsystem-tagged structured logger used across odoo-test.
//
// It is a thin layer over log/slog. Each call names the subsystem that produced
// the entry so output from the database, git and launcher layers can be told
// apart when a workflow interleaves them.
//
// # Usage
//
//	logging.InitForCLI(logging.LevelInfo, os.Stderr)
//
//	logging.Info("Database", "Dropping database %s", name)
//	logging.Debug("Git", "Checking status of %s", repo)
//	logging.Warn("Workflow", "Module %s is not installed", module)
//	logging.Error("Launcher", err, "Failed to start %s", program)
//
// The MCP server writes protocol frames to stdout, so it initializes with
// InitForJSON on stderr instead.
//
// Messages below the configured level are dropped before formatting.
package logging
