// Package app wires the odoo-test components into one process.
//
// NewApplication configures logging, loads the layered workspace settings
// and calls InitializeServices, which builds the notification sinks, the
// database and registry clients, the launcher, the workflow engine and the
// dispatcher shared by every surface. The one-shot cobra commands use the
// Services directly; Run drives the long-lived modes:
//
//   - ModeServe: the stdio MCP server for editors. Logs are JSON on stderr,
//     notifications are forwarded to the editor and application output goes
//     to stderr.
//   - ModeInteractive: the readline REPL.
//
// Both modes watch the settings files and apply a reload to the muted
// topics, the button layout and the target database through Services.Apply.
package app
