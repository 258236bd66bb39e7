// Package mcpserver exposes a dispatch session to an editor over the Model
// Context Protocol on stdio.
//
// An editor extension connects to `odoo-test serve`, asks for the lenses of
// the file it is showing and calls the dispatch tool when the user clicks
// one. Every toggle (run mode, button layer, hot test, SQL logging) changes
// the session state, and the server pushes a lenses-changed notification so
// the editor can re-query the visible files.
//
// # Tools
//
//   - lenses: the annotations of one Python file
//   - dispatch: run an action with its arguments
//   - state: the current UI state snapshot
//   - history: the recorded executions, newest last
//   - actions: the action table with usages
//   - check_config: the configuration validation problems
//
// Tool failures are returned as error results, not protocol errors, the way
// mcp-go tools report them.
package mcpserver
