// Package config is the typed settings store of odoo-test.
//
// Settings are layered, later layers winning:
//
//  1. built-in defaults
//  2. the user file ~/.config/odoo-test/config.yaml
//  3. the project file <workspace>/.odoo-test/config.yaml
//  4. ODOO_TEST_* environment variables, after <workspace>/.env is loaded
//
// Relative paths in the project file are resolved against the workspace.
//
// The recognized keys are the Key constants. Get fails with ErrUnknownKey
// for anything else; Set writes a single key into the user or project file
// and reloads the store.
//
// Check validates the effective settings and returns every problem found as
// ValidationErrors. Detect scans the workspace folders for an Odoo checkout
// and proposes odooBinPath, addonsPath, upgradePath, configPath and dumpPath.
// Watch reloads and re-validates when either settings file changes.
package config
