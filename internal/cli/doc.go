// Package cli holds the terminal surfaces of odoo-test: output in table,
// plain, JSON and YAML form, the progress spinner and the interactive REPL
// that keeps one dispatch session alive across commands.
package cli
