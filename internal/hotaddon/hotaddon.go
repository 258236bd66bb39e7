// Package hotaddon ships the hot_test Odoo addon. The addon listens on the
// PostgreSQL channel hot_test and runs the JSON-RPC statements sent by the
// hot test session.
package hotaddon

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"odootest/pkg/logging"
)

const subsystem = "HotAddon"

// Module is the technical name of the addon.
const Module = "hot_test"

//go:embed all:hot_test
var files embed.FS

// FS returns the addon sources rooted at the addons directory, so the
// addon itself is the hot_test directory.
func FS() fs.FS {
	return files
}

// Extract writes the addon to dir/hot_test and returns dir, the addons path
// to pass to Odoo. Files whose content is already up to date are left
// untouched.
func Extract(dir string) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("no directory to extract %s to", Module)
	}
	written := 0
	err := fs.WalkDir(files, Module, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		target := filepath.Join(dir, filepath.FromSlash(path))
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		data, err := files.ReadFile(path)
		if err != nil {
			return err
		}
		if current, err := os.ReadFile(target); err == nil && bytes.Equal(current, data) {
			return nil
		}
		written++
		return os.WriteFile(target, data, 0o644)
	})
	if err != nil {
		return "", fmt.Errorf("extracting %s addon: %w", Module, err)
	}
	if written > 0 {
		logging.Debug(subsystem, "Extracted %d files of %s to %s", written, Module, dir)
	}
	return dir, nil
}
