// Package classify maps a source file to the kind of Odoo test or upgrade
// script it holds, based on where it sits relative to the configured roots.
package classify

import (
	"path/filepath"
	"strings"

	"odootest/internal/version"
)

// Category of a classified file.
type Category string

const (
	StandardTest   Category = "standard_test"
	StandaloneTest Category = "standalone_test"
	UpgradeTest    Category = "upgrade_test"
	UpgradeScript  Category = "upgrade_script"
)

// TestFilePrefix is the base name prefix of Odoo test files.
const TestFilePrefix = "test_"

// MigrationPrefixes are the base name prefixes of upgrade scripts.
var MigrationPrefixes = []string{"pre-", "post-", "end-"}

// TestLocation is the result of classifying a file.
type TestLocation struct {
	Category   Category `json:"category" yaml:"category"`
	ModuleName string   `json:"module" yaml:"module"`
}

// Roots holds the configured directory lists a file is classified against.
type Roots struct {
	// Addons are the configured addons directories.
	Addons []string
	// Upgrade are the configured upgrade directories.
	Upgrade []string
	// Builtin is the addons directory shipped inside the Odoo source tree.
	// It is checked before Addons.
	Builtin string
}

// IsMigrationScript reports whether the base name carries a migration step prefix.
func IsMigrationScript(baseName string) bool {
	for _, p := range MigrationPrefixes {
		if strings.HasPrefix(baseName, p) {
			return true
		}
	}
	return false
}

// Classify returns the location of filePath, or false when it is neither a
// test nor an upgrade script under one of the roots.
func Classify(filePath string, roots Roots) (TestLocation, bool) {
	filePath = filepath.Clean(filePath)
	base := filepath.Base(filePath)
	dir := filepath.Dir(filePath)

	if IsMigrationScript(base) {
		if firstRoot(filePath, roots.Upgrade) == "" {
			return TestLocation{}, false
		}
		if _, ok := version.Parse(filepath.Base(dir)); !ok {
			return TestLocation{}, false
		}
		return TestLocation{
			Category:   UpgradeScript,
			ModuleName: filepath.Base(filepath.Dir(dir)),
		}, true
	}

	if !strings.HasPrefix(base, TestFilePrefix) {
		return TestLocation{}, false
	}

	addons := roots.Addons
	if roots.Builtin != "" {
		addons = append([]string{roots.Builtin}, roots.Addons...)
	}
	if firstRoot(dir, addons) != "" {
		return testsOwner(dir, StandardTest)
	}
	if firstRoot(dir, roots.Upgrade) != "" {
		return testsOwner(dir, UpgradeTest)
	}
	return TestLocation{}, false
}

// testsOwner walks up from dir to the nearest directory named "tests" and
// reports its parent as the module.
func testsOwner(dir string, category Category) (TestLocation, bool) {
	for {
		if filepath.Base(dir) == "tests" {
			return TestLocation{
				Category:   category,
				ModuleName: filepath.Base(filepath.Dir(dir)),
			}, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return TestLocation{}, false
		}
		dir = parent
	}
}

// firstRoot returns the first root containing p, in declaration order.
func firstRoot(p string, roots []string) string {
	for _, r := range roots {
		if r == "" {
			continue
		}
		if IsUnder(p, r) {
			return r
		}
	}
	return ""
}

// IsUnder reports whether p equals root or lies below it. Unlike a plain
// string prefix check, "/src/addons2" is not under "/src/addons".
func IsUnder(p, root string) bool {
	p = filepath.Clean(p)
	root = filepath.Clean(root)
	if p == root {
		return true
	}
	if !strings.HasSuffix(root, string(filepath.Separator)) {
		root += string(filepath.Separator)
	}
	return strings.HasPrefix(p, root)
}
