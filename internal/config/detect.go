package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	"odootest/internal/classify"
	"odootest/pkg/logging"
)

// maxProbedSubdirs bounds how many module candidates are inspected before a
// directory is rejected as an addons or upgrade root.
const maxProbedSubdirs = 4

// Detection holds the paths found by Detect.
type Detection struct {
	OdooBinPath string   `json:"odooBinPath" yaml:"odooBinPath"`
	AddonsPath  []string `json:"addonsPath" yaml:"addonsPath"`
	UpgradePath []string `json:"upgradePath" yaml:"upgradePath"`
	ConfigPath  string   `json:"configPath,omitempty" yaml:"configPath,omitempty"`
	DumpPath    string   `json:"dumpPath" yaml:"dumpPath"`
}

// Detect looks for an Odoo checkout in folders. It reports false when no
// odoo-bin is found, in which case nothing else is detected.
func Detect(folders []string) (Detection, bool) {
	var d Detection
	for _, folder := range folders {
		for _, candidate := range []string{
			filepath.Join(folder, "odoo-bin"),
			filepath.Join(folder, "odoo", "odoo-bin"),
		} {
			if isFile(candidate) {
				d.OdooBinPath = candidate
				break
			}
		}
		if d.OdooBinPath != "" {
			break
		}
	}
	if d.OdooBinPath == "" {
		return Detection{}, false
	}

	odooDir := filepath.Dir(d.OdooBinPath)
	d.AddonsPath = []string{
		filepath.Join(odooDir, "odoo", "addons"),
		filepath.Join(odooDir, "addons"),
	}
	addAddons := func(p string) {
		if !slices.Contains(d.AddonsPath, p) {
			d.AddonsPath = append(d.AddonsPath, p)
		}
	}
	for _, folder := range folders {
		if isAddonsRoot(folder) {
			addAddons(folder)
			continue
		}
		for _, item := range visibleSubdirs(folder) {
			if p := filepath.Join(folder, item); isAddonsRoot(p) {
				addAddons(p)
			}
		}
	}

	d.UpgradePath = []string{}
	for _, folder := range folders {
		if isFile(filepath.Join(folder, "src", "util", "modules.py")) {
			d.UpgradePath = append(d.UpgradePath, filepath.Join(folder, "src"))
		} else if isFile(filepath.Join(folder, "upgrade-util", "src", "util", "modules.py")) {
			d.UpgradePath = append(d.UpgradePath, filepath.Join(folder, "upgrade-util", "src"))
		}
	}
	for _, folder := range folders {
		if isModuleUpgradeRoot(folder) {
			d.UpgradePath = append(d.UpgradePath, folder)
			continue
		}
		if p := filepath.Join(folder, "migrations"); isModuleUpgradeRoot(p) {
			d.UpgradePath = append(d.UpgradePath, p)
			continue
		}
		for _, item := range visibleSubdirs(folder) {
			p := filepath.Join(folder, item)
			if isModuleUpgradeRoot(p) {
				d.UpgradePath = append(d.UpgradePath, p)
				continue
			}
			if p = filepath.Join(p, "migrations"); isModuleUpgradeRoot(p) {
				d.UpgradePath = append(d.UpgradePath, p)
			}
		}
	}

	for _, folder := range folders {
		if p := filepath.Join(folder, "odoo.conf"); isFile(p) {
			d.ConfigPath = p
			break
		}
	}

	for _, folder := range folders {
		if p := filepath.Join(folder, ".dumps"); isDir(p) {
			d.DumpPath = p
			break
		}
	}
	if d.DumpPath == "" && len(folders) > 0 {
		d.DumpPath = filepath.Join(folders[0], ".dumps")
	}

	logging.Info("Config", "Detected odoo-bin at %s with %d addons and %d upgrade paths",
		d.OdooBinPath, len(d.AddonsPath), len(d.UpgradePath))
	return d, true
}

// ResetPaths runs Detect over the workspace folders and stores the result in
// the project file.
func (s *Store) ResetPaths() (Detection, bool, error) {
	d, ok := Detect(s.Config().WorkspaceFolders)
	if !ok {
		return Detection{}, false, nil
	}
	values := map[Key]any{
		KeyOdooBinPath: d.OdooBinPath,
		KeyAddonsPath:  d.AddonsPath,
		KeyUpgradePath: d.UpgradePath,
		KeyDumpPath:    d.DumpPath,
	}
	if d.ConfigPath != "" {
		values[KeyConfigPath] = d.ConfigPath
	}
	if err := s.SetMany(values, ScopeProject); err != nil {
		return d, true, err
	}
	return d, true, nil
}

// visibleSubdirs lists the directories of dir whose name has no dot.
func visibleSubdirs(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if strings.Contains(e.Name(), ".") {
			continue
		}
		if isDir(filepath.Join(dir, e.Name())) {
			names = append(names, e.Name())
		}
	}
	return names
}

// isAddonsRoot reports whether dir holds <module>/__manifest__.py.
func isAddonsRoot(dir string) bool {
	if !isDir(dir) {
		return false
	}
	for i, item := range visibleSubdirs(dir) {
		if isFile(filepath.Join(dir, item, "__manifest__.py")) {
			return true
		}
		if i+1 >= maxProbedSubdirs {
			break
		}
	}
	return false
}

// isModuleUpgradeRoot reports whether dir holds <module>/<version>/ folders
// with migration scripts.
func isModuleUpgradeRoot(dir string) bool {
	if !isDir(dir) {
		return false
	}
	for i, item := range visibleSubdirs(dir) {
		moduleDir := filepath.Join(dir, item)
		entries, err := os.ReadDir(moduleDir)
		if err == nil {
			for _, sub := range entries {
				if strings.HasPrefix(sub.Name(), ".") {
					continue
				}
				stepDir := filepath.Join(moduleDir, sub.Name())
				if !isDir(stepDir) {
					continue
				}
				files, err := os.ReadDir(stepDir)
				if err != nil {
					continue
				}
				for _, f := range files {
					if classify.IsMigrationScript(f.Name()) {
						return true
					}
				}
			}
		}
		if i+1 >= maxProbedSubdirs {
			break
		}
	}
	return false
}
