package launcher

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/google/uuid"

	"odootest/internal/classify"
)

// Kind selects the entry point and the arguments of a launch.
type Kind string

const (
	KindStandard   Kind = "standard"
	KindStandalone Kind = "standalone"
	KindUpgrade    Kind = "upgrade"
	// KindHot is the long-lived server hosting the hot_test addon.
	KindHot Kind = "hot"
)

// Settings are the configuration values a launch is built from.
type Settings struct {
	OdooBinPath      string
	DatabaseName     string
	ConfigPath       string
	AddonsPath       []string
	UpgradePath      []string
	WorkspaceFolders []string
	PythonPath       string
	// ExtraAddonsPath is appended to the addons path, e.g. the directory
	// holding the hot_test addon.
	ExtraAddonsPath []string
}

// LaunchConfig is a fully resolved application launch.
type LaunchConfig struct {
	ID      string   `json:"id" yaml:"id"`
	Kind    Kind     `json:"kind" yaml:"kind"`
	Name    string   `json:"name" yaml:"name"`
	Python  string   `json:"python" yaml:"python"`
	Program string   `json:"program" yaml:"program"`
	Args    []string `json:"args" yaml:"args"`
	Cwd     string   `json:"cwd" yaml:"cwd"`
}

// Argv returns the full command line.
func (c LaunchConfig) Argv() []string {
	argv := []string{}
	if c.Python != "" {
		argv = append(argv, c.Python)
	}
	argv = append(argv, c.Program)
	return append(argv, c.Args...)
}

// String renders the command line.
func (c LaunchConfig) String() string {
	return strings.Join(c.Argv(), " ")
}

// With returns a copy with args appended and label added to the name.
// The copy gets a new ID.
func (c LaunchConfig) With(label string, args ...string) LaunchConfig {
	out := c
	out.ID = uuid.NewString()
	out.Args = append(slices.Clone(c.Args), args...)
	if label != "" {
		out.Name = fmt.Sprintf("%s(%s)", c.Name, label)
	}
	return out
}

// BuildConfig resolves the launch of kind. The working directory is the
// first workspace folder containing odoo-bin; addons and upgrade paths are
// passed relative to it.
func BuildConfig(kind Kind, s Settings) (LaunchConfig, error) {
	if len(s.WorkspaceFolders) == 0 {
		return LaunchConfig{}, fmt.Errorf("no workspace folders found")
	}
	if s.OdooBinPath == "" {
		return LaunchConfig{}, fmt.Errorf("odoo-bin path is not configured")
	}
	var cwd string
	for _, folder := range s.WorkspaceFolders {
		if classify.IsUnder(s.OdooBinPath, folder) {
			cwd = folder
			break
		}
	}
	if cwd == "" {
		return LaunchConfig{}, fmt.Errorf("odoo bin path not found in any workspace folder")
	}

	program := s.OdooBinPath
	if kind == KindStandalone {
		program = filepath.Join(filepath.Dir(s.OdooBinPath), "odoo", "tests", "test_module_operations.py")
	}

	args := []string{"-d", s.DatabaseName}
	if s.ConfigPath != "" && kind != KindStandalone {
		args = append(args, "-c", s.ConfigPath)
	}
	addons := append(slices.Clone(s.AddonsPath), s.ExtraAddonsPath...)
	args = append(args, "--addons-path", strings.Join(relativeAll(cwd, addons), ","))
	if kind == KindUpgrade {
		args = append(args, "--upgrade-path", strings.Join(relativeAll(cwd, s.UpgradePath), ","))
	}

	python := s.PythonPath
	if python == "" {
		python = "python3"
	}
	return LaunchConfig{
		ID:      uuid.NewString(),
		Kind:    kind,
		Name:    fmt.Sprintf("Launch for %s", kind),
		Python:  python,
		Program: program,
		Args:    args,
		Cwd:     cwd,
	}, nil
}

func relativeAll(base string, paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		rel, err := filepath.Rel(base, p)
		if err != nil {
			rel = p
		}
		out = append(out, rel)
	}
	return out
}
