package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"odootest/pkg/logging"
)

const (
	userConfigDir    = ".config/odoo-test"
	projectConfigDir = ".odoo-test"
	configFileName   = "config.yaml"
	dotEnvFileName   = ".env"
)

// Environment variables overriding file settings.
const (
	EnvDatabaseName    = "ODOO_TEST_DATABASE_NAME"
	EnvUpgradeFrom     = "ODOO_TEST_UPGRADE_FROM"
	EnvDatabaseDSN     = "ODOO_TEST_DATABASE_DSN"
	EnvMirrorAccessKey = "ODOO_TEST_MIRROR_ACCESS_KEY"
	EnvMirrorSecretKey = "ODOO_TEST_MIRROR_SECRET_KEY"
	EnvMirrorUseSSL    = "ODOO_TEST_MIRROR_USE_SSL"
)

// Paths locates the settings files of one workspace.
type Paths struct {
	// Workspace is the primary workspace folder.
	Workspace string
	// UserDir holds the user settings file.
	UserDir string
}

// DefaultPaths returns the paths for workspace with the user file under the
// home directory.
func DefaultPaths(workspace string) (Paths, error) {
	abs, err := filepath.Abs(workspace)
	if err != nil {
		return Paths{}, fmt.Errorf("resolving workspace %s: %w", workspace, err)
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return Paths{}, fmt.Errorf("could not determine user config directory: %w", err)
	}
	return Paths{Workspace: abs, UserDir: filepath.Join(homeDir, userConfigDir)}, nil
}

// UserFile is the path of the user settings file.
func (p Paths) UserFile() string {
	return filepath.Join(p.UserDir, configFileName)
}

// ProjectFile is the path of the project settings file.
func (p Paths) ProjectFile() string {
	return filepath.Join(p.Workspace, projectConfigDir, configFileName)
}

// File returns the settings file of scope.
func (p Paths) File(scope Scope) (string, error) {
	switch scope {
	case ScopeUser:
		return p.UserFile(), nil
	case ScopeProject:
		return p.ProjectFile(), nil
	}
	return "", fmt.Errorf("unknown scope %q", scope)
}

// LoadConfig builds the effective configuration for p.
func LoadConfig(p Paths) (Config, error) {
	config := GetDefaultConfig()

	if err := loadDotEnv(filepath.Join(p.Workspace, dotEnvFileName)); err != nil {
		return Config{}, err
	}
	if err := mergeFile(&config, p.UserFile(), ScopeUser); err != nil {
		return Config{}, err
	}
	if err := mergeFile(&config, p.ProjectFile(), ScopeProject); err != nil {
		return Config{}, err
	}
	applyEnv(&config)
	resolvePaths(&config, p.Workspace)
	return config, nil
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return &LoadError{FilePath: path, Source: ScopeProject, Err: err}
	}
	logging.Debug("ConfigLoader", "Loaded environment from %s", path)
	return nil
}

// mergeFile decodes the file on top of config. Keys absent from the file
// keep their previous value.
func mergeFile(config *Config, path string, scope Scope) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.Debug("ConfigLoader", "No %s config found at %s", scope, path)
			return nil
		}
		return &LoadError{FilePath: path, Source: scope, Err: err}
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return &LoadError{FilePath: path, Source: scope, Err: err}
	}
	logging.Info("ConfigLoader", "Loaded %s configuration from %s", scope, path)
	return nil
}

func applyEnv(config *Config) {
	if v, ok := os.LookupEnv(EnvDatabaseName); ok && v != "" {
		config.DatabaseName = v
	}
	if v, ok := os.LookupEnv(EnvUpgradeFrom); ok && v != "" {
		config.UpgradeFrom = v
	}
	if v, ok := os.LookupEnv(EnvDatabaseDSN); ok && v != "" {
		config.DatabaseDSN = v
	}
	if v, ok := os.LookupEnv(EnvMirrorAccessKey); ok && v != "" {
		config.DumpMirror.AccessKey = v
	}
	if v, ok := os.LookupEnv(EnvMirrorSecretKey); ok && v != "" {
		config.DumpMirror.SecretKey = v
	}
	if v, ok := os.LookupEnv(EnvMirrorUseSSL); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			config.DumpMirror.UseSSL = b
		}
	}
}

func resolvePaths(config *Config, workspace string) {
	abs := func(p string) string {
		if p == "" {
			return ""
		}
		if strings.HasPrefix(p, "~/") {
			if home, err := os.UserHomeDir(); err == nil {
				p = filepath.Join(home, p[2:])
			}
		}
		if !filepath.IsAbs(p) {
			p = filepath.Join(workspace, p)
		}
		return filepath.Clean(p)
	}
	absAll := func(ps []string) []string {
		out := make([]string, 0, len(ps))
		for _, p := range ps {
			if p = abs(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}

	config.OdooBinPath = abs(config.OdooBinPath)
	config.ConfigPath = abs(config.ConfigPath)
	config.HotTestAddonsPath = abs(config.HotTestAddonsPath)
	config.AddonsPath = absAll(config.AddonsPath)
	config.UpgradePath = absAll(config.UpgradePath)
	config.WorkspaceFolders = absAll(config.WorkspaceFolders)
	if len(config.WorkspaceFolders) == 0 {
		config.WorkspaceFolders = []string{workspace}
	}
	if config.DumpPath == "" {
		config.DumpPath = filepath.Join(workspace, ".dumps")
	} else {
		config.DumpPath = abs(config.DumpPath)
	}
}
