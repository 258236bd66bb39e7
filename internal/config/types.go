package config

import (
	"path/filepath"

	"odootest/internal/classify"
)

// Key names one recognized setting.
type Key string

const (
	KeyDatabaseName       Key = "databaseName"
	KeyUpgradeFrom        Key = "upgradeFrom"
	KeyOdooBinPath        Key = "odooBinPath"
	KeyAddonsPath         Key = "addonsPath"
	KeyUpgradePath        Key = "upgradePath"
	KeyConfigPath         Key = "configPath"
	KeyDumpPath           Key = "dumpPath"
	KeyStandardTestLayout Key = "standardTestLayout"
	KeyPythonPath         Key = "pythonPath"
	KeyDatabaseDSN        Key = "databaseDSN"
	KeyHotTestAddonsPath  Key = "hotTestAddonsPath"
	KeyMutedTopics        Key = "mutedTopics"
	KeyWorkspaceFolders   Key = "workspaceFolders"
	KeyDumpMirror         Key = "dumpMirror"
)

// AllKeys lists the recognized keys in display order.
var AllKeys = []Key{
	KeyDatabaseName,
	KeyUpgradeFrom,
	KeyOdooBinPath,
	KeyAddonsPath,
	KeyUpgradePath,
	KeyConfigPath,
	KeyDumpPath,
	KeyStandardTestLayout,
	KeyPythonPath,
	KeyDatabaseDSN,
	KeyHotTestAddonsPath,
	KeyMutedTopics,
	KeyWorkspaceFolders,
	KeyDumpMirror,
}

// IsKnown reports whether k is a recognized key.
func IsKnown(k Key) bool {
	for _, known := range AllKeys {
		if known == k {
			return true
		}
	}
	return false
}

// Scope selects the file Set writes to.
type Scope string

const (
	ScopeUser    Scope = "user"
	ScopeProject Scope = "project"
)

// UpgradeFromCurrent means "upgrade from the checked out branches".
const UpgradeFromCurrent = "current"

// Config is the effective odoo-test configuration.
type Config struct {
	DatabaseName       string     `yaml:"databaseName" json:"databaseName"`
	UpgradeFrom        string     `yaml:"upgradeFrom" json:"upgradeFrom"`
	OdooBinPath        string     `yaml:"odooBinPath" json:"odooBinPath"`
	AddonsPath         []string   `yaml:"addonsPath" json:"addonsPath"`
	UpgradePath        []string   `yaml:"upgradePath" json:"upgradePath"`
	ConfigPath         string     `yaml:"configPath" json:"configPath"`
	DumpPath           string     `yaml:"dumpPath" json:"dumpPath"`
	StandardTestLayout [][]string `yaml:"standardTestLayout" json:"standardTestLayout"`
	PythonPath         string     `yaml:"pythonPath" json:"pythonPath"`
	DatabaseDSN        string     `yaml:"databaseDSN" json:"databaseDSN"`
	HotTestAddonsPath  string     `yaml:"hotTestAddonsPath" json:"hotTestAddonsPath"`
	MutedTopics        []string   `yaml:"mutedTopics" json:"mutedTopics"`
	WorkspaceFolders   []string   `yaml:"workspaceFolders" json:"workspaceFolders"`
	DumpMirror         DumpMirror `yaml:"dumpMirror" json:"dumpMirror"`
}

// DumpMirror is the S3-compatible bucket dump artifacts are copied to.
type DumpMirror struct {
	Endpoint  string `yaml:"endpoint" json:"endpoint"`
	Bucket    string `yaml:"bucket" json:"bucket"`
	Region    string `yaml:"region" json:"region"`
	AccessKey string `yaml:"accessKey" json:"accessKey"`
	SecretKey string `yaml:"secretKey" json:"-"`
	UseSSL    bool   `yaml:"useSSL" json:"useSSL"`
}

// Enabled reports whether a mirror is configured.
func (m DumpMirror) Enabled() bool {
	return m.Endpoint != "" && m.Bucket != ""
}

// Value returns the setting stored under k.
func (c Config) Value(k Key) (any, error) {
	switch k {
	case KeyDatabaseName:
		return c.DatabaseName, nil
	case KeyUpgradeFrom:
		return c.UpgradeFrom, nil
	case KeyOdooBinPath:
		return c.OdooBinPath, nil
	case KeyAddonsPath:
		return c.AddonsPath, nil
	case KeyUpgradePath:
		return c.UpgradePath, nil
	case KeyConfigPath:
		return c.ConfigPath, nil
	case KeyDumpPath:
		return c.DumpPath, nil
	case KeyStandardTestLayout:
		return c.StandardTestLayout, nil
	case KeyPythonPath:
		return c.PythonPath, nil
	case KeyDatabaseDSN:
		return c.DatabaseDSN, nil
	case KeyHotTestAddonsPath:
		return c.HotTestAddonsPath, nil
	case KeyMutedTopics:
		return c.MutedTopics, nil
	case KeyWorkspaceFolders:
		return c.WorkspaceFolders, nil
	case KeyDumpMirror:
		return c.DumpMirror, nil
	}
	return nil, unknownKey(k)
}

// ClassifyRoots returns the roots source files are classified against. The
// built-in addons directory sits next to odoo-bin.
func (c Config) ClassifyRoots() classify.Roots {
	roots := classify.Roots{Addons: c.AddonsPath, Upgrade: c.UpgradePath}
	if c.OdooBinPath != "" {
		roots.Builtin = filepath.Join(filepath.Dir(c.OdooBinPath), "odoo", "addons")
	}
	return roots
}
