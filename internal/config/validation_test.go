package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig(t *testing.T) Config {
	t.Helper()
	root := t.TempDir()
	bin := filepath.Join(root, "odoo", "odoo-bin")
	addons := filepath.Join(root, "odoo", "addons")
	upgrade := filepath.Join(root, "upgrade")
	require.NoError(t, os.MkdirAll(addons, 0755))
	require.NoError(t, os.MkdirAll(upgrade, 0755))
	require.NoError(t, os.WriteFile(bin, []byte("#!/usr/bin/env python3\n"), 0755))

	c := GetDefaultConfig()
	c.OdooBinPath = bin
	c.AddonsPath = []string{addons}
	c.UpgradePath = []string{upgrade}
	return c
}

func fields(errs ValidationErrors) []Key {
	var out []Key
	for _, e := range errs {
		out = append(out, e.Field)
	}
	return out
}

func TestValidateAcceptsValidConfig(t *testing.T) {
	errs := Validate(validConfig(t))
	assert.False(t, errs.HasErrors(), errs.Error())
}

func TestValidateDatabaseName(t *testing.T) {
	c := validConfig(t)
	c.DatabaseName = ""
	assert.Equal(t, []Key{KeyDatabaseName}, fields(Validate(c)))

	c.DatabaseName = "bad name;"
	errs := Validate(c)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, "letters, numbers, hyphens and underscores")

	c.DatabaseName = "odoo-17_test"
	assert.Empty(t, Validate(c))
}

func TestValidateUpgradeFrom(t *testing.T) {
	c := validConfig(t)
	for _, ok := range []string{"", "current", "16.0", "saas-16.3", "master"} {
		c.UpgradeFrom = ok
		assert.Empty(t, Validate(c), ok)
	}
	for _, bad := range []string{"saas~16.3", "sixteen"} {
		c.UpgradeFrom = bad
		assert.Equal(t, []Key{KeyUpgradeFrom}, fields(Validate(c)), bad)
	}
}

func TestValidateOdooBinPath(t *testing.T) {
	c := validConfig(t)
	c.OdooBinPath = " "
	assert.Equal(t, []Key{KeyOdooBinPath}, fields(Validate(c)))

	c.OdooBinPath = "/does/not/exist/odoo-bin"
	assert.Equal(t, []Key{KeyOdooBinPath}, fields(Validate(c)))

	other := filepath.Join(t.TempDir(), "odoo.py")
	require.NoError(t, os.WriteFile(other, nil, 0644))
	c.OdooBinPath = other
	errs := Validate(c)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, "File name should be 'odoo-bin', found: odoo.py")
}

func TestValidatePaths(t *testing.T) {
	c := validConfig(t)
	file := filepath.Join(t.TempDir(), "plain")
	require.NoError(t, os.WriteFile(file, nil, 0644))

	c.AddonsPath = nil
	assert.Equal(t, []Key{KeyAddonsPath}, fields(Validate(c)))

	c.AddonsPath = []string{"/missing", file}
	c.UpgradePath = []string{file}
	c.ConfigPath = "/missing/odoo.conf"
	errs := Validate(c)
	assert.Equal(t, []Key{KeyAddonsPath, KeyAddonsPath, KeyConfigPath, KeyUpgradePath}, fields(errs))
	assert.Contains(t, errs[0].Message, "does not exist")
	assert.Contains(t, errs[1].Message, "is not a directory")
}

func TestValidateLayout(t *testing.T) {
	c := validConfig(t)
	c.StandardTestLayout = [][]string{{"run", "explode"}, {}}
	errs := Validate(c)
	assert.Equal(t, []Key{KeyStandardTestLayout, KeyStandardTestLayout}, fields(errs))
}

func TestValidationErrorsMessage(t *testing.T) {
	var errs ValidationErrors
	assert.Equal(t, "no validation errors", errs.Error())
	errs.Add(KeyDatabaseName, "Database name cannot be empty")
	assert.Equal(t, "databaseName: Database name cannot be empty", errs.Error())
	errs.Add(KeyAddonsPath, "At least one valid addons path is required")
	assert.Contains(t, errs.Error(), "validation failed: ")
}
