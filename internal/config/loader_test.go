package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPaths(t *testing.T) Paths {
	t.Helper()
	root := t.TempDir()
	p := Paths{
		Workspace: filepath.Join(root, "ws"),
		UserDir:   filepath.Join(root, "home", userConfigDir),
	}
	require.NoError(t, os.MkdirAll(p.Workspace, 0755))
	for _, env := range []string{EnvDatabaseName, EnvUpgradeFrom, EnvDatabaseDSN, EnvMirrorAccessKey, EnvMirrorSecretKey, EnvMirrorUseSSL} {
		t.Setenv(env, "")
		require.NoError(t, os.Unsetenv(env))
	}
	return p
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestLoadConfigDefaults(t *testing.T) {
	p := testPaths(t)

	c, err := LoadConfig(p)

	require.NoError(t, err)
	assert.Equal(t, "odoo_test", c.DatabaseName)
	assert.Equal(t, UpgradeFromCurrent, c.UpgradeFrom)
	assert.Equal(t, "python3", c.PythonPath)
	assert.Equal(t, filepath.Join(p.Workspace, ".dumps"), c.DumpPath)
	assert.Equal(t, []string{p.Workspace}, c.WorkspaceFolders)
	assert.Equal(t, [][]string{
		{"run", "cleanup"},
		{"updateRun", "cleanup"},
		{"runDump", "dump", "cleanup"},
	}, c.StandardTestLayout)
}

func TestLoadConfigLayering(t *testing.T) {
	p := testPaths(t)
	writeFile(t, p.UserFile(), `
databaseName: user_db
pythonPath: /usr/bin/python3.12
mutedTopics: [git]
`)
	writeFile(t, p.ProjectFile(), `
databaseName: project_db
odooBinPath: odoo/odoo-bin
addonsPath:
  - odoo/addons
  - enterprise
`)

	c, err := LoadConfig(p)

	require.NoError(t, err)
	assert.Equal(t, "project_db", c.DatabaseName)
	assert.Equal(t, "/usr/bin/python3.12", c.PythonPath)
	assert.Equal(t, []string{"git"}, c.MutedTopics)
	assert.Equal(t, filepath.Join(p.Workspace, "odoo", "odoo-bin"), c.OdooBinPath)
	assert.Equal(t, []string{
		filepath.Join(p.Workspace, "odoo", "addons"),
		filepath.Join(p.Workspace, "enterprise"),
	}, c.AddonsPath)
}

func TestLoadConfigEnvironmentWins(t *testing.T) {
	p := testPaths(t)
	writeFile(t, p.ProjectFile(), "databaseName: project_db\nupgradeFrom: \"16.0\"\n")
	t.Setenv(EnvDatabaseName, "env_db")
	t.Setenv(EnvMirrorSecretKey, "s3cret")
	t.Setenv(EnvMirrorUseSSL, "true")

	c, err := LoadConfig(p)

	require.NoError(t, err)
	assert.Equal(t, "env_db", c.DatabaseName)
	assert.Equal(t, "16.0", c.UpgradeFrom)
	assert.Equal(t, "s3cret", c.DumpMirror.SecretKey)
	assert.True(t, c.DumpMirror.UseSSL)
}

func TestLoadConfigReadsDotEnv(t *testing.T) {
	p := testPaths(t)
	writeFile(t, filepath.Join(p.Workspace, ".env"), EnvDatabaseDSN+"=\"host=localhost user=odoo\"\n")

	c, err := LoadConfig(p)

	require.NoError(t, err)
	assert.Equal(t, "host=localhost user=odoo", c.DatabaseDSN)
}

func TestLoadConfigMalformedFile(t *testing.T) {
	p := testPaths(t)
	writeFile(t, p.ProjectFile(), "addonsPath: [unterminated\n")

	_, err := LoadConfig(p)

	require.Error(t, err)
	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, ScopeProject, loadErr.Source)
	assert.Equal(t, p.ProjectFile(), loadErr.FilePath)
}

func TestPathsFile(t *testing.T) {
	p := Paths{Workspace: "/ws", UserDir: "/home/u/.config/odoo-test"}

	f, err := p.File(ScopeUser)
	require.NoError(t, err)
	assert.Equal(t, "/home/u/.config/odoo-test/config.yaml", f)

	f, err = p.File(ScopeProject)
	require.NoError(t, err)
	assert.Equal(t, "/ws/.odoo-test/config.yaml", f)

	_, err = p.File("global")
	assert.Error(t, err)
}
