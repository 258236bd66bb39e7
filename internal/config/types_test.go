package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyRoots(t *testing.T) {
	c := GetDefaultConfig()
	c.OdooBinPath = "/src/odoo/odoo-bin"
	c.AddonsPath = []string{"/src/enterprise"}
	c.UpgradePath = []string{"/src/upgrade/migrations"}

	roots := c.ClassifyRoots()

	assert.Equal(t, "/src/odoo/odoo/addons", roots.Builtin)
	assert.Equal(t, []string{"/src/enterprise"}, roots.Addons)
	assert.Equal(t, []string{"/src/upgrade/migrations"}, roots.Upgrade)

	c.OdooBinPath = ""
	assert.Empty(t, c.ClassifyRoots().Builtin)
}

func TestDumpMirrorEnabled(t *testing.T) {
	assert.False(t, DumpMirror{}.Enabled())
	assert.False(t, DumpMirror{Endpoint: "localhost:9000"}.Enabled())
	assert.True(t, DumpMirror{Endpoint: "localhost:9000", Bucket: "dumps"}.Enabled())
}

func TestIsKnown(t *testing.T) {
	assert.True(t, IsKnown(KeyHotTestAddonsPath))
	assert.False(t, IsKnown("odooTest.databaseName"))
}
