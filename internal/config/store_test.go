package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestStoreGet(t *testing.T) {
	s, err := NewStore(testPaths(t))
	require.NoError(t, err)

	v, err := s.Get(KeyDatabaseName)
	require.NoError(t, err)
	assert.Equal(t, "odoo_test", v)

	_, err = s.Get("databaseNmae")
	assert.ErrorIs(t, err, ErrUnknownKey)
}

func TestStoreSetProjectScope(t *testing.T) {
	p := testPaths(t)
	s, err := NewStore(p)
	require.NoError(t, err)

	require.NoError(t, s.Set(KeyDatabaseName, "sale_db", ScopeProject))
	require.NoError(t, s.Set(KeyUpgradeFrom, "saas-16.3", ScopeProject))

	assert.Equal(t, "sale_db", s.Config().DatabaseName)
	assert.Equal(t, "saas-16.3", s.Config().UpgradeFrom)

	data, err := os.ReadFile(p.ProjectFile())
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, yaml.Unmarshal(data, &doc))
	assert.Equal(t, "sale_db", doc["databaseName"])
	assert.Equal(t, "saas-16.3", doc["upgradeFrom"])
}

func TestStoreSetUserScopeIsOverriddenByProject(t *testing.T) {
	p := testPaths(t)
	writeFile(t, p.ProjectFile(), "databaseName: project_db\n")
	s, err := NewStore(p)
	require.NoError(t, err)

	require.NoError(t, s.Set(KeyDatabaseName, "user_db", ScopeUser))

	assert.Equal(t, "project_db", s.Config().DatabaseName)
	_, err = os.Stat(p.UserFile())
	assert.NoError(t, err)
}

func TestStoreSetRejectsUnknownKeyAndBadType(t *testing.T) {
	s, err := NewStore(testPaths(t))
	require.NoError(t, err)

	assert.ErrorIs(t, s.Set("nope", "x", ScopeProject), ErrUnknownKey)
	assert.Error(t, s.Set(KeyAddonsPath, map[string]int{"a": 1}, ScopeProject))
}

func TestStaticStoreCannotSet(t *testing.T) {
	s := NewStaticStore(GetDefaultConfig())
	assert.Error(t, s.Set(KeyDatabaseName, "x", ScopeProject))
	assert.Equal(t, "odoo_test", s.Config().DatabaseName)
}

func TestParseValue(t *testing.T) {
	v, err := ParseValue(KeyAddonsPath, "[/a, /b]")
	require.NoError(t, err)
	assert.Equal(t, []string{"/a", "/b"}, v)

	v, err = ParseValue(KeyStandardTestLayout, "[[run, cleanup], [runDump]]")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"run", "cleanup"}, {"runDump"}}, v)

	v, err = ParseValue(KeyDumpMirror, "{endpoint: localhost:9000, bucket: dumps}")
	require.NoError(t, err)
	assert.Equal(t, DumpMirror{Endpoint: "localhost:9000", Bucket: "dumps"}, v)

	v, err = ParseValue(KeyDatabaseName, "odoo17")
	require.NoError(t, err)
	assert.Equal(t, "odoo17", v)

	_, err = ParseValue("unknown", "x")
	assert.ErrorIs(t, err, ErrUnknownKey)
}

func TestConfigValueCoversAllKeys(t *testing.T) {
	c := GetDefaultConfig()
	for _, k := range AllKeys {
		_, err := c.Value(k)
		assert.NoError(t, err, "key %s", k)
	}
}
