package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	roots := Roots{
		Addons:  []string{"/root/addons", "/root/enterprise"},
		Upgrade: []string{"/root/upgrade"},
		Builtin: "/root/odoo/odoo/addons",
	}

	tests := []struct {
		name string
		path string
		want TestLocation
		ok   bool
	}{
		{
			name: "standard test",
			path: "/root/addons/sale/tests/test_x.py",
			want: TestLocation{Category: StandardTest, ModuleName: "sale"},
			ok:   true,
		},
		{
			name: "nested test directory",
			path: "/root/enterprise/account_reports/tests/common/test_nested.py",
			want: TestLocation{Category: StandardTest, ModuleName: "account_reports"},
			ok:   true,
		},
		{
			name: "builtin addons root",
			path: "/root/odoo/odoo/addons/base/tests/test_ir.py",
			want: TestLocation{Category: StandardTest, ModuleName: "base"},
			ok:   true,
		},
		{
			name: "upgrade script",
			path: "/root/upgrade/sale/16.0/post-migrate.py",
			want: TestLocation{Category: UpgradeScript, ModuleName: "sale"},
			ok:   true,
		},
		{
			name: "upgrade script in saas folder",
			path: "/root/upgrade/stock/saas-16.3/pre-10-fields.py",
			want: TestLocation{Category: UpgradeScript, ModuleName: "stock"},
			ok:   true,
		},
		{
			name: "upgrade test",
			path: "/root/upgrade/sale/tests/test_sale_order.py",
			want: TestLocation{Category: UpgradeTest, ModuleName: "sale"},
			ok:   true,
		},
		{
			name: "neither test nor migration",
			path: "/root/addons/sale/models/sale_order.py",
		},
		{
			name: "migration script outside upgrade roots",
			path: "/root/addons/sale/16.0/post-migrate.py",
		},
		{
			name: "migration script without version parent",
			path: "/root/upgrade/sale/scripts/post-migrate.py",
		},
		{
			name: "test file outside every root",
			path: "/tmp/sale/tests/test_x.py",
		},
		{
			name: "test file under addons root without tests dir",
			path: "/root/addons/sale/test_x.py",
		},
		{
			name: "sibling directory sharing a prefix",
			path: "/root/addons2/sale/tests/test_x.py",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Classify(tt.path, roots)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassifyAddonsRootWinsOverUpgradeRoot(t *testing.T) {
	roots := Roots{
		Addons:  []string{"/src"},
		Upgrade: []string{"/src/upgrade"},
	}
	got, ok := Classify("/src/upgrade/sale/tests/test_x.py", roots)
	assert.True(t, ok)
	assert.Equal(t, StandardTest, got.Category)
}

func TestIsUnder(t *testing.T) {
	assert.True(t, IsUnder("/a/b/c", "/a/b"))
	assert.True(t, IsUnder("/a/b", "/a/b"))
	assert.True(t, IsUnder("/a/b/c", "/a/b/"))
	assert.False(t, IsUnder("/a/bc", "/a/b"))
	assert.False(t, IsUnder("/a", "/a/b"))
}

func TestIsMigrationScript(t *testing.T) {
	assert.True(t, IsMigrationScript("pre-10-migrate.py"))
	assert.True(t, IsMigrationScript("post-migrate.py"))
	assert.True(t, IsMigrationScript("end-migrate.py"))
	assert.False(t, IsMigrationScript("test_pre.py"))
	assert.False(t, IsMigrationScript("__init__.py"))
}
