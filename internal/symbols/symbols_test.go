package symbols

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSource = `from odoo.tests import TransactionCase, standalone, tagged


@tagged("post_install", "-at_install")
class TestSale(TransactionCase):

    def setUp(self):
        super().setUp()

    def test_confirm(self):
        pass

    @classmethod
    def test_cancel(cls):
        pass

    class Inner:
        def test_nested(self):
            pass


@standalone('sale_all', "sale_one")
def test_standalone(env):
    pass


def migrate(cr, version):
    pass
`

func newProvider(t *testing.T) *PythonProvider {
	t.Helper()
	p, err := NewPythonProvider(8)
	require.NoError(t, err)
	return p
}

func TestPythonProviderOutline(t *testing.T) {
	p := newProvider(t)

	syms, err := p.Symbols(context.Background(), "test_sale.py", []byte(testSource))
	require.NoError(t, err)
	require.Len(t, syms, 3)

	class := syms[0]
	assert.Equal(t, "TestSale", class.Name)
	assert.Equal(t, KindClass, class.Kind)
	assert.Equal(t, 3, class.Range.Start.Line)
	require.Len(t, class.Decorators, 1)
	assert.Equal(t, "tagged", class.Decorators[0].Name)
	assert.Equal(t, []string{"post_install", "-at_install"}, class.Decorators[0].Args)

	var names []string
	for _, c := range class.Children {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"setUp", "test_confirm", "test_cancel", "Inner"}, names)
	assert.Equal(t, KindMethod, class.Children[1].Kind)
	assert.Equal(t, "classmethod", class.Children[2].Decorators[0].Name)
	assert.Equal(t, KindClass, class.Children[3].Kind)
	assert.Equal(t, KindMethod, class.Children[3].Children[0].Kind)

	standalone := syms[1]
	assert.Equal(t, "test_standalone", standalone.Name)
	assert.Equal(t, KindFunction, standalone.Kind)
	assert.Equal(t, 21, standalone.Range.Start.Line)
	require.Len(t, standalone.Decorators, 1)
	assert.Equal(t, []string{"sale_all", "sale_one"}, standalone.Decorators[0].Args)

	assert.Equal(t, "migrate", syms[2].Name)
	assert.Equal(t, KindFunction, syms[2].Kind)
}

func TestPythonProviderCachesByContent(t *testing.T) {
	p := newProvider(t)
	ctx := context.Background()

	first, err := p.Symbols(ctx, "a.py", []byte(testSource))
	require.NoError(t, err)
	second, err := p.Symbols(ctx, "b.py", []byte(testSource))
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, p.Len())

	_, err = p.Symbols(ctx, "a.py", []byte("def other():\n    pass\n"))
	require.NoError(t, err)
	assert.Equal(t, 2, p.Len())
}

func TestPythonProviderEmptyAndBroken(t *testing.T) {
	p := newProvider(t)

	syms, err := p.Symbols(context.Background(), "empty.py", []byte(""))
	require.NoError(t, err)
	assert.Empty(t, syms)

	_, err = p.Symbols(context.Background(), "broken.py", []byte("class Broken(:\n    def test_a(self):\n"))
	assert.NoError(t, err)
}

func TestUnquote(t *testing.T) {
	tests := map[string]string{
		`'a'`:         "a",
		`"b"`:         "b",
		`r"c\d"`:      `c\d`,
		`"""doc"""`:   "doc",
		`'''x'''`:     "x",
		`""`:          "",
		`not_literal`: "not_literal",
	}
	for in, want := range tests {
		assert.Equal(t, want, Unquote(in), in)
	}
}

func TestShortname(t *testing.T) {
	assert.Equal(t, "standalone", Shortname("odoo.tests.standalone"))
	assert.Equal(t, "standalone", Shortname("standalone"))
}
