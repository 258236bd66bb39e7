// Package symbols outlines Python source files into classes, functions and
// methods with their ranges and decorators.
package symbols

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"odootest/pkg/logging"
)

const subsystem = "Symbols"

// DefaultCacheSize is the number of outlines kept by a PythonProvider.
const DefaultCacheSize = 1024

// Kind tags a symbol.
type Kind string

const (
	KindClass    Kind = "class"
	KindFunction Kind = "function"
	KindMethod   Kind = "method"
)

// Position is a zero-based line and column.
type Position struct {
	Line   int `json:"line" yaml:"line"`
	Column int `json:"column" yaml:"column"`
}

// Range spans from Start to End.
type Range struct {
	Start Position `json:"start" yaml:"start"`
	End   Position `json:"end" yaml:"end"`
}

// Decorator is one @decorator line. Args holds the string literal
// arguments of a call, e.g. ["at_install", "-post_install"].
type Decorator struct {
	Name  string   `json:"name" yaml:"name"`
	Args  []string `json:"args,omitempty" yaml:"args,omitempty"`
	Range Range    `json:"range" yaml:"range"`
}

// Symbol is a named definition. Range includes the decorators.
type Symbol struct {
	Name       string      `json:"name" yaml:"name"`
	Kind       Kind        `json:"kind" yaml:"kind"`
	Range      Range       `json:"range" yaml:"range"`
	Decorators []Decorator `json:"decorators,omitempty" yaml:"decorators,omitempty"`
	Children   []Symbol    `json:"children,omitempty" yaml:"children,omitempty"`
}

// Provider returns the outline of a document. It may return no symbols.
type Provider interface {
	Symbols(ctx context.Context, path string, src []byte) ([]Symbol, error)
}

// PythonProvider parses Python with tree-sitter. Outlines are cached by
// content hash.
type PythonProvider struct {
	mu     sync.Mutex
	parser *sitter.Parser
	cache  *lru.Cache[string, []Symbol]
}

// NewPythonProvider creates a provider caching up to size outlines.
func NewPythonProvider(size int) (*PythonProvider, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, []Symbol](size)
	if err != nil {
		return nil, err
	}
	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())
	return &PythonProvider{parser: parser, cache: cache}, nil
}

func contentKey(src []byte) string {
	sum := sha256.Sum256(src)
	return hex.EncodeToString(sum[:])
}

// Symbols implements Provider.
func (p *PythonProvider) Symbols(ctx context.Context, path string, src []byte) ([]Symbol, error) {
	key := contentKey(src)
	if syms, ok := p.cache.Get(key); ok {
		logging.Debug(subsystem, "Outline cache hit for %s", path)
		return syms, nil
	}

	p.mu.Lock()
	tree, err := p.parser.ParseCtx(ctx, nil, src)
	p.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	defer tree.Close()

	syms := outline(tree.RootNode(), src, false)
	p.cache.Add(key, syms)
	logging.Debug(subsystem, "Parsed %s: %d top-level symbols", path, len(syms))
	return syms, nil
}

// Len returns the number of cached outlines.
func (p *PythonProvider) Len() int {
	return p.cache.Len()
}

func outline(node *sitter.Node, src []byte, inClass bool) []Symbol {
	var syms []Symbol
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "class_definition", "function_definition":
			if s, ok := definition(child, child, nil, src, inClass); ok {
				syms = append(syms, s)
			}
		case "decorated_definition":
			def := child.ChildByFieldName("definition")
			if def == nil {
				continue
			}
			if s, ok := definition(def, child, decorators(child, src), src, inClass); ok {
				syms = append(syms, s)
			}
		}
	}
	return syms
}

// definition builds the symbol of def. outer is the node the range is taken
// from, the decorated_definition when there are decorators.
func definition(def, outer *sitter.Node, decs []Decorator, src []byte, inClass bool) (Symbol, bool) {
	name := def.ChildByFieldName("name")
	if name == nil {
		return Symbol{}, false
	}
	s := Symbol{
		Name:       name.Content(src),
		Range:      nodeRange(outer),
		Decorators: decs,
	}
	switch def.Type() {
	case "class_definition":
		s.Kind = KindClass
		if body := def.ChildByFieldName("body"); body != nil {
			s.Children = outline(body, src, true)
		}
	case "function_definition":
		s.Kind = KindFunction
		if inClass {
			s.Kind = KindMethod
		}
	default:
		return Symbol{}, false
	}
	return s, true
}

func decorators(node *sitter.Node, src []byte) []Decorator {
	var decs []Decorator
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() != "decorator" || child.NamedChildCount() == 0 {
			continue
		}
		expr := child.NamedChild(0)
		d := Decorator{Range: nodeRange(child)}
		switch expr.Type() {
		case "call":
			if fn := expr.ChildByFieldName("function"); fn != nil {
				d.Name = fn.Content(src)
			}
			if args := expr.ChildByFieldName("arguments"); args != nil {
				d.Args = stringArgs(args, src)
			}
		default:
			d.Name = expr.Content(src)
		}
		decs = append(decs, d)
	}
	return decs
}

func stringArgs(args *sitter.Node, src []byte) []string {
	var out []string
	for i := 0; i < int(args.NamedChildCount()); i++ {
		arg := args.NamedChild(i)
		if arg.Type() == "string" {
			out = append(out, Unquote(arg.Content(src)))
		}
	}
	return out
}

// Unquote strips the prefix and the quotes of a Python string literal.
func Unquote(lit string) string {
	lit = strings.TrimLeft(lit, "rRbBuUfF")
	for _, q := range []string{`"""`, `'''`, `"`, `'`} {
		if len(lit) >= 2*len(q) && strings.HasPrefix(lit, q) && strings.HasSuffix(lit, q) {
			return lit[len(q) : len(lit)-len(q)]
		}
	}
	return lit
}

func nodeRange(n *sitter.Node) Range {
	start, end := n.StartPoint(), n.EndPoint()
	return Range{
		Start: Position{Line: int(start.Row), Column: int(start.Column)},
		End:   Position{Line: int(end.Row), Column: int(end.Column)},
	}
}

// Shortname returns the last dotted component of a decorator name, e.g.
// "standalone" for "odoo.tests.standalone".
func Shortname(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i+1:]
	}
	return name
}
