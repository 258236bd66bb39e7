package lens

import (
	"strings"
	"unicode"

	"odootest/internal/symbols"
	"odootest/internal/workflow"
)

const standaloneDecorator = "standalone"

// StandaloneTest is a function registered with @standalone and the tags it
// can be run with.
type StandaloneTest struct {
	Function string           `json:"function" yaml:"function"`
	Tags     []string         `json:"tags" yaml:"tags"`
	Position symbols.Position `json:"position" yaml:"position"`
}

// standaloneTags returns the standalone tests of a document from its
// outline. The source text is scanned instead when no outline is
// available.
func standaloneTags(syms []symbols.Symbol, src []byte, noOutline bool) []StandaloneTest {
	if noOutline || len(syms) == 0 {
		return ScanStandalone(src)
	}
	var out []StandaloneTest
	var walk func([]symbols.Symbol)
	walk = func(list []symbols.Symbol) {
		for _, s := range list {
			for _, d := range s.Decorators {
				if symbols.Shortname(d.Name) == standaloneDecorator && s.Kind != symbols.KindClass {
					out = append(out, StandaloneTest{Function: s.Name, Tags: d.Args, Position: d.Range.Start})
				}
			}
			walk(s.Children)
		}
	}
	walk(syms)
	return out
}

func standaloneLenses(tests []StandaloneTest, module, database string) []Lens {
	var lenses []Lens
	for _, t := range tests {
		r := symbols.Range{Start: t.Position, End: t.Position}
		for _, tag := range t.Tags {
			lenses = append(lenses, Lens{
				Range:  r,
				Title:  "Run " + tag,
				Icon:   "debug-rerun",
				Action: ActionRunStandaloneTest,
				Args:   []string{module, tag},
			})
		}
		lenses = append(lenses,
			dumpLens(r, workflow.StandaloneDump),
			cleanupLens(r, database, workflow.CleanupStandalone),
		)
	}
	return lenses
}

// ScanStandalone finds "@standalone(<args>) def <name>" declarations in
// src without parsing it. Tags are the quoted string arguments.
func ScanStandalone(src []byte) []StandaloneTest {
	sc := &scanner{src: src}
	var out []StandaloneTest
	for sc.pos < len(src) {
		start := sc.pos
		switch c := src[sc.pos]; {
		case c == '#':
			sc.skipLine()
		case c == '"' || c == '\'':
			sc.str()
		case c == '@':
			sc.pos++
			if t, ok := sc.standalone(); ok {
				t.Position = sc.position(start)
				out = append(out, t)
			}
		default:
			sc.pos++
		}
	}
	return out
}

type scanner struct {
	src []byte
	pos int
}

func (s *scanner) position(offset int) symbols.Position {
	line := strings.Count(string(s.src[:offset]), "\n")
	col := offset - (strings.LastIndexByte(string(s.src[:offset]), '\n') + 1)
	return symbols.Position{Line: line, Column: col}
}

func (s *scanner) skipLine() {
	for s.pos < len(s.src) && s.src[s.pos] != '\n' {
		s.pos++
	}
}

func (s *scanner) skipSpace() {
	for s.pos < len(s.src) && unicode.IsSpace(rune(s.src[s.pos])) {
		s.pos++
	}
}

func (s *scanner) ident() string {
	start := s.pos
	for s.pos < len(s.src) {
		c := rune(s.src[s.pos])
		if c != '_' && c != '.' && !unicode.IsLetter(c) && !unicode.IsDigit(c) {
			break
		}
		s.pos++
	}
	return string(s.src[start:s.pos])
}

// str consumes a quoted literal starting at the current quote and returns
// its content.
func (s *scanner) str() string {
	q := s.src[s.pos]
	s.pos++
	start := s.pos
	for s.pos < len(s.src) {
		switch s.src[s.pos] {
		case '\\':
			s.pos += 2
			continue
		case q:
			v := string(s.src[start:s.pos])
			s.pos++
			return v
		case '\n':
			return string(s.src[start:s.pos])
		}
		s.pos++
	}
	return string(s.src[start:])
}

// standalone parses the rest of a decorator after "@".
func (s *scanner) standalone() (StandaloneTest, bool) {
	if symbols.Shortname(s.ident()) != standaloneDecorator {
		return StandaloneTest{}, false
	}
	s.skipSpace()
	if s.pos >= len(s.src) || s.src[s.pos] != '(' {
		return StandaloneTest{}, false
	}
	s.pos++

	var t StandaloneTest
	for {
		if s.pos >= len(s.src) {
			return StandaloneTest{}, false
		}
		c := s.src[s.pos]
		if c == ')' {
			s.pos++
			break
		}
		if c == '"' || c == '\'' {
			t.Tags = append(t.Tags, s.str())
			continue
		}
		s.pos++
	}

	s.skipSpace()
	if s.ident() != "def" {
		return StandaloneTest{}, false
	}
	s.skipSpace()
	t.Function = s.ident()
	if t.Function == "" {
		return StandaloneTest{}, false
	}
	return t, true
}
