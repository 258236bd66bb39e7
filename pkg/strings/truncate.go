// Package strings holds text helpers for terminal output.
package strings

import (
	"strings"
)

// DefaultCellMaxLen is the width table cells are cut to.
const DefaultCellMaxLen = 60

// minLen leaves room for one character and the ellipsis.
const minLen = 4

// OneLine collapses all whitespace of s into single spaces and cuts the
// result to maxLen runes, ending it with "..." when cut.
func OneLine(s string, maxLen int) string {
	if maxLen < minLen {
		maxLen = minLen
	}
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) > maxLen {
		return string(runes[:maxLen-3]) + "..."
	}
	return s
}

// LastLine returns the last non-blank line of s, e.g. the final error line
// of a command's stderr.
func LastLine(s string) string {
	lines := strings.Split(strings.TrimRight(s, "\n\r\t "), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if l := strings.TrimSpace(lines[i]); l != "" {
			return l
		}
	}
	return ""
}
