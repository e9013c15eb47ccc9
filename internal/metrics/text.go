// Package metrics derives size statistics from text so events can describe
// inputs and tool outputs without carrying them.
package metrics

import (
	"strings"
	"unicode/utf8"
)

// TextStats holds byte, rune, word and line counts of a string.
type TextStats struct {
	Bytes int
	Runes int
	Words int
	Lines int
}

// Measure computes TextStats for s. Words split on Unicode whitespace;
// lines are 0 for "" and otherwise 1 plus the number of '\n'.
func Measure(s string) TextStats {
	st := TextStats{Bytes: len(s), Runes: utf8.RuneCountInString(s), Words: len(strings.Fields(s))}
	if s != "" {
		st.Lines = 1 + strings.Count(s, "\n")
	}
	return st
}

// Truncate clamps s to at most n runes and reports whether anything was cut.
// n <= 0 yields "".
func Truncate(s string, n int) (string, bool) {
	if n <= 0 {
		return "", s != ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s, false
	}
	r := []rune(s)
	return string(r[:n]), true
}
