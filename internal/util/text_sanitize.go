package util

import (
	"strings"
	"unicode"
)

// SanitizeText cleans a string field taken from a backend payload before it reaches
// report cells and CSV rows. Control bytes (NUL included) are dropped and runs of
// whitespace, line breaks included, collapse to one space.
func SanitizeText(s string) string {
	if s == "" {
		return s
	}
	s = strings.Map(func(r rune) rune {
		switch {
		case unicode.IsSpace(r):
			return ' '
		case unicode.IsControl(r), r == unicode.ReplacementChar:
			return -1
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}
