// Package text normalizes dictionary words before they are looked up or
// written into a route.
package text

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Normalize trims surrounding whitespace, lowercases, and composes the word
// into NFC so that tone-marked Yoruba input compares equal regardless of how
// it was typed. A Caser is stateful, so one is built per call.
func Normalize(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	return norm.NFC.String(cases.Lower(language.Und).String(trimmed))
}

// IsBlank reports whether s contains only whitespace.
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// Capitalize uppercases the first letter of s and leaves the rest untouched.
func Capitalize(s string) string {
	if s == "" {
		return ""
	}
	first, size := firstRune(s)
	return cases.Title(language.Und).String(first) + s[size:]
}

func firstRune(s string) (string, int) {
	for i := range s {
		if i > 0 {
			return s[:i], i
		}
	}
	return s, len(s)
}
