package core

import (
	"strings"
	"unicode"

	"github.com/pmezard/go-difflib/difflib"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// minimum similarity for a fuzzy word match
var fuzzyMinRatio = .8

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// Fold lowers s and strips its accents: "García" -> "garcia".
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(strings.TrimSpace(folded))
}

// Matches reports whether the search term matches any of fields.
// Matching is case and accent insensitive; single-word terms of 4+ characters
// also match words that are similar enough (typos).
func Matches(term string, fields ...string) bool {
	term = Fold(term)
	if term == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(Fold(f), term) {
			return true
		}
	}
	if strings.ContainsRune(term, ' ') || len([]rune(term)) < 4 {
		return false
	}

	termChars := strings.Split(term, "")
	for _, f := range fields {
		for _, word := range strings.Fields(Fold(f)) {
			m := difflib.NewMatcher(termChars, strings.Split(word, ""))
			if m.Ratio() >= fuzzyMinRatio {
				return true
			}
		}
	}
	return false
}
