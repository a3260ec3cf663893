package search

import (
	"strings"
	"unicode"
)

// normalizeWhitespace collapses every run of whitespace into a single space.
// Leading and trailing runs are kept as one space.
func normalizeWhitespace(text string) string {
	if text == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(text))
	lastWasSpace := false
	for _, r := range text {
		if unicode.IsSpace(r) {
			if !lastWasSpace {
				b.WriteByte(' ')
			}
			lastWasSpace = true
			continue
		}
		b.WriteRune(r)
		lastWasSpace = false
	}
	return b.String()
}

// compilePattern prepares a query for the matcher. Matching is case
// sensitive only when the query contains an uppercase rune.
func compilePattern(query string) (pattern []rune, caseSensitive bool) {
	caseSensitive = strings.IndexFunc(query, unicode.IsUpper) >= 0
	pattern = []rune(query)
	if !caseSensitive {
		for i, r := range pattern {
			pattern[i] = unicode.ToLower(r)
		}
	}
	return pattern, caseSensitive
}

// foldRunes lowercases text rune by rune so indexes line up with the source.
func foldRunes(text []rune) []rune {
	folded := make([]rune, len(text))
	for i, r := range text {
		folded[i] = unicode.ToLower(r)
	}
	return folded
}

// indexRunes returns the index of the first occurrence of needle in haystack.
func indexRunes(haystack, needle []rune) int {
	if len(needle) == 0 {
		return 0
	}
	last := len(haystack) - len(needle)
outer:
	for i := 0; i <= last; i++ {
		if haystack[i] != needle[0] {
			continue
		}
		for j := 1; j < len(needle); j++ {
			if haystack[i+j] != needle[j] {
				continue outer
			}
		}
		return i
	}
	return -1
}
