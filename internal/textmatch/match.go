// Package textmatch implements the case-insensitive substring matching used
// by keyword search and the sidebar list filter.
package textmatch

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Fold normalises s to NFC and applies Unicode case folding, so Thai text
// typed with decomposed marks still matches the stored form.
func Fold(s string) string {
	return cases.Fold().String(norm.NFC.String(strings.TrimSpace(s)))
}

// Contains reports whether needle occurs in haystack, ignoring case.
// An empty needle matches everything.
func Contains(haystack, needle string) bool {
	n := Fold(needle)
	if n == "" {
		return true
	}
	return strings.Contains(Fold(haystack), n)
}

// AnyContains reports whether needle occurs in any of fields.
func AnyContains(needle string, fields ...string) bool {
	n := Fold(needle)
	if n == "" {
		return true
	}
	for _, f := range fields {
		if f != "" && strings.Contains(Fold(f), n) {
			return true
		}
	}
	return false
}

// MinKeywordLength is the shortest keyword that takes part in a search.
const MinKeywordLength = 3

// EffectiveKeyword returns the trimmed keyword, or "" when it has fewer
// than MinKeywordLength runes. Shorter keywords are treated as absent.
func EffectiveKeyword(keyword string) string {
	k := strings.TrimSpace(keyword)
	if utf8.RuneCountInString(k) < MinKeywordLength {
		return ""
	}
	return k
}
