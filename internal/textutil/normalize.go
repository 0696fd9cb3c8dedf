// Package textutil holds the text normalization shared by the catalog
// index and the search engine. Indexed content and queries must go through
// the same Normalize call or substring matching breaks.
package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize lowercases s, strips diacritics (NFD followed by removal of
// nonspacing marks and spacing diacritics such as ´ ^ ` ¨), collapses
// whitespace runs to a single space and trims.
// It is pure and idempotent.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	lowered := strings.ToLower(s)

	// transform.Chain keeps internal state, so build one per call.
	t := transform.Chain(norm.NFD, runes.Remove(runes.Predicate(func(r rune) bool { return unicode.In(r, unicode.Mn, unicode.Diacritic) })), norm.NFC)
	stripped, _, err := transform.String(t, lowered)
	if err != nil {
		stripped = lowered
	}
	return strings.Join(strings.Fields(stripped), " ")
}

// Tokens normalizes s and splits it into search tokens.
// An empty or blank input yields no tokens.
func Tokens(s string) []string {
	n := Normalize(s)
	if n == "" {
		return nil
	}
	return strings.Split(n, " ")
}

// Join normalizes the space-joined parts, skipping empty ones.
func Join(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return Normalize(strings.Join(kept, " "))
}

// Squash collapses whitespace runs to a single space and trims, without
// any other normalization.
func Squash(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
