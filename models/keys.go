package models

import (
	"strings"
)

// NormalizeKey is the natural-key comparison form: surrounding Unicode
// whitespace trimmed, then lower-cased rune by rune with no multi-rune folding
// (ß stays ß). Record store adapters match lookup keys by the same rule.
func NormalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
