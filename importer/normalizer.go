package importer

import (
	"strings"
	"unicode"

	"github.com/admin5fedu/duraval-app-sub010/models"
	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// đ has no canonical decomposition, so NFD does not strip it.
var strokeReplacer = strings.NewReplacer("đ", "d", "Đ", "D")

// NormalizeHeader folds a header for comparison: trimmed, case-folded,
// diacritics removed and internal whitespace collapsed to single spaces.
// A trailing "*" (the template's required marker) is dropped.
func NormalizeHeader(s string) string {
	s = strings.TrimSuffix(strings.TrimSpace(s), "*")
	// Transformers carry state and are built per call.
	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(fold, strokeReplacer.Replace(s))
	if err != nil {
		stripped = s
	}
	return strings.Join(strings.Fields(cases.Fold().String(stripped)), " ")
}

// Resolve maps a raw header onto a domain field. The first mapping with a
// matching alias wins; ok is false when nothing matches.
func Resolve(rawHeader string, mappings []models.ColumnMapping) (string, bool) {
	want := NormalizeHeader(rawHeader)
	if want == "" {
		return "", false
	}
	for _, m := range mappings {
		for _, alias := range m.AliasSet() {
			if NormalizeHeader(alias) == want {
				return m.Field, true
			}
		}
	}
	return "", false
}

// HeaderResolver is Resolve with the alias table folded once up front.
type HeaderResolver struct {
	aliases map[string]string
}

func NewHeaderResolver(mappings []models.ColumnMapping) *HeaderResolver {
	r := &HeaderResolver{aliases: make(map[string]string)}
	for _, m := range mappings {
		for _, alias := range m.AliasSet() {
			key := NormalizeHeader(alias)
			if key == "" {
				continue
			}
			if _, taken := r.aliases[key]; !taken {
				r.aliases[key] = m.Field
			}
		}
	}
	return r
}

func (r *HeaderResolver) Resolve(rawHeader string) (string, bool) {
	field, ok := r.aliases[NormalizeHeader(rawHeader)]
	return field, ok
}
