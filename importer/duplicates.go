package importer

import (
	"sort"
	"strings"

	"github.com/admin5fedu/duraval-app-sub010/models"
)

// KeyFunc derives the natural key of a record.
type KeyFunc func(rec models.TransformedRecord) string

// FieldKey keys records by the text of a single field.
func FieldKey(field string) KeyFunc {
	return func(rec models.TransformedRecord) string {
		return rec.Fields[field].String()
	}
}

// CompositeKey joins several fields with "|".
func CompositeKey(fields ...string) KeyFunc {
	return func(rec models.TransformedRecord) string {
		parts := make([]string, len(fields))
		for i, f := range fields {
			parts[i] = strings.TrimSpace(rec.Fields[f].String())
		}
		if strings.Join(parts, "") == "" {
			return ""
		}
		return strings.Join(parts, "|")
	}
}

// FindDuplicates maps each normalized key that occurs more than once to the
// indices of the records carrying it. Empty keys are ignored.
func FindDuplicates(records []models.TransformedRecord, keyFn KeyFunc) map[string][]int {
	seen := make(map[string][]int)
	for i, rec := range records {
		k := models.NormalizeKey(keyFn(rec))
		if k == "" {
			continue
		}
		seen[k] = append(seen[k], i)
	}
	for k, idx := range seen {
		if len(idx) < 2 {
			delete(seen, k)
		}
	}
	return seen
}

// DuplicateGroups renders FindDuplicates output with spreadsheet row numbers,
// ordered by first occurrence. The key shown is the first row's spelling.
func DuplicateGroups(records []models.TransformedRecord, keyFn KeyFunc, dups map[string][]int) []models.DuplicateGroup {
	groups := make([]models.DuplicateGroup, 0, len(dups))
	for _, idx := range dups {
		g := models.DuplicateGroup{Key: strings.TrimSpace(keyFn(records[idx[0]]))}
		for _, i := range idx {
			g.Rows = append(g.Rows, records[i].RowNumber)
		}
		groups = append(groups, g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Rows[0] < groups[j].Rows[0] })
	return groups
}
