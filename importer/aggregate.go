package importer

import (
	"github.com/admin5fedu/duraval-app-sub010/models"
)

// Aggregate merges partial results: counts are summed, errors and warnings are
// concatenated in the order the results are given. Entries are never re-sorted,
// so each stage's errors stay in the order they were produced.
func Aggregate(results ...models.ImportResult) models.ImportResult {
	out := models.ImportResult{Errors: []models.RowError{}}
	for _, r := range results {
		out.Inserted += r.Inserted
		out.Updated += r.Updated
		out.Errors = append(out.Errors, r.Errors...)
		out.Warnings = append(out.Warnings, r.Warnings...)
		out.Cancelled = out.Cancelled || r.Cancelled
	}
	return out
}
