package repository

import (
	"context"
	"fmt"
	"regexp"

	"github.com/admin5fedu/duraval-app-sub010/models"
)

// ExistingRecord is the projection returned by a key lookup.
type ExistingRecord struct {
	ID  string `json:"id"`
	Key string `json:"key"`
}

// RecordStore is the persistence collaborator used by the import engine.
// Every call may fail independently; no call is transactional with another.
type RecordStore interface {
	// LookupByKeys returns every record of table whose keyField, normalized
	// with models.NormalizeKey, is one of keys. keys are already normalized.
	LookupByKeys(ctx context.Context, table, keyField string, keys []string) ([]ExistingRecord, error)
	// InsertMany writes records in a single call and returns how many were created.
	InsertMany(ctx context.Context, table string, records []map[string]interface{}) (int64, error)
	// UpdateByID applies a partial update to one record.
	UpdateByID(ctx context.Context, table, id string, fields map[string]interface{}) error
}

// keyTrimChars is every rune unicode.IsSpace accepts, the set
// models.NormalizeKey trims, for server-side trimming.
const keyTrimChars = "\t\n\v\f\r \u0085\u00a0\u1680" +
	"\u2000\u2001\u2002\u2003\u2004\u2005\u2006\u2007\u2008\u2009\u200a" +
	"\u2028\u2029\u202f\u205f\u3000"

// keySet holds normalized lookup keys. Server-side filters only narrow the
// candidates; a record is returned when its stored key normalizes into the set.
type keySet map[string]struct{}

func newKeySet(keys []string) keySet {
	s := make(keySet, len(keys))
	for _, k := range keys {
		s[k] = struct{}{}
	}
	return s
}

func (s keySet) has(stored string) bool {
	_, ok := s[models.NormalizeKey(stored)]
	return ok
}

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// checkIdentifiers rejects table and column names that are not plain identifiers.
func checkIdentifiers(names ...string) error {
	for _, n := range names {
		if !identifierPattern.MatchString(n) {
			return fmt.Errorf("invalid identifier %q", n)
		}
	}
	return nil
}

// ErrRecordNotFound is returned by UpdateByID when no record has the id.
type ErrRecordNotFound struct {
	Table string
	ID    string
}

func (e *ErrRecordNotFound) Error() string {
	return fmt.Sprintf("record %s not found in %s", e.ID, e.Table)
}
