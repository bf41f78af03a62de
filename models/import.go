package models

import (
	"fmt"
	"strings"
)

// UpsertMode controls how rows are reconciled against persisted records.
type UpsertMode string

const (
	UpsertModeInsert UpsertMode = "insert"
	UpsertModeUpdate UpsertMode = "update"
	UpsertModeUpsert UpsertMode = "upsert"
)

// ParseUpsertMode accepts the short and the "-only" spellings.
func ParseUpsertMode(s string) (UpsertMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "insert", "insert-only", "insert_only":
		return UpsertModeInsert, nil
	case "update", "update-only", "update_only":
		return UpsertModeUpdate, nil
	case "upsert":
		return UpsertModeUpsert, nil
	default:
		return "", fmt.Errorf("unknown upsert mode %q", s)
	}
}

// DuplicatePolicy decides what happens to rows sharing a natural key within one upload.
type DuplicatePolicy string

const (
	DuplicatePolicyWarn   DuplicatePolicy = "warn"
	DuplicatePolicyReject DuplicatePolicy = "reject"
)

type ImportOptions struct {
	SkipEmptyCells bool       `json:"skip_empty_cells"`
	UpsertMode     UpsertMode `json:"upsert_mode" validate:"required,oneof=insert update upsert"`
}

func DefaultImportOptions() ImportOptions {
	return ImportOptions{SkipEmptyCells: true, UpsertMode: UpsertModeUpsert}
}

// Sheet is a decoded worksheet: the literal header row and the data rows below it.
type Sheet struct {
	Headers []string  `json:"headers"`
	Rows    [][]Value `json:"rows"`
}

type ExtractedRow struct {
	RowNumber int              `json:"row"`
	Fields    map[string]Value `json:"fields"`
	Errors    []string         `json:"errors,omitempty"`
}

func (r ExtractedRow) Valid() bool { return len(r.Errors) == 0 }

type TransformedRecord struct {
	RowNumber int              `json:"row"`
	Fields    map[string]Value `json:"fields"`
}

// Payload converts the record fields into a persistable field map.
func (r TransformedRecord) Payload() map[string]interface{} {
	out := make(map[string]interface{}, len(r.Fields))
	for k, v := range r.Fields {
		out[k] = v.Interface()
	}
	return out
}

type RowError struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

type ImportResult struct {
	Inserted  int        `json:"inserted"`
	Updated   int        `json:"updated"`
	Errors    []RowError `json:"errors"`
	Warnings  []RowError `json:"warnings,omitempty"`
	Cancelled bool       `json:"cancelled,omitempty"`
}

// FailedRows counts distinct rows present in Errors.
func (r ImportResult) FailedRows() int {
	seen := make(map[int]struct{}, len(r.Errors))
	for _, e := range r.Errors {
		seen[e.Row] = struct{}{}
	}
	return len(seen)
}

// Total is the number of rows the result accounts for.
func (r ImportResult) Total() int {
	return r.Inserted + r.Updated + r.FailedRows()
}

type DuplicateGroup struct {
	Key  string `json:"key"`
	Rows []int  `json:"rows"`
}

// ValidationReport is the dry-run outcome of an upload: nothing is written.
type ValidationReport struct {
	Module          string           `json:"module"`
	Options         *ImportOptions   `json:"options,omitempty"`
	TotalRows       int              `json:"total_rows"`
	ValidRows       int              `json:"valid_rows"`
	InvalidRows     int              `json:"invalid_rows"`
	MissingColumns  []string         `json:"missing_columns"`
	UnmappedHeaders []string         `json:"unmapped_headers"`
	Duplicates      []DuplicateGroup `json:"duplicates"`
	Errors          []RowError       `json:"errors"`
}

// ChunkProgress is reported after each reconciled chunk.
type ChunkProgress struct {
	Chunk     int `json:"chunk"`
	Chunks    int `json:"chunks"`
	Processed int `json:"processed"`
	Total     int `json:"total"`
}
