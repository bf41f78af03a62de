package models

import "strings"

// ValueType is the domain type a column is converted to.
type ValueType string

const (
	ValueTypeText   ValueType = "text"
	ValueTypeNumber ValueType = "number"
	ValueTypeDate   ValueType = "date"
)

// ColumnMapping binds one domain field to the spreadsheet headers that may carry it.
type ColumnMapping struct {
	Field       string    `json:"field" validate:"required"`
	Label       string    `json:"label" validate:"required"`
	Aliases     []string  `json:"aliases" validate:"required,min=1,dive,required"`
	Required    bool      `json:"required"`
	Type        ValueType `json:"type" validate:"required,oneof=text number date"`
	Description string    `json:"description,omitempty"`
	Example     string    `json:"example,omitempty"`
}

// DisplayName is the label used in user-facing messages.
func (m ColumnMapping) DisplayName() string {
	if strings.TrimSpace(m.Label) != "" {
		return m.Label
	}
	if len(m.Aliases) > 0 {
		return m.Aliases[0]
	}
	return m.Field
}

// AliasSet returns every header spelling accepted for the field:
// the label, the explicit aliases and the field name itself.
func (m ColumnMapping) AliasSet() []string {
	out := make([]string, 0, len(m.Aliases)+2)
	if m.Label != "" {
		out = append(out, m.Label)
	}
	out = append(out, m.Aliases...)
	return append(out, m.Field)
}

// TemplateColumn describes one column of a blank import template.
type TemplateColumn struct {
	Header      string    `json:"header"`
	Field       string    `json:"field"`
	Required    bool      `json:"required"`
	Type        ValueType `json:"type"`
	Description string    `json:"description,omitempty"`
	Example     string    `json:"example,omitempty"`
}

func (m ColumnMapping) TemplateColumn() TemplateColumn {
	return TemplateColumn{
		Header:      m.DisplayName(),
		Field:       m.Field,
		Required:    m.Required,
		Type:        m.Type,
		Description: m.Description,
		Example:     m.Example,
	}
}

// TemplateColumns mirrors a mapping list for template generation.
func TemplateColumns(mappings []ColumnMapping) []TemplateColumn {
	cols := make([]TemplateColumn, 0, len(mappings))
	for _, m := range mappings {
		cols = append(cols, m.TemplateColumn())
	}
	return cols
}
