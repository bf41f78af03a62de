package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ValueKind tags which variant a Value holds.
type ValueKind int

const (
	KindMissing ValueKind = iota
	KindText
	KindNumber
)

func (k ValueKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	default:
		return "missing"
	}
}

// Value is a single cell or field value: Text, Number or Missing.
// The zero Value is Missing.
type Value struct {
	kind ValueKind
	text string
	num  float64
}

func TextValue(s string) Value    { return Value{kind: KindText, text: s} }
func NumberValue(f float64) Value { return Value{kind: KindNumber, num: f} }
func MissingValue() Value         { return Value{} }

func (v Value) Kind() ValueKind { return v.kind }

func (v Value) IsMissing() bool { return v.kind == KindMissing }

// IsBlank reports whether the value is Missing or whitespace-only text.
func (v Value) IsBlank() bool {
	switch v.kind {
	case KindMissing:
		return true
	case KindText:
		return strings.TrimSpace(v.text) == ""
	default:
		return false
	}
}

// Text returns the text payload; ok is false for non-text values.
func (v Value) Text() (string, bool) {
	if v.kind != KindText {
		return "", false
	}
	return v.text, true
}

// Number returns the numeric payload; ok is false for non-number values.
func (v Value) Number() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.num, true
}

// String renders the value as it would appear in a cell. Missing renders empty.
func (v Value) String() string {
	switch v.kind {
	case KindText:
		return v.text
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	default:
		return ""
	}
}

// Interface returns the value in the shape record stores persist:
// nil, string or float64.
func (v Value) Interface() interface{} {
	switch v.kind {
	case KindText:
		return v.text
	case KindNumber:
		return v.num
	default:
		return nil
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch t := raw.(type) {
	case nil:
		*v = MissingValue()
	case string:
		*v = TextValue(t)
	case float64:
		*v = NumberValue(t)
	case bool:
		*v = TextValue(strconv.FormatBool(t))
	default:
		return fmt.Errorf("unsupported cell value %s", string(data))
	}
	return nil
}
