// Package schema infers and applies per-column value types for delimited
// records.
package schema

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Type is the inferred type of a column. Types are ordered from narrowest
// to widest; every Integer is a Decimal and every Decimal is a String.
type Type uint8

const (
	TypeInteger Type = iota
	TypeDecimal
	TypeString
)

// Value is a decoded field: int64, float64, string, or nil for an empty field.
type Value = any

var decimalPattern = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)

func (t Type) String() string {
	switch t {
	case TypeInteger:
		return "integer"
	case TypeDecimal:
		return "decimal"
	case TypeString:
		return "string"
	default:
		return fmt.Sprintf("Type(%d)", uint8(t))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (t Type) MarshalText() ([]byte, error) {
	if t > TypeString {
		return nil, fmt.Errorf("schema: invalid type %d", uint8(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Type) UnmarshalText(text []byte) error {
	switch string(text) {
	case "integer":
		*t = TypeInteger
	case "decimal":
		*t = TypeDecimal
	case "string":
		*t = TypeString
	default:
		return fmt.Errorf("schema: unknown type %q", text)
	}
	return nil
}

// Fits reports whether s can be represented as t. Empty fields fit every type.
func (t Type) Fits(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return true
	}
	switch t {
	case TypeInteger:
		_, err := strconv.ParseInt(s, 10, 64)
		return err == nil
	case TypeDecimal:
		if !decimalPattern.MatchString(s) {
			return false
		}
		_, err := strconv.ParseFloat(s, 64)
		return err == nil
	default:
		return true
	}
}

// Widen returns the narrowest type at least as wide as t that fits s.
func (t Type) Widen(s string) Type {
	for t < TypeString && !t.Fits(s) {
		t++
	}
	return t
}

// Decode converts field text to a value of type t. Text that does not parse
// under t decodes as the text itself.
func Decode(t Type, s string) Value {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil
	}
	switch t {
	case TypeInteger:
		if v, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
			return v
		}
	case TypeDecimal:
		if decimalPattern.MatchString(trimmed) {
			if v, err := strconv.ParseFloat(trimmed, 64); err == nil {
				return v
			}
		}
	}
	return s
}

// FieldAttr describes one column.
type FieldAttr struct {
	Name string `json:"name"`
	Type Type   `json:"type"`
}

// DecodeRecord decodes fields through their column types and pads the
// result with nil up to width. Fields beyond the known columns decode as
// strings.
func DecodeRecord(attrs []FieldAttr, fields []string, width int) []Value {
	if width < len(fields) {
		width = len(fields)
	}
	values := make([]Value, width)
	for i, f := range fields {
		t := TypeString
		if i < len(attrs) {
			t = attrs[i].Type
		}
		values[i] = Decode(t, f)
	}
	return values
}
