// Package violation holds the canonical record shape for municipal
// parking-citation data after cleaning: typed cell values, canonical
// column names, and the run schema derived from profiling.
package violation

import (
	"fmt"
	"time"
)

// Value represents a typed cell value with deterministic coercion
type Value struct {
	Type         ValueType  `json:"type"`
	StringVal    *string    `json:"string_val,omitempty"`
	NumericVal   *float64   `json:"numeric_val,omitempty"`
	TimestampVal *time.Time `json:"timestamp_val,omitempty"`
	BooleanVal   *bool      `json:"boolean_val,omitempty"`
	IsMissing    bool       `json:"is_missing"`
}

// ValueType defines the storage type for values
type ValueType string

const (
	ValueTypeString    ValueType = "string"
	ValueTypeNumeric   ValueType = "numeric"
	ValueTypeBoolean   ValueType = "boolean"
	ValueTypeTimestamp ValueType = "timestamp"
	ValueTypeMissing   ValueType = "missing"
)

// NewStringValue creates a string value
func NewStringValue(s string) Value {
	if s == "" {
		return Value{Type: ValueTypeMissing, IsMissing: true}
	}
	return Value{Type: ValueTypeString, StringVal: &s}
}

// NewNumericValue creates a numeric value
func NewNumericValue(n float64) Value {
	return Value{Type: ValueTypeNumeric, NumericVal: &n}
}

// NewBooleanValue creates a boolean value
func NewBooleanValue(b bool) Value {
	return Value{Type: ValueTypeBoolean, BooleanVal: &b}
}

// NewTimestampValue creates a timestamp value
func NewTimestampValue(t time.Time) Value {
	return Value{Type: ValueTypeTimestamp, TimestampVal: &t}
}

// NewMissingValue creates a missing value
func NewMissingValue() Value {
	return Value{Type: ValueTypeMissing, IsMissing: true}
}

// String returns the display representation of the value
func (v Value) String() string {
	switch v.Type {
	case ValueTypeString:
		if v.StringVal != nil {
			return *v.StringVal
		}
	case ValueTypeNumeric:
		if v.NumericVal != nil {
			return fmt.Sprintf("%g", *v.NumericVal)
		}
	case ValueTypeBoolean:
		if v.BooleanVal != nil {
			return fmt.Sprintf("%t", *v.BooleanVal)
		}
	case ValueTypeTimestamp:
		if v.TimestampVal != nil {
			return v.TimestampVal.Format("2006-01-02")
		}
	case ValueTypeMissing:
		return ""
	}
	return ""
}

// IsNumeric returns true if the value holds a valid number
func (v Value) IsNumeric() bool {
	return v.Type == ValueTypeNumeric && v.NumericVal != nil
}

// IsTimestamp returns true if the value holds a valid timestamp
func (v Value) IsTimestamp() bool {
	return v.Type == ValueTypeTimestamp && v.TimestampVal != nil
}

// AsFloat64 returns the numeric value, or 0 if not numeric
func (v Value) AsFloat64() float64 {
	if v.NumericVal != nil {
		return *v.NumericVal
	}
	return 0.0
}

// AsString returns the string value, or empty string otherwise
func (v Value) AsString() string {
	if v.StringVal != nil {
		return *v.StringVal
	}
	return ""
}

// AsTime returns the timestamp value, or the zero time otherwise
func (v Value) AsTime() time.Time {
	if v.TimestampVal != nil {
		return *v.TimestampVal
	}
	return time.Time{}
}

// Record is one cleaned parking citation. Values aligns with the kept
// columns of the run Schema, in schema order.
type Record struct {
	Values []Value
}

// Get returns the value for a canonical column name via the schema
func (r Record) Get(s *Schema, name string) Value {
	idx, ok := s.KeptIndex(name)
	if !ok || idx >= len(r.Values) {
		return NewMissingValue()
	}
	return r.Values[idx]
}

// SummonsNumber returns the citation key
func (r Record) SummonsNumber(s *Schema) string {
	return r.Get(s, ColSummonsNumber).AsString()
}

// IssueDate returns the citation date, or the zero time when missing
func (r Record) IssueDate(s *Schema) time.Time {
	return r.Get(s, ColIssueDate).AsTime()
}

// FineAmount returns the fine in dollars, or 0 when missing
func (r Record) FineAmount(s *Schema) float64 {
	return r.Get(s, ColFineAmount).AsFloat64()
}

// ViolationCode returns the violation code as read
func (r Record) ViolationCode(s *Schema) string {
	return r.Get(s, ColViolationCode).String()
}
