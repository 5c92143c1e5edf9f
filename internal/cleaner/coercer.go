// Package cleaner implements the chunked cleaning pipeline: deterministic
// type coercion, required-field checks, ragged-row repair, and cross-chunk
// deduplication on the summons number.
package cleaner

import (
	"math"
	"strconv"
	"strings"
	"time"

	"parkclean/domain/violation"
)

// CoercionConfig defines the coercion thresholds and rules
type CoercionConfig struct {
	NumericThreshold   float64 `json:"numeric_threshold"`   // % of values that must parse as numbers
	BooleanThreshold   float64 `json:"boolean_threshold"`   // % of values that must parse as booleans
	TimestampThreshold float64 `json:"timestamp_threshold"` // % of values that must parse as timestamps
	NormalizeStrings   bool    `json:"normalize_strings"`   // Whether to trim/collapse strings
}

// DefaultCoercionConfig returns sensible defaults
func DefaultCoercionConfig() CoercionConfig {
	return CoercionConfig{
		NumericThreshold:   0.8,
		BooleanThreshold:   0.9,
		TimestampThreshold: 0.8,
		NormalizeStrings:   true,
	}
}

// Coercer handles deterministic string-to-value coercion
type Coercer struct {
	config CoercionConfig
}

// NewCoercer creates a coercer with the given config
func NewCoercer(config CoercionConfig) *Coercer {
	return &Coercer{config: config}
}

// nullMarkers are the literal null spellings the portal exports inside
// otherwise populated columns
var nullMarkers = map[string]struct{}{
	"NA":   {},
	"N/A":  {},
	"null": {},
	"NULL": {},
	"-":    {},
}

// IsNullMarker reports whether a raw cell is blank or one of the
// portal's literal null spellings. Profiling and cleaning share this so
// a cell counted missing during inference is also missing after
// coercion.
func IsNullMarker(cell string) bool {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return true
	}
	_, ok := nullMarkers[cell]
	return ok
}

// Coerce converts a raw cell to the target type. A cell that fails to
// parse as its target downgrades to missing; the row survives.
func (c *Coercer) Coerce(raw string, target violation.ValueType) violation.Value {
	raw = strings.TrimSpace(raw)
	if IsNullMarker(raw) {
		return violation.NewMissingValue()
	}

	switch target {
	case violation.ValueTypeNumeric:
		if v, ok := c.TryParseNumeric(raw); ok {
			return v
		}
		return violation.NewMissingValue()
	case violation.ValueTypeBoolean:
		if v, ok := c.TryParseBoolean(raw); ok {
			return v
		}
		return violation.NewMissingValue()
	case violation.ValueTypeTimestamp:
		if v, ok := c.TryParseTimestamp(raw); ok {
			return v
		}
		return violation.NewMissingValue()
	default:
		return c.coerceToString(raw)
	}
}

// coerceToString converts to a normalized string value
func (c *Coercer) coerceToString(raw string) violation.Value {
	if c.config.NormalizeStrings {
		raw = normalizeString(raw)
	}
	if raw == "" {
		return violation.NewMissingValue()
	}
	return violation.NewStringValue(raw)
}

// TryParseNumeric attempts to parse as numeric with strict rules.
// Handles parenthesized negatives, currency symbols, thousands
// separators, and percent signs as seen in municipal fee columns.
func (c *Coercer) TryParseNumeric(raw string) (violation.Value, bool) {
	cleanVal := strings.TrimSpace(raw)
	if cleanVal == "" {
		return violation.Value{}, false
	}

	// Parentheses for negative amounts: (115) -> -115
	isNegative := false
	if strings.HasPrefix(cleanVal, "(") && strings.HasSuffix(cleanVal, ")") {
		cleanVal = strings.TrimSuffix(strings.TrimPrefix(cleanVal, "("), ")")
		isNegative = true
	}

	for _, symbol := range []string{"$", "€", "£", "USD"} {
		cleanVal = strings.ReplaceAll(cleanVal, symbol, "")
	}
	cleanVal = strings.ReplaceAll(cleanVal, "%", "")
	cleanVal = strings.ReplaceAll(cleanVal, ",", "")
	cleanVal = strings.TrimSpace(cleanVal)

	if isNegative {
		cleanVal = "-" + cleanVal
	}

	val, err := strconv.ParseFloat(cleanVal, 64)
	if err != nil || math.IsInf(val, 0) || math.IsNaN(val) {
		return violation.Value{}, false
	}
	return violation.NewNumericValue(val), true
}

// TryParseBoolean attempts to parse as boolean with strict rules
func (c *Coercer) TryParseBoolean(raw string) (violation.Value, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "yes", "y", "t":
		return violation.NewBooleanValue(true), true
	case "false", "no", "n", "f":
		return violation.NewBooleanValue(false), true
	}
	return violation.Value{}, false
}

// timestampLayouts covers the formats municipal portals export. The
// MM/DD/YYYY layout is what the parking-violations feed uses for
// issue_date.
var timestampLayouts = []string{
	"01/02/2006",
	"2006-01-02",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"01/02/2006 03:04:05 PM",
	"02-Jan-2006",
}

// TryParseTimestamp attempts to parse as timestamp with multiple layouts
func (c *Coercer) TryParseTimestamp(raw string) (violation.Value, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return violation.Value{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return violation.NewTimestampValue(t), true
		}
	}
	return violation.Value{}, false
}

// normalizeString applies deterministic string normalization: trimmed,
// interior whitespace collapsed, control characters removed. Case is
// preserved; vehicle makes and street names are display values.
func normalizeString(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Join(strings.Fields(s), " ")
	return strings.Map(func(r rune) rune {
		if r < 32 || r == 127 {
			return -1
		}
		return r
	}, s)
}
