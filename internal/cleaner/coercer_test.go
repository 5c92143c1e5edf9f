package cleaner

import (
	"testing"
	"time"

	"parkclean/domain/violation"
)

func TestCoerceNumeric(t *testing.T) {
	coercer := NewCoercer(DefaultCoercionConfig())

	tests := []struct {
		name     string
		input    string
		expected float64
	}{
		{"plain integer", "115", 115},
		{"decimal", "65.50", 65.5},
		{"currency prefix", "$115", 115},
		{"thousands separator", "1,265", 1265},
		{"parenthesized negative", "(35)", -35},
		{"currency and separator", "$1,150.25", 1150.25},
		{"surrounding whitespace", "  45 ", 45},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			val, ok := coercer.TryParseNumeric(tt.input)
			if !ok {
				t.Fatalf("TryParseNumeric(%q) failed", tt.input)
			}
			if val.AsFloat64() != tt.expected {
				t.Errorf("TryParseNumeric(%q) = %v, want %v", tt.input, val.AsFloat64(), tt.expected)
			}
		})
	}

	for _, bad := range []string{"", "BLACK", "FORD", "12 Main St"} {
		if _, ok := coercer.TryParseNumeric(bad); ok {
			t.Errorf("TryParseNumeric(%q) should fail", bad)
		}
	}
}

func TestCoerceTimestamp(t *testing.T) {
	coercer := NewCoercer(DefaultCoercionConfig())

	val, ok := coercer.TryParseTimestamp("06/24/2017")
	if !ok {
		t.Fatal("MM/DD/YYYY issue date failed to parse")
	}
	want := time.Date(2017, 6, 24, 0, 0, 0, 0, time.UTC)
	if !val.AsTime().Equal(want) {
		t.Errorf("parsed %v, want %v", val.AsTime(), want)
	}

	if _, ok := coercer.TryParseTimestamp("2019-11-03"); !ok {
		t.Error("ISO date failed to parse")
	}
	if _, ok := coercer.TryParseTimestamp("not a date"); ok {
		t.Error("garbage parsed as timestamp")
	}
}

func TestCoerceDowngradesFailureToMissing(t *testing.T) {
	coercer := NewCoercer(DefaultCoercionConfig())

	val := coercer.Coerce("N/A CHARGE", violation.ValueTypeNumeric)
	if !val.IsMissing {
		t.Errorf("unparseable numeric should be missing, got %v", val)
	}

	val = coercer.Coerce("", violation.ValueTypeString)
	if !val.IsMissing {
		t.Error("empty cell should be missing")
	}
}

func TestNullMarkersAreMissingForEveryTarget(t *testing.T) {
	coercer := NewCoercer(DefaultCoercionConfig())

	markers := []string{"", " ", "NA", "N/A", "null", "NULL", "-", " NULL "}
	targets := []violation.ValueType{
		violation.ValueTypeString,
		violation.ValueTypeNumeric,
		violation.ValueTypeTimestamp,
		violation.ValueTypeBoolean,
	}

	for _, marker := range markers {
		if !IsNullMarker(marker) {
			t.Errorf("IsNullMarker(%q) = false", marker)
		}
		for _, target := range targets {
			if val := coercer.Coerce(marker, target); !val.IsMissing {
				t.Errorf("Coerce(%q, %s) = %v, want missing", marker, target, val)
			}
		}
	}

	// real values and lowercase spellings are not null markers
	for _, cell := range []string{"NAVY", "na", "0", "N"} {
		if IsNullMarker(cell) {
			t.Errorf("IsNullMarker(%q) = true", cell)
		}
	}
}

func TestCoerceNormalizesStrings(t *testing.T) {
	coercer := NewCoercer(DefaultCoercionConfig())

	val := coercer.Coerce("  W   44th  St ", violation.ValueTypeString)
	if val.AsString() != "W 44th St" {
		t.Errorf("got %q, want collapsed whitespace", val.AsString())
	}
}
