// Package profile analyzes a sample of raw rows to decide, per column,
// the coercion target type and the null ratio the cleaner uses for
// column dropping.
package profile

import (
	"fmt"
	"math"

	"parkclean/domain/violation"
	"parkclean/internal/cleaner"
)

// Config holds profiling thresholds
type Config struct {
	SampleSize         int     // max rows inspected per column
	NumericThreshold   float64 // % of valid values that must parse as numbers
	BooleanThreshold   float64
	TimestampThreshold float64
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		SampleSize:         500,
		NumericThreshold:   0.8,
		BooleanThreshold:   0.9,
		TimestampThreshold: 0.8,
	}
}

// ColumnProfile summarizes one column over the sampled rows
type ColumnProfile struct {
	Name           string              `json:"name"`
	Rows           int                 `json:"rows"`
	Missing        int                 `json:"missing"`
	Unique         int                 `json:"unique"`
	NumericRatio   float64             `json:"numeric_ratio"`
	BooleanRatio   float64             `json:"boolean_ratio"`
	TimestampRatio float64             `json:"timestamp_ratio"`
	InferredType   violation.ValueType `json:"inferred_type"`
}

// NullRatio returns the fraction of sampled cells that were empty
func (c ColumnProfile) NullRatio() float64 {
	if c.Rows == 0 {
		return 0
	}
	return float64(c.Missing) / float64(c.Rows)
}

// TableProfile is the profile of every column in header order
type TableProfile struct {
	Columns     []ColumnProfile `json:"columns"`
	RowsSampled int             `json:"rows_sampled"`
}

// Types returns canonical column name -> inferred type for schema building
func (t *TableProfile) Types() map[string]violation.ValueType {
	types := make(map[string]violation.ValueType, len(t.Columns))
	for _, col := range t.Columns {
		types[col.Name] = col.InferredType
	}
	return types
}

// NullRatios returns canonical column name -> null ratio
func (t *TableProfile) NullRatios() map[string]float64 {
	ratios := make(map[string]float64, len(t.Columns))
	for _, col := range t.Columns {
		ratios[col.Name] = col.NullRatio()
	}
	return ratios
}

// Profiler infers column types from a row sample
type Profiler struct {
	config  Config
	coercer *cleaner.Coercer
}

// NewProfiler creates a profiler backed by the run's coercer, so that
// inference and cleaning agree on what parses
func NewProfiler(config Config, coercer *cleaner.Coercer) *Profiler {
	return &Profiler{config: config, coercer: coercer}
}

// Table profiles every column over a stratified sample of rows. Headers
// are raw cells from the file; profile columns use canonical names with
// the same suffixing rule as the schema, so lookups agree.
func (p *Profiler) Table(headers []string, rows [][]string) *TableProfile {
	indices := stratifiedSample(len(rows), p.config.SampleSize)

	seen := make(map[string]int, len(headers))
	profiles := make([]ColumnProfile, len(headers))

	for colIdx, raw := range headers {
		name := violation.NormalizeColumn(raw)
		if name == "" {
			name = "column"
		}
		seen[name]++
		if n := seen[name]; n > 1 {
			name = canonicalSuffix(name, n)
		}
		profiles[colIdx] = p.profileColumn(name, colIdx, rows, indices)
	}

	return &TableProfile{Columns: profiles, RowsSampled: len(indices)}
}

func (p *Profiler) profileColumn(name string, colIdx int, rows [][]string, indices []int) ColumnProfile {
	profile := ColumnProfile{Name: name}
	unique := make(map[string]struct{})

	validCount := 0
	numericCount := 0
	booleanCount := 0
	timestampCount := 0

	for _, rowIdx := range indices {
		row := rows[rowIdx]
		profile.Rows++

		var cell string
		if colIdx < len(row) {
			cell = row[colIdx]
		}
		if cleaner.IsNullMarker(cell) {
			profile.Missing++
			continue
		}

		validCount++
		unique[cell] = struct{}{}

		if _, ok := p.coercer.TryParseNumeric(cell); ok {
			numericCount++
		}
		if _, ok := p.coercer.TryParseBoolean(cell); ok {
			booleanCount++
		}
		if _, ok := p.coercer.TryParseTimestamp(cell); ok {
			timestampCount++
		}
	}

	profile.Unique = len(unique)
	if validCount > 0 {
		profile.NumericRatio = float64(numericCount) / float64(validCount)
		profile.BooleanRatio = float64(booleanCount) / float64(validCount)
		profile.TimestampRatio = float64(timestampCount) / float64(validCount)
	}
	profile.InferredType = p.recommendType(profile, validCount)
	return profile
}

// recommendType checks thresholds in order of restrictiveness. Booleans
// before numerics: a column of 0/1 flags parses as both, and timestamps
// before the string fallback because the date layouts are unambiguous.
func (p *Profiler) recommendType(profile ColumnProfile, validCount int) violation.ValueType {
	if validCount == 0 {
		return violation.ValueTypeString
	}
	if profile.BooleanRatio >= p.config.BooleanThreshold && profile.Unique <= 4 {
		return violation.ValueTypeBoolean
	}
	if profile.TimestampRatio >= p.config.TimestampThreshold {
		return violation.ValueTypeTimestamp
	}
	if profile.NumericRatio >= p.config.NumericThreshold {
		return violation.ValueTypeNumeric
	}
	return violation.ValueTypeString
}

// stratifiedSample returns evenly distributed row indices across the
// input, capped at sampleSize
func stratifiedSample(totalRows, sampleSize int) []int {
	if totalRows <= sampleSize {
		indices := make([]int, totalRows)
		for i := range indices {
			indices[i] = i
		}
		return indices
	}

	indices := make([]int, 0, sampleSize)
	step := float64(totalRows) / float64(sampleSize)
	for i := 0; i < sampleSize; i++ {
		idx := int(math.Round(float64(i) * step))
		if idx >= totalRows {
			idx = totalRows - 1
		}
		if len(indices) > 0 && indices[len(indices)-1] == idx {
			continue
		}
		indices = append(indices, idx)
	}
	return indices
}

// canonicalSuffix mirrors the schema's duplicate-header suffixing
func canonicalSuffix(name string, n int) string {
	return fmt.Sprintf("%s_%d", name, n)
}
