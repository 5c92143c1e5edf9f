package cleaner

import (
	"strings"

	"parkclean/domain/violation"
)

// RunStats counts what happened to every row that entered the pipeline
type RunStats struct {
	RowsRead         int            `json:"rows_read"`
	RowsKept         int            `json:"rows_kept"`
	Duplicates       int            `json:"duplicates"`
	MissingRequired  int            `json:"missing_required"`
	RowsPadded       int            `json:"rows_padded"`
	RowsTruncated    int            `json:"rows_truncated"`
	CoercionFailures map[string]int `json:"coercion_failures"`
}

// SkipRate returns the fraction of read rows that did not survive
func (s RunStats) SkipRate() float64 {
	if s.RowsRead == 0 {
		return 0
	}
	return float64(s.RowsRead-s.RowsKept) / float64(s.RowsRead)
}

// Pipeline applies the per-chunk transformation sequence. The seen-set
// persists across chunks, so a Pipeline instance covers exactly one run
// over one input file.
type Pipeline struct {
	schema  *violation.Schema
	coercer *Coercer

	seen  map[string]struct{}
	stats RunStats

	keptSrc     []int // source column index for each kept column
	dedupeSrc   int   // source column index of summons_number
	requiredSrc []int
}

// NewPipeline creates a pipeline for one run over one schema
func NewPipeline(schema *violation.Schema, coercer *Coercer) *Pipeline {
	p := &Pipeline{
		schema:    schema,
		coercer:   coercer,
		seen:      make(map[string]struct{}),
		stats:     RunStats{CoercionFailures: make(map[string]int)},
		dedupeSrc: -1,
	}

	required := make(map[string]bool)
	for _, name := range violation.RequiredColumns() {
		required[name] = true
	}

	for srcIdx, col := range schema.Columns {
		if col.Name == violation.ColSummonsNumber {
			p.dedupeSrc = srcIdx
		}
		if required[col.Name] {
			p.requiredSrc = append(p.requiredSrc, srcIdx)
		}
		if !col.Dropped {
			p.keptSrc = append(p.keptSrc, srcIdx)
		}
	}
	return p
}

// Apply cleans one chunk of raw rows and returns the surviving records.
// The returned slice aliases nothing in the input.
func (p *Pipeline) Apply(chunk [][]string) []violation.Record {
	records := make([]violation.Record, 0, len(chunk))

	for _, row := range chunk {
		p.stats.RowsRead++

		row = p.repairWidth(row)

		if p.missingRequired(row) {
			p.stats.MissingRequired++
			continue
		}

		key := strings.TrimSpace(row[p.dedupeSrc])
		if _, dup := p.seen[key]; dup {
			p.stats.Duplicates++
			continue
		}
		p.seen[key] = struct{}{}

		values := make([]violation.Value, len(p.keptSrc))
		for i, srcIdx := range p.keptSrc {
			col := p.schema.Columns[srcIdx]
			raw := row[srcIdx]
			values[i] = p.coercer.Coerce(raw, col.Type)
			if values[i].IsMissing && !IsNullMarker(raw) {
				p.stats.CoercionFailures[col.Name]++
			}
		}

		records = append(records, violation.Record{Values: values})
		p.stats.RowsKept++
	}

	return records
}

// repairWidth pads short rows with empty cells and truncates long ones
// so every row matches the header width
func (p *Pipeline) repairWidth(row []string) []string {
	width := len(p.schema.Columns)
	switch {
	case len(row) < width:
		p.stats.RowsPadded++
		padded := make([]string, width)
		copy(padded, row)
		return padded
	case len(row) > width:
		p.stats.RowsTruncated++
		return row[:width]
	}
	return row
}

// missingRequired reports whether any required cell is blank or a
// literal null marker
func (p *Pipeline) missingRequired(row []string) bool {
	for _, srcIdx := range p.requiredSrc {
		if IsNullMarker(row[srcIdx]) {
			return true
		}
	}
	return false
}

// Stats returns the counters accumulated so far
func (p *Pipeline) Stats() RunStats {
	return p.stats
}

// SeenCount returns how many distinct summons numbers have passed through
func (p *Pipeline) SeenCount() int {
	return len(p.seen)
}
