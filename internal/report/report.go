// Package report accumulates aggregates over the cleaned stream and
// renders the run summary. Memory stays bounded no matter how many rows
// pass through: numeric samples, unique tracking, and the retained row
// sample are all capped.
package report

import (
	"sort"
	"time"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"

	"parkclean/domain/violation"
	"parkclean/internal/cleaner"
)

// Config bounds what the report retains
type Config struct {
	TopN             int // rows kept per aggregate table
	SampleRowCap     int // cleaned rows retained for the Sample sheet
	NumericSampleCap int // values retained per numeric column for stats
	UniqueTrackCap   int // distinct values tracked per column
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		TopN:             25,
		SampleRowCap:     1000,
		NumericSampleCap: 200000,
		UniqueTrackCap:   50000,
	}
}

// GroupCount is one row of an aggregate table
type GroupCount struct {
	Key        string  `json:"key"`
	Count      int     `json:"count"`
	TotalFines float64 `json:"total_fines"`
}

// NumericSummary holds the stats for one numeric column
type NumericSummary struct {
	Count   int       `json:"count"`
	Mean    float64   `json:"mean"`
	Median  float64   `json:"median"`
	P95     float64   `json:"p95"`
	Min     float64   `json:"min"`
	Max     float64   `json:"max"`
	StdDev  float64   `json:"std_dev"`
	Deciles []float64 `json:"deciles"`
	Sampled bool      `json:"sampled"` // true when the value cap was hit
}

// ColumnSummary profiles one kept column over the full cleaned stream
type ColumnSummary struct {
	Name        string              `json:"name"`
	Type        violation.ValueType `json:"type"`
	Missing     int                 `json:"missing"`
	MissingRate float64             `json:"missing_rate"`
	Unique      int                 `json:"unique"`
	UniqueExact bool                `json:"unique_exact"`
	Numeric     *NumericSummary     `json:"numeric,omitempty"`
}

// Run is the complete summary of one cleaning run
type Run struct {
	GeneratedAt     time.Time          `json:"generated_at"`
	Schema          *violation.Schema  `json:"-"`
	Columns         []ColumnSummary    `json:"columns"`
	ByViolationCode []GroupCount       `json:"by_violation_code"`
	ByAgency        []GroupCount       `json:"by_agency"`
	ByState         []GroupCount       `json:"by_state"`
	Sample          []violation.Record `json:"-"`
	Stats           cleaner.RunStats   `json:"stats"`
	EarliestIssue   time.Time          `json:"earliest_issue"`
	LatestIssue     time.Time          `json:"latest_issue"`
}

type columnAcc struct {
	missing        int
	unique         map[string]struct{}
	uniqueOverflow bool
	values         []float64
	valuesSampled  bool
}

// Aggregator folds cleaned records into the run summary
type Aggregator struct {
	config Config
	schema *violation.Schema

	rows    int
	columns []*columnAcc

	byCode   map[string]*GroupCount
	byAgency map[string]*GroupCount
	byState  map[string]*GroupCount

	sample []violation.Record

	earliest time.Time
	latest   time.Time

	fineIdx   int
	dateIdx   int
	codeIdx   int
	agencyIdx int
	stateIdx  int
}

// NewAggregator creates an aggregator for the run's schema
func NewAggregator(schema *violation.Schema, config Config) *Aggregator {
	a := &Aggregator{
		config:   config,
		schema:   schema,
		byCode:   make(map[string]*GroupCount),
		byAgency: make(map[string]*GroupCount),
		byState:  make(map[string]*GroupCount),
		sample:   make([]violation.Record, 0, config.SampleRowCap),
	}

	kept := schema.KeptColumns()
	a.columns = make([]*columnAcc, len(kept))
	for i := range a.columns {
		a.columns[i] = &columnAcc{unique: make(map[string]struct{})}
	}

	a.fineIdx = keptIndexOr(schema, violation.ColFineAmount, -1)
	a.dateIdx = keptIndexOr(schema, violation.ColIssueDate, -1)
	a.codeIdx = keptIndexOr(schema, violation.ColViolationCode, -1)
	a.agencyIdx = keptIndexOr(schema, violation.ColIssuingAgency, -1)
	a.stateIdx = keptIndexOr(schema, violation.ColRegistration, -1)
	return a
}

func keptIndexOr(schema *violation.Schema, name string, fallback int) int {
	if idx, ok := schema.KeptIndex(name); ok {
		return idx
	}
	return fallback
}

// Add folds one chunk of cleaned records into the aggregates
func (a *Aggregator) Add(records []violation.Record) {
	for _, rec := range records {
		a.rows++

		for i, val := range rec.Values {
			if i >= len(a.columns) {
				break
			}
			acc := a.columns[i]
			if val.IsMissing {
				acc.missing++
				continue
			}
			if !acc.uniqueOverflow {
				acc.unique[val.String()] = struct{}{}
				if len(acc.unique) >= a.config.UniqueTrackCap {
					acc.uniqueOverflow = true
				}
			}
			if val.IsNumeric() {
				if len(acc.values) < a.config.NumericSampleCap {
					acc.values = append(acc.values, val.AsFloat64())
				} else {
					acc.valuesSampled = true
				}
			}
		}

		fine := 0.0
		if a.fineIdx >= 0 && rec.Values[a.fineIdx].IsNumeric() {
			fine = rec.Values[a.fineIdx].AsFloat64()
		}
		a.bump(a.byCode, rec, a.codeIdx, fine)
		a.bump(a.byAgency, rec, a.agencyIdx, fine)
		a.bump(a.byState, rec, a.stateIdx, fine)

		if a.dateIdx >= 0 && rec.Values[a.dateIdx].IsTimestamp() {
			t := rec.Values[a.dateIdx].AsTime()
			if a.earliest.IsZero() || t.Before(a.earliest) {
				a.earliest = t
			}
			if t.After(a.latest) {
				a.latest = t
			}
		}

		if len(a.sample) < a.config.SampleRowCap {
			a.sample = append(a.sample, rec)
		}
	}
}

func (a *Aggregator) bump(groups map[string]*GroupCount, rec violation.Record, idx int, fine float64) {
	if idx < 0 || rec.Values[idx].IsMissing {
		return
	}
	key := rec.Values[idx].String()
	g, ok := groups[key]
	if !ok {
		g = &GroupCount{Key: key}
		groups[key] = g
	}
	g.Count++
	g.TotalFines += fine
}

// Rows returns how many cleaned records have been folded in
func (a *Aggregator) Rows() int {
	return a.rows
}

// Finish produces the final run summary
func (a *Aggregator) Finish(runStats cleaner.RunStats) *Run {
	kept := a.schema.KeptColumns()
	columns := make([]ColumnSummary, len(kept))
	for i, name := range kept {
		acc := a.columns[i]
		summary := ColumnSummary{
			Name:        name,
			Type:        a.schema.ColumnType(name),
			Missing:     acc.missing,
			Unique:      len(acc.unique),
			UniqueExact: !acc.uniqueOverflow,
		}
		if a.rows > 0 {
			summary.MissingRate = float64(acc.missing) / float64(a.rows)
		}
		if len(acc.values) > 0 {
			summary.Numeric = numericSummary(acc.values, acc.valuesSampled)
		}
		columns[i] = summary
	}

	return &Run{
		GeneratedAt:     time.Now(),
		Schema:          a.schema,
		Columns:         columns,
		ByViolationCode: topGroups(a.byCode, a.config.TopN),
		ByAgency:        topGroups(a.byAgency, a.config.TopN),
		ByState:         topGroups(a.byState, a.config.TopN),
		Sample:          a.sample,
		Stats:           runStats,
		EarliestIssue:   a.earliest,
		LatestIssue:     a.latest,
	}
}

func numericSummary(values []float64, sampled bool) *NumericSummary {
	mean, _ := stats.Mean(values)
	median, _ := stats.Median(values)
	p95, _ := stats.Percentile(values, 95)
	minVal, _ := stats.Min(values)
	maxVal, _ := stats.Max(values)
	stdDev, _ := stats.StandardDeviation(values)

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	deciles := make([]float64, 0, 9)
	for q := 1; q <= 9; q++ {
		deciles = append(deciles, stat.Quantile(float64(q)/10, stat.Empirical, sorted, nil))
	}

	return &NumericSummary{
		Count:   len(values),
		Mean:    mean,
		Median:  median,
		P95:     p95,
		Min:     minVal,
		Max:     maxVal,
		StdDev:  stdDev,
		Deciles: deciles,
		Sampled: sampled,
	}
}

// topGroups sorts descending by count and caps the table; ties break on
// key so the output is deterministic
func topGroups(groups map[string]*GroupCount, topN int) []GroupCount {
	out := make([]GroupCount, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	if topN > 0 && len(out) > topN {
		out = out[:topN]
	}
	return out
}
