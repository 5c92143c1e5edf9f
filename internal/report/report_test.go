package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parkclean/domain/violation"
	"parkclean/internal/cleaner"
)

func reportSchema(t *testing.T) *violation.Schema {
	t.Helper()
	headers := []string{"Summons Number", "Issue Date", "Violation Code", "Fine Amount", "Issuing Agency", "Registration State"}
	types := map[string]violation.ValueType{
		"summons_number":     violation.ValueTypeString,
		"issue_date":         violation.ValueTypeTimestamp,
		"violation_code":     violation.ValueTypeString,
		"fine_amount":        violation.ValueTypeNumeric,
		"issuing_agency":     violation.ValueTypeString,
		"registration_state": violation.ValueTypeString,
	}
	schema, err := violation.BuildSchema(headers, types, nil, 0.6)
	require.NoError(t, err)
	return schema
}

func rec(summons, code, agency, state string, fine float64, day int) violation.Record {
	issued := time.Date(2017, 6, day, 0, 0, 0, 0, time.UTC)
	return violation.Record{Values: []violation.Value{
		violation.NewStringValue(summons),
		violation.NewTimestampValue(issued),
		violation.NewStringValue(code),
		violation.NewNumericValue(fine),
		violation.NewStringValue(agency),
		violation.NewStringValue(state),
	}}
}

func TestAggregatorGroupCounts(t *testing.T) {
	schema := reportSchema(t)
	agg := NewAggregator(schema, DefaultConfig())

	agg.Add([]violation.Record{
		rec("1001", "21", "P", "NY", 65, 1),
		rec("1002", "21", "P", "NJ", 65, 2),
		rec("1003", "36", "X", "NY", 50, 3),
	})

	run := agg.Finish(cleaner.RunStats{RowsRead: 3, RowsKept: 3})

	require.Len(t, run.ByViolationCode, 2)
	assert.Equal(t, "21", run.ByViolationCode[0].Key)
	assert.Equal(t, 2, run.ByViolationCode[0].Count)
	assert.Equal(t, 130.0, run.ByViolationCode[0].TotalFines)

	require.Len(t, run.ByState, 2)
	assert.Equal(t, "NY", run.ByState[0].Key)
}

func TestAggregatorNumericSummary(t *testing.T) {
	schema := reportSchema(t)
	agg := NewAggregator(schema, DefaultConfig())

	var records []violation.Record
	for i := 1; i <= 10; i++ {
		records = append(records, rec("s"+strings.Repeat("0", i), "21", "P", "NY", float64(i*10), 1))
	}
	agg.Add(records)

	run := agg.Finish(cleaner.RunStats{})

	var fineSummary *NumericSummary
	for _, col := range run.Columns {
		if col.Name == violation.ColFineAmount {
			fineSummary = col.Numeric
		}
	}
	require.NotNil(t, fineSummary)
	assert.Equal(t, 10, fineSummary.Count)
	assert.InDelta(t, 55.0, fineSummary.Mean, 1e-9)
	assert.Equal(t, 10.0, fineSummary.Min)
	assert.Equal(t, 100.0, fineSummary.Max)
	assert.Len(t, fineSummary.Deciles, 9)
}

func TestAggregatorCapsSampleAndTopN(t *testing.T) {
	schema := reportSchema(t)
	cfg := DefaultConfig()
	cfg.SampleRowCap = 5
	cfg.TopN = 2
	agg := NewAggregator(schema, cfg)

	var records []violation.Record
	for i := 0; i < 20; i++ {
		code := string(rune('A' + i%4))
		records = append(records, rec(strings.Repeat("x", i+1), code, "P", "NY", 10, 1))
	}
	agg.Add(records)

	run := agg.Finish(cleaner.RunStats{})
	assert.Len(t, run.Sample, 5)
	assert.Len(t, run.ByViolationCode, 2)
}

func TestAggregatorDateRange(t *testing.T) {
	schema := reportSchema(t)
	agg := NewAggregator(schema, DefaultConfig())
	agg.Add([]violation.Record{
		rec("1001", "21", "P", "NY", 65, 12),
		rec("1002", "21", "P", "NY", 65, 3),
		rec("1003", "21", "P", "NY", 65, 25),
	})

	run := agg.Finish(cleaner.RunStats{})
	assert.Equal(t, 3, run.EarliestIssue.Day())
	assert.Equal(t, 25, run.LatestIssue.Day())
}

func TestAggregatorMissingRate(t *testing.T) {
	schema := reportSchema(t)
	agg := NewAggregator(schema, DefaultConfig())

	full := rec("1001", "21", "P", "NY", 65, 1)
	noFine := rec("1002", "21", "P", "NY", 65, 1)
	if idx, ok := schema.KeptIndex(violation.ColFineAmount); assert.True(t, ok) {
		noFine.Values[idx] = violation.NewMissingValue()
	}
	agg.Add([]violation.Record{full, noFine})

	run := agg.Finish(cleaner.RunStats{})
	for _, col := range run.Columns {
		if col.Name == violation.ColFineAmount {
			assert.InDelta(t, 0.5, col.MissingRate, 1e-9)
		}
	}
}

func TestRenderConsoleSmoke(t *testing.T) {
	schema := reportSchema(t)
	agg := NewAggregator(schema, DefaultConfig())
	agg.Add([]violation.Record{rec("1001", "21", "P", "NY", 65, 1)})
	run := agg.Finish(cleaner.RunStats{RowsRead: 1, RowsKept: 1})

	var buf bytes.Buffer
	RenderConsole(&buf, run)

	out := buf.String()
	assert.Contains(t, out, "Run summary")
	assert.Contains(t, out, "fine_amount")
	assert.Contains(t, out, "Top violation codes")
}
