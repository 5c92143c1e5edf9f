package excel

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"parkclean/domain/violation"
	"parkclean/internal/cleaner"
	"parkclean/internal/report"
)

func buildRun(t *testing.T, rows int) *report.Run {
	t.Helper()
	headers := []string{"Summons Number", "Issue Date", "Violation Code", "Fine Amount"}
	types := map[string]violation.ValueType{
		"summons_number": violation.ValueTypeString,
		"issue_date":     violation.ValueTypeTimestamp,
		"violation_code": violation.ValueTypeString,
		"fine_amount":    violation.ValueTypeNumeric,
	}
	schema, err := violation.BuildSchema(headers, types, nil, 0.6)
	require.NoError(t, err)

	agg := report.NewAggregator(schema, report.DefaultConfig())
	records := make([]violation.Record, 0, rows)
	for i := 0; i < rows; i++ {
		issued := time.Date(2017, 6, 1+i%28, 0, 0, 0, 0, time.UTC)
		records = append(records, violation.Record{Values: []violation.Value{
			violation.NewStringValue(string(rune('a'+i%26)) + "x"),
			violation.NewTimestampValue(issued),
			violation.NewStringValue("21"),
			violation.NewNumericValue(65),
		}})
	}
	agg.Add(records)
	return agg.Finish(cleaner.RunStats{RowsRead: rows, RowsKept: rows})
}

func TestWriteWorkbookSheets(t *testing.T) {
	run := buildRun(t, 10)
	path := filepath.Join(t.TempDir(), "summary.xlsx")

	writer := NewSummaryWriter(DefaultWriterConfig())
	require.NoError(t, writer.Write(path, run))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	sheets := f.GetSheetList()
	assert.ElementsMatch(t, []string{SheetSummary, SheetViolations, SheetSample}, sheets)

	// Summary header row
	got, err := f.GetCellValue(SheetSummary, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Column", got)

	// Sample carries canonical column names
	got, err = f.GetCellValue(SheetSample, "A1")
	require.NoError(t, err)
	assert.Equal(t, "summons_number", got)

	// Aggregate sheet has data
	got, err = f.GetCellValue(SheetViolations, "A2")
	require.NoError(t, err)
	assert.Equal(t, "21", got)
}

func TestWriteWorkbookRespectsRowCap(t *testing.T) {
	run := buildRun(t, 50)
	path := filepath.Join(t.TempDir(), "summary.xlsx")

	cfg := WriterConfig{SheetRowCap: 5}
	require.NoError(t, NewSummaryWriter(cfg).Write(path, run))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetSample)
	require.NoError(t, err)
	// header + capped data rows
	assert.LessOrEqual(t, len(rows), 6)

	// the cap leaves a note on the Summary sheet
	summaryRows, err := f.GetRows(SheetSummary)
	require.NoError(t, err)
	found := false
	for _, row := range summaryRows {
		if len(row) > 0 && row[0] == "Sample truncated to 5 rows (of 50)" {
			found = true
		}
	}
	assert.True(t, found, "expected a Sample truncation note on Summary")
}

func TestWriteWorkbookBadPathFails(t *testing.T) {
	run := buildRun(t, 1)
	err := NewSummaryWriter(DefaultWriterConfig()).Write(filepath.Join(t.TempDir(), "missing", "out.xlsx"), run)
	assert.Error(t, err)
}
