// Package excel writes the bounded summary workbook. Every sheet is
// hard-capped so the output stays a fixed size no matter how large the
// input file was.
package excel

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"parkclean/domain/violation"
	"parkclean/internal/errors"
	"parkclean/internal/logging"
	"parkclean/internal/report"
)

// Sheet names, fixed by convention
const (
	SheetSummary    = "Summary"
	SheetViolations = "By Violation"
	SheetSample     = "Sample"
)

// WriterConfig bounds and styles the workbook
type WriterConfig struct {
	SheetRowCap int // hard cap on data rows per sheet
}

// DefaultWriterConfig returns sensible defaults
func DefaultWriterConfig() WriterConfig {
	return WriterConfig{SheetRowCap: 1000}
}

// SummaryWriter renders a report.Run as a styled workbook
type SummaryWriter struct {
	config WriterConfig
	log    *logging.Logger
}

// NewSummaryWriter creates a workbook writer
func NewSummaryWriter(config WriterConfig) *SummaryWriter {
	if config.SheetRowCap <= 0 {
		config.SheetRowCap = DefaultWriterConfig().SheetRowCap
	}
	return &SummaryWriter{config: config, log: logging.NewDefault("ExcelWriter")}
}

// Write renders the run summary to path
func (w *SummaryWriter) Write(path string, run *report.Run) error {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"4472C4"}},
	})
	if err != nil {
		return errors.ExportError("failed to create header style", err)
	}

	if err := w.writeSummarySheet(f, run, headerStyle); err != nil {
		return err
	}
	if err := w.writeViolationsSheet(f, run, headerStyle); err != nil {
		return err
	}
	if err := w.writeSampleSheet(f, run, headerStyle); err != nil {
		return err
	}

	// The default sheet excelize creates is replaced by Summary
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return errors.ExportError("failed to remove default sheet", err)
	}
	if idx, err := f.GetSheetIndex(SheetSummary); err == nil {
		f.SetActiveSheet(idx)
	}

	if err := f.SaveAs(path); err != nil {
		return errors.ExportError(fmt.Sprintf("failed to save workbook to %s", path), err)
	}

	w.log.Info("Workbook written to %s (%d sample rows)", path, len(run.Sample))
	return nil
}

func (w *SummaryWriter) writeSummarySheet(f *excelize.File, run *report.Run, headerStyle int) error {
	if _, err := f.NewSheet(SheetSummary); err != nil {
		return errors.ExportError("failed to create Summary sheet", err)
	}

	headers := []string{"Column", "Type", "Missing", "Missing %", "Unique", "Mean", "Median", "P95", "Min", "Max", "Std Dev", "Deciles"}
	if err := w.writeHeaderRow(f, SheetSummary, headers, headerStyle); err != nil {
		return err
	}

	rowIdx := 2
	for _, col := range run.Columns {
		if rowIdx-1 > w.config.SheetRowCap {
			break
		}
		unique := fmt.Sprintf("%d", col.Unique)
		if !col.UniqueExact {
			unique += "+"
		}
		cells := []interface{}{
			col.Name,
			string(col.Type),
			col.Missing,
			col.MissingRate,
			unique,
		}
		if col.Numeric != nil {
			cells = append(cells, col.Numeric.Mean, col.Numeric.Median, col.Numeric.P95, col.Numeric.Min, col.Numeric.Max, col.Numeric.StdDev, decileCell(col.Numeric.Deciles))
		}
		if err := w.writeRow(f, SheetSummary, rowIdx, cells); err != nil {
			return err
		}
		rowIdx++
	}

	// Run counters below the column table, separated by a blank row
	rowIdx++
	counters := [][]interface{}{
		{"Rows read", run.Stats.RowsRead},
		{"Rows kept", run.Stats.RowsKept},
		{"Duplicates dropped", run.Stats.Duplicates},
		{"Missing required fields", run.Stats.MissingRequired},
	}
	if len(run.Schema.DroppedColumns()) > 0 {
		counters = append(counters, []interface{}{"Columns dropped for null ratio", fmt.Sprintf("%v", run.Schema.DroppedColumns())})
	}
	if n := len(run.ByViolationCode); n > w.config.SheetRowCap {
		counters = append(counters, []interface{}{fmt.Sprintf("%s truncated to %d rows (of %d)", SheetViolations, w.config.SheetRowCap, n)})
	}
	if n := len(run.Sample); n > w.config.SheetRowCap {
		counters = append(counters, []interface{}{fmt.Sprintf("%s truncated to %d rows (of %d)", SheetSample, w.config.SheetRowCap, n)})
	}
	for _, row := range counters {
		if err := w.writeRow(f, SheetSummary, rowIdx, row); err != nil {
			return err
		}
		rowIdx++
	}

	if err := f.SetColWidth(SheetSummary, "A", "A", 28); err != nil {
		return errors.ExportError("failed to size Summary columns", err)
	}
	return w.freezeHeader(f, SheetSummary)
}

func (w *SummaryWriter) writeViolationsSheet(f *excelize.File, run *report.Run, headerStyle int) error {
	if _, err := f.NewSheet(SheetViolations); err != nil {
		return errors.ExportError("failed to create By Violation sheet", err)
	}

	headers := []string{"Violation Code", "Count", "Total Fines"}
	if err := w.writeHeaderRow(f, SheetViolations, headers, headerStyle); err != nil {
		return err
	}

	for i, g := range run.ByViolationCode {
		if i >= w.config.SheetRowCap {
			break
		}
		if err := w.writeRow(f, SheetViolations, i+2, []interface{}{g.Key, g.Count, g.TotalFines}); err != nil {
			return err
		}
	}
	return w.freezeHeader(f, SheetViolations)
}

func (w *SummaryWriter) writeSampleSheet(f *excelize.File, run *report.Run, headerStyle int) error {
	if _, err := f.NewSheet(SheetSample); err != nil {
		return errors.ExportError("failed to create Sample sheet", err)
	}

	kept := run.Schema.KeptColumns()
	headerCells := make([]string, len(kept))
	copy(headerCells, kept)
	if err := w.writeHeaderRow(f, SheetSample, headerCells, headerStyle); err != nil {
		return err
	}

	for i, rec := range run.Sample {
		if i >= w.config.SheetRowCap {
			break
		}
		cells := make([]interface{}, len(rec.Values))
		for j, val := range rec.Values {
			cells[j] = cellValue(val)
		}
		if err := w.writeRow(f, SheetSample, i+2, cells); err != nil {
			return err
		}
	}
	return w.freezeHeader(f, SheetSample)
}

// decileCell renders the d10..d90 cut points as one compact cell
func decileCell(deciles []float64) string {
	parts := make([]string, len(deciles))
	for i, d := range deciles {
		parts[i] = fmt.Sprintf("%g", d)
	}
	return strings.Join(parts, " | ")
}

// cellValue maps a typed value onto what excelize should store
func cellValue(val violation.Value) interface{} {
	switch {
	case val.IsMissing:
		return nil
	case val.IsNumeric():
		return val.AsFloat64()
	case val.IsTimestamp():
		return val.AsTime().Format("2006-01-02")
	default:
		return val.String()
	}
}

func (w *SummaryWriter) writeHeaderRow(f *excelize.File, sheet string, headers []string, style int) error {
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return errors.ExportError(fmt.Sprintf("failed writing %s header", sheet), err)
		}
	}
	endCell, _ := excelize.CoordinatesToCellName(len(headers), 1)
	if err := f.SetCellStyle(sheet, "A1", endCell, style); err != nil {
		return errors.ExportError(fmt.Sprintf("failed styling %s header", sheet), err)
	}
	return nil
}

func (w *SummaryWriter) writeRow(f *excelize.File, sheet string, rowIdx int, cells []interface{}) error {
	for i, v := range cells {
		if v == nil {
			continue
		}
		cell, _ := excelize.CoordinatesToCellName(i+1, rowIdx)
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return errors.ExportError(fmt.Sprintf("failed writing %s row %d", sheet, rowIdx), err)
		}
	}
	return nil
}

func (w *SummaryWriter) freezeHeader(f *excelize.File, sheet string) error {
	err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
	if err != nil {
		return errors.ExportError(fmt.Sprintf("failed freezing %s header", sheet), err)
	}
	return nil
}
