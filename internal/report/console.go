package report

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
)

// RenderConsole writes the run summary as console tables
func RenderConsole(w io.Writer, run *Run) {
	renderStats(w, run)
	renderColumns(w, run)
	renderTop(w, "Top violation codes", run.ByViolationCode)
	renderTop(w, "Top issuing agencies", run.ByAgency)
	renderTop(w, "Top registration states", run.ByState)
}

func renderStats(w io.Writer, run *Run) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("Run summary")
	t.AppendRows([]table.Row{
		{"Rows read", run.Stats.RowsRead},
		{"Rows kept", run.Stats.RowsKept},
		{"Duplicates dropped", run.Stats.Duplicates},
		{"Missing required fields", run.Stats.MissingRequired},
		{"Ragged rows padded", run.Stats.RowsPadded},
		{"Ragged rows truncated", run.Stats.RowsTruncated},
		{"Skip rate", fmt.Sprintf("%.2f%%", run.Stats.SkipRate()*100)},
	})
	if !run.EarliestIssue.IsZero() {
		t.AppendRow(table.Row{"Issue date range", fmt.Sprintf("%s to %s",
			run.EarliestIssue.Format("2006-01-02"), run.LatestIssue.Format("2006-01-02"))})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}

func renderColumns(w io.Writer, run *Run) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("Columns")
	t.AppendHeader(table.Row{"Column", "Type", "Missing %", "Unique", "Mean", "Median", "P95"})

	for _, col := range run.Columns {
		unique := fmt.Sprintf("%d", col.Unique)
		if !col.UniqueExact {
			unique += "+"
		}
		mean, median, p95 := "", "", ""
		if col.Numeric != nil {
			mean = fmt.Sprintf("%.2f", col.Numeric.Mean)
			median = fmt.Sprintf("%.2f", col.Numeric.Median)
			p95 = fmt.Sprintf("%.2f", col.Numeric.P95)
		}
		t.AppendRow(table.Row{
			col.Name,
			string(col.Type),
			fmt.Sprintf("%.1f", col.MissingRate*100),
			unique,
			mean, median, p95,
		})
	}

	t.SetStyle(table.StyleRounded)
	t.Render()
}

func renderTop(w io.Writer, title string, groups []GroupCount) {
	if len(groups) == 0 {
		return
	}
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(title)
	t.AppendHeader(table.Row{"Key", "Count", "Total fines"})
	for _, g := range groups {
		t.AppendRow(table.Row{g.Key, g.Count, fmt.Sprintf("$%.2f", g.TotalFines)})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}
