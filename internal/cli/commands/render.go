package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/leapstack-labs/querychat/internal/insight"
)

// renderResultSet writes a formatted result set. Cells go through the
// column-kind formatter, so currency and counts read the same in every
// format.
func renderResultSet(w io.Writer, rs *insight.ResultSet, report insight.Report, format string) error {
	rows := insight.FormatResultSet(rs, report.Tags())

	switch format {
	case "json":
		return renderJSON(w, rs.Columns, rows)
	case "csv":
		return renderCSV(w, rs.Columns, rows)
	case "md", "markdown":
		return renderMarkdown(w, rs.Columns, rows)
	case "table", "":
		return renderTable(w, rs.Columns, rows)
	default:
		return fmt.Errorf("unknown format %q (use table, json, csv or md)", format)
	}
}

func renderTable(w io.Writer, cols []string, rows [][]string) error {
	if len(rows) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	// Column names come straight from the query; keep their case.
	t.Style().Format.Header = text.FormatDefault

	headerRow := make(table.Row, len(cols))
	for i, col := range cols {
		headerRow[i] = col
	}
	t.AppendHeader(headerRow)

	for _, row := range rows {
		tr := make(table.Row, len(row))
		for i, cell := range row {
			tr[i] = cell
		}
		t.AppendRow(tr)
	}

	t.Render()
	_, _ = fmt.Fprintf(w, "(%d rows)\n", len(rows))
	return nil
}

func renderJSON(w io.Writer, cols []string, rows [][]string) error {
	results := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		m := make(map[string]string, len(cols))
		for i, col := range cols {
			if i < len(row) {
				m[col] = row[i]
			}
		}
		results = append(results, m)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

func renderCSV(w io.Writer, cols []string, rows [][]string) error {
	_, _ = fmt.Fprintln(w, strings.Join(cols, ","))

	for _, row := range rows {
		values := make([]string, len(row))
		for i, cell := range row {
			values[i] = escapeCSV(cell)
		}
		_, _ = fmt.Fprintln(w, strings.Join(values, ","))
	}
	return nil
}

func renderMarkdown(w io.Writer, cols []string, rows [][]string) error {
	if len(rows) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(cols, " | "))
	seps := make([]string, len(cols))
	for i := range seps {
		seps[i] = "---"
	}
	_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(seps, " | "))

	for _, row := range rows {
		_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(row, " | "))
	}
	return nil
}

func escapeCSV(s string) string {
	if strings.ContainsAny(s, ",\"\n") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}

// renderReport prints the full analysis: column kinds, per-column
// statistics, correlations, trends, and the chosen visualization.
func renderReport(w io.Writer, report insight.Report) {
	_, _ = fmt.Fprintf(w, "Rows: %d\n", report.RowCount)

	_, _ = fmt.Fprintln(w, "Columns:")
	for _, col := range report.Columns {
		_, _ = fmt.Fprintf(w, "  %-20s %s\n", col.Name, col.TagStr)
	}

	if len(report.Stats) > 0 {
		_, _ = fmt.Fprintln(w, "Statistics:")
		for _, cs := range report.Stats {
			s := cs.Summary
			_, _ = fmt.Fprintf(w, "  %-20s mean %.2f, median %.2f, stddev %.2f, min %.2f, max %.2f\n",
				cs.Column, s.Mean, s.Median, s.StdDev, s.Min, s.Max)
		}
	}

	for _, c := range report.Correlations {
		if c.ColumnA == c.ColumnB {
			continue
		}
		_, _ = fmt.Fprintf(w, "Correlation %s vs %s: %s %s (r=%.2f)\n", c.ColumnA, c.ColumnB, c.Strength, c.Sign, c.R)
	}

	for _, tr := range report.Trends {
		_, _ = fmt.Fprintf(w, "Trend %s over %s: %s, %+.1f%% total\n", tr.ValueColumn, tr.TimeColumn, tr.Direction, tr.TotalGrowthPct)
	}

	_, _ = fmt.Fprintf(w, "Visualization: %s", report.Visualization.Kind)
	if report.Visualization.ChartType != "" {
		_, _ = fmt.Fprintf(w, " (%s)", report.Visualization.ChartType)
	}
	_, _ = fmt.Fprintln(w)
}
