package chat

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/querychat/internal/insight"
)

// summaryRowCap bounds how many data rows are quoted back to the model.
const summaryRowCap = 15

// SummarizeReport renders an analysis report as compact text for the
// answer prompt. It leads with the shape of the result, then the
// headline statistics, trends and correlations the analysis found.
func SummarizeReport(report insight.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%d rows, %d columns (", report.RowCount, len(report.Columns))
	for i, col := range report.Columns {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s: %s", col.Name, col.TagStr)
	}
	b.WriteString(")\n")

	for _, cs := range report.Stats {
		fmt.Fprintf(&b, "%s: mean %.2f, median %.2f, min %.2f, max %.2f, stddev %.2f\n",
			cs.Column, cs.Summary.Mean, cs.Summary.Median, cs.Summary.Min, cs.Summary.Max, cs.Summary.StdDev)
	}
	for _, tr := range report.Trends {
		fmt.Fprintf(&b, "trend in %s over %s: %s, %+.1f%% total",
			tr.ValueColumn, tr.TimeColumn, tr.Direction, tr.TotalGrowthPct)
		if tr.HasCAGR {
			fmt.Fprintf(&b, ", %.1f%% per period", tr.CAGRPct)
		}
		b.WriteString("\n")
	}
	for _, c := range report.Correlations {
		if c.ColumnA == c.ColumnB {
			continue
		}
		fmt.Fprintf(&b, "correlation %s vs %s: %s %s (r=%.2f)\n",
			c.ColumnA, c.ColumnB, c.Strength, c.Sign, c.R)
	}

	return strings.TrimRight(b.String(), "\n")
}

// SummarizeRows renders the first rows of a result set as plain text,
// formatted per column classification.
func SummarizeRows(rs *insight.ResultSet, report insight.Report) string {
	tags := report.Tags()
	var b strings.Builder
	b.WriteString(strings.Join(rs.Columns, " | "))
	b.WriteString("\n")
	for i := range rs.Rows {
		if i >= summaryRowCap {
			fmt.Fprintf(&b, "... %d more rows\n", len(rs.Rows)-summaryRowCap)
			break
		}
		b.WriteString(strings.Join(insight.FormatRow(rs, tags, i), " | "))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
