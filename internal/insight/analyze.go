package insight

// ColumnProfile records the classification of one column together with
// the sample value that decided it, so every consumer formats the column
// the same way.
type ColumnProfile struct {
	Name   string `json:"name"`
	Tag    Tag    `json:"-"`
	TagStr string `json:"tag"`
	Sample string `json:"sample"`
}

// ColumnStats pairs a column name with its summary, in column order.
type ColumnStats struct {
	Column  string      `json:"column"`
	Summary StatSummary `json:"summary"`
}

// Report is the full analysis of one result set. Sections are independent:
// any of Stats, Correlations or Trends may be empty when the data cannot
// support them, and that is not an error.
type Report struct {
	RowCount      int                `json:"row_count"`
	Columns       []ColumnProfile    `json:"columns"`
	Stats         []ColumnStats      `json:"stats,omitempty"`
	Correlations  []CorrelationEntry `json:"correlations,omitempty"`
	Trends        []TrendReport      `json:"trends,omitempty"`
	Visualization Descriptor         `json:"visualization"`
}

// Tags returns the per-column tag map for formatting.
func (r Report) Tags() map[string]Tag {
	tags := make(map[string]Tag, len(r.Columns))
	for _, c := range r.Columns {
		tags[c.Name] = c.Tag
	}
	return tags
}

// Analyze classifies the columns of a result set once and fans out to
// statistics, correlation, trend analysis and visualization selection.
// It never fails: malformed or insufficient data degrades to absent
// sections and a plain table recommendation.
func Analyze(rs *ResultSet) Report {
	if rs == nil {
		rs = NewResultSet(nil)
	}

	tags := ClassifyColumns(rs)

	report := Report{
		RowCount:      rs.RowCount(),
		Visualization: SelectVisualization(rs, tags),
	}

	var dateCols, numericCols []string
	for _, col := range rs.Columns {
		tag := tags[col]
		report.Columns = append(report.Columns, ColumnProfile{
			Name:   col,
			Tag:    tag,
			TagStr: tag.String(),
			Sample: rs.Sample(col).Text(),
		})
		switch {
		case tag == TagDate:
			dateCols = append(dateCols, col)
		case tag.IsNumeric():
			numericCols = append(numericCols, col)
		}
	}

	for _, col := range numericCols {
		if s, ok := Summarize(rs.NumericValues(col)); ok {
			report.Stats = append(report.Stats, ColumnStats{Column: col, Summary: s})
		}
	}

	if len(numericCols) >= 2 {
		aligned := make([]NumericColumn, 0, len(numericCols))
		for _, col := range numericCols {
			aligned = append(aligned, NumericColumn{Name: col, Values: rs.alignedValues(col)})
		}
		report.Correlations = Correlate(aligned)
	}

	// Trend analysis wants exactly one time axis; two date columns make
	// the ordering ambiguous, so the section is skipped entirely.
	if len(dateCols) == 1 && len(numericCols) >= 1 {
		for _, col := range numericCols {
			if t, ok := AnalyzeTrend(dateCols[0], col, rs); ok {
				report.Trends = append(report.Trends, t)
			}
		}
	}

	return report
}
