package insight

import (
	"math"
	"testing"
)

// Monthly revenue: the canonical happy path through every section.
func TestAnalyze_MonthlyRevenue(t *testing.T) {
	rs := NewResultSet([]string{"month", "revenue"})
	rs.AppendRow([]any{"2024-01", float64(1000)})
	rs.AppendRow([]any{"2024-02", float64(1500)})

	report := Analyze(rs)

	tags := report.Tags()
	if tags["month"] != TagDate {
		t.Errorf("month = %s, want date", tags["month"])
	}
	if tags["revenue"] != TagCurrency {
		t.Errorf("revenue = %s, want currency", tags["revenue"])
	}

	v := report.Visualization
	if v.Kind != VizChart || v.ChartType != "line" {
		t.Fatalf("visualization = %s/%s, want chart/line", v.Kind, v.ChartType)
	}
	if v.LabelColumn != "month" || len(v.DataColumns) != 1 || v.DataColumns[0] != "revenue" {
		t.Errorf("chart columns = %s/%v, want month/[revenue]", v.LabelColumn, v.DataColumns)
	}

	if len(report.Trends) != 1 {
		t.Fatalf("got %d trends, want 1", len(report.Trends))
	}
	trend := report.Trends[0]
	if math.Abs(trend.TotalGrowthPct-50) > 1e-9 {
		t.Errorf("TotalGrowthPct = %v, want 50", trend.TotalGrowthPct)
	}
	if !trend.HasCAGR || math.Abs(trend.CAGRPct-50) > 1e-9 {
		t.Errorf("CAGRPct = %v, want 50", trend.CAGRPct)
	}

	if len(report.Stats) != 1 || report.Stats[0].Column != "revenue" {
		t.Fatalf("stats = %+v, want revenue only (dates excluded)", report.Stats)
	}
	if report.Stats[0].Summary.Mean != 1250 {
		t.Errorf("mean revenue = %v, want 1250", report.Stats[0].Summary.Mean)
	}

	// A single numeric column produces no correlation section.
	if report.Correlations != nil {
		t.Errorf("correlations = %v, want none", report.Correlations)
	}
}

func TestAnalyze_EmptyResultSet(t *testing.T) {
	report := Analyze(NewResultSet(nil))

	if report.RowCount != 0 {
		t.Errorf("RowCount = %d, want 0", report.RowCount)
	}
	if len(report.Stats) != 0 || len(report.Correlations) != 0 || len(report.Trends) != 0 {
		t.Error("expected no analysis sections for an empty result set")
	}
	if report.Visualization.Kind != VizTable || report.Visualization.EmptyMessage == "" {
		t.Errorf("visualization = %+v, want empty-state table", report.Visualization)
	}
}

func TestAnalyze_NilResultSet(t *testing.T) {
	report := Analyze(nil)
	if report.Visualization.Kind != VizTable {
		t.Errorf("Kind = %s, want table", report.Visualization.Kind)
	}
}

func TestAnalyze_CorrelationAcrossNumericColumns(t *testing.T) {
	rs := NewResultSet([]string{"ad_spend", "conversions"})
	rs.AppendRow([]any{float64(10), float64(30)})
	rs.AppendRow([]any{float64(20), float64(20)})
	rs.AppendRow([]any{float64(30), float64(10)})

	report := Analyze(rs)
	if len(report.Correlations) == 0 {
		t.Fatal("expected correlation entries")
	}

	var cross *CorrelationEntry
	for i := range report.Correlations {
		e := &report.Correlations[i]
		if e.ColumnA != e.ColumnB {
			cross = e
		}
		if e.ColumnA == e.ColumnB && e.R != 1 {
			t.Errorf("r(%s,%s) = %v, want 1", e.ColumnA, e.ColumnB, e.R)
		}
	}
	if cross == nil {
		t.Fatal("missing cross-column entry")
	}
	if math.Abs(cross.R-(-1)) > 1e-12 {
		t.Errorf("r = %v, want -1", cross.R)
	}
}

func TestAnalyze_TwoDateColumnsSkipTrend(t *testing.T) {
	rs := NewResultSet([]string{"start_date", "end_date", "amount"})
	rs.AppendRow([]any{"2024-01-01", "2024-02-01", float64(10)})
	rs.AppendRow([]any{"2024-02-01", "2024-03-01", float64(20)})

	report := Analyze(rs)
	if len(report.Trends) != 0 {
		t.Errorf("got %d trends, want 0 with an ambiguous time axis", len(report.Trends))
	}
}

func TestAnalyze_MixedJunkDegradesQuietly(t *testing.T) {
	rs := NewResultSet([]string{"thing", "note"})
	rs.AppendRow([]any{"a", nil})
	rs.AppendRow([]any{nil, "b"})
	rs.AppendRow([]any{struct{}{}, []byte("bytes")})

	report := Analyze(rs)
	if report.RowCount != 3 {
		t.Errorf("RowCount = %d, want 3", report.RowCount)
	}
	if len(report.Stats) != 0 {
		t.Errorf("stats = %+v, want none for non-numeric columns", report.Stats)
	}
	if report.Visualization.Kind != VizTable {
		t.Errorf("Kind = %s, want table", report.Visualization.Kind)
	}
}

func TestAnalyze_ColumnProfilesKeepSamples(t *testing.T) {
	rs := NewResultSet([]string{"month", "total"})
	rs.AppendRow([]any{nil, nil})
	rs.AppendRow([]any{"2024-05", int64(12)})

	report := Analyze(rs)
	if len(report.Columns) != 2 {
		t.Fatalf("got %d profiles, want 2", len(report.Columns))
	}
	if report.Columns[0].Sample != "2024-05" {
		t.Errorf("sample = %q, want first non-null value", report.Columns[0].Sample)
	}
	if report.Columns[0].TagStr != "date" || report.Columns[1].TagStr != "count" {
		t.Errorf("tags = %s/%s, want date/count", report.Columns[0].TagStr, report.Columns[1].TagStr)
	}
}
