package common

import (
	"fmt"
	"html/template"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/leapstack-labs/querychat/internal/insight"
)

var seriesColors = []string{"#2f94d6", "#e8843c", "#59b56b"}

// BuildResultView turns an analysis report into view models for the
// result templates.
func BuildResultView(report insight.Report, rs *insight.ResultSet, durationMS int64, truncated bool) *ResultView {
	view := &ResultView{
		Kind:         report.Visualization.Kind.String(),
		EmptyMessage: report.Visualization.EmptyMessage,
		RowCount:     report.RowCount,
		DurationMS:   durationMS,
		Insights:     buildInsightView(report),
	}

	switch report.Visualization.Kind {
	case insight.VizChart:
		view.Chart = buildChartView(report, rs)
		view.Table = buildTableView(report, rs, truncated)
	case insight.VizMap:
		view.Map = buildMapView(report.Visualization)
		view.Table = buildTableView(report, rs, truncated)
	default:
		view.Table = buildTableView(report, rs, truncated)
	}
	return view
}

func buildTableView(report insight.Report, rs *insight.ResultSet, truncated bool) *TableView {
	return &TableView{
		Headers:   rs.Columns,
		Rows:      insight.FormatResultSet(rs, report.Tags()),
		Truncated: truncated,
	}
}

func buildInsightView(report insight.Report) InsightView {
	var view InsightView
	for _, cs := range report.Stats {
		view.Stats = append(view.Stats, StatView{
			Column: cs.Column,
			Mean:   fmtNum(cs.Summary.Mean),
			Median: fmtNum(cs.Summary.Median),
			StdDev: fmtNum(cs.Summary.StdDev),
			Min:    fmtNum(cs.Summary.Min),
			Max:    fmtNum(cs.Summary.Max),
		})
	}
	for _, c := range report.Correlations {
		if c.ColumnA == c.ColumnB {
			continue
		}
		view.Correlations = append(view.Correlations,
			fmt.Sprintf("%s and %s: %s %s (r=%s)", c.ColumnA, c.ColumnB, c.Strength, c.Sign, fmtNum(c.R)))
	}
	for _, tr := range report.Trends {
		line := fmt.Sprintf("%s is %s: %+.1f%% overall", tr.ValueColumn, tr.Direction, tr.TotalGrowthPct)
		if tr.HasCAGR {
			line += fmt.Sprintf(" (%.1f%% per period)", tr.CAGRPct)
		}
		view.Trends = append(view.Trends, line)
	}
	return view
}

func buildMapView(d insight.Descriptor) *MapView {
	codes := make([]string, 0, len(d.MapData))
	for code := range d.MapData {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	view := &MapView{ValueColumn: d.ValueColumn}
	for _, code := range codes {
		datum := d.MapData[code]
		view.Regions = append(view.Regions, MapRegion{
			Code:  code,
			Value: fmtNum(datum.Value),
			Color: datum.Color,
		})
	}
	return view
}

func buildChartView(report insight.Report, rs *insight.ResultSet) *ChartView {
	d := report.Visualization
	labels := make([]string, rs.RowCount())
	for i := range labels {
		labels[i] = rs.Cell(i, d.LabelColumn).Text()
	}

	series := make([]chartSeries, 0, len(d.DataColumns))
	for si, name := range d.DataColumns {
		if rs.ColumnIndex(name) < 0 {
			continue
		}
		values := make([]float64, rs.RowCount())
		for i := range values {
			if v, ok := rs.Cell(i, name).Float(); ok {
				values[i] = v
			}
		}
		series = append(series, chartSeries{
			Name:   name,
			Color:  seriesColors[si%len(seriesColors)],
			Values: values,
		})
	}

	var svg string
	if d.ChartType == "line" {
		svg = lineChartSVG(labels, series)
	} else {
		svg = barChartSVG(labels, series)
	}
	return &ChartView{
		Type:  d.ChartType,
		Title: strings.Join(d.DataColumns, ", ") + " by " + d.LabelColumn,
		SVG:   template.HTML(svg),
	}
}

type chartSeries struct {
	Name   string
	Color  string
	Values []float64
}

const (
	chartWidth  = 640.0
	chartHeight = 280.0
	chartPad    = 42.0
)

func chartRange(series []chartSeries) (min, max float64) {
	min, max = math.Inf(1), math.Inf(-1)
	for _, s := range series {
		for _, v := range s.Values {
			min = math.Min(min, v)
			max = math.Max(max, v)
		}
	}
	if math.IsInf(min, 1) {
		return 0, 1
	}
	if min > 0 {
		min = 0 // bars and lines read better anchored at zero
	}
	if min == max {
		max = min + 1
	}
	return min, max
}

func scaleY(v, min, max float64) float64 {
	h := chartHeight - 2*chartPad
	return chartHeight - chartPad - (v-min)/(max-min)*h
}

// lineChartSVG renders one polyline per series over an x axis of evenly
// spaced points.
func lineChartSVG(labels []string, series []chartSeries) string {
	n := len(labels)
	if n == 0 || len(series) == 0 {
		return ""
	}
	min, max := chartRange(series)

	var b strings.Builder
	openSVG(&b)
	drawAxes(&b, min, max)

	plotW := chartWidth - 2*chartPad
	step := 0.0
	if n > 1 {
		step = plotW / float64(n-1)
	}
	for _, s := range series {
		var points []string
		for i, v := range s.Values {
			x := chartPad + float64(i)*step
			points = append(points, fmt.Sprintf("%.1f,%.1f", x, scaleY(v, min, max)))
		}
		fmt.Fprintf(&b, `<polyline fill="none" stroke="%s" stroke-width="2" points="%s"/>`,
			s.Color, strings.Join(points, " "))
	}

	drawXLabels(&b, labels)
	b.WriteString("</svg>")
	return b.String()
}

// barChartSVG renders grouped vertical bars, one group per label.
func barChartSVG(labels []string, series []chartSeries) string {
	n := len(labels)
	if n == 0 || len(series) == 0 {
		return ""
	}
	min, max := chartRange(series)

	var b strings.Builder
	openSVG(&b)
	drawAxes(&b, min, max)

	plotW := chartWidth - 2*chartPad
	groupW := plotW / float64(n)
	barW := groupW * 0.8 / float64(len(series))
	baseY := scaleY(0, min, max)

	for gi := range labels {
		groupX := chartPad + float64(gi)*groupW + groupW*0.1
		for si, s := range series {
			v := s.Values[gi]
			y := scaleY(v, min, max)
			top, h := y, baseY-y
			if h < 0 {
				top, h = baseY, -h
			}
			fmt.Fprintf(&b, `<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s"/>`,
				groupX+float64(si)*barW, top, barW, h, s.Color)
		}
	}

	drawXLabels(&b, labels)
	b.WriteString("</svg>")
	return b.String()
}

func openSVG(b *strings.Builder) {
	fmt.Fprintf(b, `<svg viewBox="0 0 %.0f %.0f" xmlns="http://www.w3.org/2000/svg" role="img">`,
		chartWidth, chartHeight)
}

func drawAxes(b *strings.Builder, min, max float64) {
	fmt.Fprintf(b, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="#445" stroke-width="1"/>`,
		chartPad, chartHeight-chartPad, chartWidth-chartPad, chartHeight-chartPad)
	fmt.Fprintf(b, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="#445" stroke-width="1"/>`,
		chartPad, chartPad, chartPad, chartHeight-chartPad)
	fmt.Fprintf(b, `<text x="%.1f" y="%.1f" font-size="10" text-anchor="end" fill="#889">%s</text>`,
		chartPad-6, chartPad+4, fmtNum(max))
	fmt.Fprintf(b, `<text x="%.1f" y="%.1f" font-size="10" text-anchor="end" fill="#889">%s</text>`,
		chartPad-6, chartHeight-chartPad+4, fmtNum(min))
}

// drawXLabels writes the first and last label only; intermediate labels
// crowd at chart sizes this small.
func drawXLabels(b *strings.Builder, labels []string) {
	fmt.Fprintf(b, `<text x="%.1f" y="%.1f" font-size="10" text-anchor="start" fill="#889">%s</text>`,
		chartPad, chartHeight-chartPad+16, template.HTMLEscapeString(labels[0]))
	if len(labels) > 1 {
		fmt.Fprintf(b, `<text x="%.1f" y="%.1f" font-size="10" text-anchor="end" fill="#889">%s</text>`,
			chartWidth-chartPad, chartHeight-chartPad+16, template.HTMLEscapeString(labels[len(labels)-1]))
	}
}

func fmtNum(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}
