package insight

import (
	"math"
	"sort"
)

// Trend directions by sign majority of the period growth rates.
const (
	TrendUpward   = "upward"
	TrendDownward = "downward"
	TrendMixed    = "mixed"
)

// TrendPeriod is one period-over-period step: the label of the later
// period, the absolute change from the previous one, and the growth rate
// when it is defined. A zero previous value leaves the rate unset instead
// of producing a division artifact; the entry itself is retained for
// display.
type TrendPeriod struct {
	Label   string  `json:"label"`
	Value   float64 `json:"value"`
	Change  float64 `json:"change"`
	RatePct float64 `json:"rate_pct"`
	HasRate bool    `json:"has_rate"`
}

// TrendReport summarizes growth over a time-ordered series.
//
// The series is ordered lexicographically by the raw time label, not by
// parsed calendar position. "2024-01".."2024-12" style labels sort
// correctly; bare month names ("April" < "January") do not. This mirrors
// how the series is displayed and is a documented limitation, not a bug
// to fix here.
type TrendReport struct {
	TimeColumn     string        `json:"time_column"`
	ValueColumn    string        `json:"value_column"`
	Periods        []TrendPeriod `json:"periods"`
	First          float64       `json:"first"`
	Last           float64       `json:"last"`
	TotalChange    float64       `json:"total_change"`
	TotalGrowthPct float64       `json:"total_growth_pct"`
	AvgGrowthPct   float64       `json:"avg_growth_pct"`
	CAGRPct        float64       `json:"cagr_pct"`
	HasCAGR        bool          `json:"has_cagr"`
	Direction      string        `json:"direction"`
}

// AnalyzeTrend computes period-over-period growth for one (time, value)
// column pairing. Rows with a null time label or non-numeric value are
// dropped first; fewer than 2 surviving pairs yields ok=false.
func AnalyzeTrend(timeColumn, valueColumn string, rs *ResultSet) (TrendReport, bool) {
	ti := rs.ColumnIndex(timeColumn)
	vi := rs.ColumnIndex(valueColumn)
	if ti < 0 || vi < 0 {
		return TrendReport{}, false
	}

	type point struct {
		label string
		value float64
	}
	points := make([]point, 0, len(rs.Rows))
	for _, row := range rs.Rows {
		if row[ti].IsNull() {
			continue
		}
		v, ok := row[vi].Float()
		if !ok {
			continue
		}
		points = append(points, point{label: row[ti].Text(), value: v})
	}
	if len(points) < 2 {
		return TrendReport{}, false
	}

	sort.SliceStable(points, func(i, j int) bool {
		return points[i].label < points[j].label
	})

	report := TrendReport{
		TimeColumn:  timeColumn,
		ValueColumn: valueColumn,
		First:       points[0].value,
		Last:        points[len(points)-1].value,
	}

	var rateSum float64
	var rateCount, ups, downs int
	for i := 1; i < len(points); i++ {
		prev, curr := points[i-1].value, points[i].value
		p := TrendPeriod{
			Label:  points[i].label,
			Value:  curr,
			Change: curr - prev,
		}
		if prev != 0 {
			p.RatePct = (curr - prev) / prev * 100
			p.HasRate = true
			rateSum += p.RatePct
			rateCount++
			if p.RatePct > 0 {
				ups++
			} else if p.RatePct < 0 {
				downs++
			}
		}
		report.Periods = append(report.Periods, p)
	}

	report.TotalChange = report.Last - report.First
	if report.First != 0 {
		report.TotalGrowthPct = (report.Last - report.First) / report.First * 100
	}
	if rateCount > 0 {
		report.AvgGrowthPct = rateSum / float64(rateCount)
	}

	// CAGR needs strictly positive endpoints; fractional powers of
	// non-positive bases are not meaningful here.
	if report.First > 0 && report.Last > 0 {
		periods := float64(len(points) - 1)
		report.CAGRPct = (math.Pow(report.Last/report.First, 1/periods) - 1) * 100
		report.HasCAGR = true
	}

	switch {
	case ups > downs:
		report.Direction = TrendUpward
	case downs > ups:
		report.Direction = TrendDownward
	default:
		report.Direction = TrendMixed
	}

	return report, true
}
