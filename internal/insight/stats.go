package insight

import (
	"math"
	"sort"
)

// StatSummary holds descriptive statistics for one numeric column.
// Quartiles use the lower-quartile index convention (floor(n*0.25) /
// floor(n*0.75)), not interpolation. Mode is advisory: values are rounded
// to 2 decimal places before counting and frequency ties resolve to the
// earliest value seen.
type StatSummary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Mode   float64 `json:"mode"`
	StdDev float64 `json:"stddev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Range  float64 `json:"range"`
	Q1     float64 `json:"q1"`
	Q3     float64 `json:"q3"`
	IQR    float64 `json:"iqr"`
}

// Summarize computes a StatSummary over the finite values of one column.
// Returns ok=false for an empty value set; callers skip the column.
func Summarize(values []float64) (StatSummary, bool) {
	finite := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			finite = append(finite, v)
		}
	}
	if len(finite) == 0 {
		return StatSummary{}, false
	}

	sorted := make([]float64, len(finite))
	copy(sorted, finite)
	sort.Float64s(sorted)
	n := len(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}
	mean := sum / float64(n)

	var sqDiff float64
	for _, v := range sorted {
		d := v - mean
		sqDiff += d * d
	}
	// Population standard deviation.
	stddev := math.Sqrt(sqDiff / float64(n))

	var median float64
	if n%2 == 0 {
		median = (sorted[n/2-1] + sorted[n/2]) / 2
	} else {
		median = sorted[n/2]
	}

	q1 := sorted[int(math.Floor(float64(n)*0.25))]
	q3 := sorted[int(math.Floor(float64(n)*0.75))]

	s := StatSummary{
		Count:  n,
		Mean:   mean,
		Median: median,
		Mode:   mode(finite),
		StdDev: stddev,
		Min:    sorted[0],
		Max:    sorted[n-1],
		Range:  sorted[n-1] - sorted[0],
		Q1:     q1,
		Q3:     q3,
		IQR:    q3 - q1,
	}
	return s, true
}

// mode returns the most frequent value after rounding to 2 decimal places.
// Ties resolve to the value that appeared first in the input sequence.
func mode(values []float64) float64 {
	type entry struct {
		count int
		first int
	}
	freq := make(map[float64]*entry, len(values))
	for i, v := range values {
		r := math.Round(v*100) / 100
		if e, ok := freq[r]; ok {
			e.count++
		} else {
			freq[r] = &entry{count: 1, first: i}
		}
	}

	var best float64
	bestCount, bestFirst := 0, len(values)
	for v, e := range freq {
		if e.count > bestCount || (e.count == bestCount && e.first < bestFirst) {
			best, bestCount, bestFirst = v, e.count, e.first
		}
	}
	return best
}
