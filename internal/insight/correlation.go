package insight

import "math"

// Correlation strength bands and signs. Strength is classified on |r|;
// sign is reported independently.
const (
	StrengthStrong   = "strong"
	StrengthModerate = "moderate"
	StrengthWeak     = "weak"

	SignPositive = "positive"
	SignNegative = "negative"
)

// CorrelationEntry is one cell of the pairwise Pearson matrix.
// Entries are emitted for every unordered pair including the diagonal;
// r(A,A) is 1 by convention even when the column has zero variance.
type CorrelationEntry struct {
	ColumnA  string  `json:"column_a"`
	ColumnB  string  `json:"column_b"`
	R        float64 `json:"r"`
	Strength string  `json:"strength"`
	Sign     string  `json:"sign"`
}

// NumericColumn is a row-aligned column of floats. Non-numeric cells are
// NaN holes so that pairing by row index stays correct; PearsonR skips
// any pair with a hole on either side.
type NumericColumn struct {
	Name   string
	Values []float64
}

// Correlate computes the pairwise Pearson correlation across numeric,
// non-date columns. Fewer than 2 columns yields no entries. A pair with
// fewer than 2 complete rows is omitted entirely.
func Correlate(columns []NumericColumn) []CorrelationEntry {
	if len(columns) < 2 {
		return nil
	}

	var entries []CorrelationEntry
	for i := range columns {
		for j := i; j < len(columns); j++ {
			if i == j {
				entries = append(entries, newEntry(columns[i].Name, columns[j].Name, 1))
				continue
			}
			r, ok := PearsonR(columns[i].Values, columns[j].Values)
			if !ok {
				continue
			}
			entries = append(entries, newEntry(columns[i].Name, columns[j].Name, r))
		}
	}
	return entries
}

func newEntry(a, b string, r float64) CorrelationEntry {
	return CorrelationEntry{
		ColumnA:  a,
		ColumnB:  b,
		R:        r,
		Strength: classifyStrength(r),
		Sign:     classifySign(r),
	}
}

// PearsonR computes the Pearson correlation coefficient over the complete
// (both finite) row pairs of two aligned columns. Zero variance in either
// column defines r as 0 rather than propagating NaN. Returns ok=false
// when fewer than 2 complete pairs exist.
func PearsonR(a, b []float64) (float64, bool) {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var xs, ys []float64
	for i := 0; i < n; i++ {
		if math.IsNaN(a[i]) || math.IsInf(a[i], 0) || math.IsNaN(b[i]) || math.IsInf(b[i], 0) {
			continue
		}
		xs = append(xs, a[i])
		ys = append(ys, b[i])
	}
	if len(xs) < 2 {
		return 0, false
	}

	var sumX, sumY float64
	for i := range xs {
		sumX += xs[i]
		sumY += ys[i]
	}
	meanX := sumX / float64(len(xs))
	meanY := sumY / float64(len(ys))

	var cov, varX, varY float64
	for i := range xs {
		dx := xs[i] - meanX
		dy := ys[i] - meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}

	denom := math.Sqrt(varX * varY)
	if denom == 0 {
		return 0, true
	}
	return cov / denom, true
}

func classifyStrength(r float64) string {
	abs := math.Abs(r)
	switch {
	case abs > 0.7:
		return StrengthStrong
	case abs > 0.3:
		return StrengthModerate
	default:
		return StrengthWeak
	}
}

func classifySign(r float64) string {
	if r < 0 {
		return SignNegative
	}
	return SignPositive
}
