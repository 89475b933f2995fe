package insight

import (
	"math"
	"testing"
)

func TestSummarize_Basic(t *testing.T) {
	s, ok := Summarize([]float64{3, 1, 5, 2, 4})
	if !ok {
		t.Fatal("expected a summary")
	}

	if s.Count != 5 {
		t.Errorf("Count = %d, want 5", s.Count)
	}
	if s.Mean != 3 {
		t.Errorf("Mean = %v, want 3", s.Mean)
	}
	if s.Median != 3 {
		t.Errorf("Median = %v, want 3", s.Median)
	}
	if s.Min != 1 || s.Max != 5 || s.Range != 4 {
		t.Errorf("Min/Max/Range = %v/%v/%v, want 1/5/4", s.Min, s.Max, s.Range)
	}
	// Lower-quartile convention: q1 = sorted[floor(5*0.25)] = sorted[1].
	if s.Q1 != 2 || s.Q3 != 4 || s.IQR != 2 {
		t.Errorf("Q1/Q3/IQR = %v/%v/%v, want 2/4/2", s.Q1, s.Q3, s.IQR)
	}
	want := math.Sqrt(2)
	if math.Abs(s.StdDev-want) > 1e-12 {
		t.Errorf("StdDev = %v, want %v", s.StdDev, want)
	}
}

func TestSummarize_EvenLengthMedian(t *testing.T) {
	s, ok := Summarize([]float64{1, 2, 3, 4})
	if !ok {
		t.Fatal("expected a summary")
	}
	if s.Median != 2.5 {
		t.Errorf("Median = %v, want 2.5", s.Median)
	}
}

func TestSummarize_QuartileOrdering(t *testing.T) {
	cases := [][]float64{
		{1},
		{1, 2},
		{5, 5, 5},
		{-3, 0, 7, 7, 12, 40},
		{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9},
	}
	for _, values := range cases {
		s, ok := Summarize(values)
		if !ok {
			t.Fatalf("Summarize(%v): expected a summary", values)
		}
		if !(s.Min <= s.Q1 && s.Q1 <= s.Median && s.Median <= s.Q3 && s.Q3 <= s.Max) {
			t.Errorf("Summarize(%v): ordering violated: min=%v q1=%v median=%v q3=%v max=%v",
				values, s.Min, s.Q1, s.Median, s.Q3, s.Max)
		}
	}
}

func TestSummarize_Mode(t *testing.T) {
	s, _ := Summarize([]float64{1, 2, 2, 3})
	if s.Mode != 2 {
		t.Errorf("Mode = %v, want 2", s.Mode)
	}

	// Rounding to 2 decimals merges near-equal values.
	s, _ = Summarize([]float64{1.001, 1.004, 7})
	if s.Mode != 1 {
		t.Errorf("Mode = %v, want 1 (1.001 and 1.004 both round to 1.00)", s.Mode)
	}

	// Exact ties resolve to the first value seen.
	s, _ = Summarize([]float64{5, 1, 1, 5})
	if s.Mode != 5 {
		t.Errorf("Mode = %v, want 5 (first of the tied values)", s.Mode)
	}
}

func TestSummarize_FiltersNonFinite(t *testing.T) {
	s, ok := Summarize([]float64{1, math.NaN(), 3, math.Inf(1)})
	if !ok {
		t.Fatal("expected a summary")
	}
	if s.Count != 2 {
		t.Errorf("Count = %d, want 2 (non-finite excluded)", s.Count)
	}
	if s.Mean != 2 {
		t.Errorf("Mean = %v, want 2", s.Mean)
	}
}

func TestSummarize_Empty(t *testing.T) {
	if _, ok := Summarize(nil); ok {
		t.Error("expected no summary for empty input")
	}
	if _, ok := Summarize([]float64{math.NaN()}); ok {
		t.Error("expected no summary when nothing is finite")
	}
}
