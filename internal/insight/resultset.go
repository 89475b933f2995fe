// Package insight analyzes schema-less tabular query results.
//
// Given a result set whose column names and value shapes are unknown ahead
// of time (the rows come from AI-generated SQL), the package classifies
// columns, computes descriptive statistics, pairwise correlation and
// period-over-period trends, and recommends a visualization. Everything is
// a pure transform over in-memory values: no I/O, no errors for malformed
// data, safe for concurrent use across independent result sets.
package insight

import (
	"math"
	"strconv"
	"strings"
)

// Kind discriminates the closed scalar variant a cell may hold.
type Kind int

const (
	KindNull Kind = iota
	KindNumber
	KindString
)

// Value is a single cell. Only numbers, strings and nulls are modeled;
// anything else is coerced to null by FromAny.
type Value struct {
	Kind Kind
	Num  float64
	Str  string
}

// Null is the zero Value.
var Null = Value{}

// Number returns a numeric Value.
func Number(f float64) Value { return Value{Kind: KindNumber, Num: f} }

// String returns a string Value.
func String(s string) Value { return Value{Kind: KindString, Str: s} }

// FromAny converts a database/sql scan result into a Value.
// Unsupported shapes collapse to null rather than erroring.
func FromAny(v any) Value {
	switch x := v.(type) {
	case nil:
		return Null
	case float64:
		return Number(x)
	case float32:
		return Number(float64(x))
	case int:
		return Number(float64(x))
	case int32:
		return Number(float64(x))
	case int64:
		return Number(float64(x))
	case uint64:
		return Number(float64(x))
	case bool:
		if x {
			return Number(1)
		}
		return Number(0)
	case string:
		return String(x)
	case []byte:
		return String(string(x))
	default:
		return Null
	}
}

// IsNull reports whether the value is null.
func (v Value) IsNull() bool { return v.Kind == KindNull }

// Float returns the value as a finite float64. Numeric strings count:
// "1234" and "12.5" parse, "$12" does not.
func (v Value) Float() (float64, bool) {
	switch v.Kind {
	case KindNumber:
		if math.IsNaN(v.Num) || math.IsInf(v.Num, 0) {
			return 0, false
		}
		return v.Num, true
	case KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// IsInteger reports whether the value is numeric with no fractional part.
func (v Value) IsInteger() bool {
	f, ok := v.Float()
	return ok && f == math.Trunc(f)
}

// Text returns the display string for the value. Null renders empty.
func (v Value) Text() string {
	switch v.Kind {
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case KindString:
		return v.Str
	default:
		return ""
	}
}

// ResultSet is the row-major output of one executed query. Column order is
// the insertion order of the first row and is canonical for every row.
// A ResultSet is never mutated by the analysis functions.
type ResultSet struct {
	Columns []string
	Rows    [][]Value
}

// NewResultSet creates an empty result set with the given column order.
func NewResultSet(columns []string) *ResultSet {
	return &ResultSet{Columns: columns}
}

// AppendRow adds one row of raw scan results. Short rows are padded with
// nulls, extra cells are dropped, so every stored row matches Columns.
func (rs *ResultSet) AppendRow(raw []any) {
	row := make([]Value, len(rs.Columns))
	for i := range rs.Columns {
		if i < len(raw) {
			row[i] = FromAny(raw[i])
		}
	}
	rs.Rows = append(rs.Rows, row)
}

// RowCount returns the number of rows.
func (rs *ResultSet) RowCount() int { return len(rs.Rows) }

// ColumnIndex returns the position of the named column, or -1.
// Names are case-sensitive: differently-cased duplicates are distinct.
func (rs *ResultSet) ColumnIndex(name string) int {
	for i, c := range rs.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Cell returns the value at (row, column name). Missing columns and
// out-of-range rows read as null.
func (rs *ResultSet) Cell(row int, name string) Value {
	i := rs.ColumnIndex(name)
	if i < 0 || row < 0 || row >= len(rs.Rows) {
		return Null
	}
	return rs.Rows[row][i]
}

// Sample returns the first non-null value of the named column.
func (rs *ResultSet) Sample(name string) Value {
	i := rs.ColumnIndex(name)
	if i < 0 {
		return Null
	}
	for _, row := range rs.Rows {
		if !row[i].IsNull() {
			return row[i]
		}
	}
	return Null
}

// NumericValues returns the finite numeric values of the named column,
// in row order. Non-numeric and null cells are dropped.
func (rs *ResultSet) NumericValues(name string) []float64 {
	i := rs.ColumnIndex(name)
	if i < 0 {
		return nil
	}
	out := make([]float64, 0, len(rs.Rows))
	for _, row := range rs.Rows {
		if f, ok := row[i].Float(); ok {
			out = append(out, f)
		}
	}
	return out
}

// alignedValues returns the named column as row-aligned float64s with NaN
// holes for non-numeric cells. Used where row pairing matters (correlation).
func (rs *ResultSet) alignedValues(name string) []float64 {
	i := rs.ColumnIndex(name)
	if i < 0 {
		return nil
	}
	out := make([]float64, len(rs.Rows))
	for r, row := range rs.Rows {
		if f, ok := row[i].Float(); ok {
			out[r] = f
		} else {
			out[r] = math.NaN()
		}
	}
	return out
}
