package insight

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// printer groups digits the en-US way (1,234,567.89). message.Printer is
// safe for concurrent use.
var printer = message.NewPrinter(language.AmericanEnglish)

// FormatCell renders one cell for table display according to its column's
// classifier tag. Dates pass through unchanged; counts are grouped
// integers; currency carries a dollar sign and exactly 2 decimals; other
// numbers group with 0-2 decimals depending on integrality. Null renders
// empty, and non-finite numbers never reach the output.
func FormatCell(tag Tag, v Value) string {
	if v.IsNull() {
		return ""
	}
	if tag == TagDate {
		return v.Text()
	}
	if v.Kind == KindNumber && (math.IsNaN(v.Num) || math.IsInf(v.Num, 0)) {
		return ""
	}

	f, ok := v.Float()
	if !ok {
		// Non-numeric value under a numeric tag: show it as-is rather
		// than guessing.
		return v.Text()
	}

	switch tag {
	case TagCount:
		return printer.Sprintf("%d", int64(math.Round(f)))
	case TagCurrency:
		return printer.Sprintf("$%.2f", f)
	default:
		if f == math.Trunc(f) {
			return printer.Sprintf("%d", int64(f))
		}
		return printer.Sprintf("%.2f", f)
	}
}

// FormatRow renders every cell of a row using the per-column tags,
// preserving column order.
func FormatRow(rs *ResultSet, tags map[string]Tag, row int) []string {
	if row < 0 || row >= len(rs.Rows) {
		return nil
	}
	out := make([]string, len(rs.Columns))
	for i, col := range rs.Columns {
		out[i] = FormatCell(tags[col], rs.Rows[row][i])
	}
	return out
}

// FormatResultSet renders all rows for table display.
func FormatResultSet(rs *ResultSet, tags map[string]Tag) [][]string {
	out := make([][]string, 0, len(rs.Rows))
	for i := range rs.Rows {
		out = append(out, FormatRow(rs, tags, i))
	}
	return out
}
