package insight

import (
	"regexp"
	"strings"
)

// Tag labels what a column holds, derived from its name and first non-null
// sample value. The same tag drives formatting, statistics eligibility and
// visualization selection, so it is computed once per result set.
type Tag int

const (
	TagCategorical Tag = iota
	TagDate
	TagCount
	TagCurrency
	TagNumeric
)

// String returns the tag name used in signals and logs.
func (t Tag) String() string {
	switch t {
	case TagDate:
		return "date"
	case TagCount:
		return "count"
	case TagCurrency:
		return "currency"
	case TagNumeric:
		return "numeric"
	default:
		return "categorical"
	}
}

// IsNumeric reports whether values under this tag are treated as numbers
// for statistics, correlation and charting. Dates are excluded even when
// they parse as numbers (e.g. bare years).
func (t Tag) IsNumeric() bool {
	return t == TagCount || t == TagCurrency || t == TagNumeric
}

// classifierRule pairs a tag with its predicate. Rules are evaluated in
// order, first match wins; the ordering resolves the usual ambiguity that
// "total" and "sales" can denote either a count or a monetary figure.
type classifierRule struct {
	Tag   Tag
	Match func(name string, sample Value) bool
}

// classifierRules is the precedence table. Keep it ordered: date beats
// count beats currency beats generic numeric; categorical is the default
// when nothing matches.
var classifierRules = []classifierRule{
	{TagDate, matchDate},
	{TagCount, matchCount},
	{TagCurrency, matchCurrency},
	{TagNumeric, matchNumeric},
}

// Classify labels a column from its name and a sample value. It is a pure
// function: the same (name, sample) pair always yields the same tag.
func Classify(name string, sample Value) Tag {
	for _, r := range classifierRules {
		if r.Match(name, sample) {
			return r.Tag
		}
	}
	return TagCategorical
}

// ClassifyColumns classifies every column of a result set using its first
// non-null sample. All-null columns classify as categorical.
func ClassifyColumns(rs *ResultSet) map[string]Tag {
	tags := make(map[string]Tag, len(rs.Columns))
	for _, col := range rs.Columns {
		tags[col] = Classify(col, rs.Sample(col))
	}
	return tags
}

var (
	dateNameTokens = []string{
		"year", "month", "day", "date", "quarter", "qtr", "week", "time", "period",
	}

	monthPrefixes = []string{
		"january", "february", "march", "april", "may", "june", "july",
		"august", "september", "october", "november", "december",
		"jan", "feb", "mar", "apr", "jun", "jul", "aug", "sep", "oct", "nov", "dec",
	}

	isoMonthRe   = regexp.MustCompile(`^\d{4}-\d{2}$`)
	isoDateRe    = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	usDateRe     = regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{4}$`)
	slashDateRe  = regexp.MustCompile(`^\d{4}/\d{1,2}/\d{1,2}$`)
	quarterRe    = regexp.MustCompile(`(?i)^q[1-4]\b`)
	quarterWord  = regexp.MustCompile(`(?i)^quarter\s*[1-4]$`)
	bareYearRe   = regexp.MustCompile(`^\d{4}$`)
	currencyName = []string{
		"total_amount", "total_revenue", "total_price", "total_cost",
		"amount", "price", "cost", "subtotal", "dollar",
	}
)

func nameContainsAny(name string, tokens []string) bool {
	for _, t := range tokens {
		if strings.Contains(name, t) {
			return true
		}
	}
	return false
}

func matchDate(name string, sample Value) bool {
	lower := strings.ToLower(name)
	if nameContainsAny(lower, dateNameTokens) {
		return true
	}

	// A 4-digit integer in a plausible year range reads as a year even
	// without a date-ish column name.
	if f, ok := sample.Float(); ok && sample.IsInteger() && f >= 1900 && f <= 2100 {
		if sample.Kind == KindNumber || bareYearRe.MatchString(strings.TrimSpace(sample.Str)) {
			return true
		}
	}

	if sample.Kind != KindString {
		return false
	}
	s := strings.TrimSpace(sample.Str)
	if isoMonthRe.MatchString(s) || isoDateRe.MatchString(s) ||
		usDateRe.MatchString(s) || slashDateRe.MatchString(s) {
		return true
	}
	if quarterRe.MatchString(s) || quarterWord.MatchString(s) {
		return true
	}
	lowerSample := strings.ToLower(s)
	for _, m := range monthPrefixes {
		if strings.HasPrefix(lowerSample, m) {
			return true
		}
	}
	return false
}

func matchCount(name string, sample Value) bool {
	lower := strings.ToLower(name)
	if nameContainsAny(lower, []string{"count", "number", "num", "quantity", "qty"}) {
		return true
	}
	// Bare "total" is a count only while the magnitude still looks like one.
	if lower == "total" || lower == "total_count" {
		if f, ok := sample.Float(); ok && sample.IsInteger() && f < 1_000_000 {
			return true
		}
	}
	return false
}

func matchCurrency(name string, sample Value) bool {
	lower := strings.ToLower(name)
	if strings.Contains(lower, "revenue") {
		return true
	}
	if strings.Contains(lower, "sales") {
		for _, t := range []string{"revenue", "amount", "value", "dollar"} {
			if strings.Contains(lower, t) {
				return true
			}
		}
	}
	if nameContainsAny(lower, currencyName) {
		return true
	}
	if strings.Contains(lower, "value") && !strings.Contains(lower, "count") {
		return true
	}
	// "total_sales" is money only when the sample cannot be a unit count.
	if strings.Contains(lower, "total_sales") {
		if f, ok := sample.Float(); ok && (!sample.IsInteger() || f >= 1_000_000) {
			return true
		}
	}
	return false
}

func matchNumeric(_ string, sample Value) bool {
	_, ok := sample.Float()
	return ok
}
