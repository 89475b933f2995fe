package insight

import (
	"sort"
	"strings"
)

// VizKind is the tagged variant of a visualization recommendation.
type VizKind int

const (
	VizNone VizKind = iota
	VizTable
	VizChart
	VizMap
)

// String returns the kind name used in signals and query history.
func (k VizKind) String() string {
	switch k {
	case VizTable:
		return "table"
	case VizChart:
		return "chart"
	case VizMap:
		return "map"
	default:
		return "none"
	}
}

// Chart row caps. Category-per-bar rendering degrades past ~20 rows, so
// denser results are not chartable; a chronological series can carry up
// to 50 points because lines stay readable. Past the cap the selector
// falls through to the map or table branch.
const (
	defaultRowCap      = 20
	chronologicalCap   = 50
	barChartRowCeiling = 10
	maxChartSeries     = 3
)

// mapPalette is the 6-bucket color scale for choropleths, dark base tone
// to bright accent tone. Bucket assignment is by quantile rank among the
// observed values, not by absolute scale.
var mapPalette = [6]string{
	"#0b2948", "#144b7f", "#1d6fb5", "#2f94d6", "#5fbde8", "#a5e3ff",
}

// midpointBucket is where single-value map datasets collapse.
const midpointBucket = 3

// MapDatum is one plottable region: its value and assigned color bucket.
type MapDatum struct {
	Value  float64 `json:"value"`
	Bucket int     `json:"bucket"`
	Color  string  `json:"color"`
}

// Descriptor is the visualization recommendation for one result set.
// Exactly one is produced per result set; it instructs an external
// renderer and paints nothing itself. Only the fields for the active Kind
// are populated.
type Descriptor struct {
	Kind VizKind `json:"kind"`

	// Chart fields.
	ChartType   string   `json:"chart_type,omitempty"` // "bar" or "line"
	LabelColumn string   `json:"label_column,omitempty"`
	DataColumns []string `json:"data_columns,omitempty"`

	// Map fields.
	RegionColumn string              `json:"region_column,omitempty"`
	ValueColumn  string              `json:"value_column,omitempty"`
	MapData      map[string]MapDatum `json:"map_data,omitempty"`

	// Table fields.
	EmptyMessage string `json:"empty_message,omitempty"`
}

// SelectVisualization chooses the most informative rendering for a result
// set. Precedence: chart when chartable, else map when the data is
// plottable geographically, else plain table. An empty result set yields
// a table descriptor with an explicit empty-state message.
func SelectVisualization(rs *ResultSet, tags map[string]Tag) Descriptor {
	if rs == nil || rs.RowCount() == 0 {
		return Descriptor{Kind: VizTable, EmptyMessage: "No data returned for this query."}
	}

	if d, ok := selectChart(rs, tags); ok {
		return d
	}
	if d, ok := selectMap(rs, tags); ok {
		return d
	}
	return Descriptor{Kind: VizTable}
}

// selectChart applies the chart eligibility rules: at least 2 columns,
// at least one numeric non-date data column, and a row count within the
// density cap. Label preference is a date column, then a categorical
// column, then the first column.
func selectChart(rs *ResultSet, tags map[string]Tag) (Descriptor, bool) {
	if len(rs.Columns) < 2 {
		return Descriptor{}, false
	}

	chronological := hasChronologicalSignal(rs)
	rowCap := defaultRowCap
	if chronological {
		rowCap = chronologicalCap
	}
	if rs.RowCount() > rowCap {
		return Descriptor{}, false
	}

	var dateCol, categoricalCol string
	var numericCols []string
	for _, col := range rs.Columns {
		switch {
		case tags[col] == TagDate:
			if dateCol == "" {
				dateCol = col
			}
		case tags[col] == TagCategorical:
			if categoricalCol == "" {
				categoricalCol = col
			}
		case tags[col].IsNumeric():
			numericCols = append(numericCols, col)
		}
	}
	if len(numericCols) == 0 {
		return Descriptor{}, false
	}

	// Label preference: date column, then categorical, then the first
	// column. In the last case (an all-numeric result) the remaining
	// numeric columns chart as separate series against the first,
	// capped at maxChartSeries; a real label column keeps every series.
	label := rs.Columns[0]
	labeled := true
	switch {
	case dateCol != "":
		label = dateCol
	case categoricalCol != "":
		label = categoricalCol
	default:
		labeled = false
	}

	data := make([]string, 0, len(numericCols))
	for _, col := range numericCols {
		if col != label {
			data = append(data, col)
		}
	}
	if len(data) == 0 {
		return Descriptor{}, false
	}
	if !labeled && len(data) > maxChartSeries {
		data = data[:maxChartSeries]
	}

	d := Descriptor{
		Kind:        VizChart,
		LabelColumn: label,
		DataColumns: data,
	}

	switch {
	case chronological:
		d.ChartType = "line"
	case rs.RowCount() <= barChartRowCeiling:
		d.ChartType = "bar"
	case len(data) == 1:
		d.ChartType = "line"
	default:
		d.ChartType = "bar"
	}
	return d, true
}

// hasChronologicalSignal reports whether anything in the result set looks
// time-indexed: a date-ish column name, or a first-row sample matching a
// date pattern. Deliberately looser than the classifier tag so that a
// time axis forces a line chart even when classification went elsewhere.
func hasChronologicalSignal(rs *ResultSet) bool {
	for _, col := range rs.Columns {
		if nameContainsAny(strings.ToLower(col), dateNameTokens) {
			return true
		}
	}
	if len(rs.Rows) > 0 {
		for i := range rs.Columns {
			if matchDate("", rs.Rows[0][i]) {
				return true
			}
		}
	}
	return false
}

// placeColumnNames are the exact (case-insensitive) names accepted for
// the map branch. Stricter than the classifier on purpose: a substring
// match like "state_tax" must not trigger a choropleth.
var placeColumnNames = map[string]bool{"state": true, "region": true, "province": true}

// selectMap applies the map eligibility rules: an exact place-name
// column, at least 2 distinct normalizable region values, and at least
// one other numeric column. Values that fail normalization are excluded
// from the data map and do not count toward the distinct threshold.
func selectMap(rs *ResultSet, tags map[string]Tag) (Descriptor, bool) {
	regionCol := ""
	for _, col := range rs.Columns {
		if placeColumnNames[strings.ToLower(col)] {
			regionCol = col
			break
		}
	}
	if regionCol == "" {
		return Descriptor{}, false
	}

	valueCol := ""
	for _, col := range rs.Columns {
		if col != regionCol && tags[col].IsNumeric() {
			valueCol = col
			break
		}
	}
	if valueCol == "" {
		return Descriptor{}, false
	}

	ri := rs.ColumnIndex(regionCol)
	vi := rs.ColumnIndex(valueCol)
	values := make(map[string]float64)
	for _, row := range rs.Rows {
		code, ok := NormalizeRegion(row[ri].Text())
		if !ok {
			continue
		}
		v, ok := row[vi].Float()
		if !ok {
			continue
		}
		// Later rows win on duplicate codes; grouped results are unique anyway.
		values[code] = v
	}
	if len(values) < 2 {
		return Descriptor{}, false
	}

	return Descriptor{
		Kind:         VizMap,
		RegionColumn: regionCol,
		ValueColumn:  valueCol,
		MapData:      bucketize(values),
	}, true
}

// bucketize assigns each region a quantile color bucket over the values
// actually present. Equal values share a bucket; a single-value dataset
// collapses to the midpoint bucket.
func bucketize(values map[string]float64) map[string]MapDatum {
	out := make(map[string]MapDatum, len(values))

	min, max := 0.0, 0.0
	first := true
	sorted := make([]float64, 0, len(values))
	for _, v := range values {
		sorted = append(sorted, v)
		if first || v < min {
			min = v
		}
		if first || v > max {
			max = v
		}
		first = false
	}
	sort.Float64s(sorted)

	if min == max {
		for code, v := range values {
			out[code] = MapDatum{Value: v, Bucket: midpointBucket, Color: mapPalette[midpointBucket]}
		}
		return out
	}

	n := float64(len(sorted))
	for code, v := range values {
		// Rank by count of strictly smaller values so ties share a bucket.
		rank := sort.SearchFloat64s(sorted, v)
		bucket := int(float64(rank) / n * float64(len(mapPalette)))
		if bucket >= len(mapPalette) {
			bucket = len(mapPalette) - 1
		}
		out[code] = MapDatum{Value: v, Bucket: bucket, Color: mapPalette[bucket]}
	}
	return out
}
